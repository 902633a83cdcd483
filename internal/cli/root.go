// Package cli provides the command-line interface for fhirsql.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fhirlake-labs/fhirsql/internal/cli/output"
	"github.com/fhirlake-labs/fhirsql/internal/config"
	"github.com/fhirlake-labs/fhirsql/internal/engine"
	"github.com/fhirlake-labs/fhirsql/pkg/schema"

	// Register the built-in dialects.
	_ "github.com/fhirlake-labs/fhirsql/pkg/dialects/duckdb"
	_ "github.com/fhirlake-labs/fhirsql/pkg/dialects/postgres"
	_ "github.com/fhirlake-labs/fhirsql/pkg/dialects/snowflake"
	_ "github.com/fhirlake-labs/fhirsql/pkg/dialects/sqlite"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// loggerKey is used to store logger in context.
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fhirsql",
		Short: "fhirsql - FHIRPath to SQL compiler",
		Long: `fhirsql compiles FHIRPath expressions into analytical SQL.

Expressions are lowered into a chain of common table expressions that
evaluate the path for every resource in a table at once, with JSON arrays
expanded through lateral joins instead of per-resource loops.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)

			mode := output.Mode(cfg.OutputFormat)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			ctx = context.WithValue(ctx, rendererKey{}, renderer)

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./fhirsql.yaml)")
	rootCmd.PersistentFlags().String("schema-file", "", "YAML file with extra element metadata")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newCompileCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newDialectsCommand())
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	c := &config.Config{}
	c.ApplyDefaults()
	return c
}

// getRenderer retrieves the renderer from the command context.
func getRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// getLogger retrieves the logger from the command context.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// newEngine creates an engine from the current configuration, layering any
// configured schema file over the built-in R4 definitions.
func newEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Config{Provider: provider, Logger: getLogger(ctx)}), nil
}

func buildProvider(cfg *config.Config) (schema.Provider, error) {
	if cfg.SchemaFile == "" {
		return schema.R4(), nil
	}
	custom, err := schema.LoadFile(cfg.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("load schema file %s: %w", cfg.SchemaFile, err)
	}
	return schema.NewComposite(custom, schema.R4()), nil
}
