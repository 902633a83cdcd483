package cli

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/fhirlake-labs/fhirsql/internal/cli/output"
	"github.com/fhirlake-labs/fhirsql/internal/engine"
	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
)

func newCompileCommand() *cobra.Command {
	var (
		resource string
		table    string
		dialects []string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "compile <expression>",
		Short: "Compile a FHIRPath expression to SQL",
		Long: `Compile a FHIRPath expression into one SQL statement per dialect.

Examples:
  fhirsql compile "Patient.name.given" --resource Patient
  fhirsql compile "Observation.value as Quantity" -r Observation -d postgres
  fhirsql compile "Patient.birthDate" -d duckdb -d snowflake --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			renderer := getRenderer(cmd.Context())
			logger := getLogger(cmd.Context())

			if resource == "" {
				resource = cfg.DefaultResource
			}
			if table == "" {
				table = cfg.TableFor(resource)
			}

			dialects, err := resolveDialects(dialects)
			if err != nil {
				return err
			}
			eng, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			expression := args[0]
			if !watch {
				return compileOnce(eng, renderer, expression, resource, table, dialects)
			}

			// watch mode: recompile whenever the schema file changes
			if cfg.SchemaFile == "" {
				return fmt.Errorf("--watch requires a schema file (set schema_file or --schema-file)")
			}
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer func() { _ = watcher.Close() }()
			if err := watcher.Add(cfg.SchemaFile); err != nil {
				return fmt.Errorf("watch %s: %w", cfg.SchemaFile, err)
			}

			if err := compileOnce(eng, renderer, expression, resource, table, dialects); err != nil {
				renderer.Error("%v", err)
			}
			renderer.Muted("Watching %s for changes (Ctrl-C to stop)", cfg.SchemaFile)

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
						continue
					}
					logger.Debug("schema file changed", "file", event.Name)
					// rebuild the provider so schema edits take effect
					eng, err = newEngine(cmd.Context(), cfg)
					if err != nil {
						renderer.Error("%v", err)
						continue
					}
					if err := compileOnce(eng, renderer, expression, resource, table, dialects); err != nil {
						renderer.Error("%v", err)
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					renderer.Error("watch: %v", err)
				}
			}
		},
	}

	cmd.Flags().StringVarP(&resource, "resource", "r", "", "FHIR resource type the expression is anchored on")
	cmd.Flags().StringVar(&table, "table", "", "Source table (default: lowercased resource type)")
	cmd.Flags().StringSliceVarP(&dialects, "dialect", "d", nil, "Target dialect(s) (default: all registered)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Recompile when the schema file changes")

	_ = cmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dialect.List(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func compileOnce(eng *engine.Engine, renderer *output.Renderer, expression, resource, table string, dialects []string) error {
	results, err := eng.CompileAll(expression, resource, table, dialects)
	if err != nil {
		return err
	}

	if renderer.JSON() {
		type compiled struct {
			Dialect    string `json:"dialect"`
			Expression string `json:"expression"`
			Resource   string `json:"resource"`
			Table      string `json:"table"`
			SQL        string `json:"sql"`
			CTECount   int    `json:"cte_count"`
		}
		out := make([]compiled, 0, len(results))
		for _, res := range results {
			out = append(out, compiled{
				Dialect:    res.Dialect,
				Expression: res.Expression,
				Resource:   res.ResourceType,
				Table:      res.Table,
				SQL:        res.SQL,
				CTECount:   len(res.CTEs),
			})
		}
		return renderer.Object(out)
	}

	for i, res := range results {
		if i > 0 {
			renderer.Raw("")
		}
		renderer.Title(fmt.Sprintf("-- %s (%d CTEs)", res.Dialect, len(res.CTEs)))
		renderer.Raw(res.SQL)
	}
	return nil
}

// resolveDialects expands an empty selection to every registered dialect and
// validates explicit names early so errors point at the flag, not the engine.
func resolveDialects(names []string) ([]string, error) {
	if len(names) == 0 {
		return dialect.List(), nil
	}
	for _, name := range names {
		if _, ok := dialect.Get(strings.ToLower(name)); !ok {
			return nil, &dialect.UnknownDialectError{Name: name, Available: dialect.List()}
		}
	}
	return names, nil
}
