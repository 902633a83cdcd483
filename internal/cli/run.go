package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fhirlake-labs/fhirsql/internal/engine"
)

func newRunCommand() *cobra.Command {
	var (
		resource    string
		table       string
		environment string
	)

	cmd := &cobra.Command{
		Use:   "run <expression>",
		Short: "Compile an expression and execute it against the configured target",
		Long: `Compile a FHIRPath expression for the configured target's dialect and
execute it, printing the result rows.

Examples:
  fhirsql run "Patient.name.family" --resource Patient
  fhirsql run "Observation.valueQuantity.value" -r Observation -e prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			renderer := getRenderer(cmd.Context())
			logger := getLogger(cmd.Context())

			target, err := cfg.SelectTarget(environment)
			if err != nil {
				return err
			}
			if resource == "" {
				resource = cfg.DefaultResource
			}
			if table == "" {
				table = cfg.TableFor(resource)
			}

			eng, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			result, err := eng.Compile(args[0], resource, table, target.Type)
			if err != nil {
				return err
			}

			runner, err := engine.NewRunner(target)
			if err != nil {
				return err
			}
			defer func() { _ = runner.Close() }()

			logger.Debug("executing compiled statement", "dialect", result.Dialect, "table", result.Table)
			res, err := runner.Execute(cmd.Context(), result.SQL)
			if err != nil {
				return fmt.Errorf("run %q: %w", args[0], err)
			}

			header := make([]string, len(res.Columns))
			copy(header, res.Columns)
			if err := renderer.Table(header, res.Rows); err != nil {
				return err
			}
			renderer.Muted("%d row(s) in %s (run %s)", len(res.Rows), res.Duration.Round(time.Millisecond), res.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&resource, "resource", "r", "", "FHIR resource type the expression is anchored on")
	cmd.Flags().StringVar(&table, "table", "", "Source table (default: lowercased resource type)")
	cmd.Flags().StringVarP(&environment, "env", "e", "", "Environment whose target to run against")

	return cmd
}
