package cli

import (
	"github.com/spf13/cobra"

	"github.com/fhirlake-labs/fhirsql/pkg/dialect"
)

func newDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List registered SQL dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderer := getRenderer(cmd.Context())

			names := dialect.List()
			rows := make([][]any, 0, len(names))
			for _, name := range names {
				rows = append(rows, []any{name})
			}
			return renderer.Table([]string{"dialect"}, rows)
		},
	}
}
