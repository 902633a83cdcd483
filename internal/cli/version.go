package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderer := getRenderer(cmd.Context())
			if renderer.JSON() {
				return renderer.Object(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
					"commit":     GitCommit,
					"go":         runtime.Version(),
				})
			}
			renderer.Raw("fhirsql " + Version)
			renderer.Muted("build date: %s", BuildDate)
			renderer.Muted("commit:     %s", GitCommit)
			renderer.Muted("go:         %s", runtime.Version())
			return nil
		},
	}
}
