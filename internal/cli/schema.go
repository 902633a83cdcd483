package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fhirlake-labs/fhirsql/pkg/schema"
)

func newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [resource]",
		Short: "Show known resource types and their element metadata",
		Long: `Without arguments, list the resource types the compiler has element
metadata for. With a resource type, list that resource's declared elements
with their cardinality and type.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())
			renderer := getRenderer(cmd.Context())

			provider, err := buildProviderMaps(cfgSchemaFiles(cfg.SchemaFile)...)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				resources := make(map[string]struct{})
				for _, p := range provider {
					for _, name := range p.Resources() {
						resources[name] = struct{}{}
					}
				}
				names := make([]string, 0, len(resources))
				for name := range resources {
					names = append(names, name)
				}
				sort.Strings(names)

				rows := make([][]any, 0, len(names))
				for _, name := range names {
					rows = append(rows, []any{name})
				}
				return renderer.Table([]string{"resource"}, rows)
			}

			resource := schema.NormalizeResource(args[0])
			elements := map[string]schema.ElementInfo{}
			// later providers are lower priority; first hit wins
			for i := len(provider) - 1; i >= 0; i-- {
				for path, info := range provider[i].Elements(resource) {
					elements[path] = info
				}
			}
			if len(elements) == 0 {
				return fmt.Errorf("no element metadata for resource %q", resource)
			}

			paths := make([]string, 0, len(elements))
			for path := range elements {
				paths = append(paths, path)
			}
			sort.Strings(paths)

			rows := make([][]any, 0, len(paths))
			for _, path := range paths {
				info := elements[path]
				cardinality := "0..1"
				if info.Array {
					cardinality = "0..*"
				}
				rows = append(rows, []any{path, cardinality, info.Type})
			}
			return renderer.Table([]string{"path", "cardinality", "type"}, rows)
		},
	}
	return cmd
}

func cfgSchemaFiles(schemaFile string) []string {
	if schemaFile == "" {
		return nil
	}
	return []string{schemaFile}
}

// buildProviderMaps returns the provider layers in priority order: any
// user-supplied schema files first, then the built-in R4 subset.
func buildProviderMaps(files ...string) ([]*schema.MapProvider, error) {
	providers := make([]*schema.MapProvider, 0, len(files)+1)
	for _, f := range files {
		p, err := schema.LoadFile(f)
		if err != nil {
			return nil, fmt.Errorf("load schema file %s: %w", f, err)
		}
		providers = append(providers, p)
	}
	return append(providers, schema.R4()), nil
}
