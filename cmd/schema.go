package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/CMClay/metalsmith-concat/pkg/config"
	"github.com/CMClay/metalsmith-concat/pkg/version"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration file",
		Long: `Print a JSON schema for concat.yaml, usable for editor completion and
validation of the configuration file.`,
		Example: `  concat schema
  concat schema --output concat.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := configSchema()
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("failed to write schema file: %w", err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "JSON schema written to %s\n", output)
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// configSchema reflects config.Config using its YAML field names.
func configSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "concat configuration"
	schema.Description = fmt.Sprintf("Configuration file of %s (%s)", version.AppName, config.DefaultConfigName)

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}
	return data, nil
}
