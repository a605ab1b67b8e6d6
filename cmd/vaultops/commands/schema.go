package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/vaultops/internal/config"
)

func NewSchemaCommand(cfg *config.Config) *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the secrets file JSON schema",
		Long: `Print the JSON schema that secrets.yaml files are validated against.

Editors and CI pipelines can point at the emitted schema to validate
secret declarations before vaultops loads them.

Examples:
  # Print to stdout
  vaultops schema

  # Refresh the checked-in copy
  vaultops schema -o docs/schemas/secrets.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rendered := config.SecretsSchema()

			if outputFile == "" {
				fmt.Print(string(rendered))
				return nil
			}
			if err := os.WriteFile(outputFile, rendered, 0o644); err != nil {
				return fmt.Errorf("writing schema: %w", err)
			}
			cfg.Logger.Info("wrote secrets schema to %s", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}
