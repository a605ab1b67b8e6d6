package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/vaultops/internal/config"
	"github.com/systmms/vaultops/internal/template"
)

func NewTemplateCommand(cfg *config.Config) *cobra.Command {
	var (
		envName    string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Generate a static-secrets template",
		Long: `Generate a YAML template for an environment's static secrets.

The template lists every plain stored secret with a null value and its
description. Operators fill in the values and feed the file back through
'vaultops audit --static-secrets'.

Examples:
  # Print the template for idfdev
  vaultops template --environment idfdev

  # Write it next to the environment config
  vaultops template -e idfdev -o static-secrets.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cfg, envName)
			if err != nil {
				return err
			}

			rendered, err := template.Static(env.Requirements)
			if err != nil {
				return err
			}

			if outputFile == "" {
				fmt.Print(string(rendered))
				return nil
			}
			if err := os.WriteFile(outputFile, rendered, 0o644); err != nil {
				return fmt.Errorf("writing template: %w", err)
			}
			cfg.Logger.Info("wrote static secrets template to %s", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "environment", "e", "", "Environment to template")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}
