package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/vaultops/internal/config"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	var envName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every secret an environment requires",
		Long: `List the secret requirements of an environment.

One line per secret: the owning application, the key, and how the value is
obtained (stored, static, copied, or generated). Values are never printed.

Examples:
  # Inventory the production secrets
  vaultops list --environment production`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cfg, envName)
			if err != nil {
				return err
			}

			// Requirements arrive sorted by application then key.
			for _, req := range env.Requirements {
				fmt.Printf("%s %s (%s)\n", req.Application, req.Key, req.Describe())
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "environment", "e", "", "Environment to list")

	return cmd
}
