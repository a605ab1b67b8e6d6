package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/template"
)

func NewExportCommand(cfg *config.Config) *cobra.Command {
	var (
		envName   string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the store contents to JSON files",
		Long: `Export an environment's secret store for backup.

Each enabled application gets one <application>.json file in the output
directory holding its key/value pairs. The files contain plaintext secret
values, so the directory is created mode 0700 and the files mode 0600;
treat them accordingly. A directory written this way can serve as a 'file'
type secret store.

Examples:
  # Back up the production store
  vaultops export --environment production --output /secure/backup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				return vaultopserrors.UserError{
					Message:    "Output directory is required",
					Suggestion: "Use --output <dir> to say where the export should go",
				}
			}

			env, err := loadEnvironment(cfg, envName)
			if err != nil {
				return err
			}

			ctx := context.Background()
			snapshot, err := snapshotStore(ctx, cfg, env)
			if err != nil {
				return err
			}

			if err := template.WriteSnapshot(outputDir, snapshot); err != nil {
				return err
			}

			cfg.Logger.Info("exported %d applications to %s", len(snapshot.Applications()), outputDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "environment", "e", "", "Environment to export")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the per-application JSON files")

	return cmd
}
