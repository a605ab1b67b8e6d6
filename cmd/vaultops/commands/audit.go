package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/vaultops/internal/audit"
	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/resolve"
	"github.com/systmms/vaultops/pkg/secrets"
)

func NewAuditCommand(cfg *config.Config) *cobra.Command {
	var (
		envName       string
		staticSecrets string
		keyringPrefix string
		metricsFile   string
		strict        bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Compare required secrets against the store",
		Long: `Audit an environment's secret store.

This command loads every secret requirement for the environment, reads the
store, resolves copy and generate rules, and prints the differences:
secrets the store is missing, secrets whose stored value is incorrect, and
stored secrets no application declares. An empty report means the store is
in sync.

Secret values never appear in the report, only application and key names.

Examples:
  # Audit the production store
  vaultops audit --environment production

  # Fill static secrets from an operator-maintained file first
  vaultops audit -e production --static-secrets secrets.yaml

  # Fail the pipeline when anything is out of sync
  vaultops audit -e production --strict

  # Leave metrics for the Prometheus node exporter
  vaultops audit -e production --metrics-file /var/lib/metrics/vaultops.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cfg, envName)
			if err != nil {
				return err
			}

			ctx := context.Background()
			snapshot, err := snapshotStore(ctx, cfg, env)
			if err != nil {
				return err
			}

			requirements, err := applyOverlays(env.Requirements, cfg, staticSecrets, keyringPrefix)
			if err != nil {
				return err
			}

			resolved, err := resolve.Resolve(requirements, snapshot)
			if err != nil {
				var unresolved *secrets.UnresolvedError
				if errors.As(err, &unresolved) {
					for _, req := range unresolved.Dangling() {
						cfg.Logger.Error("%s %s, which no application declares", req.Name(), stuckDetail(req))
					}
					for _, req := range unresolved.Cyclic() {
						cfg.Logger.Error("%s %s and is stuck in a dependency cycle", req.Name(), stuckDetail(req))
					}
				}
				return err
			}

			report := audit.Compare(resolved, snapshot)
			fmt.Print(report.Render())

			if metricsFile != "" {
				if err := audit.WriteMetrics(metricsFile, env.Name, report, len(requirements)); err != nil {
					return err
				}
				cfg.Logger.Debug("wrote audit metrics to %s", metricsFile)
			}

			if strict && report.Findings() {
				return vaultopserrors.UserError{
					Message:    fmt.Sprintf("Secrets for environment '%s' are out of sync", env.Name),
					Suggestion: "Review the report above and update the store",
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "environment", "e", "", "Environment to audit")
	cmd.Flags().StringVar(&staticSecrets, "static-secrets", "", "YAML file with operator-provided static values")
	cmd.Flags().StringVar(&keyringPrefix, "keyring", "", "OS keyring service prefix for local overrides")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the report has findings")

	return cmd
}
