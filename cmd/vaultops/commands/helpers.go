package commands

import (
	"context"
	"fmt"

	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/overlay"
	"github.com/systmms/vaultops/internal/stores"
	"github.com/systmms/vaultops/pkg/secrets"
	"github.com/systmms/vaultops/pkg/store"
)

// loadEnvironment validates the environment flag and loads the named
// environment from the configuration tree.
func loadEnvironment(cfg *config.Config, envName string) (*config.Environment, error) {
	if envName == "" {
		return nil, vaultopserrors.UserError{
			Message:    "Environment name is required",
			Suggestion: "Use --environment <name> to specify an environment",
		}
	}
	return config.NewLoader(cfg.Root, cfg.Logger).LoadEnvironment(envName)
}

// snapshotStore connects to the environment's secret store and reads every
// enabled application's bucket.
func snapshotStore(ctx context.Context, cfg *config.Config, env *config.Environment) (secrets.Snapshot, error) {
	client, err := stores.NewRegistry().ClientFor(env, cfg.Logger)
	if err != nil {
		return nil, err
	}
	if err := client.Validate(ctx); err != nil {
		return nil, err
	}
	return store.SnapshotEnvironment(ctx, client, env.Applications, 0)
}

// applyOverlays folds the optional local value sources into the
// requirements before resolution. Flags left empty contribute nothing.
func applyOverlays(requirements []secrets.Requirement, cfg *config.Config, staticFile, keyringPrefix string) ([]secrets.Requirement, error) {
	var sources []overlay.Source
	if staticFile != "" {
		file, err := overlay.LoadStaticFile(staticFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, file)
	}
	if keyringPrefix != "" {
		sources = append(sources, overlay.NewKeyring(keyringPrefix))
	}
	return overlay.Apply(requirements, cfg.Logger, sources...)
}

// stuckDetail describes the unresolved dependency of a stuck requirement.
func stuckDetail(req secrets.Requirement) string {
	switch {
	case req.Copy != nil:
		return fmt.Sprintf("copies %s/%s", req.Copy.Application, req.Copy.Key)
	case req.Generate != nil && req.Generate.Derived():
		return fmt.Sprintf("derives from %s/%s", req.Application, req.Generate.Source)
	default:
		return "has no value source"
	}
}
