// Package overlay fills operator-provided values into secret requirements
// before resolution. Only plain requirements are eligible: a secret with a
// configured value, copy rule, or generate rule already knows where its
// value comes from.
package overlay

import (
	"fmt"

	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/secrets"
)

// Source supplies values for plain secrets. Lookup returns an unset Value
// when the source has nothing for the secret.
type Source interface {
	Name() string
	Lookup(application, key string) (secrets.Value, error)
}

// Apply fills plain requirements from the sources in order; the first
// source holding a value wins. A filled value becomes the requirement's
// static value, so it takes priority over the store during resolution.
// The input slice is not modified.
func Apply(requirements []secrets.Requirement, logger *logging.Logger, sources ...Source) ([]secrets.Requirement, error) {
	if len(sources) == 0 {
		return requirements, nil
	}

	out := make([]secrets.Requirement, len(requirements))
	copy(out, requirements)

	filled := 0
	for i := range out {
		if out[i].Strategy() != secrets.StrategyPlain {
			continue
		}
		for _, source := range sources {
			value, err := source.Lookup(out[i].Application, out[i].Key)
			if err != nil {
				return nil, fmt.Errorf("looking up %s in %s: %w", out[i].Name(), source.Name(), err)
			}
			if !value.IsSet() {
				continue
			}
			out[i].Value = value
			filled++
			logger.Debug("filled %s from %s", out[i].Name(), source.Name())
			break
		}
	}

	logger.Debug("overlays filled %d of %d requirements", filled, len(out))
	return out, nil
}
