// Package stores implements the secret store backends and the registry
// that builds them from environment configuration.
package stores

import (
	"fmt"
	"sort"
	"strings"

	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/store"
)

// Factory builds a store client for an environment.
type Factory func(env *config.Environment, logger *logging.Logger) (store.Client, error)

// Registry maps secretStore types to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with every built-in backend registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.Register("vault", func(env *config.Environment, logger *logging.Logger) (store.Client, error) {
		return NewVaultStore(env, logger)
	})
	r.Register("file", func(env *config.Environment, logger *logging.Logger) (store.Client, error) {
		return NewFileStore(env, logger)
	})
	r.Register("aws.secretsmanager", func(env *config.Environment, logger *logging.Logger) (store.Client, error) {
		return NewSecretsManagerStore(env, logger)
	})
	r.Register("aws.ssm", func(env *config.Environment, logger *logging.Logger) (store.Client, error) {
		return NewSSMStore(env, logger)
	})
	r.Register("gcp.secretmanager", func(env *config.Environment, logger *logging.Logger) (store.Client, error) {
		return NewGCPSecretManagerStore(env, logger)
	})
	r.Register("azure.keyvault", func(env *config.Environment, logger *logging.Logger) (store.Client, error) {
		return NewAzureKeyVaultStore(env, logger)
	})

	return r
}

// Register adds or replaces the factory for a store type.
func (r *Registry) Register(storeType string, factory Factory) {
	r.factories[storeType] = factory
}

// ClientFor builds the store client an environment asks for. An
// environment without a secretStore block uses the Vault backend.
func (r *Registry) ClientFor(env *config.Environment, logger *logging.Logger) (store.Client, error) {
	storeType := "vault"
	if env.Store != nil {
		storeType = env.Store.Type
	}

	factory, ok := r.factories[storeType]
	if !ok {
		return nil, vaultopserrors.ConfigError{
			Field:      "secretStore.type",
			Value:      storeType,
			Message:    "unknown store type",
			Suggestion: fmt.Sprintf("Supported types: %s", strings.Join(r.SupportedTypes(), ", ")),
		}
	}
	return factory(env, logger)
}

// SupportedTypes returns the registered store types, sorted.
func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for storeType := range r.factories {
		types = append(types, storeType)
	}
	sort.Strings(types)
	return types
}

// IsSupported reports whether a store type has a factory.
func (r *Registry) IsSupported(storeType string) bool {
	_, ok := r.factories[storeType]
	return ok
}
