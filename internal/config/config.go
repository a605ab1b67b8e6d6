// Package config loads the configuration tree that declares every secret
// requirement per environment.
//
// The tree layout:
//
//	<root>/environments/values-<env>.yaml     environment document
//	<root>/applications/<app>/values.yaml     application defaults
//	<root>/applications/<app>/values-<env>.yaml
//	<root>/applications/<app>/secrets.yaml    secret declarations
//	<root>/applications/<app>/secrets-<env>.yaml
package config

import (
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/secrets"
)

// Config holds the runtime state shared by all commands.
type Config struct {
	// Root is the configuration tree directory.
	Root string

	Debug   bool
	NoColor bool

	Logger *logging.Logger
}

// EnvironmentConfig mirrors the typed keys of an environment document.
// Application enablement lives in the same document as free-form mappings
// and is scanned separately.
type EnvironmentConfig struct {
	Environment     string       `yaml:"environment"`
	VaultURL        string       `yaml:"vaultUrl"`
	VaultPathPrefix string       `yaml:"vaultPathPrefix"`
	SecretStore     *StoreConfig `yaml:"secretStore"`
}

// StoreConfig selects and configures a secret store backend. Backend
// specific settings are carried inline.
type StoreConfig struct {
	Type     string                 `yaml:"type"`
	Settings map[string]interface{} `yaml:",inline"`
}

// GetString returns a string setting, or "" when absent or not a string.
func (c *StoreConfig) GetString(key string) string {
	if c == nil {
		return ""
	}
	if s, ok := c.Settings[key].(string); ok {
		return s
	}
	return ""
}

// Environment is the fully loaded view of one environment: connection
// details for its store plus every secret requirement with conditions
// already evaluated.
type Environment struct {
	Name            string
	VaultURL        string
	VaultPathPrefix string

	// Store is nil when the environment uses the default Vault backend.
	Store *StoreConfig

	// Applications lists the enabled applications, sorted.
	Applications []string

	// Requirements holds every secret requirement across applications,
	// sorted by (application, key).
	Requirements []secrets.Requirement
}
