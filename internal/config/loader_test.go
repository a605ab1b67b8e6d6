package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/secrets"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestLoader(t *testing.T, root string) *Loader {
	t.Helper()
	return NewLoader(root, logging.New(false, true))
}

func requirementsByName(reqs []secrets.Requirement) map[string]secrets.Requirement {
	byName := make(map[string]secrets.Requirement, len(reqs))
	for _, req := range reqs {
		byName[req.Name()] = req
	}
	return byName
}

func TestLoadEnvironment(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "environments", "values-production.yaml"), `
environment: production
vaultUrl: https://vault.example.com
vaultPathPrefix: secret/ops/production
nublado:
  enabled: true
gafaelfawr:
  enabled: true
postgres:
  enabled: false
`)
	writeFile(t, filepath.Join(root, "applications", "gafaelfawr", "values.yaml"), `
config:
  databaseUrl: postgresql://example
cloudsql:
  enabled: false
`)
	writeFile(t, filepath.Join(root, "applications", "gafaelfawr", "values-production.yaml"), `
cloudsql:
  enabled: true
`)
	writeFile(t, filepath.Join(root, "applications", "gafaelfawr", "secrets.yaml"), `
database-password:
  description: Password for the UI database.
  generate:
    type: password
session-secret:
  description: Encryption key for session cookies.
  generate:
    type: fernet-key
cloudsql-credentials:
  description: Service account key for Cloud SQL.
  if: cloudsql.enabled
slack-webhook:
  description: Incoming webhook for alerts.
`)
	writeFile(t, filepath.Join(root, "applications", "nublado", "secrets.yaml"), `
database-password:
  description: Copy of the UI database password.
  copy:
    application: gafaelfawr
    key: database-password
`)

	env, err := newTestLoader(t, root).LoadEnvironment("production")
	require.NoError(t, err)

	assert.Equal(t, "production", env.Name)
	assert.Equal(t, "https://vault.example.com", env.VaultURL)
	assert.Equal(t, "secret/ops/production", env.VaultPathPrefix)
	assert.Nil(t, env.Store)
	assert.Equal(t, []string{"gafaelfawr", "nublado"}, env.Applications)

	var names []string
	for _, req := range env.Requirements {
		names = append(names, req.Name())
	}
	assert.Equal(t, []string{
		"gafaelfawr/cloudsql-credentials",
		"gafaelfawr/database-password",
		"gafaelfawr/session-secret",
		"gafaelfawr/slack-webhook",
		"nublado/database-password",
	}, names)

	byName := requirementsByName(env.Requirements)
	assert.Equal(t, secrets.StrategyGenerate, byName["gafaelfawr/database-password"].Strategy())
	assert.Equal(t, secrets.GeneratePassword, byName["gafaelfawr/database-password"].Generate.Type)
	assert.Equal(t, secrets.StrategyPlain, byName["gafaelfawr/slack-webhook"].Strategy())
	assert.Equal(t, secrets.StrategyCopy, byName["nublado/database-password"].Strategy())
	assert.Equal(t, "gafaelfawr", byName["nublado/database-password"].Copy.Application)
	assert.Equal(t, "Password for the UI database.", byName["gafaelfawr/database-password"].Description)
}

func TestLoadEnvironmentUnknown(t *testing.T) {
	t.Parallel()

	_, err := newTestLoader(t, t.TempDir()).LoadEnvironment("missing")

	var userErr vaultopserrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Message, `environment "missing" is not configured`)
}

func TestLoadEnvironmentNameMismatch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), `
environment: production
vaultUrl: https://vault.example.com
vaultPathPrefix: secret/ops/dev
`)

	_, err := newTestLoader(t, root).LoadEnvironment("dev")

	var configErr vaultopserrors.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "environment", configErr.Field)
	assert.Equal(t, "production", configErr.Value)
}

func TestLoadEnvironmentVaultFieldsRequired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{
			name:      "missing vaultUrl",
			doc:       "environment: dev\nvaultPathPrefix: secret/ops/dev\n",
			wantField: "vaultUrl",
		},
		{
			name:      "missing vaultPathPrefix",
			doc:       "environment: dev\nvaultUrl: https://vault.example.com\n",
			wantField: "vaultPathPrefix",
		},
		{
			name:      "store without type",
			doc:       "environment: dev\nsecretStore:\n  path: /tmp\n",
			wantField: "secretStore.type",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), tt.doc)

			_, err := newTestLoader(t, root).LoadEnvironment("dev")

			var configErr vaultopserrors.ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tt.wantField, configErr.Field)
		})
	}
}

func TestLoadEnvironmentSecretStore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), `
environment: dev
secretStore:
  type: file
  path: /var/run/secrets
`)

	env, err := newTestLoader(t, root).LoadEnvironment("dev")
	require.NoError(t, err)

	require.NotNil(t, env.Store)
	assert.Equal(t, "file", env.Store.Type)
	assert.Equal(t, "/var/run/secrets", env.Store.GetString("path"))
	assert.Empty(t, env.Store.GetString("absent"))
	assert.Empty(t, env.Applications)
	assert.Empty(t, env.Requirements)
}

func TestLoadEnvironmentSecretsOverride(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), `
environment: dev
vaultUrl: https://vault.example.com
vaultPathPrefix: secret/ops/dev
app:
  enabled: true
`)
	writeFile(t, filepath.Join(root, "applications", "app", "secrets.yaml"), `
token:
  description: Generated everywhere else.
  generate:
    type: password
extra:
  description: Only declared in the base file.
`)
	writeFile(t, filepath.Join(root, "applications", "app", "secrets-dev.yaml"), `
token:
  description: Pinned in dev.
  value: pinned-token
`)

	env, err := newTestLoader(t, root).LoadEnvironment("dev")
	require.NoError(t, err)

	byName := requirementsByName(env.Requirements)
	require.Len(t, env.Requirements, 2)

	// The environment file replaces the whole declaration, not single
	// fields.
	token := byName["app/token"]
	assert.Equal(t, secrets.StrategyStatic, token.Strategy())
	assert.Nil(t, token.Generate)
	assert.Equal(t, "pinned-token", token.Value.Reveal())
	assert.Equal(t, "Pinned in dev.", token.Description)

	assert.Equal(t, secrets.StrategyPlain, byName["app/extra"].Strategy())
}

func TestLoadEnvironmentConditions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), `
environment: dev
vaultUrl: https://vault.example.com
vaultPathPrefix: secret/ops/dev
app:
  enabled: true
`)
	writeFile(t, filepath.Join(root, "applications", "app", "values.yaml"), `
shared:
  enabled: false
ldap:
  enabled: true
`)
	writeFile(t, filepath.Join(root, "applications", "app", "secrets.yaml"), `
excluded:
  description: Only needed when shared mode is on.
  if: shared.enabled
password:
  description: Copied only in shared mode, otherwise operator provided.
  copy:
    application: other
    key: password
    if: shared.enabled
ldap-password:
  description: Generated only when LDAP is on.
  generate:
    type: password
    if: ldap.enabled
`)

	env, err := newTestLoader(t, root).LoadEnvironment("dev")
	require.NoError(t, err)

	byName := requirementsByName(env.Requirements)
	require.Len(t, env.Requirements, 2)

	assert.NotContains(t, byName, "app/excluded")
	assert.Equal(t, secrets.StrategyPlain, byName["app/password"].Strategy())
	assert.Equal(t, secrets.StrategyGenerate, byName["app/ldap-password"].Strategy())
}

func TestLoadEnvironmentCopyGenerateConflict(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), `
environment: dev
vaultUrl: https://vault.example.com
vaultPathPrefix: secret/ops/dev
app:
  enabled: true
`)
	writeFile(t, filepath.Join(root, "applications", "app", "secrets.yaml"), `
token:
  description: Conflicting rules.
  copy:
    application: other
    key: token
  generate:
    type: password
`)

	_, err := newTestLoader(t, root).LoadEnvironment("dev")

	var configErr vaultopserrors.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "Copy and generate rules conflict", configErr.Message)
	assert.Equal(t, "token", configErr.Field)
	assert.Contains(t, configErr.File, filepath.Join("applications", "app", "secrets.yaml"))
}

func TestLoadEnvironmentGenerateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		generate string
		wantMsg  string
	}{
		{
			name:     "derived without source",
			generate: "    type: bcrypt-password-hash\n",
			wantMsg:  "requires a source secret",
		},
		{
			name:     "independent with source",
			generate: "    type: uuid\n    source: other\n",
			wantMsg:  "does not take a source secret",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), `
environment: dev
vaultUrl: https://vault.example.com
vaultPathPrefix: secret/ops/dev
app:
  enabled: true
`)
			writeFile(t, filepath.Join(root, "applications", "app", "secrets.yaml"),
				"token:\n  description: A token.\n  generate:\n"+tt.generate)

			_, err := newTestLoader(t, root).LoadEnvironment("dev")

			var configErr vaultopserrors.ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Contains(t, configErr.Message, tt.wantMsg)
		})
	}
}

func TestLoadEnvironmentAggregatesApplicationErrors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), `
environment: dev
vaultUrl: https://vault.example.com
vaultPathPrefix: secret/ops/dev
first:
  enabled: true
second:
  enabled: true
`)
	writeFile(t, filepath.Join(root, "applications", "first", "secrets.yaml"), `
token:
  generate:
    type: password
`)
	writeFile(t, filepath.Join(root, "applications", "second", "secrets.yaml"), `
token:
  description: A token.
  unexpected: field
`)

	_, err := newTestLoader(t, root).LoadEnvironment("dev")

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
}

func TestLoadEnvironmentEmptyValueStaysPlain(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), `
environment: dev
vaultUrl: https://vault.example.com
vaultPathPrefix: secret/ops/dev
app:
  enabled: true
`)
	writeFile(t, filepath.Join(root, "applications", "app", "secrets.yaml"), `
stub:
  description: Placeholder with empty value.
  value: ""
nulled:
  description: Placeholder with null value.
  value: null
`)

	env, err := newTestLoader(t, root).LoadEnvironment("dev")
	require.NoError(t, err)

	for _, req := range env.Requirements {
		assert.Equal(t, secrets.StrategyPlain, req.Strategy(), req.Name())
		assert.False(t, req.Value.IsSet())
	}
}

func TestLoadEnvironmentApplicationWithoutFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "environments", "values-dev.yaml"), `
environment: dev
vaultUrl: https://vault.example.com
vaultPathPrefix: secret/ops/dev
bare:
  enabled: true
`)

	env, err := newTestLoader(t, root).LoadEnvironment("dev")
	require.NoError(t, err)

	assert.Equal(t, []string{"bare"}, env.Applications)
	assert.Empty(t, env.Requirements)
}

func TestMergeValues(t *testing.T) {
	t.Parallel()

	base := map[string]interface{}{
		"config": map[string]interface{}{"a": 1, "b": 2},
		"kept":   "yes",
	}
	overrides := map[string]interface{}{
		"config": map[string]interface{}{"b": 3},
		"extra":  true,
	}

	merged := mergeValues(base, overrides)

	nested, ok := merged["config"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1, nested["a"])
	assert.Equal(t, 3, nested["b"])
	assert.Equal(t, "yes", merged["kept"])
	assert.Equal(t, true, merged["extra"])

	// The inputs stay untouched.
	assert.Equal(t, 2, base["config"].(map[string]interface{})["b"])
	assert.NotContains(t, base, "extra")

	assert.NotNil(t, mergeValues(nil, nil))
}
