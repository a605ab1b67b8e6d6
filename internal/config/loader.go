package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/secrets"
)

// Loader reads a configuration tree and produces fully evaluated
// environments.
type Loader struct {
	root   string
	logger *logging.Logger
	conds  *conditionCache
}

// NewLoader returns a Loader rooted at the given configuration tree.
func NewLoader(root string, logger *logging.Logger) *Loader {
	return &Loader{
		root:   root,
		logger: logger,
		conds:  newConditionCache(),
	}
}

// secretConfig mirrors one secret declaration in a secrets file.
type secretConfig struct {
	Description string          `yaml:"description"`
	If          string          `yaml:"if"`
	Value       *string         `yaml:"value"`
	Copy        *copyConfig     `yaml:"copy"`
	Generate    *generateConfig `yaml:"generate"`
}

type copyConfig struct {
	Application string `yaml:"application"`
	Key         string `yaml:"key"`
	If          string `yaml:"if"`
}

type generateConfig struct {
	Type   string `yaml:"type"`
	Source string `yaml:"source"`
	If     string `yaml:"if"`
}

// declaredSecret tracks which file a declaration came from so that errors
// point at the right one after environment overrides.
type declaredSecret struct {
	config secretConfig
	file   string
}

// LoadEnvironment loads one environment: its store connection details,
// the enabled applications, and every secret requirement with conditions
// already evaluated. Errors from independent applications are aggregated
// so a broken secrets file in one application does not hide problems in
// another.
func (l *Loader) LoadEnvironment(name string) (*Environment, error) {
	envCfg, applications, err := l.loadEnvironmentConfig(name)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		Name:            name,
		VaultURL:        envCfg.VaultURL,
		VaultPathPrefix: envCfg.VaultPathPrefix,
		Store:           envCfg.SecretStore,
		Applications:    applications,
	}

	var errs *multierror.Error
	for _, app := range applications {
		requirements, err := l.loadApplication(app, name)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		env.Requirements = append(env.Requirements, requirements...)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	sort.Slice(env.Requirements, func(i, j int) bool {
		a, b := env.Requirements[i], env.Requirements[j]
		if a.Application != b.Application {
			return a.Application < b.Application
		}
		return a.Key < b.Key
	})

	l.logger.Debug("environment %s: %d applications, %d secret requirements",
		name, len(env.Applications), len(env.Requirements))
	return env, nil
}

// loadEnvironmentConfig reads environments/values-<name>.yaml and scans it
// for enabled applications. Any top-level mapping with a truthy "enabled"
// key names an application.
func (l *Loader) loadEnvironmentConfig(name string) (*EnvironmentConfig, []string, error) {
	path := filepath.Join(l.root, "environments", fmt.Sprintf("values-%s.yaml", name))
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, vaultopserrors.UserError{
			Message:    fmt.Sprintf("environment %q is not configured", name),
			Details:    fmt.Sprintf("expected %s", path),
			Suggestion: "Check the environment name and the --root directory",
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg EnvironmentConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Environment != name {
		return nil, nil, vaultopserrors.ConfigError{
			File:       path,
			Field:      "environment",
			Value:      cfg.Environment,
			Message:    "must match the environment name in the file name",
			Suggestion: fmt.Sprintf("Set environment: %s", name),
		}
	}
	if cfg.SecretStore == nil {
		if cfg.VaultURL == "" {
			return nil, nil, vaultopserrors.ConfigError{
				File:       path,
				Field:      "vaultUrl",
				Message:    "required when no secretStore is configured",
				Suggestion: "Set vaultUrl, or select another backend with a secretStore block",
			}
		}
		if cfg.VaultPathPrefix == "" {
			return nil, nil, vaultopserrors.ConfigError{
				File:       path,
				Field:      "vaultPathPrefix",
				Message:    "required when no secretStore is configured",
				Suggestion: "Set vaultPathPrefix, or select another backend with a secretStore block",
			}
		}
	} else if cfg.SecretStore.Type == "" {
		return nil, nil, vaultopserrors.ConfigError{
			File:       path,
			Field:      "secretStore.type",
			Message:    "store type is required",
			Suggestion: "Set secretStore.type to one of the registered store backends",
		}
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	var applications []string
	for key, value := range doc {
		section, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		enabled, ok := section["enabled"]
		if !ok {
			continue
		}
		if truthy(enabled) {
			applications = append(applications, key)
		}
	}
	sort.Strings(applications)

	return &cfg, applications, nil
}

// loadApplication loads one application's values and secret declarations
// and evaluates all conditions against the merged values.
func (l *Loader) loadApplication(app, env string) ([]secrets.Requirement, error) {
	dir := filepath.Join(l.root, "applications", app)

	values, err := l.loadValues(dir, env)
	if err != nil {
		return nil, err
	}
	declared, err := l.loadSecrets(dir, env)
	if err != nil {
		return nil, err
	}

	var requirements []secrets.Requirement
	for key, decl := range declared {
		req, keep, err := l.evaluateSecret(app, key, decl, values)
		if err != nil {
			return nil, err
		}
		if keep {
			requirements = append(requirements, req)
		}
	}

	l.logger.Debug("application %s: %d of %d declared secrets required",
		app, len(requirements), len(declared))
	return requirements, nil
}

// loadValues merges values.yaml with values-<env>.yaml, the environment
// overriding the base key by key, nested mappings recursively.
func (l *Loader) loadValues(dir, env string) (map[string]interface{}, error) {
	base, err := decodeValuesFile(filepath.Join(dir, "values.yaml"))
	if err != nil {
		return nil, err
	}
	overrides, err := decodeValuesFile(filepath.Join(dir, fmt.Sprintf("values-%s.yaml", env)))
	if err != nil {
		return nil, err
	}
	return mergeValues(base, overrides), nil
}

// loadSecrets merges secrets.yaml with secrets-<env>.yaml. Environment
// declarations replace base declarations wholesale per key.
func (l *Loader) loadSecrets(dir, env string) (map[string]declaredSecret, error) {
	declared := make(map[string]declaredSecret)

	basePath := filepath.Join(dir, "secrets.yaml")
	base, err := l.readSecretsFile(basePath)
	if err != nil {
		return nil, err
	}
	for key, cfg := range base {
		declared[key] = declaredSecret{config: cfg, file: basePath}
	}

	envPath := filepath.Join(dir, fmt.Sprintf("secrets-%s.yaml", env))
	overrides, err := l.readSecretsFile(envPath)
	if err != nil {
		return nil, err
	}
	for key, cfg := range overrides {
		declared[key] = declaredSecret{config: cfg, file: envPath}
	}

	return declared, nil
}

// readSecretsFile decodes one secrets file, validating it against the
// embedded schema first. A missing file is an empty declaration set.
func (l *Loader) readSecretsFile(path string) (map[string]secretConfig, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var document interface{}
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := validateSecretsDocument(path, document); err != nil {
		return nil, err
	}

	var declarations map[string]secretConfig
	if err := yaml.Unmarshal(raw, &declarations); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return declarations, nil
}

// evaluateSecret applies the declaration's conditions and builds the
// requirement. keep=false means the top-level condition excluded the
// secret from this environment.
func (l *Loader) evaluateSecret(app, key string, decl declaredSecret, values map[string]interface{}) (secrets.Requirement, bool, error) {
	cfg := decl.config
	if !l.conds.Satisfied(cfg.If, values) {
		return secrets.Requirement{}, false, nil
	}

	copyRule := cfg.Copy
	if copyRule != nil && !l.conds.Satisfied(copyRule.If, values) {
		copyRule = nil
	}
	generate := cfg.Generate
	if generate != nil && !l.conds.Satisfied(generate.If, values) {
		generate = nil
	}
	if copyRule != nil && generate != nil {
		return secrets.Requirement{}, false, vaultopserrors.ConfigError{
			File:       decl.file,
			Field:      key,
			Message:    "Copy and generate rules conflict",
			Suggestion: "Guard copy and generate with mutually exclusive if conditions",
		}
	}

	req := secrets.Requirement{
		Application: app,
		Key:         key,
		Description: cfg.Description,
	}
	// An empty or null value leaves the secret non-static, so operators
	// can stub out entries without pinning them to the empty string.
	if cfg.Value != nil && *cfg.Value != "" {
		req.Value = secrets.NewValue(*cfg.Value)
	}
	if copyRule != nil {
		req.Copy = &secrets.CopyRule{
			Application: copyRule.Application,
			Key:         copyRule.Key,
		}
	}
	if generate != nil {
		rule, err := buildGenerateRule(decl.file, key, generate)
		if err != nil {
			return secrets.Requirement{}, false, err
		}
		req.Generate = rule
	}

	return req, true, nil
}

// buildGenerateRule checks the source constraints the schema cannot
// express.
func buildGenerateRule(file, key string, cfg *generateConfig) (*secrets.GenerateRule, error) {
	typ := secrets.GenerateType(cfg.Type)
	if !typ.Valid() {
		return nil, vaultopserrors.ConfigError{
			File:       file,
			Field:      key,
			Value:      cfg.Type,
			Message:    "unknown generator type",
			Suggestion: fmt.Sprintf("Valid types: %v", secrets.GenerateTypes()),
		}
	}
	if typ.RequiresSource() && cfg.Source == "" {
		return nil, vaultopserrors.ConfigError{
			File:       file,
			Field:      key,
			Value:      cfg.Type,
			Message:    "generator requires a source secret",
			Suggestion: "Set generate.source to another secret key of the same application",
		}
	}
	if cfg.Source != "" && !typ.AllowsSource() {
		return nil, vaultopserrors.ConfigError{
			File:       file,
			Field:      key,
			Value:      cfg.Type,
			Message:    "generator does not take a source secret",
			Suggestion: "Remove generate.source",
		}
	}
	return &secrets.GenerateRule{Type: typ, Source: cfg.Source}, nil
}

// decodeValuesFile reads one values file into a generic mapping. A missing
// or empty file is an empty mapping.
func decodeValuesFile(path string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var values map[string]interface{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return values, nil
}

// mergeValues merges override settings into base without mutating either
// argument. Mappings merge recursively; anything else replaces the base
// value.
func mergeValues(base, overrides map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base))
	for key, value := range base {
		merged[key] = value
	}
	for key, override := range overrides {
		if baseMap, ok := merged[key].(map[string]interface{}); ok {
			if overrideMap, ok := override.(map[string]interface{}); ok {
				merged[key] = mergeValues(baseMap, overrideMap)
				continue
			}
		}
		merged[key] = override
	}
	return merged
}
