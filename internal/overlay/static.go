package overlay

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver"
	"gopkg.in/yaml.v3"

	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/pkg/secrets"
)

// SchemaVersion is the version written into static secrets templates.
// Files with another major version are rejected.
const SchemaVersion = "1.0.0"

// StaticFile is a filled-in static secrets template: a YAML document with
// a schemaVersion marker and application sections mapping secret keys to
// values.
type StaticFile struct {
	path    string
	entries map[string]map[string]staticEntry
}

type staticDocument struct {
	SchemaVersion string                            `yaml:"schemaVersion"`
	Applications  map[string]map[string]staticEntry `yaml:",inline"`
}

type staticEntry struct {
	Description string  `yaml:"description"`
	Value       *string `yaml:"value"`
}

// LoadStaticFile reads and validates a static secrets file.
func LoadStaticFile(path string) (*StaticFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading static secrets: %w", err)
	}

	var doc staticDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	version, err := semver.NewVersion(doc.SchemaVersion)
	if err != nil {
		return nil, vaultopserrors.ConfigError{
			File:       path,
			Field:      "schemaVersion",
			Value:      doc.SchemaVersion,
			Message:    "not a semantic version",
			Suggestion: fmt.Sprintf("Regenerate the file with the template command (current version: %s)", SchemaVersion),
		}
	}
	if version.Major() != 1 {
		return nil, vaultopserrors.ConfigError{
			File:       path,
			Field:      "schemaVersion",
			Value:      doc.SchemaVersion,
			Message:    "unsupported schema version",
			Suggestion: "This build reads static secrets files with major version 1",
		}
	}

	return &StaticFile{path: path, entries: doc.Applications}, nil
}

func (f *StaticFile) Name() string {
	return f.path
}

// Lookup returns the value filled in for a secret. Entries left null or
// empty count as not filled.
func (f *StaticFile) Lookup(application, key string) (secrets.Value, error) {
	entry, ok := f.entries[application][key]
	if !ok || entry.Value == nil || *entry.Value == "" {
		return secrets.Unset(), nil
	}
	return secrets.NewValue(*entry.Value), nil
}
