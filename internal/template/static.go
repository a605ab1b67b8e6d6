// Package template renders the operator-facing documents: the static
// secrets template and the store export.
package template

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/systmms/vaultops/internal/overlay"
	"github.com/systmms/vaultops/pkg/secrets"
)

// staticEntry is one fillable slot in the template.
type staticEntry struct {
	Description string  `yaml:"description"`
	Value       *string `yaml:"value"`
}

// staticDocument matches the file the static secrets overlay reads back.
type staticDocument struct {
	SchemaVersion string                            `yaml:"schemaVersion"`
	Applications  map[string]map[string]staticEntry `yaml:",inline"`
}

// Static renders the fill-in template for every plain requirement of an
// environment. Operators complete the value fields and pass the file back
// through the --static-secrets overlay.
func Static(requirements []secrets.Requirement) ([]byte, error) {
	doc := staticDocument{
		SchemaVersion: overlay.SchemaVersion,
		Applications:  make(map[string]map[string]staticEntry),
	}

	for _, req := range requirements {
		if req.Strategy() != secrets.StrategyPlain {
			continue
		}
		app := doc.Applications[req.Application]
		if app == nil {
			app = make(map[string]staticEntry)
			doc.Applications[req.Application] = app
		}
		app[req.Key] = staticEntry{Description: req.Description}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
