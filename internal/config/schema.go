package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	vaultopserrors "github.com/systmms/vaultops/internal/errors"
)

//go:embed schema/secrets.json
var secretsSchema []byte

// SecretsSchema returns the JSON Schema that secrets documents must
// satisfy, for display and editor integration.
func SecretsSchema() []byte {
	return secretsSchema
}

// validateSecretsDocument checks a decoded secrets document against the
// embedded schema. The document arrives as YAML-decoded data and is
// re-encoded as JSON for the validator.
func validateSecretsDocument(path string, document interface{}) error {
	if document == nil {
		return nil
	}

	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("encoding %s for validation: %w", path, err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(secretsSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return vaultopserrors.ConfigError{
		File:       path,
		Field:      "secrets",
		Message:    strings.Join(problems, "; "),
		Suggestion: "Each secret needs a description and at most one of value, copy, or generate",
	}
}
