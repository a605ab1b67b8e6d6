package template_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/systmms/vaultops/internal/overlay"
	"github.com/systmms/vaultops/internal/template"
	"github.com/systmms/vaultops/pkg/secrets"
)

func templateRequirements() []secrets.Requirement {
	return []secrets.Requirement{
		{
			Application: "gafaelfawr",
			Key:         "database-password",
			Description: "Password for the user database.",
		},
		{
			Application: "gafaelfawr",
			Key:         "session-secret",
			Description: "Session signing secret.",
			Generate:    &secrets.GenerateRule{Type: secrets.GenerateFernetKey},
		},
		{
			Application: "nublado",
			Key:         "crypto-key",
			Description: "Key operators paste from the password manager.",
		},
		{
			Application: "nublado",
			Key:         "proxy-token",
			Description: "Pinned by configuration.",
			Value:       secrets.NewValue("pinned"),
		},
		{
			Application: "nublado",
			Key:         "database-password",
			Description: "Shared with gafaelfawr.",
			Copy:        &secrets.CopyRule{Application: "gafaelfawr", Key: "database-password"},
		},
	}
}

func TestStaticTemplateRendersPlainRequirements(t *testing.T) {
	t.Parallel()

	out, err := template.Static(templateRequirements())
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "schemaVersion:"), "schemaVersion must lead the document:\n%s", text)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &doc))

	assert.Equal(t, "1.0.0", doc["schemaVersion"])

	gafaelfawr, ok := doc["gafaelfawr"].(map[string]interface{})
	require.True(t, ok, "gafaelfawr section missing:\n%s", text)
	require.Contains(t, gafaelfawr, "database-password")
	assert.NotContains(t, gafaelfawr, "session-secret", "generated secrets have no slot")

	slot := gafaelfawr["database-password"].(map[string]interface{})
	assert.Equal(t, "Password for the user database.", slot["description"])
	assert.Nil(t, slot["value"])

	nublado, ok := doc["nublado"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, nublado, "crypto-key")
	assert.NotContains(t, nublado, "proxy-token", "static secrets have no slot")
	assert.NotContains(t, nublado, "database-password", "copied secrets have no slot")
}

func TestStaticTemplateRoundTripsThroughOverlay(t *testing.T) {
	t.Parallel()

	out, err := template.Static(templateRequirements())
	require.NoError(t, err)

	// Fill one slot the way an operator would.
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &doc))
	doc["nublado"].(map[string]interface{})["crypto-key"].(map[string]interface{})["value"] = "filled-by-hand"

	filled, err := yaml.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "static.yaml")
	require.NoError(t, os.WriteFile(path, filled, 0o600))

	source, err := overlay.LoadStaticFile(path)
	require.NoError(t, err)

	value, err := source.Lookup("nublado", "crypto-key")
	require.NoError(t, err)
	assert.Equal(t, "filled-by-hand", value.Reveal())

	untouched, err := source.Lookup("gafaelfawr", "database-password")
	require.NoError(t, err)
	assert.False(t, untouched.IsSet())
}

func TestStaticTemplateEmpty(t *testing.T) {
	t.Parallel()

	out, err := template.Static(nil)
	require.NoError(t, err)
	assert.Equal(t, "schemaVersion: 1.0.0\n", string(out))
}
