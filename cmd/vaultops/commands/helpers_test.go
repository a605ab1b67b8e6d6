package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/systmms/vaultops/internal/config"
	"github.com/systmms/vaultops/internal/logging"
)

// testConfig returns the shared command config for a tree root.
func testConfig(root string) *config.Config {
	return &config.Config{
		Root:   root,
		Logger: logging.New(false, true),
	}
}

// writeConfigTree lays out a configuration tree for the "testing"
// environment, backed by a file store, and returns the tree root and the
// store directory. Two applications are enabled: gafaelfawr declares a
// plain secret and a generated session key, nublado declares a plain
// secret and a copy of gafaelfawr's database password.
func writeConfigTree(t *testing.T) (root, storeDir string) {
	t.Helper()

	root = t.TempDir()
	storeDir = filepath.Join(root, "store")
	require.NoError(t, os.MkdirAll(storeDir, 0o755))

	writeTreeFile(t, filepath.Join(root, "environments", "values-testing.yaml"), fmt.Sprintf(`environment: testing
secretStore:
  type: file
  path: %s
gafaelfawr:
  enabled: true
nublado:
  enabled: true
sherlock:
  enabled: false
`, storeDir))

	writeTreeFile(t, filepath.Join(root, "applications", "gafaelfawr", "secrets.yaml"), `database-password:
  description: Password for the authentication database.
session-secret:
  description: Signing key for user sessions.
  generate:
    type: fernet-key
`)

	writeTreeFile(t, filepath.Join(root, "applications", "nublado", "secrets.yaml"), `crypto-key:
  description: Encryption key for proxy cookies.
database-password:
  description: Shared password for the authentication database.
  copy:
    application: gafaelfawr
    key: database-password
`)

	return root, storeDir
}

func writeTreeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeStoreBucket drops one application document into a file store
// directory. Nil pointers become JSON nulls, matching the store format.
func writeStoreBucket(t *testing.T, dir, app string, pairs map[string]*string) {
	t.Helper()
	data, err := json.Marshal(pairs)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, app+".json"), data, 0o644))
}

func strPtr(v string) *string {
	return &v
}

// runCommand executes a command with stdout captured and returns whatever
// it printed alongside the execution error.
func runCommand(t *testing.T, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	// Keep cobra's own error printing out of the test log.
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)
	execErr := cmd.Execute()

	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)

	return buf.String(), execErr
}
