package audit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/vaultops/internal/audit"
)

func TestWriteMetrics(t *testing.T) {
	t.Parallel()

	report := &audit.Report{
		Missing:    []string{"api token", "web session-key"},
		Mismatched: []string{"api password"},
		Unknown:    []string{},
	}
	path := filepath.Join(t.TempDir(), "audit.prom")

	require.NoError(t, audit.WriteMetrics(path, "production", report, 7))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, `vaultops_audit_missing_secrets{environment="production"} 2`)
	assert.Contains(t, out, `vaultops_audit_mismatched_secrets{environment="production"} 1`)
	assert.Contains(t, out, `vaultops_audit_unknown_secrets{environment="production"} 0`)
	assert.Contains(t, out, `vaultops_audit_requirements{environment="production"} 7`)
}

func TestWriteMetricsOverwritesPreviousRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit.prom")

	require.NoError(t, audit.WriteMetrics(path, "dev", &audit.Report{Missing: []string{"a b"}}, 1))
	require.NoError(t, audit.WriteMetrics(path, "dev", &audit.Report{}, 1))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `vaultops_audit_missing_secrets{environment="dev"} 0`)
}
