package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WriteMetrics writes the audit outcome for one environment as a
// Prometheus textfile at path, for collection by a node-exporter textfile
// collector. Each call writes a fresh registry, so stale series from
// earlier runs never linger.
func WriteMetrics(path, environment string, report *Report, requirements int) error {
	registry := prometheus.NewRegistry()

	gauge := func(name, help string) *prometheus.GaugeVec {
		return promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{Name: name, Help: help},
			[]string{"environment"},
		)
	}

	missing := gauge("vaultops_audit_missing_secrets",
		"Number of required secrets absent from the store")
	mismatched := gauge("vaultops_audit_mismatched_secrets",
		"Number of stored secrets whose value differs from the resolved value")
	unknown := gauge("vaultops_audit_unknown_secrets",
		"Number of stored secrets no requirement accounts for")
	total := gauge("vaultops_audit_requirements",
		"Number of secret requirements audited")

	missing.WithLabelValues(environment).Set(float64(len(report.Missing)))
	mismatched.WithLabelValues(environment).Set(float64(len(report.Mismatched)))
	unknown.WithLabelValues(environment).Set(float64(len(report.Unknown)))
	total.WithLabelValues(environment).Set(float64(requirements))

	return prometheus.WriteToTextfile(path, registry)
}
