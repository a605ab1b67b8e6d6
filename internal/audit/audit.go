// Package audit diffs resolved secrets against a store snapshot and
// renders the discrepancies as a report.
package audit

import (
	"strings"

	"github.com/systmms/vaultops/pkg/secrets"
)

// Report classifies every difference between the desired secrets and the
// store contents. Entries are "application key" identifiers, sorted; no
// secret value ever appears in a report.
type Report struct {
	// Missing lists required secrets the store does not hold.
	Missing []string
	// Mismatched lists secrets whose stored value differs from the
	// resolved value.
	Mismatched []string
	// Unknown lists stored secrets no requirement accounts for.
	Unknown []string
}

// Findings reports whether the audit found anything to act on.
func (r *Report) Findings() bool {
	return len(r.Missing)+len(r.Mismatched)+len(r.Unknown) > 0
}

// Compare diffs the resolved set against a snapshot of the store. The
// snapshot is cloned, never modified. Compare cannot fail; discrepancies
// are data, not errors.
func Compare(resolved secrets.ResolvedSet, snapshot secrets.Snapshot) *Report {
	report := &Report{}
	remaining := snapshot.Clone()

	for _, app := range resolved.Applications() {
		for _, key := range resolved.Keys(app) {
			sec, _ := resolved.Lookup(app, key)

			stored, ok := remaining.Lookup(app, key)
			if !ok {
				report.Missing = append(report.Missing, entry(app, key))
				continue
			}
			// Equality counts set/unset state: a resolved-unset secret
			// against a stored value flags the stored value for review,
			// while unset on both sides agrees.
			if !sec.Value.Equal(stored) {
				report.Mismatched = append(report.Mismatched, entry(app, key))
			}
			delete(remaining[app], key)
		}
	}

	for _, app := range remaining.Applications() {
		for _, key := range remaining.Keys(app) {
			report.Unknown = append(report.Unknown, entry(app, key))
		}
	}

	return report
}

func entry(app, key string) string {
	return app + " " + key
}

// Render formats the report as the text document operators read. A
// category with no entries is omitted entirely; an empty report renders as
// the empty string.
func (r *Report) Render() string {
	var b strings.Builder
	section(&b, "Missing secrets:", r.Missing)
	section(&b, "Incorrect secrets:", r.Mismatched)
	section(&b, "Unknown secrets in Vault:", r.Unknown)
	return b.String()
}

func section(b *strings.Builder, heading string, entries []string) {
	if len(entries) == 0 {
		return
	}
	b.WriteString(heading)
	b.WriteString("\n• ")
	b.WriteString(strings.Join(entries, "\n• "))
	b.WriteString("\n")
}
