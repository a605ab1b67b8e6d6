package secrets

import "strings"

// UnresolvedError reports the requirements left over after resolution
// reached a fixed point without resolving everything. Every stuck
// requirement reads from another secret that either no requirement
// declares or is itself stuck.
type UnresolvedError struct {
	// Stuck holds the unresolved requirements in declaration order.
	Stuck []Requirement

	declared map[string]bool
}

// NewUnresolvedError builds the error from the stuck subset and the full
// requirement list resolution started from. The full list is what tells a
// dangling reference apart from a cycle.
func NewUnresolvedError(stuck, all []Requirement) *UnresolvedError {
	declared := make(map[string]bool, len(all))
	for _, r := range all {
		declared[r.Name()] = true
	}
	return &UnresolvedError{Stuck: stuck, declared: declared}
}

// Error lists the stuck requirements by name. Secret values never appear
// in the message.
func (e *UnresolvedError) Error() string {
	names := make([]string, len(e.Stuck))
	for i, r := range e.Stuck {
		names[i] = r.Name()
	}
	return "some secrets could not be resolved: " + strings.Join(names, ", ")
}

// Dangling returns the stuck requirements that reference a secret no
// requirement declares. Fixing these means correcting the reference.
func (e *UnresolvedError) Dangling() []Requirement {
	return e.partition(false)
}

// Cyclic returns the stuck requirements whose reference is declared but
// itself unresolved: direct participants in a dependency cycle, or
// requirements chained behind one of the Dangling entries.
func (e *UnresolvedError) Cyclic() []Requirement {
	return e.partition(true)
}

func (e *UnresolvedError) partition(wantDeclared bool) []Requirement {
	var out []Requirement
	for _, r := range e.Stuck {
		ref, ok := reference(r)
		if !ok {
			continue
		}
		if e.declared[ref] == wantDeclared {
			out = append(out, r)
		}
	}
	return out
}

// reference returns the name of the secret r reads from during
// resolution, if any. Only copy rules and derived generate rules read
// other secrets; everything else resolves on its own.
func reference(r Requirement) (string, bool) {
	switch {
	case r.Value.IsSet():
		return "", false
	case r.Copy != nil:
		return r.Copy.Application + "/" + r.Copy.Key, true
	case r.Generate != nil && r.Generate.Derived():
		return r.Application + "/" + r.Generate.Source, true
	}
	return "", false
}
