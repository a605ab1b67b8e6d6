package resolve

import (
	"fmt"

	"github.com/systmms/vaultops/pkg/secrets"
)

// Resolve computes the desired value of every requirement against a store
// snapshot. It returns *secrets.UnresolvedError when a full pass over the
// pending requirements resolves nothing, which happens exactly when the
// remaining requirements form dependency cycles or reference secrets no
// requirement declares.
//
// Requirements may reference each other in any order; passes repeat until
// the pending set is empty. The loop is quadratic in chain depth, which is
// fine at configuration scale and keeps the all-stuck error reporting
// simple.
func Resolve(requirements []secrets.Requirement, snapshot secrets.Snapshot) (secrets.ResolvedSet, error) {
	resolved := make(secrets.ResolvedSet)

	pending := make([]int, len(requirements))
	for i := range requirements {
		pending[i] = i
	}

	for len(pending) > 0 {
		var next []int
		for _, i := range pending {
			req := requirements[i]
			value, ok, err := tryResolve(req, resolved, snapshot)
			if err != nil {
				return nil, fmt.Errorf("resolving %s: %w", req.Name(), err)
			}
			if !ok {
				next = append(next, i)
				continue
			}
			resolved.Put(secrets.ResolvedSecret{
				Application: req.Application,
				Key:         req.Key,
				Value:       value,
			})
		}

		if len(next) == len(pending) {
			stuck := make([]secrets.Requirement, len(next))
			for j, i := range next {
				stuck[j] = requirements[i]
			}
			return nil, secrets.NewUnresolvedError(stuck, requirements)
		}
		pending = next
	}

	return resolved, nil
}

// tryResolve attempts a single requirement. ok=false without an error
// means a referenced secret has not been placed yet; the caller retries on
// a later pass. Strategy priority: static, copy, generate, stored value.
func tryResolve(req secrets.Requirement, resolved secrets.ResolvedSet, snapshot secrets.Snapshot) (secrets.Value, bool, error) {
	if req.Value.IsSet() {
		// Configuration is the source of truth for static secrets; the
		// stored value is not consulted.
		return req.Value, true, nil
	}

	if req.Copy != nil {
		source, ok := resolved.Lookup(req.Copy.Application, req.Copy.Key)
		if !ok {
			return secrets.Unset(), false, nil
		}
		// Copies share the source value as-is. An unset source copies as
		// unset.
		return source.Value, true, nil
	}

	stored, _ := snapshot.Lookup(req.Application, req.Key)

	// A generate rule only fires while the store has no value: a secret
	// generated once is never regenerated.
	if req.Generate != nil && !stored.IsSet() {
		if !req.Generate.Derived() {
			value, err := req.Generate.Generate()
			if err != nil {
				return secrets.Unset(), false, err
			}
			return value, true, nil
		}

		source, ok := resolved.Lookup(req.Application, req.Generate.Source)
		if !ok || !source.Value.IsSet() {
			return secrets.Unset(), false, nil
		}
		value, err := req.Generate.Derive(source.Value)
		if err != nil {
			return secrets.Unset(), false, err
		}
		return value, true, nil
	}

	// Plain secrets, and generated secrets that already have a stored
	// value, resolve to whatever the store holds. Unset is a valid
	// outcome here; the audit surfaces it.
	return stored, true, nil
}
