package secrets

import "sort"

// Snapshot is a point-in-time view of a secret store's contents for one
// environment: application name to secret key to value. A key mapped to an
// unset Value means the store holds the key without a value.
type Snapshot map[string]map[string]Value

// Application returns the secrets stored for app. An application absent
// from the snapshot yields an empty map, never nil dereferences: newly
// added applications legitimately have nothing stored yet.
func (s Snapshot) Application(app string) map[string]Value {
	if stored, ok := s[app]; ok {
		return stored
	}
	return map[string]Value{}
}

// Lookup returns the stored value for (app, key) and whether the key is
// present at all.
func (s Snapshot) Lookup(app, key string) (Value, bool) {
	v, ok := s[app][key]
	return v, ok
}

// Set records a value, creating the application bucket on first use.
func (s Snapshot) Set(app, key string, v Value) {
	bucket, ok := s[app]
	if !ok {
		bucket = map[string]Value{}
		s[app] = bucket
	}
	bucket[key] = v
}

// Clone returns a deep copy. The auditor consumes a working copy of the
// snapshot; callers keep the original intact.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for app, stored := range s {
		bucket := make(map[string]Value, len(stored))
		for key, v := range stored {
			bucket[key] = v
		}
		out[app] = bucket
	}
	return out
}

// Applications returns the application names in the snapshot, sorted.
func (s Snapshot) Applications() []string {
	apps := make([]string, 0, len(s))
	for app := range s {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// Keys returns the secret keys stored for app, sorted.
func (s Snapshot) Keys(app string) []string {
	bucket := s[app]
	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ResolvedSecret is the outcome of resolving one requirement. An unset
// Value means the secret is required but currently unknown; that is a
// valid resolution outcome surfaced by the auditor, not a resolver error.
type ResolvedSecret struct {
	Application string
	Key         string
	Value       Value
}

// ResolvedSet maps application to key to resolved secret. Entries are
// placed once during resolution and never overwritten.
type ResolvedSet map[string]map[string]ResolvedSecret

// Put records a resolved secret, creating the application bucket on first
// use.
func (rs ResolvedSet) Put(sec ResolvedSecret) {
	bucket, ok := rs[sec.Application]
	if !ok {
		bucket = map[string]ResolvedSecret{}
		rs[sec.Application] = bucket
	}
	bucket[sec.Key] = sec
}

// Lookup returns the resolved secret for (app, key) and whether it has
// been placed.
func (rs ResolvedSet) Lookup(app, key string) (ResolvedSecret, bool) {
	sec, ok := rs[app][key]
	return sec, ok
}

// Len counts resolved secrets across all applications.
func (rs ResolvedSet) Len() int {
	n := 0
	for _, bucket := range rs {
		n += len(bucket)
	}
	return n
}

// Applications returns the application names in the set, sorted.
func (rs ResolvedSet) Applications() []string {
	apps := make([]string, 0, len(rs))
	for app := range rs {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// Keys returns the secret keys resolved for app, sorted.
func (rs ResolvedSet) Keys(app string) []string {
	bucket := rs[app]
	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
