// Package secrets defines the data model shared by the vaultops resolver,
// auditor, and store clients.
//
// # Requirements
//
// A Requirement declares the intent for one secret belonging to one
// application. Exactly one resolution strategy is active per requirement,
// chosen in priority order:
//
//  1. A static Value fixed by configuration.
//  2. A Copy rule referencing another requirement whose resolved value is
//     duplicated.
//  3. A Generate rule producing a value, either independently (random
//     token, key material) or derived from another secret in the same
//     application.
//  4. None of the above: a plain secret whose value must already live in
//     the store.
//
// The strategy fields form a tagged variant on a flat struct. Consumers
// match them in the order above rather than dispatching polymorphically;
// a requirement carrying both a static value and a copy rule resolves to
// the static value.
//
// # Values
//
// Secret plaintext is always carried in the Value type. Value implements
// fmt.Stringer, fmt.GoStringer, and the JSON/YAML marshaler interfaces so
// that plaintext can never leak through logging, error formatting, or
// accidental serialization; every path to the plaintext goes through an
// explicit Reveal call. A Value also records whether it is set at all,
// so "key present with no value" needs no pointer sentinel.
//
// # Snapshots and resolved sets
//
// A Snapshot is a point-in-time view of a secret store's contents for one
// environment, keyed by application and secret key. A ResolvedSet is the
// resolver's output in the same shape. Both treat an absent application
// as an application with no secrets.
package secrets
