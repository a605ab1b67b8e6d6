package secrets

import "fmt"

// Requirement declares one secret for one application, together with the
// strategy for resolving its value. At most one of Value, Copy, and
// Generate is meaningfully active; when several are populated the static
// value wins, then the copy rule, then the generate rule. A requirement
// with none of them is a plain secret expected to exist in the store.
type Requirement struct {
	// Application identifies the owning application.
	Application string

	// Key identifies the secret within its application.
	Key string

	// Description is free-form operator documentation. It never affects
	// resolution.
	Description string

	// Value is the static plaintext fixed by configuration. A set Value
	// overrides anything the store holds.
	Value Value

	// Copy duplicates another requirement's resolved value.
	Copy *CopyRule

	// Generate produces the value with a generator function.
	Generate *GenerateRule
}

// CopyRule references the requirement whose resolved value should be
// duplicated. The reference may cross applications.
type CopyRule struct {
	Application string
	Key         string
}

// GenerateRule selects a generator. Source names another secret key within
// the same application whose resolved plaintext seeds the generator; it is
// empty for independent generators.
type GenerateRule struct {
	Type   GenerateType
	Source string
}

// Derived reports whether the rule depends on a source secret.
func (g *GenerateRule) Derived() bool {
	return g.Source != ""
}

// Name returns the "application/key" identifier used in error messages and
// debug output. It never contains secret material.
func (r Requirement) Name() string {
	return r.Application + "/" + r.Key
}

// Strategy returns the active resolution strategy, honoring the priority
// order static > copy > generate > plain.
func (r Requirement) Strategy() Strategy {
	switch {
	case r.Value.IsSet():
		return StrategyStatic
	case r.Copy != nil:
		return StrategyCopy
	case r.Generate != nil:
		return StrategyGenerate
	default:
		return StrategyPlain
	}
}

// Strategy names how a requirement's value is obtained.
type Strategy string

const (
	StrategyStatic   Strategy = "static"
	StrategyCopy     Strategy = "copy"
	StrategyGenerate Strategy = "generate"
	StrategyPlain    Strategy = "plain"
)

// Describe renders a one-line human summary of the requirement's strategy
// for inventory listings. It never contains secret material.
func (r Requirement) Describe() string {
	switch r.Strategy() {
	case StrategyStatic:
		return "static value"
	case StrategyCopy:
		return fmt.Sprintf("copy of %s/%s", r.Copy.Application, r.Copy.Key)
	case StrategyGenerate:
		if r.Generate.Derived() {
			return fmt.Sprintf("generated (%s from %s)", r.Generate.Type, r.Generate.Source)
		}
		return fmt.Sprintf("generated (%s)", r.Generate.Type)
	default:
		return "stored value"
	}
}
