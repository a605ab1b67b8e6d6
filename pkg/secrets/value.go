package secrets

// Redacted is the placeholder emitted wherever a set Value would otherwise
// be formatted or serialized.
const Redacted = "[REDACTED]"

// Value holds optional secret plaintext. The zero Value is unset, which is
// distinct from a set Value containing the empty string: an unset Value
// means "no value is known for this secret".
//
// Value never exposes its plaintext through formatting or serialization.
// Call Reveal to obtain it.
type Value struct {
	val string
	set bool
}

// NewValue returns a set Value holding the given plaintext.
func NewValue(plaintext string) Value {
	return Value{val: plaintext, set: true}
}

// Unset returns the unset Value. It exists for readability at call sites;
// the zero Value is equivalent.
func Unset() Value {
	return Value{}
}

// IsSet reports whether the Value holds plaintext.
func (v Value) IsSet() bool {
	return v.set
}

// Reveal returns the plaintext. It returns the empty string for an unset
// Value; call IsSet first when the distinction matters.
func (v Value) Reveal() string {
	return v.val
}

// Equal reports whether two Values agree: both unset, or both set with
// identical plaintext.
func (v Value) Equal(other Value) bool {
	return v.set == other.set && v.val == other.val
}

// String implements fmt.Stringer, always redacting the plaintext.
func (v Value) String() string {
	if !v.set {
		return "(unset)"
	}
	return Redacted
}

// GoString implements fmt.GoStringer for %#v formatting.
func (v Value) GoString() string {
	return v.String()
}

// MarshalJSON emits null for an unset Value and the redaction placeholder
// otherwise. Collaborators that legitimately persist plaintext (the export
// writer) must call Reveal explicitly.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	return []byte(`"` + Redacted + `"`), nil
}

// MarshalYAML mirrors MarshalJSON for YAML encoders.
func (v Value) MarshalYAML() (interface{}, error) {
	if !v.set {
		return nil, nil
	}
	return Redacted, nil
}
