package secrets_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"regexp"
	"testing"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/vaultops/pkg/secrets"
	"golang.org/x/crypto/bcrypt"
)

func generate(t *testing.T, typ secrets.GenerateType) secrets.Value {
	t.Helper()
	rule := &secrets.GenerateRule{Type: typ}
	v, err := rule.Generate()
	require.NoError(t, err)
	require.True(t, v.IsSet())
	return v
}

func TestGeneratePassword(t *testing.T) {
	t.Parallel()

	first := generate(t, secrets.GeneratePassword)
	second := generate(t, secrets.GeneratePassword)

	raw, err := hex.DecodeString(first.Reveal())
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotEqual(t, first.Reveal(), second.Reveal())
}

func TestGenerateSessionToken(t *testing.T) {
	t.Parallel()

	v := generate(t, secrets.GenerateSessionToken)

	pattern := regexp.MustCompile(`^st-[A-Za-z0-9_-]{22}\.[A-Za-z0-9_-]{22}$`)
	assert.Regexp(t, pattern, v.Reveal())
}

func TestGenerateFernetKey(t *testing.T) {
	t.Parallel()

	v := generate(t, secrets.GenerateFernetKey)

	_, err := fernet.DecodeKey(v.Reveal())
	assert.NoError(t, err)
}

func TestGenerateRSAKeyPair(t *testing.T) {
	t.Parallel()

	v := generate(t, secrets.GenerateRSAKeyPair)

	block, rest := pem.Decode([]byte(v.Reveal()))
	require.NotNil(t, block)
	assert.Empty(t, rest)
	assert.Equal(t, "PRIVATE KEY", block.Type)

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	require.True(t, ok)
	assert.Equal(t, 2048, rsaKey.N.BitLen())
}

func TestGenerateUUID(t *testing.T) {
	t.Parallel()

	v := generate(t, secrets.GenerateUUID)

	_, err := uuid.Parse(v.Reveal())
	assert.NoError(t, err)
}

func TestGenerateMtime(t *testing.T) {
	t.Parallel()

	v := generate(t, secrets.GenerateMtime)

	stamp, err := time.Parse("2006-01-02T15:04:05Z", v.Reveal())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), stamp, time.Minute)
}

func TestGenerateUnknownType(t *testing.T) {
	t.Parallel()

	rule := &secrets.GenerateRule{Type: "one-time-pad"}
	_, err := rule.Generate()
	assert.ErrorContains(t, err, "unknown generator type")
}

func TestGenerateDerivedTypeWithoutSource(t *testing.T) {
	t.Parallel()

	for _, typ := range []secrets.GenerateType{secrets.GenerateBcryptHash, secrets.GenerateSHA256Hex} {
		rule := &secrets.GenerateRule{Type: typ}
		_, err := rule.Generate()
		assert.ErrorContains(t, err, "requires a source secret")
	}
}

func TestDeriveBcryptHash(t *testing.T) {
	t.Parallel()

	rule := &secrets.GenerateRule{Type: secrets.GenerateBcryptHash, Source: "password"}
	hashed, err := rule.Derive(secrets.NewValue("correct horse battery staple"))
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(hashed.Reveal()), []byte("correct horse battery staple")))
}

func TestDeriveSHA256Hex(t *testing.T) {
	t.Parallel()

	rule := &secrets.GenerateRule{Type: secrets.GenerateSHA256Hex, Source: "password"}
	sum, err := rule.Derive(secrets.NewValue("hello"))
	require.NoError(t, err)

	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum.Reveal())
}

func TestDeriveMtimeIgnoresSourcePlaintext(t *testing.T) {
	t.Parallel()

	rule := &secrets.GenerateRule{Type: secrets.GenerateMtime, Source: "password"}
	v, err := rule.Derive(secrets.NewValue("anything"))
	require.NoError(t, err)

	_, err = time.Parse("2006-01-02T15:04:05Z", v.Reveal())
	assert.NoError(t, err)
	assert.NotContains(t, v.Reveal(), "anything")
}

func TestDeriveUnsetSource(t *testing.T) {
	t.Parallel()

	rule := &secrets.GenerateRule{Type: secrets.GenerateSHA256Hex, Source: "password"}
	_, err := rule.Derive(secrets.Unset())
	assert.ErrorContains(t, err, "no value to derive")
}

func TestDeriveIndependentType(t *testing.T) {
	t.Parallel()

	rule := &secrets.GenerateRule{Type: secrets.GeneratePassword, Source: "password"}
	_, err := rule.Derive(secrets.NewValue("seed"))
	assert.ErrorContains(t, err, "does not take a source secret")
}

func TestGenerateTypeClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ            secrets.GenerateType
		valid          bool
		requiresSource bool
		allowsSource   bool
	}{
		{secrets.GeneratePassword, true, false, false},
		{secrets.GenerateSessionToken, true, false, false},
		{secrets.GenerateFernetKey, true, false, false},
		{secrets.GenerateRSAKeyPair, true, false, false},
		{secrets.GenerateUUID, true, false, false},
		{secrets.GenerateMtime, true, false, true},
		{secrets.GenerateBcryptHash, true, true, true},
		{secrets.GenerateSHA256Hex, true, true, true},
		{secrets.GenerateType("one-time-pad"), false, false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.typ), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.typ.Valid())
			assert.Equal(t, tt.requiresSource, tt.typ.RequiresSource())
			assert.Equal(t, tt.allowsSource, tt.typ.AllowsSource())
		})
	}
}
