package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// GenerateType selects a generator function.
type GenerateType string

// Independent generators produce a value from nothing. Derived generators
// transform the plaintext of a source secret in the same application.
// Mtime works both ways: with a source it re-stamps whenever the source
// changes, without one it stamps at first generation.
const (
	GeneratePassword     GenerateType = "password"
	GenerateSessionToken GenerateType = "session-token"
	GenerateFernetKey    GenerateType = "fernet-key"
	GenerateRSAKeyPair   GenerateType = "rsa-key-pair"
	GenerateUUID         GenerateType = "uuid"
	GenerateMtime        GenerateType = "mtime"
	GenerateBcryptHash   GenerateType = "bcrypt-password-hash"
	GenerateSHA256Hex    GenerateType = "sha256-hex"
)

// GenerateTypes returns all valid generator types, independent first.
func GenerateTypes() []GenerateType {
	return []GenerateType{
		GeneratePassword,
		GenerateSessionToken,
		GenerateFernetKey,
		GenerateRSAKeyPair,
		GenerateUUID,
		GenerateMtime,
		GenerateBcryptHash,
		GenerateSHA256Hex,
	}
}

// Valid reports whether t names a known generator.
func (t GenerateType) Valid() bool {
	for _, known := range GenerateTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// RequiresSource reports whether t only works as a derived generator.
func (t GenerateType) RequiresSource() bool {
	return t == GenerateBcryptHash || t == GenerateSHA256Hex
}

// AllowsSource reports whether t accepts a source secret at all.
func (t GenerateType) AllowsSource() bool {
	return t.RequiresSource() || t == GenerateMtime
}

// Generate produces a fresh value for an independent rule.
func (g *GenerateRule) Generate() (Value, error) {
	switch g.Type {
	case GeneratePassword:
		return randomHex(32)
	case GenerateSessionToken:
		return sessionToken()
	case GenerateFernetKey:
		return fernetKey()
	case GenerateRSAKeyPair:
		return rsaPrivateKeyPEM()
	case GenerateUUID:
		return NewValue(uuid.NewString()), nil
	case GenerateMtime:
		return NewValue(timestamp()), nil
	case GenerateBcryptHash, GenerateSHA256Hex:
		return Unset(), fmt.Errorf("generator %q requires a source secret", g.Type)
	default:
		return Unset(), fmt.Errorf("unknown generator type %q", g.Type)
	}
}

// Derive computes the value of a derived rule from the source secret's
// plaintext.
func (g *GenerateRule) Derive(source Value) (Value, error) {
	if !source.IsSet() {
		return Unset(), fmt.Errorf("source secret %q has no value to derive %q from", g.Source, g.Type)
	}
	switch g.Type {
	case GenerateBcryptHash:
		hash, err := bcrypt.GenerateFromPassword([]byte(source.Reveal()), bcrypt.DefaultCost)
		if err != nil {
			return Unset(), fmt.Errorf("bcrypt hash: %w", err)
		}
		return NewValue(string(hash)), nil
	case GenerateSHA256Hex:
		sum := sha256.Sum256([]byte(source.Reveal()))
		return NewValue(hex.EncodeToString(sum[:])), nil
	case GenerateMtime:
		// The timestamp marks when the source last changed; its plaintext
		// is deliberately not incorporated.
		return NewValue(timestamp()), nil
	default:
		return Unset(), fmt.Errorf("generator %q does not take a source secret", g.Type)
	}
}

func randomHex(n int) (Value, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return Unset(), fmt.Errorf("read random bytes: %w", err)
	}
	return NewValue(hex.EncodeToString(buf)), nil
}

// sessionToken produces "st-<key>.<secret>" with two independent 128-bit
// components, matching the token format the session services expect.
func sessionToken() (Value, error) {
	part := func() (string, error) {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return base64.RawURLEncoding.EncodeToString(buf), nil
	}
	key, err := part()
	if err != nil {
		return Unset(), fmt.Errorf("read random bytes: %w", err)
	}
	secret, err := part()
	if err != nil {
		return Unset(), fmt.Errorf("read random bytes: %w", err)
	}
	return NewValue("st-" + key + "." + secret), nil
}

func fernetKey() (Value, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return Unset(), fmt.Errorf("generate fernet key: %w", err)
	}
	return NewValue(key.Encode()), nil
}

func rsaPrivateKeyPEM() (Value, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return Unset(), fmt.Errorf("generate RSA key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return Unset(), fmt.Errorf("encode RSA key: %w", err)
	}
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	return NewValue(string(pem.EncodeToMemory(block))), nil
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
