package overlay

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/systmms/vaultops/pkg/secrets"
)

// Keyring reads secret values from the operating system keyring. Each
// application maps to the keyring service "<prefix>/<application>" with
// the secret key as the account name.
type Keyring struct {
	prefix string
}

// NewKeyring returns a keyring source with the given service prefix.
func NewKeyring(prefix string) *Keyring {
	return &Keyring{prefix: prefix}
}

func (k *Keyring) Name() string {
	return "keyring"
}

// Lookup reads one secret from the keyring. A missing item is not an
// error; the secret simply stays unfilled.
func (k *Keyring) Lookup(application, key string) (secrets.Value, error) {
	plaintext, err := keyring.Get(k.prefix+"/"+application, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return secrets.Unset(), nil
	}
	if err != nil {
		return secrets.Unset(), fmt.Errorf("keyring: %w", err)
	}
	if plaintext == "" {
		return secrets.Unset(), nil
	}
	return secrets.NewValue(plaintext), nil
}
