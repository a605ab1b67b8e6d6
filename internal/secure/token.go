package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Token holds a store credential in an encrypted enclave for the lifetime
// of a store client. memguard wipes the source slice when the enclave is
// created; callers must not reuse it.
type Token struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex

	// destroyed makes Destroy idempotent and keeps a destroyed token from
	// yielding stale material.
	destroyed bool
}

// NewToken seals the credential material into an enclave.
func NewToken(material []byte) *Token {
	return &Token{enclave: memguard.NewEnclave(material)}
}

// Open decrypts the credential into a locked buffer. The caller must call
// Destroy on the returned buffer as soon as the plaintext has been used.
// A destroyed token opens as an empty buffer.
func (t *Token) Open() (*memguard.LockedBuffer, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return t.enclave.Open()
}

// Destroy drops the enclave. Idempotent. The encrypted pages are left to
// the collector; call memguard.Purge at process exit for a full sweep.
func (t *Token) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.destroyed {
		return
	}
	t.enclave = nil
	t.destroyed = true
}
