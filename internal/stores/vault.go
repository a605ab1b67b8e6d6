package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/internal/secure"
	"github.com/systmms/vaultops/pkg/secrets"
	"github.com/systmms/vaultops/pkg/store"
)

const vaultTimeout = 30 * time.Second

// VaultStore reads application buckets from HashiCorp Vault's KV v2
// engine. Each application is one KV entry under the configured path
// prefix, whose data maps secret keys to values.
//
// The first path segment of vaultPathPrefix names the KV mount; the rest
// prefixes application entries, so "secret/ops/production" reads
// "/v1/secret/data/ops/production/<application>".
type VaultStore struct {
	address   string
	mount     string
	prefix    string
	namespace string
	token     *secure.Token
	client    *http.Client
	logger    *logging.Logger
}

// NewVaultStore builds the Vault backend for an environment. The token is
// taken from the secretStore settings, the VAULT_TOKEN environment
// variable, or ~/.vault-token, in that order, and is held in a sealed
// enclave for the store's lifetime.
func NewVaultStore(env *config.Environment, logger *logging.Logger) (*VaultStore, error) {
	address := env.Store.GetString("url")
	if address == "" {
		address = env.VaultURL
	}
	if addr := os.Getenv("VAULT_ADDR"); addr != "" {
		address = addr
	}
	if address == "" {
		return nil, vaultopserrors.ConfigError{
			Field:      "vaultUrl",
			Message:    "Vault address is required",
			Suggestion: "Set vaultUrl in the environment file or the VAULT_ADDR environment variable",
		}
	}

	prefix := env.Store.GetString("pathPrefix")
	if prefix == "" {
		prefix = env.VaultPathPrefix
	}
	if prefix == "" {
		return nil, vaultopserrors.ConfigError{
			Field:      "vaultPathPrefix",
			Message:    "Vault path prefix is required",
			Suggestion: "Set vaultPathPrefix to the KV path holding this environment's secrets",
		}
	}

	namespace := env.Store.GetString("namespace")
	if namespace == "" {
		namespace = os.Getenv("VAULT_NAMESPACE")
	}

	material, err := vaultToken(env.Store.GetString("token"))
	if err != nil {
		return nil, err
	}

	mount := prefix
	rest := ""
	if i := strings.Index(prefix, "/"); i >= 0 {
		mount, rest = prefix[:i], prefix[i+1:]
	}

	return &VaultStore{
		address:   strings.TrimSuffix(address, "/"),
		mount:     mount,
		prefix:    rest,
		namespace: namespace,
		token:     secure.NewToken(material),
		client:    &http.Client{Timeout: vaultTimeout},
		logger:    logger,
	}, nil
}

// vaultToken resolves the authentication token. The returned slice is
// consumed by the enclave.
func vaultToken(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		return []byte(token), nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		if raw, err := os.ReadFile(filepath.Join(home, ".vault-token")); err == nil {
			if token := strings.TrimSpace(string(raw)); token != "" {
				return []byte(token), nil
			}
		}
	}
	return nil, vaultopserrors.UserError{
		Message:    "no vault token found",
		Suggestion: "Run 'vault login' or set VAULT_TOKEN",
	}
}

func (s *VaultStore) Name() string {
	return "vault"
}

// ApplicationSecrets reads one application's KV entry.
func (s *VaultStore) ApplicationSecrets(ctx context.Context, app string) (map[string]secrets.Value, error) {
	var response struct {
		Data struct {
			Data map[string]interface{} `json:"data"`
		} `json:"data"`
	}

	status, err := s.get(ctx, s.entryPath(app), &response)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, store.NotFoundError{Store: s.Name(), Application: app}
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return nil, store.AuthError{Store: s.Name(), Message: fmt.Sprintf("vault returned status %d", status)}
	case status != http.StatusOK:
		return nil, fmt.Errorf("vault returned status %d reading secrets for %s", status, app)
	}

	// KV v2 keeps metadata for deleted entries; their data comes back
	// null.
	if response.Data.Data == nil {
		return nil, store.NotFoundError{Store: s.Name(), Application: app}
	}

	bucket := make(map[string]secrets.Value, len(response.Data.Data))
	for key, value := range response.Data.Data {
		bucket[key] = vaultValue(value)
	}
	return bucket, nil
}

// Validate checks the token against the token lookup endpoint.
func (s *VaultStore) Validate(ctx context.Context) error {
	status, err := s.get(ctx, "/v1/auth/token/lookup-self", nil)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return store.AuthError{Store: s.Name(), Message: "token lookup failed, the token may be expired"}
	default:
		return fmt.Errorf("vault returned status %d validating the token", status)
	}
}

func (s *VaultStore) entryPath(app string) string {
	if s.prefix == "" {
		return "/v1/" + s.mount + "/data/" + app
	}
	return "/v1/" + s.mount + "/data/" + s.prefix + "/" + app
}

// get performs an authenticated GET and decodes a JSON body into out when
// the response is 200. It returns the status code so callers can map
// non-200 responses to their own errors.
func (s *VaultStore) get(ctx context.Context, path string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.address+path, nil)
	if err != nil {
		return 0, fmt.Errorf("building vault request: %w", err)
	}

	locked, err := s.token.Open()
	if err != nil {
		return 0, fmt.Errorf("opening vault token: %w", err)
	}
	defer locked.Destroy()

	req.Header.Set("X-Vault-Token", locked.String())
	if s.namespace != "" {
		req.Header.Set("X-Vault-Namespace", s.namespace)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, vaultopserrors.StoreError(s.Name(), "request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK && out != nil {
		decoder := json.NewDecoder(resp.Body)
		decoder.UseNumber()
		if err := decoder.Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding vault response: %w", err)
		}
		return resp.StatusCode, nil
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// vaultValue converts a KV field to a Value. Vault can hold non-string
// JSON; scalars are stringified and anything structured is re-encoded.
func vaultValue(v interface{}) secrets.Value {
	switch value := v.(type) {
	case nil:
		return secrets.Unset()
	case string:
		return secrets.NewValue(value)
	case json.Number:
		return secrets.NewValue(value.String())
	case bool:
		return secrets.NewValue(strconv.FormatBool(value))
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return secrets.Unset()
		}
		return secrets.NewValue(string(encoded))
	}
}
