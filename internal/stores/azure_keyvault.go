package stores

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/secrets"
	"github.com/systmms/vaultops/pkg/store"
)

// AzureSecretsAPI is the subset of the Key Vault secrets client the store
// uses. The real client satisfies it; tests substitute a fake.
type AzureSecretsAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// AzureKeyVaultStore reads application buckets from Azure Key Vault. Each
// application is one secret named "<prefix>-<application>" holding a JSON
// document of key to value mappings.
type AzureKeyVaultStore struct {
	client AzureSecretsAPI
	prefix string
	logger *logging.Logger
}

// AzureKeyVaultOption configures an AzureKeyVaultStore.
type AzureKeyVaultOption func(*AzureKeyVaultStore)

// WithAzureSecretsClient substitutes the Key Vault client, for tests.
func WithAzureSecretsClient(client AzureSecretsAPI) AzureKeyVaultOption {
	return func(s *AzureKeyVaultStore) {
		s.client = client
	}
}

// NewAzureKeyVaultStore builds the Azure Key Vault backend. Settings:
// vaultUrl and prefix, both required. Credentials come from the default
// Azure chain (environment, managed identity, CLI).
func NewAzureKeyVaultStore(env *config.Environment, logger *logging.Logger, opts ...AzureKeyVaultOption) (*AzureKeyVaultStore, error) {
	prefix := env.Store.GetString("prefix")
	if prefix == "" {
		return nil, vaultopserrors.ConfigError{
			Field:      "secretStore.prefix",
			Message:    "secret name prefix is required",
			Suggestion: "Set secretStore.prefix; applications are stored as <prefix>-<application>",
		}
	}

	s := &AzureKeyVaultStore{prefix: prefix, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		vaultURL := env.Store.GetString("vaultUrl")
		if vaultURL == "" {
			return nil, vaultopserrors.ConfigError{
				Field:      "secretStore.vaultUrl",
				Message:    "Key Vault URL is required",
				Suggestion: "Set secretStore.vaultUrl to https://<vault-name>.vault.azure.net",
			}
		}
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("creating Azure credential: %w", err)
		}
		client, err := azsecrets.NewClient(vaultURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("creating Key Vault client: %w", err)
		}
		s.client = client
	}

	return s, nil
}

func (s *AzureKeyVaultStore) Name() string {
	return "azure.keyvault"
}

// ApplicationSecrets reads the current version of "<prefix>-<application>".
func (s *AzureKeyVaultStore) ApplicationSecrets(ctx context.Context, app string) (map[string]secrets.Value, error) {
	name := s.prefix + "-" + app
	resp, err := s.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusNotFound:
				return nil, store.NotFoundError{Store: s.Name(), Application: app}
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, store.AuthError{Store: s.Name(), Message: err.Error()}
			}
		}
		return nil, vaultopserrors.StoreError(s.Name(), "read", err)
	}

	if resp.Value == nil {
		return nil, fmt.Errorf("secret for %s has no value", app)
	}
	return decodeBucket(s.Name(), app, []byte(*resp.Value))
}

// Validate probes a well-known secret name. A missing secret still proves
// the credentials work; only auth failures count against the store.
func (s *AzureKeyVaultStore) Validate(ctx context.Context) error {
	_, err := s.client.GetSecret(ctx, s.prefix+"-validate", "", nil)
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return store.AuthError{Store: s.Name(), Message: err.Error()}
}
