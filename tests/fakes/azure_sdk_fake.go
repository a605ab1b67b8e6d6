package fakes

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// AzureSecretsAPI mirrors the Key Vault method the store uses.
type AzureSecretsAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

// FakeAzureSecretsClient is an in-memory stand-in for the Key Vault
// secrets client. Secrets are keyed by name; versions are not modeled
// because the store always reads the current version.
type FakeAzureSecretsClient struct {
	// Documents maps secret names to their string value.
	Documents map[string]string
	// Errors maps secret names to errors to return instead of a value.
	Errors map[string]error
	// GetSecretFunc overrides GetSecret entirely when set.
	GetSecretFunc func(ctx context.Context, name, version string) (azsecrets.GetSecretResponse, error)
}

var _ AzureSecretsAPI = (*FakeAzureSecretsClient)(nil)

// NewFakeAzureSecretsClient returns an empty fake.
func NewFakeAzureSecretsClient() *FakeAzureSecretsClient {
	return &FakeAzureSecretsClient{
		Documents: make(map[string]string),
		Errors:    make(map[string]error),
	}
}

// AddBucket stores an application bucket under name.
func (f *FakeAzureSecretsClient) AddBucket(name string, pairs map[string]*string) *FakeAzureSecretsClient {
	f.Documents[name] = bucketDocument(pairs)
	return f
}

// AddDocument stores a raw string value under name.
func (f *FakeAzureSecretsClient) AddDocument(name, document string) *FakeAzureSecretsClient {
	f.Documents[name] = document
	return f
}

// AddError makes reads of name fail with err.
func (f *FakeAzureSecretsClient) AddError(name string, err error) *FakeAzureSecretsClient {
	f.Errors[name] = err
	return f
}

func (f *FakeAzureSecretsClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	if f.GetSecretFunc != nil {
		return f.GetSecretFunc(ctx, name, version)
	}
	if err, ok := f.Errors[name]; ok {
		return azsecrets.GetSecretResponse{}, err
	}
	document, ok := f.Documents[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, AzureNotFoundError()
	}
	id := azsecrets.ID(fmt.Sprintf("https://test-vault.vault.azure.net/secrets/%s", name))
	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			ID:    &id,
			Value: to.Ptr(document),
		},
	}, nil
}

// AzureNotFoundError builds the 404 Key Vault returns for a missing secret.
func AzureNotFoundError() error {
	return &azcore.ResponseError{StatusCode: 404, ErrorCode: "SecretNotFound"}
}

// AzureForbiddenError builds the 403 Key Vault returns when access policy
// denies the caller.
func AzureForbiddenError() error {
	return &azcore.ResponseError{StatusCode: 403, ErrorCode: "Forbidden"}
}

// AzureUnauthorizedError builds the 401 Key Vault returns for bad
// credentials.
func AzureUnauthorizedError() error {
	return &azcore.ResponseError{StatusCode: 401, ErrorCode: "Unauthorized"}
}
