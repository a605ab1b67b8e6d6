package stores

import (
	"context"
	"fmt"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/secrets"
	"github.com/systmms/vaultops/pkg/store"
)

// GCPSecretManagerAPI is the subset of the Secret Manager client the store
// uses. The real client takes gax call options, so it is wrapped by
// gcpAPIAdapter; tests implement this interface directly.
type GCPSecretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// gcpAPIAdapter adapts *secretmanager.Client to GCPSecretManagerAPI.
type gcpAPIAdapter struct {
	client *secretmanager.Client
}

func (a gcpAPIAdapter) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	return a.client.AccessSecretVersion(ctx, req)
}

// GCPSecretManagerStore reads application buckets from Google Cloud Secret
// Manager. Each application is one secret named "<prefix>-<application>"
// whose latest version holds a JSON document of key to value mappings.
type GCPSecretManagerStore struct {
	client  GCPSecretManagerAPI
	project string
	prefix  string
	logger  *logging.Logger
}

// GCPSecretManagerOption configures a GCPSecretManagerStore.
type GCPSecretManagerOption func(*GCPSecretManagerStore)

// WithGCPSecretManagerClient substitutes the API client, for tests.
func WithGCPSecretManagerClient(client GCPSecretManagerAPI) GCPSecretManagerOption {
	return func(s *GCPSecretManagerStore) {
		s.client = client
	}
}

// NewGCPSecretManagerStore builds the GCP Secret Manager backend.
// Settings: project (falls back to GOOGLE_CLOUD_PROJECT), prefix
// (required), and credentialsFile for a service account key; without one
// application default credentials apply.
func NewGCPSecretManagerStore(env *config.Environment, logger *logging.Logger, opts ...GCPSecretManagerOption) (*GCPSecretManagerStore, error) {
	project := env.Store.GetString("project")
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if project == "" {
		return nil, vaultopserrors.ConfigError{
			Field:      "secretStore.project",
			Message:    "GCP project is required",
			Suggestion: "Set secretStore.project or the GOOGLE_CLOUD_PROJECT environment variable",
		}
	}

	prefix := env.Store.GetString("prefix")
	if prefix == "" {
		return nil, vaultopserrors.ConfigError{
			Field:      "secretStore.prefix",
			Message:    "secret name prefix is required",
			Suggestion: "Set secretStore.prefix; applications are stored as <prefix>-<application>",
		}
	}

	s := &GCPSecretManagerStore{project: project, prefix: prefix, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		var clientOpts []option.ClientOption
		if credentialsFile := env.Store.GetString("credentialsFile"); credentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
		}
		client, err := secretmanager.NewClient(context.Background(), clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating Secret Manager client: %w", err)
		}
		s.client = gcpAPIAdapter{client: client}
	}

	return s, nil
}

func (s *GCPSecretManagerStore) Name() string {
	return "gcp.secretmanager"
}

// resourceName builds the full version resource for an application bucket.
func (s *GCPSecretManagerStore) resourceName(app string) string {
	return fmt.Sprintf("projects/%s/secrets/%s-%s/versions/latest", s.project, s.prefix, app)
}

// ApplicationSecrets reads the latest version of "<prefix>-<application>".
func (s *GCPSecretManagerStore) ApplicationSecrets(ctx context.Context, app string) (map[string]secrets.Value, error) {
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.resourceName(app),
	})
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound:
			return nil, store.NotFoundError{Store: s.Name(), Application: app}
		case codes.PermissionDenied, codes.Unauthenticated:
			return nil, store.AuthError{Store: s.Name(), Message: err.Error()}
		}
		return nil, vaultopserrors.StoreError(s.Name(), "read", err)
	}

	if result.Payload == nil {
		return nil, fmt.Errorf("secret for %s has no payload", app)
	}
	return decodeBucket(s.Name(), app, result.Payload.Data)
}

// Validate probes a well-known secret name. A missing secret still proves
// the credentials work; only auth failures count against the store.
func (s *GCPSecretManagerStore) Validate(ctx context.Context) error {
	_, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s-validate/versions/latest", s.project, s.prefix),
	})
	if err == nil || status.Code(err) == codes.NotFound {
		return nil
	}
	return store.AuthError{Store: s.Name(), Message: err.Error()}
}
