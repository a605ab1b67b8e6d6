package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/secrets"
	"github.com/systmms/vaultops/pkg/store"
)

// SecretsManagerAPI is the subset of the AWS Secrets Manager client the
// store uses. The real client satisfies it; tests substitute a fake.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// SecretsManagerStore reads application buckets from AWS Secrets Manager.
// Each application is one secret named "<prefix>/<application>" whose
// string value is a JSON document of key to value mappings.
type SecretsManagerStore struct {
	client SecretsManagerAPI
	prefix string
	logger *logging.Logger
}

// SecretsManagerOption configures a SecretsManagerStore.
type SecretsManagerOption func(*SecretsManagerStore)

// WithSecretsManagerClient substitutes the AWS client, for tests.
func WithSecretsManagerClient(client SecretsManagerAPI) SecretsManagerOption {
	return func(s *SecretsManagerStore) {
		s.client = client
	}
}

// NewSecretsManagerStore builds the AWS Secrets Manager backend.
// Settings: prefix (required), region, endpoint, and accessKeyId plus
// secretAccessKey for static credentials; without them the default AWS
// credential chain applies.
func NewSecretsManagerStore(env *config.Environment, logger *logging.Logger, opts ...SecretsManagerOption) (*SecretsManagerStore, error) {
	prefix := env.Store.GetString("prefix")
	if prefix == "" {
		return nil, vaultopserrors.ConfigError{
			Field:      "secretStore.prefix",
			Message:    "secret name prefix is required",
			Suggestion: "Set secretStore.prefix; applications are stored as <prefix>/<application>",
		}
	}

	s := &SecretsManagerStore{prefix: prefix, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := loadAWSConfig(env)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*secretsmanager.Options)
		if endpoint := env.Store.GetString("endpoint"); endpoint != "" {
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = aws.String(endpoint)
			})
		}
		s.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return s, nil
}

// loadAWSConfig resolves region and credentials for the AWS backends.
func loadAWSConfig(env *config.Environment) (aws.Config, error) {
	var configOpts []func(*awsconfig.LoadOptions) error
	if region := env.Store.GetString("region"); region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(region))
	}

	accessKeyID := env.Store.GetString("accessKeyId")
	secretAccessKey := env.Store.GetString("secretAccessKey")
	if accessKeyID != "" && secretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return cfg, nil
}

func (s *SecretsManagerStore) Name() string {
	return "aws.secretsmanager"
}

// ApplicationSecrets reads the secret "<prefix>/<application>".
func (s *SecretsManagerStore) ApplicationSecrets(ctx context.Context, app string) (map[string]secrets.Value, error) {
	name := s.prefix + "/" + app
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, store.NotFoundError{Store: s.Name(), Application: app}
		}
		if isAWSAuthError(err) {
			return nil, store.AuthError{Store: s.Name(), Message: err.Error()}
		}
		return nil, vaultopserrors.StoreError(s.Name(), "read", err)
	}

	var document []byte
	switch {
	case result.SecretString != nil:
		document = []byte(*result.SecretString)
	case result.SecretBinary != nil:
		document = result.SecretBinary
	default:
		return nil, fmt.Errorf("secret for %s has no value", app)
	}
	return decodeBucket(s.Name(), app, document)
}

// Validate lists one secret to verify the credentials.
func (s *SecretsManagerStore) Validate(ctx context.Context) error {
	_, err := s.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return store.AuthError{Store: s.Name(), Message: err.Error()}
	}
	return nil
}

// isAWSAuthError recognizes credential and permission failures across the
// AWS services, which do not share one error type.
func isAWSAuthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "AccessDenied") ||
		strings.Contains(msg, "UnauthorizedOperation") ||
		strings.Contains(msg, "UnrecognizedClientException") ||
		strings.Contains(msg, "ExpiredToken") ||
		strings.Contains(msg, "get credentials")
}
