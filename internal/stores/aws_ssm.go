package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/secrets"
	"github.com/systmms/vaultops/pkg/store"
)

// SSMAPI is the subset of the SSM client the parameter store backend uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// SSMStore reads application buckets from AWS SSM Parameter Store. Each
// application is one SecureString parameter "<prefix>/<application>"
// holding a JSON document of key to value mappings.
type SSMStore struct {
	client SSMAPI
	prefix string
	logger *logging.Logger
}

// SSMOption configures an SSMStore.
type SSMOption func(*SSMStore)

// WithSSMClient substitutes the AWS client, for tests.
func WithSSMClient(client SSMAPI) SSMOption {
	return func(s *SSMStore) {
		s.client = client
	}
}

// NewSSMStore builds the SSM Parameter Store backend. Settings match the
// Secrets Manager backend: prefix (required), region, endpoint, and
// optional static credentials.
func NewSSMStore(env *config.Environment, logger *logging.Logger, opts ...SSMOption) (*SSMStore, error) {
	prefix := env.Store.GetString("prefix")
	if prefix == "" {
		return nil, vaultopserrors.ConfigError{
			Field:      "secretStore.prefix",
			Message:    "parameter name prefix is required",
			Suggestion: "Set secretStore.prefix; applications are stored as <prefix>/<application>",
		}
	}

	s := &SSMStore{prefix: prefix, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := loadAWSConfig(env)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*ssm.Options)
		if endpoint := env.Store.GetString("endpoint"); endpoint != "" {
			clientOpts = append(clientOpts, func(o *ssm.Options) {
				o.BaseEndpoint = aws.String(endpoint)
			})
		}
		s.client = ssm.NewFromConfig(cfg, clientOpts...)
	}

	return s, nil
}

func (s *SSMStore) Name() string {
	return "aws.ssm"
}

// ApplicationSecrets reads the parameter "<prefix>/<application>" with
// decryption enabled.
func (s *SSMStore) ApplicationSecrets(ctx context.Context, app string) (map[string]secrets.Value, error) {
	name := s.prefix + "/" + app
	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return nil, store.NotFoundError{Store: s.Name(), Application: app}
		}
		if isAWSAuthError(err) {
			return nil, store.AuthError{Store: s.Name(), Message: err.Error()}
		}
		return nil, vaultopserrors.StoreError(s.Name(), "read", err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter for %s has no value", app)
	}
	return decodeBucket(s.Name(), app, []byte(*result.Parameter.Value))
}

// Validate describes one parameter to verify the credentials.
func (s *SSMStore) Validate(ctx context.Context) error {
	_, err := s.client.DescribeParameters(ctx, &ssm.DescribeParametersInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return store.AuthError{Store: s.Name(), Message: err.Error()}
	}
	return nil
}
