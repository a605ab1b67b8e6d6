package fakes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// Ptr returns a pointer to v, for building bucket literals.
func Ptr(v string) *string {
	return &v
}

// bucketDocument marshals application key/value pairs into the JSON
// document the cloud stores keep per application. A nil value renders as
// JSON null, matching an unset secret.
func bucketDocument(pairs map[string]*string) string {
	document, err := json.Marshal(pairs)
	if err != nil {
		panic(err)
	}
	return string(document)
}

// SecretsManagerAPI mirrors the Secrets Manager methods the store uses.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// FakeSecretsManagerClient is an in-memory stand-in for the AWS Secrets
// Manager client. Secrets are keyed by full secret name.
type FakeSecretsManagerClient struct {
	// Documents maps secret names to their string value.
	Documents map[string]string
	// Binary maps secret names to a binary value, for secrets stored
	// without a SecretString.
	Binary map[string][]byte
	// Errors maps secret names to errors to return instead of a value.
	Errors map[string]error
	// ListErr is returned from ListSecrets when set.
	ListErr error
	// GetSecretValueFunc overrides GetSecretValue entirely when set.
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)
}

var _ SecretsManagerAPI = (*FakeSecretsManagerClient)(nil)

// NewFakeSecretsManagerClient returns an empty fake.
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Documents: make(map[string]string),
		Binary:    make(map[string][]byte),
		Errors:    make(map[string]error),
	}
}

// AddBucket stores an application bucket under name.
func (f *FakeSecretsManagerClient) AddBucket(name string, pairs map[string]*string) *FakeSecretsManagerClient {
	f.Documents[name] = bucketDocument(pairs)
	return f
}

// AddDocument stores a raw string value under name, for malformed
// document tests.
func (f *FakeSecretsManagerClient) AddDocument(name, document string) *FakeSecretsManagerClient {
	f.Documents[name] = document
	return f
}

// AddBinaryBucket stores an application bucket as a binary secret.
func (f *FakeSecretsManagerClient) AddBinaryBucket(name string, pairs map[string]*string) *FakeSecretsManagerClient {
	f.Binary[name] = []byte(bucketDocument(pairs))
	return f
}

// AddError makes reads of name fail with err.
func (f *FakeSecretsManagerClient) AddError(name string, err error) *FakeSecretsManagerClient {
	f.Errors[name] = err
	return f
}

func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.GetSecretValueFunc != nil {
		return f.GetSecretValueFunc(ctx, params)
	}

	name := aws.ToString(params.SecretId)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	if document, ok := f.Documents[name]; ok {
		return &secretsmanager.GetSecretValueOutput{
			Name:         params.SecretId,
			SecretString: aws.String(document),
		}, nil
	}
	if binary, ok := f.Binary[name]; ok {
		return &secretsmanager.GetSecretValueOutput{
			Name:         params.SecretId,
			SecretBinary: binary,
		}, nil
	}
	return nil, &smtypes.ResourceNotFoundException{
		Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", name)),
	}
}

func (f *FakeSecretsManagerClient) ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return &secretsmanager.ListSecretsOutput{SecretList: []smtypes.SecretListEntry{}}, nil
}

// SSMAPI mirrors the SSM methods the parameter store backend uses.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error)
}

// FakeSSMClient is an in-memory stand-in for the SSM client. Parameters
// are keyed by full parameter name.
type FakeSSMClient struct {
	// Documents maps parameter names to their string value.
	Documents map[string]string
	// Errors maps parameter names to errors to return instead of a value.
	Errors map[string]error
	// DescribeErr is returned from DescribeParameters when set.
	DescribeErr error
	// GetParameterFunc overrides GetParameter entirely when set.
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput) (*ssm.GetParameterOutput, error)
}

var _ SSMAPI = (*FakeSSMClient)(nil)

// NewFakeSSMClient returns an empty fake.
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Documents: make(map[string]string),
		Errors:    make(map[string]error),
	}
}

// AddBucket stores an application bucket under name.
func (f *FakeSSMClient) AddBucket(name string, pairs map[string]*string) *FakeSSMClient {
	f.Documents[name] = bucketDocument(pairs)
	return f
}

// AddDocument stores a raw string value under name.
func (f *FakeSSMClient) AddDocument(name, document string) *FakeSSMClient {
	f.Documents[name] = document
	return f
}

// AddError makes reads of name fail with err.
func (f *FakeSSMClient) AddError(name string, err error) *FakeSSMClient {
	f.Errors[name] = err
	return f
}

func (f *FakeSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.GetParameterFunc != nil {
		return f.GetParameterFunc(ctx, params)
	}

	name := aws.ToString(params.Name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	document, ok := f.Documents[name]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{
			Message: aws.String(fmt.Sprintf("Parameter %s not found", name)),
		}
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{
			Name:  params.Name,
			Type:  ssmtypes.ParameterTypeSecureString,
			Value: aws.String(document),
		},
	}, nil
}

func (f *FakeSSMClient) DescribeParameters(ctx context.Context, params *ssm.DescribeParametersInput, optFns ...func(*ssm.Options)) (*ssm.DescribeParametersOutput, error) {
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}
	return &ssm.DescribeParametersOutput{Parameters: []ssmtypes.ParameterMetadata{}}, nil
}
