package fakes

import (
	"context"
	"fmt"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPSecretManagerAPI mirrors the Secret Manager method the store uses.
type GCPSecretManagerAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// FakeGCPSecretManagerClient is an in-memory stand-in for the GCP Secret
// Manager client. Payloads are keyed by full version resource name
// (projects/X/secrets/Y/versions/Z). Every request is recorded so tests
// can assert the exact resource names the store asked for.
type FakeGCPSecretManagerClient struct {
	// Payloads maps version resource names to payload bytes.
	Payloads map[string][]byte
	// Errors maps version resource names to errors to return.
	Errors map[string]error
	// Requests records every AccessSecretVersion request, in order.
	Requests []*secretmanagerpb.AccessSecretVersionRequest
	// AccessSecretVersionFunc overrides AccessSecretVersion when set.
	AccessSecretVersionFunc func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

var _ GCPSecretManagerAPI = (*FakeGCPSecretManagerClient)(nil)

// NewFakeGCPSecretManagerClient returns an empty fake.
func NewFakeGCPSecretManagerClient() *FakeGCPSecretManagerClient {
	return &FakeGCPSecretManagerClient{
		Payloads: make(map[string][]byte),
		Errors:   make(map[string]error),
	}
}

// AddBucket stores an application bucket as the latest version of the
// secret named secretName in projectID.
func (f *FakeGCPSecretManagerClient) AddBucket(projectID, secretName string, pairs map[string]*string) *FakeGCPSecretManagerClient {
	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)
	f.Payloads[resource] = []byte(bucketDocument(pairs))
	return f
}

// AddPayload stores raw payload bytes under a full version resource name.
func (f *FakeGCPSecretManagerClient) AddPayload(resource string, data []byte) *FakeGCPSecretManagerClient {
	f.Payloads[resource] = data
	return f
}

// AddError makes reads of a version resource name fail with err.
func (f *FakeGCPSecretManagerClient) AddError(resource string, err error) *FakeGCPSecretManagerClient {
	f.Errors[resource] = err
	return f
}

func (f *FakeGCPSecretManagerClient) AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.Requests = append(f.Requests, req)

	if f.AccessSecretVersionFunc != nil {
		return f.AccessSecretVersionFunc(ctx, req)
	}
	if err, ok := f.Errors[req.Name]; ok {
		return nil, err
	}
	data, ok := f.Payloads[req.Name]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "Secret version %s not found", req.Name)
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    req.Name,
		Payload: &secretmanagerpb.SecretPayload{Data: data},
	}, nil
}

// GCPPermissionDeniedError builds the error Secret Manager returns when
// the caller lacks secretmanager.versions.access.
func GCPPermissionDeniedError(resource string) error {
	return status.Errorf(codes.PermissionDenied, "Permission denied on resource %s", resource)
}
