// Package store defines the contract between the audit pipeline and the
// secret store backends.
//
// A store holds the live secrets of an environment, bucketed by
// application. Backends exist for HashiCorp Vault (the default), plain
// JSON files, AWS Secrets Manager, AWS SSM Parameter Store, GCP Secret
// Manager, and Azure Key Vault; all of them implement the Client
// interface so the rest of the system never cares which one is behind an
// environment.
//
// # The application-bucket model
//
// Every backend exposes the same shape regardless of its native layout:
// one map of key → value per application. Vault stores the bucket as one
// KV v2 entry per application, the cloud backends store it as one JSON
// document per application, the file backend as one file per application.
//
// # Implementing a backend
//
// Implement Client and register a factory for the backend's type name:
//
//	type myStore struct{ ... }
//
//	func (s *myStore) Name() string { return "my.store" }
//
//	func (s *myStore) ApplicationSecrets(ctx context.Context, app string) (map[string]secrets.Value, error) {
//	    doc, err := s.fetch(ctx, app)
//	    if err != nil {
//	        return nil, err
//	    }
//	    ...
//	}
//
//	func (s *myStore) Validate(ctx context.Context) error { ... }
//
// Backends must:
//   - return NotFoundError when an application has no stored bucket,
//     so a freshly added application audits as all-missing instead of
//     failing the run
//   - return AuthError for credential failures
//   - honor context cancellation on every call
//   - never log secret values
//
// Clients must be safe for concurrent use; SnapshotEnvironment fans out
// across applications.
package store

import (
	"context"

	"github.com/systmms/vaultops/pkg/secrets"
)

// Client reads the stored secrets of one environment.
type Client interface {
	// Name returns the backend's stable identifier, matching the
	// secretStore type in the environment configuration. Examples:
	// "vault", "file", "aws.secretsmanager". Used in logs and error
	// messages only.
	Name() string

	// ApplicationSecrets returns the stored bucket for one application.
	// A key present without a value is returned as an unset Value, which
	// is distinct from the key being absent. Applications the store does
	// not know yield NotFoundError.
	ApplicationSecrets(ctx context.Context, app string) (map[string]secrets.Value, error)

	// Validate checks connectivity and credentials without reading any
	// secret. Called once before an environment is snapshotted.
	Validate(ctx context.Context) error
}

// NotFoundError reports an application with no stored bucket. Snapshotting
// treats it as an empty bucket, not a failure.
type NotFoundError struct {
	// Store is the backend that was asked.
	Store string

	// Application is the bucket that does not exist.
	Application string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return "no stored secrets for " + e.Application + " in " + e.Store
}

// AuthError reports failed authentication against a backend.
type AuthError struct {
	// Store is the backend that rejected the credentials.
	Store string

	// Message describes the failure. Never contains credential material.
	Message string
}

// Error implements the error interface.
func (e AuthError) Error() string {
	return "authentication failed for " + e.Store + ": " + e.Message
}
