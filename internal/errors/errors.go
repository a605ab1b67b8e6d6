package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError is an error meant to be read by an operator, with enough
// context to act on it.
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError points at the configuration file and field that caused a
// failure.
type ConfigError struct {
	File       string
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.File != "" {
		msg += fmt.Sprintf(" in %s", e.File)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" at '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// StoreError wraps a secret store failure with a suggestion drawn from the
// usual causes for that backend.
func StoreError(store string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s store error during %s", store, operation),
		Suggestion: storeSuggestion(store, err),
		Err:        err,
	}
}

func storeSuggestion(store string, err error) string {
	errStr := err.Error()

	switch {
	case strings.HasPrefix(store, "vault"):
		if strings.Contains(errStr, "no vault token") || strings.Contains(errStr, "403") {
			return "Run 'vault login' or set VAULT_TOKEN"
		}
		if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
			return "Check vaultUrl in the environment configuration"
		}

	case strings.HasPrefix(store, "aws"):
		if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
			return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
		}
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for the secrets this environment reads"
		}
		if strings.Contains(errStr, "ThrottlingException") {
			return "AWS rate limit exceeded. Wait a moment and try again"
		}

	case strings.HasPrefix(store, "gcp"):
		if strings.Contains(errStr, "could not find default credentials") {
			return "Run 'gcloud auth application-default login' or set credentialsFile"
		}
		if strings.Contains(errStr, "PermissionDenied") {
			return "Grant roles/secretmanager.secretAccessor on the project"
		}

	case strings.HasPrefix(store, "azure"):
		if strings.Contains(errStr, "DefaultAzureCredential") {
			return "Run 'az login' or configure a service principal"
		}
		if strings.Contains(errStr, "Forbidden") {
			return "Check the Key Vault access policy for your identity"
		}
	}

	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and store configuration"
	}

	return ""
}

// Simplify rewrites common technical failures as operator-readable errors.
// Errors that already carry context pass through untouched.
func Simplify(err error) error {
	if err == nil {
		return nil
	}

	var userErr UserError
	var configErr ConfigError
	if errors.As(err, &userErr) || errors.As(err, &configErr) {
		return err
	}

	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}
	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
