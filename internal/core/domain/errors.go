package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrUnsupportedProvider indicates an unknown provider type
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrNotConfigured indicates the provider's OAuth app registration is
	// missing or disabled. Fatal for the whole provider type until an
	// operator configures it.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrReauthRequired indicates the OAuth refresh token was rejected.
	// Fatal for the source until it is reconnected.
	ErrReauthRequired = errors.New("reauthorization required")

	// ErrNotConnected indicates a cloud source has no stored refresh token.
	ErrNotConnected = errors.New("source not connected")

	// ErrNoFolderSelected indicates a cloud source has no folder picked.
	ErrNoFolderSelected = errors.New("no folder selected")

	// ErrRunInProgress indicates another run currently holds the source lock.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrBrowseNotSupported indicates the provider addresses folders by
	// absolute path only and cannot be browsed.
	ErrBrowseNotSupported = errors.New("folder browsing not supported")

	// ErrImportWriteFailed indicates blob or metadata persistence failed.
	// Retryable on the next tick since no identity was recorded.
	ErrImportWriteFailed = errors.New("import write failed")
)

// ConnectorError wraps a transient network/protocol failure during
// list/download. Retryable on the next scheduled tick.
type ConnectorError struct {
	Provider ProviderType
	Op       string
	Err      error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ConnectorError) Unwrap() error { return e.Err }

// NewConnectorError wraps err with provider and operation context.
func NewConnectorError(provider ProviderType, op string, err error) *ConnectorError {
	return &ConnectorError{Provider: provider, Op: op, Err: err}
}

// ValidationError marks a file whose content, type or size is disallowed.
// Permanent for that specific file, never retried within a run.
type ValidationError struct {
	Filename string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation rejected %s: %s", e.Filename, e.Reason)
}

// IsValidationRejected reports whether err is a validation rejection.
func IsValidationRejected(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConnectorError reports whether err is a transient connector failure.
func IsConnectorError(err error) bool {
	var ce *ConnectorError
	return errors.As(err, &ce)
}
