package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not_found")
	// ErrReauthorizationRequired is returned alongside an unchanged account when
	// the platform offers no refresh mechanism and the user must connect again.
	ErrReauthorizationRequired = errors.New("reauthorization required")
)

// ConfigurationError signals a deployment problem: an unregistered platform or
// an adapter constructed without credentials.
type ConfigurationError struct {
	Platform Platform
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for platform %q: %s", e.Platform, e.Reason)
}

// ExternalAuthError carries the platform's own message for a failed token exchange.
type ExternalAuthError struct {
	Platform Platform
	Message  string
	Err      error
}

func (e *ExternalAuthError) Error() string {
	return fmt.Sprintf("%s auth error: %s", e.Platform, e.Message)
}

func (e *ExternalAuthError) Unwrap() error { return e.Err }

// ValidationError rejects a malformed request before any adapter is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// PartialPersistenceError means the external post exists but its local record
// could not be saved. Remediation is reconciliation, not a retry of the publish.
type PartialPersistenceError struct {
	Platform   Platform
	PostID     string
	ExternalID string
	Err        error
}

func (e *PartialPersistenceError) Error() string {
	return fmt.Sprintf("published to %s (external id %q) but failed to record publication for post %s: %v",
		e.Platform, e.ExternalID, e.PostID, e.Err)
}

func (e *PartialPersistenceError) Unwrap() error { return e.Err }
