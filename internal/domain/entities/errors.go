package entities

import (
	"errors"
	"fmt"
)

// Error codes shared by presenters and the run journal
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeCollaborator       = "COLLABORATOR_FAILURE"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// NotFoundError reports a requested asset, library, album, person or folder that does not exist
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InvariantViolationError reports data that breaks an assumption an operation depends on,
// such as a takeout asset without a duplicate in a year folder
type InvariantViolationError struct {
	AssetID string
	Folder  string
	Reason  string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("asset %s in folder %s %s", e.AssetID, e.Folder, e.Reason)
}

// CollaboratorError wraps a failure of the photo server or the database
type CollaboratorError struct {
	Service    string // "immich", "database"
	Op         string
	StatusCode int
	Err        error
}

func (e *CollaboratorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: HTTP %d: %v", e.Service, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// ConfigurationError reports an unknown command, predicate or an invalid setting
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ErrorCode extracts the stable code for an error; unknown errors map to CodeInternal
func ErrorCode(err error) string {
	var (
		notFound  *NotFoundError
		invariant *InvariantViolationError
		collab    *CollaboratorError
		config    *ConfigurationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &config):
		return CodeConfiguration
	case errors.As(err, &invariant):
		return CodeInvariantViolation
	case errors.As(err, &notFound):
		return CodeNotFound
	case errors.As(err, &collab):
		return CodeCollaborator
	default:
		return CodeInternal
	}
}

// IsNotFound returns true if err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
