package retention

import "fmt"

// ValidationError indicates a rejected policy write or a malformed request.
type ValidationError struct {
	Field   string // Offending field ("retention_days", "schedule", ...)
	Message string // Human-readable reason
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NotFoundError indicates an unknown policy, execution, archive entry, or
// data type.
type NotFoundError struct {
	Kind string // What was looked up ("policy", "execution", "archive", "data_type")
	ID   string // The identifier that missed
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{
		Kind: kind,
		ID:   id,
	}
}

// ConcurrencyError indicates an execution was refused because the policy
// already has a run in flight. The scheduler logs these and skips the tick;
// the management API maps them to 409.
type ConcurrencyError struct {
	PolicyID string // Policy with the in-flight execution
}

// Error implements the error interface.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("execution already in flight for policy %s", e.PolicyID)
}

// NewConcurrencyError creates a new ConcurrencyError.
func NewConcurrencyError(policyID string) *ConcurrencyError {
	return &ConcurrencyError{
		PolicyID: policyID,
	}
}

// ArchiveWriteError indicates an archive could not be produced. When the
// engine sees one, deletion is not attempted.
type ArchiveWriteError struct {
	Destination string // Target directory or path
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *ArchiveWriteError) Error() string {
	return fmt.Sprintf("archive write error [destination=%s]: %v", e.Destination, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ArchiveWriteError) Unwrap() error {
	return e.Cause
}

// NewArchiveWriteError creates a new ArchiveWriteError.
func NewArchiveWriteError(destination string, cause error) *ArchiveWriteError {
	return &ArchiveWriteError{
		Destination: destination,
		Cause:       cause,
	}
}

// DeleteError indicates a deletion phase failure in the hot datastore.
type DeleteError struct {
	DataType string // Record category being deleted
	Cause    error  // Underlying error
}

// Error implements the error interface.
func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete error [data_type=%s]: %v", e.DataType, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DeleteError) Unwrap() error {
	return e.Cause
}

// NewDeleteError creates a new DeleteError.
func NewDeleteError(dataType string, cause error) *DeleteError {
	return &DeleteError{
		DataType: dataType,
		Cause:    cause,
	}
}

// ChecksumMismatchError indicates an archive file's content no longer
// matches its recorded SHA-256 checksum.
type ChecksumMismatchError struct {
	Path     string // Archive file path
	Expected string // Recorded checksum (hex)
	Actual   string // Recomputed checksum (hex)
}

// Error implements the error interface.
func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// NewChecksumMismatchError creates a new ChecksumMismatchError.
func NewChecksumMismatchError(path, expected, actual string) *ChecksumMismatchError {
	return &ChecksumMismatchError{
		Path:     path,
		Expected: expected,
		Actual:   actual,
	}
}
