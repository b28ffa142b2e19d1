package depsync

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for common engine error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrRecordNotFound indicates the requested record was not found in the
	// source store during resolution.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidConfig indicates the provided configuration is invalid or
	// incomplete (for example, a depth limit below zero or an import-related
	// call against an introspector without reverse lookup support).
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCreationFailed indicates that creating a record in the target store
	// failed. The underlying store error is wrapped for additional context.
	ErrCreationFailed = errors.New("record creation failed")

	// ErrValidationBlocked indicates that a critical validation issue was
	// raised before execution and the import was aborted with zero writes.
	ErrValidationBlocked = errors.New("validation blocked import")

	// ErrAborted indicates the run was stopped early, either by context
	// cancellation or by an error returned from a progress callback. The
	// partial result accumulated so far is still returned alongside it.
	ErrAborted = errors.New("import aborted")
)

// Error kinds categorize errors by their type.
const (
	// KindConflict represents node re-registration with a different type.
	KindConflict = "conflict"

	// KindNotFound represents errors where a record or node was not found.
	KindNotFound = "not_found"

	// KindCycle represents circular-dependency ordering errors.
	KindCycle = "cycle"

	// KindLookup represents introspection failures during resolution.
	KindLookup = "lookup"

	// KindValidation represents errors related to preflight validation.
	KindValidation = "validation"

	// KindCreation represents errors raised by target-store writes.
	KindCreation = "creation"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindAborted represents runs stopped before completion.
	KindAborted = "aborted"
)

// SyncError is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of
// error.
//
// SyncError implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &SyncError{
//		Op:   "Importer.ImportWithDependencies",
//		Kind: KindCycle,
//		Err:  cycleErr,
//	}
type SyncError struct {
	// Op is the operation that failed (e.g., "Resolver.Resolve",
	// "Importer.ImportWithDependencies").
	Op string

	// Kind categorizes the error (e.g., KindCycle, KindCreation).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include record ids, types, or other debugging information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *SyncError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("depsync: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("depsync: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("depsync: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// Is implements error matching for SyncError, allowing comparison based on
// the underlying error or on a SyncError template with a matching Kind.
func (e *SyncError) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*SyncError); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a new SyncError with the provided context added.
// This is useful for attaching record ids and types to errors as they
// propagate out of the pipeline.
func (e *SyncError) WithContext(ctx map[string]any) *SyncError {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewConflictError creates a new SyncError with KindConflict.
func NewConflictError(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: KindConflict, Err: err}
}

// NewNotFoundError creates a new SyncError with KindNotFound.
func NewNotFoundError(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: KindNotFound, Err: err}
}

// NewCycleError creates a new SyncError with KindCycle.
func NewCycleError(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: KindCycle, Err: err}
}

// NewLookupError creates a new SyncError with KindLookup.
func NewLookupError(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: KindLookup, Err: err}
}

// NewValidationError creates a new SyncError with KindValidation.
func NewValidationError(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: KindValidation, Err: err}
}

// NewCreationError creates a new SyncError with KindCreation.
func NewCreationError(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: KindCreation, Err: err}
}

// NewConfigurationError creates a new SyncError with KindConfiguration.
func NewConfigurationError(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: KindConfiguration, Err: err}
}

// NewAbortedError creates a new SyncError with KindAborted.
func NewAbortedError(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: KindAborted, Err: err}
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. This is intended for use in defer statements so cleanup
// errors from store adapters are not silently ignored.
//
// The name parameter should describe the resource being closed (e.g.,
// "redis store", "etcd store"). If logger is nil, slog.Default() is used.
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
