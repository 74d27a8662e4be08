package store

import (
	"context"
	"errors"
	"fmt"
)

// Standard projection errors
var (
	// ErrSourceUnavailable is returned when the record store cannot serve a query
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrTargetUnavailable is returned when a projection target cannot be reached
	ErrTargetUnavailable = errors.New("target unavailable")

	// ErrRowMapping is returned when a source row cannot be converted to a target representation
	ErrRowMapping = errors.New("row mapping failed")

	// ErrNotFound is returned when the record store has no matching record
	ErrNotFound = errors.New("not found")

	// ErrStaleWrite is returned when an upsert lost a race to a concurrent writer
	ErrStaleWrite = errors.New("stale write")

	// ErrUnsupportedProjection is returned for an entity a target cannot represent
	ErrUnsupportedProjection = errors.New("unsupported projection")

	// ErrInvalidArgument is returned for malformed caller input
	ErrInvalidArgument = errors.New("invalid argument")
)

// SourceError wraps a record store failure.
type SourceError struct {
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("record store %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Cause
}

// Is reports ErrSourceUnavailable in addition to the cause chain.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// NewSourceError creates a new SourceError.
func NewSourceError(operation string, cause error) *SourceError {
	return &SourceError{Operation: operation, Cause: cause}
}

// TargetError wraps a failure reported by a projection target.
type TargetError struct {
	Store     string
	Operation string
	Cause     error
	// Unavailable marks connectivity failures that abort the whole target sync.
	Unavailable bool
}

// Error implements the error interface.
func (e *TargetError) Error() string {
	if e.Unavailable {
		return fmt.Sprintf("[%s] %s: target unavailable: %v", e.Store, e.Operation, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Store, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *TargetError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrTargetUnavailable.
func (e *TargetError) Is(target error) bool {
	return e.Unavailable && target == ErrTargetUnavailable
}

// NewTargetError creates a row-scoped TargetError.
func NewTargetError(storeName, operation string, cause error) *TargetError {
	return &TargetError{Store: storeName, Operation: operation, Cause: cause}
}

// NewUnavailableError creates a TargetError that aborts the target's sync.
func NewUnavailableError(storeName, operation string, cause error) *TargetError {
	return &TargetError{Store: storeName, Operation: operation, Cause: cause, Unavailable: true}
}

// MappingError is returned when a single source row cannot be projected.
type MappingError struct {
	Entity string
	RowID  string
	Reason string
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	return fmt.Sprintf("cannot map %s row %s: %s", e.Entity, e.RowID, e.Reason)
}

// Is checks if the error is ErrRowMapping.
func (e *MappingError) Is(target error) bool {
	return target == ErrRowMapping
}

// NewMappingError creates a new MappingError.
func NewMappingError(entity, rowID, reason string) *MappingError {
	return &MappingError{Entity: entity, RowID: rowID, Reason: reason}
}

// WrapTargetError wraps err for storeName, classifying it with isConnectivity.
// Deadline and cancellation errors stay row-scoped. Existing TargetErrors are
// returned as-is.
func WrapTargetError(storeName, operation string, err error, isConnectivity func(error) bool) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap
	var targetErr *TargetError
	if errors.As(err, &targetErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTargetError(storeName, operation, err)
	}
	if isConnectivity != nil && isConnectivity(err) {
		return NewUnavailableError(storeName, operation, err)
	}
	return NewTargetError(storeName, operation, err)
}

// IsSourceUnavailable checks if an error means the record store is unreachable
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsTargetUnavailable checks if an error means a target store is unreachable
func IsTargetUnavailable(err error) bool {
	return errors.Is(err, ErrTargetUnavailable)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRowMapping checks if an error is a row mapping error
func IsRowMapping(err error) bool {
	return errors.Is(err, ErrRowMapping)
}
