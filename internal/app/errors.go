package app

import (
	"errors"
	"fmt"
)

// OperationError represents an error that occurred during a session
// operation on one document.
type OperationError struct {
	Op      string // Operation name (e.g., "open", "apply", "rebuild")
	Target  string // Target of the operation (e.g., document ID)
	Version int64  // Document version the operation ran against; zero before any edit
	Err     error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// AtVersion records the document version the operation ran against.
// Safe to call on nil receiver - returns nil.
func (e *OperationError) AtVersion(v int64) *OperationError {
	if e == nil {
		return nil
	}
	e.Version = v
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Version > 0 {
		msg = fmt.Sprintf("%s at version %d", msg, e.Version)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements errors.Is for OperationError.
// Matches both the wrapper itself and the wrapped error.
func (e *OperationError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*OperationError); ok {
		return e == t
	}
	return errors.Is(e.Err, target)
}
