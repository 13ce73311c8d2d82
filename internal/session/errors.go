package session

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	// ErrDocumentNotFound indicates no session exists for a handle.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrStaleDocument indicates a timer fired for a document that is no
	// longer active or open.
	ErrStaleDocument = errors.New("stale document")

	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrInvalidDocument indicates a missing buffer or renderer.
	ErrInvalidDocument = errors.New("invalid document")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "open", "activate", "close")
	Target string // Document name or handle
	Err    error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
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
