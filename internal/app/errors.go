package app

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	// ErrSessionClosed is returned when using a session after Close.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNoChanges is returned by Save when nothing needs writing.
	ErrNoChanges = errors.New("no changes to save")
)

// OperationError describes a failed session operation on a target file.
type OperationError struct {
	Op     string // operation name, e.g. "open", "save", "script"
	Target string // file the operation acted on
	Err    error
}

func (e *OperationError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
