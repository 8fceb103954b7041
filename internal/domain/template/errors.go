package template

import (
	"errors"
	"fmt"
)

// ErrNoScope is returned when no organization scope can be resolved for the
// caller. Every persistence-touching operation fails fast with it rather
// than querying unscoped.
var ErrNoScope = errors.New("no organization scope resolved")

// ErrNotFound is returned when a template id does not exist within the
// caller's scope. A cross-scope id produces the same error so existence is
// never leaked.
var ErrNotFound = errors.New("template not found")

// PersistenceError wraps a gateway failure with the operation that was in
// flight. In-memory state is never corrupted by one; user-facing messages
// are derived from Op, never from the underlying driver error.
type PersistenceError struct {
	Op  string // "create", "save", "load", "delete" or "list"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
