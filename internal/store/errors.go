package store

import "fmt"

// UnavailableError wraps a connectivity or driver failure talking to the
// backing store. Adapters raise it; the engine propagates it unchanged and
// the HTTP layer maps it to a server error.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as an UnavailableError unless it is nil or
// already one.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*UnavailableError); ok {
		return err
	}
	return &UnavailableError{Op: op, Err: err}
}
