package engine

import (
	"fmt"
	"time"
)

// ParseError reports a malformed date or timestamp parameter. It is the
// client's fault and maps to a 4xx response upstream.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidWindowError reports a non-positive window span or bin count.
type InvalidWindowError struct {
	Start time.Time
	End   time.Time
	Bins  int
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid window [%s, %s) with %d bins",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Bins)
}
