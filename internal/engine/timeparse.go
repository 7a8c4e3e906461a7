package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/florasense/podserver/internal/model"
)

// parseLayout accepts full timestamps without requiring the fractional
// part; time.Parse tolerates an optional fraction after the seconds field.
const parseLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses either a full timestamp (2006-01-02T15:04:05.ffffff,
// fraction optional) or a date-only string (2006-01-02, meaning start of
// day). All times are UTC. Failures return a *ParseError.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, &ParseError{Input: s, Err: errors.New("empty time string")}
	}

	layout := model.DateLayout
	if strings.Contains(s, "T") {
		layout = parseLayout
	}

	t, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return time.Time{}, &ParseError{Input: s, Err: err}
	}
	return t, nil
}
