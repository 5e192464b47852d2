package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus is returned when a raw status value is not recognized.
var ErrUnknownStatus = errors.New("unknown test status")

// Status represents the outcome of a single test run.
type Status int

const (
	// StatusPassed indicates the test passed.
	StatusPassed Status = iota
	// StatusFailed indicates an assertion failure.
	StatusFailed
	// StatusSkipped indicates the test was skipped.
	StatusSkipped
	// StatusError indicates an error outside the test body (fixtures, setup).
	StatusError
	// StatusXFailed indicates an expected failure.
	StatusXFailed
	// StatusXPassed indicates an unexpected pass of an expected failure.
	StatusXPassed
	// StatusRerun indicates a run that was retried.
	StatusRerun
)

var statusNames = [...]string{
	StatusPassed:  "passed",
	StatusFailed:  "failed",
	StatusSkipped: "skipped",
	StatusError:   "error",
	StatusXFailed: "xfailed",
	StatusXPassed: "xpassed",
	StatusRerun:   "rerun",
}

// Statuses lists every status in declaration order.
func Statuses() []Status {
	return []Status{StatusPassed, StatusFailed, StatusSkipped, StatusError, StatusXFailed, StatusXPassed, StatusRerun}
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}

	return statusNames[s]
}

// ParseStatus converts a raw status value, case-insensitive and trimmed.
func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for i, name := range statusNames {
		if name == normalized {
			return Status(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
