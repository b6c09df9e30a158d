package runner

import (
	"errors"
	"fmt"
)

// skipError marks a record as intentionally skipped rather than failed.
type skipError struct {
	reason string
}

func (e *skipError) Error() string {
	return e.reason
}

// Skip returns an error that marks the current record skipped. The reason
// appears in the record result message.
func Skip(reason string) error {
	return &skipError{reason: reason}
}

// Skipf returns a Skip error with a formatted reason.
func Skipf(format string, args ...any) error {
	return &skipError{reason: fmt.Sprintf(format, args...)}
}

// IsSkip reports whether an error marks a skipped record.
func IsSkip(err error) bool {
	var skip *skipError
	return errors.As(err, &skip)
}
