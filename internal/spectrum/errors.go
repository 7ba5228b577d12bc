package spectrum

import (
	"fmt"
)

// ParseError reports a malformed row in a scan file
type ParseError struct {
	File   string
	Line   int
	Column int // 1-based field index, 0 when the whole row is at fault
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("%s: line %d, field %d: %v", e.File, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: line %d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid parameter passed to the pipeline
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
