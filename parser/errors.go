package parser

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBoundary = errors.New("multipart: boundary must not be empty")
	ErrBadBoundary   = errors.New("multipart: boundary must not contain CR or LF")
	ErrNotConfigured = errors.New("multipart: parser has no boundary configured")
	// ErrMalformed is wrapped by every SyntaxError.
	ErrMalformed = errors.New("multipart: malformed stream")
)

// SyntaxError describes a byte which violates the grammar of the mode the parser was in.
// Once reported, the parser is stopped for good.
type SyntaxError struct {
	// State is the mode the offending byte was fed in.
	State State
	Char  byte
	// Offset is the position of the offending byte counted from the very first
	// byte fed since the boundary was configured.
	Offset int64
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf(
		"multipart: %s at offset %d (state %s, char %q)", e.Reason, e.Offset, e.State, e.Char,
	)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}
