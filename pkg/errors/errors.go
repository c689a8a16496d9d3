package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures by how the engine reacts to them
type ErrorType string

const (
	// ErrorTypeParse covers non-JSON bodies and malformed URLs; degraded, never propagated
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeUnextractable marks nodes without an id or detail payload; skipped
	ErrorTypeUnextractable ErrorType = "unextractable"
	// ErrorTypeValidation aborts a whole ingestion batch
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeTransport is a failure while handling one captured response; logged
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeStorage is a database failure surfaced to the caller
	ErrorTypeStorage ErrorType = "storage"
)

// Error carries a type, a message and, for batch failures, the record index
type Error struct {
	Type    ErrorType
	Message string
	Index   int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Type == ErrorTypeValidation && e.Index >= 0 {
		msg = fmt.Sprintf("%s error (record %d): %s", e.Type, e.Index, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports a structural problem with the record at index
func NewValidationError(index int, format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...), Index: index}
}

// NewStorageError wraps a database failure
func NewStorageError(msg string, err error) *Error {
	return &Error{Type: ErrorTypeStorage, Message: msg, Index: -1, Err: err}
}

// NewParseError wraps a decoding failure
func NewParseError(msg string, err error) *Error {
	return &Error{Type: ErrorTypeParse, Message: msg, Index: -1, Err: err}
}

// NewTransportError wraps a failure while handling a captured response
func NewTransportError(msg string, err error) *Error {
	return &Error{Type: ErrorTypeTransport, Message: msg, Index: -1, Err: err}
}

// IsType reports whether err (or anything it wraps) is an *Error of type t
func IsType(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}
