// Package domainerrors carries coded errors from services to the transport
// layer. Services decide the code; transports only translate codes to
// protocol statuses (see pkg/platform/httputil).
package domainerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a domain error. The string value is what clients see in the
// "error" field of a JSON error body.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeDuplicate          Code = "duplicate_value"
	CodeInvariantViolation Code = "invariant_violation"
	CodeNotFound           Code = "not_found"
	CodeMethodNotAllowed   Code = "method_not_allowed"
	CodeForbidden          Code = "forbidden"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal_error"
)

// FieldError is a single field-level rule violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error is a coded domain error, optionally listing field violations.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// Validation reports one or more field violations under CodeValidation.
func Validation(msg string, fields ...FieldError) error {
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// Duplicate reports a uniqueness conflict attributed to the given fields.
func Duplicate(first FieldError, more ...FieldError) error {
	fields := append([]FieldError{first}, more...)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	return &Error{
		Code:    CodeDuplicate,
		Message: strings.Join(names, ", ") + " already in use",
		Fields:  fields,
	}
}

// HasCode reports whether err (or anything it wraps) is an *Error with code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// As extracts the outermost *Error from err.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// FieldsOf returns the field violations carried by err, if any.
func FieldsOf(err error) []FieldError {
	if de, ok := As(err); ok {
		return de.Fields
	}
	return nil
}
