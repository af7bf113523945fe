package store

import (
	"fmt"

	"signup/pkg/platform/sentinel"
)

// Index names shared by both store implementations.
const (
	IndexUsername = "profiles_username_key"
	IndexEmail    = "profiles_email_key"
)

// DuplicateKeyError reports a write rejected by a unique index.
type DuplicateKeyError struct {
	Index string
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on %s (%s)", e.Index, e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return sentinel.ErrConflict
}

// SchemaError reports a write rejected by the stored schema.
type SchemaError struct {
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema violation: %v", e.Err)
	}
	return fmt.Sprintf("schema violation on %s: %v", e.Field, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{sentinel.ErrInvalidState}
	}
	return []error{sentinel.ErrInvalidState, e.Err}
}
