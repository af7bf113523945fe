package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeNotFound, "missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeForbidden, "nope"))
		assert.True(t, HasCode(err, CodeForbidden))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("keeps cause reachable", func(t *testing.T) {
		cause := errors.New("db down")
		err := Wrap(cause, CodeInternal, "failed to load")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to load: db down", err.Error())
	})
}

func TestFieldViolations(t *testing.T) {
	t.Run("validation carries every field", func(t *testing.T) {
		err := Validation("invalid registration",
			FieldError{Field: "username", Message: "too short", Value: "ab"},
			FieldError{Field: "age", Message: "out of range", Value: 12},
		)
		assert.True(t, HasCode(err, CodeValidation))
		fields := FieldsOf(err)
		require.Len(t, fields, 2)
		assert.Equal(t, "username", fields[0].Field)
		assert.Equal(t, "age", fields[1].Field)
	})

	t.Run("duplicate is attributed to its field", func(t *testing.T) {
		err := Duplicate(FieldError{Field: "email", Message: "email is already registered", Value: "a@b.com"})
		assert.True(t, HasCode(err, CodeDuplicate))
		assert.Equal(t, "email already in use", err.Error())
		require.Len(t, FieldsOf(err), 1)
	})

	t.Run("duplicate lists every conflicting field", func(t *testing.T) {
		err := Duplicate(FieldError{Field: "username"}, FieldError{Field: "email"})
		assert.Equal(t, "username, email already in use", err.Error())
		require.Len(t, FieldsOf(err), 2)
	})
}
