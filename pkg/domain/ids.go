// Package domain holds small domain primitives shared by feature packages.
// Primitives are validated at construction so downstream code can trust them.
package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "signup/pkg/domain-errors"
)

// ProfileID identifies a persisted profile.
type ProfileID uuid.UUID

// NewProfileID returns a fresh random ProfileID.
func NewProfileID() ProfileID {
	return ProfileID(uuid.New())
}

// ParseProfileID parses a ProfileID at a trust boundary.
//
// Errors: returns CodeInvalidInput for empty, malformed, or nil UUIDs.
func ParseProfileID(s string) (ProfileID, error) {
	u, err := parseUUID(s, "profile id")
	if err != nil {
		return ProfileID{}, err
	}
	return ProfileID(u), nil
}

func (id ProfileID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero UUID.
func (id ProfileID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id ProfileID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ProfileID) UnmarshalText(b []byte) error {
	parsed, err := ParseProfileID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
