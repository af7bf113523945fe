package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"signup/internal/profile/rules"
	"signup/pkg/domain"
	dErrors "signup/pkg/domain-errors"
)

// Profile is a registered user's record.
//
// Invariants:
//   - Username is 3–20 characters of [A-Za-z0-9_] and globally unique
//   - Email is lowercase, address-shaped and globally unique
//   - PasswordHash is a non-empty one-way hash; plaintext is never stored
//   - Age is within [18, 99], Rating within [1, 10]
//   - Biography is at most 500 characters
//   - Category is one of the supported categories
//
// PasswordHash is excluded from JSON so no read path can leak it.
type Profile struct {
	ID           domain.ProfileID `json:"id"`
	Username     string           `json:"username"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	Age          int              `json:"age"`
	Biography    string           `json:"biography"`
	Category     domain.Category  `json:"category"`
	Rating       int              `json:"rating"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewProfileParams carries already-validated registration data.
type NewProfileParams struct {
	Username     string
	Email        string
	PasswordHash string
	Age          int
	Biography    string
	Category     domain.Category
	Rating       *int
}

// NewProfile constructs a Profile and checks its invariants. A nil Rating
// takes the default.
func NewProfile(id domain.ProfileID, p NewProfileParams, now time.Time) (*Profile, error) {
	rating := rules.RatingDefault
	if p.Rating != nil {
		rating = *p.Rating
	}
	profile := &Profile{
		ID:           id,
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Age:          p.Age,
		Biography:    p.Biography,
		Category:     p.Category,
		Rating:       rating,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := profile.CheckInvariants(); err != nil {
		return nil, err
	}
	return profile, nil
}

// CheckInvariants re-checks the stored shape of a profile. Stores call it on
// every write so direct misuse of the store cannot persist an invalid record.
// It returns CodeInvariantViolation carrying the offending fields.
func (p *Profile) CheckInvariants() error {
	var fields []dErrors.FieldError
	add := func(field, msg string, value any) {
		fields = append(fields, dErrors.FieldError{Field: field, Message: msg, Value: value})
	}

	if p.ID.IsNil() {
		add("id", "id is required", nil)
	}
	if n := utf8.RuneCountInString(p.Username); n < rules.UsernameMinLen || n > rules.UsernameMaxLen || !rules.UsernamePattern.MatchString(p.Username) {
		add(rules.FieldUsername, "username violates the stored schema", p.Username)
	}
	if !rules.EmailShape.MatchString(p.Email) || p.Email != strings.ToLower(p.Email) {
		add(rules.FieldEmail, "email violates the stored schema", p.Email)
	}
	if p.PasswordHash == "" {
		add(rules.FieldPassword, "password hash is required", nil)
	}
	if p.Age < rules.AgeMin || p.Age > rules.AgeMax {
		add(rules.FieldAge, "age violates the stored schema", p.Age)
	}
	if utf8.RuneCountInString(p.Biography) > rules.BiographyMaxLen {
		add(rules.FieldBiography, "biography violates the stored schema", nil)
	}
	if !p.Category.IsValid() {
		add(rules.FieldCategory, "category violates the stored schema", string(p.Category))
	}
	if p.Rating < rules.RatingMin || p.Rating > rules.RatingMax {
		add(rules.FieldRating, "rating violates the stored schema", p.Rating)
	}

	if len(fields) == 0 {
		return nil
	}
	return &dErrors.Error{
		Code:    dErrors.CodeInvariantViolation,
		Message: "profile violates schema",
		Fields:  fields,
	}
}
