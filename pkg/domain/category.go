package domain

import dErrors "signup/pkg/domain-errors"

// Category is the self-declared occupation of a profile.
// Invariant: the value must be one of the supported categories.
//
// Usage: construct via ParseCategory at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Category string

const (
	CategoryStudent      Category = "student"
	CategoryProfessional Category = "professional"
	CategoryEntrepreneur Category = "entrepreneur"
	CategoryFreelancer   Category = "freelancer"
	CategoryOther        Category = "other"
)

// categories is the single source of truth for valid categories, in display order.
var categories = []Category{
	CategoryStudent,
	CategoryProfessional,
	CategoryEntrepreneur,
	CategoryFreelancer,
	CategoryOther,
}

// Categories returns the supported categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// CategoryValues returns the supported categories as plain strings.
func CategoryValues() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

// ParseCategory constructs a Category from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "category cannot be empty")
	}
	c := Category(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid category")
	}
	return c, nil
}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
