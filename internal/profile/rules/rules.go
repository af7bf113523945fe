// Package rules is the single definition of the profile field constraints.
//
// The Fields table is compiled into validator rules for the server, exported
// through Describe for the browser form, and its constants are referenced by
// the model invariants and the SQL schema. Nothing else restates the rules.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"signup/pkg/domain"
	dErrors "signup/pkg/domain-errors"
)

const (
	UsernameMinLen  = 3
	UsernameMaxLen  = 20
	PasswordMinLen  = 8
	AgeMin          = 18
	AgeMax          = 99
	BiographyMaxLen = 500
	RatingMin       = 1
	RatingMax       = 10
	RatingDefault   = 5
)

// Wire names of the validated fields.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldAge             = "age"
	FieldBiography       = "biography"
	FieldCategory        = "category"
	FieldRating          = "rating"
)

var (
	// UsernamePattern is the allowed username alphabet.
	UsernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	// EmailShape is the coarse address shape the store re-checks on write.
	EmailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Kind is the JSON type a field is expected to carry.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
)

// Constraint is one rule applied to a field. Rule is the validator tag name.
type Constraint struct {
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Field   string `json:"field,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Message string `json:"message"`
}

// Field describes every constraint on one input field.
type Field struct {
	Name        string       `json:"name"`
	Kind        Kind         `json:"kind"`
	Required    bool         `json:"required"`
	Unique      bool         `json:"unique,omitempty"`
	Secret      bool         `json:"secret,omitempty"`
	Default     any          `json:"default,omitempty"`
	Options     []string     `json:"options,omitempty"`
	Constraints []Constraint `json:"constraints"`

	// TakenMessage is reported when a unique value already exists.
	TakenMessage string `json:"taken_message,omitempty"`
	// TypeMessage is reported when the field carries a value of the wrong
	// JSON type.
	TypeMessage string `json:"type_message,omitempty"`

	structField string
}

// Fields is the canonical rule table, in form order.
var Fields = []Field{
	{
		Name: FieldUsername, Kind: KindString, Required: true, Unique: true,
		structField: "Username",
		Constraints: []Constraint{
			{Rule: "required", Message: "username is required"},
			{Rule: "min", Param: strconv.Itoa(UsernameMinLen), Message: lengthMessage("username", UsernameMinLen, UsernameMaxLen)},
			{Rule: "max", Param: strconv.Itoa(UsernameMaxLen), Message: lengthMessage("username", UsernameMinLen, UsernameMaxLen)},
			{Rule: "username_chars", Pattern: UsernamePattern.String(), Message: "username may only contain letters, numbers and underscores"},
		},
		TakenMessage: "username is already taken",
		TypeMessage:  "username must be a string",
	},
	{
		Name: FieldEmail, Kind: KindString, Required: true, Unique: true,
		structField: "Email",
		Constraints: []Constraint{
			{Rule: "required", Message: "email is required"},
			{Rule: "email", Message: "email must be a valid email address"},
		},
		TakenMessage: "email is already registered",
		TypeMessage:  "email must be a string",
	},
	{
		Name: FieldPassword, Kind: KindString, Required: true, Secret: true,
		structField: "Password",
		Constraints: []Constraint{
			{Rule: "required", Message: "password is required"},
			{Rule: "min", Param: strconv.Itoa(PasswordMinLen), Message: fmt.Sprintf("password must be at least %d characters", PasswordMinLen)},
			{Rule: "password_classes", Pattern: `^(?=.*[a-z])(?=.*[A-Z])(?=.*\d)`, Message: "password must contain at least one lowercase letter, one uppercase letter and one digit"},
		},
		TypeMessage: "password must be a string",
	},
	{
		Name: FieldConfirmPassword, Kind: KindString, Required: true, Secret: true,
		structField: "ConfirmPassword",
		Constraints: []Constraint{
			{Rule: "required", Message: "password confirmation is required"},
			{Rule: "eqfield", Field: FieldPassword, Message: "passwords do not match"},
		},
		TypeMessage: "password confirmation must be a string",
	},
	{
		Name: FieldAge, Kind: KindInteger, Required: true,
		structField: "Age",
		Constraints: []Constraint{
			{Rule: "required", Message: "age is required"},
			{Rule: "min", Param: strconv.Itoa(AgeMin), Message: rangeMessage("age", AgeMin, AgeMax)},
			{Rule: "max", Param: strconv.Itoa(AgeMax), Message: rangeMessage("age", AgeMin, AgeMax)},
		},
		TypeMessage: "age must be an integer",
	},
	{
		Name: FieldBiography, Kind: KindString, Default: "",
		structField: "Biography",
		Constraints: []Constraint{
			{Rule: "max", Param: strconv.Itoa(BiographyMaxLen), Message: fmt.Sprintf("biography cannot exceed %d characters", BiographyMaxLen)},
		},
		TypeMessage: "biography must be a string",
	},
	{
		Name: FieldCategory, Kind: KindString, Required: true,
		structField: "Category",
		Options:     domain.CategoryValues(),
		Constraints: []Constraint{
			{Rule: "required", Message: "category is required"},
			{Rule: "oneof", Param: strings.Join(domain.CategoryValues(), " "), Message: "category must be one of: " + strings.Join(domain.CategoryValues(), ", ")},
		},
		TypeMessage: "category must be a string",
	},
	{
		Name: FieldRating, Kind: KindInteger, Default: RatingDefault,
		structField: "Rating",
		Constraints: []Constraint{
			{Rule: "min", Param: strconv.Itoa(RatingMin), Message: rangeMessage("rating", RatingMin, RatingMax)},
			{Rule: "max", Param: strconv.Itoa(RatingMax), Message: rangeMessage("rating", RatingMin, RatingMax)},
		},
		TypeMessage: "rating must be an integer",
	},
}

// Input is a normalized registration candidate. Integer fields are nil when
// absent; Malformed holds the raw value of fields that were present with the
// wrong JSON type, keyed by wire name.
type Input struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Age             *int
	Biography       string
	Category        string
	Rating          *int

	Malformed map[string]any
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "username_chars", func(fl validator.FieldLevel) bool {
		return UsernamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "password_classes", func(fl validator.FieldLevel) bool {
		return HasPasswordClasses(fl.Field().String())
	})

	tags := make(map[string]string, len(Fields))
	for _, f := range Fields {
		tags[f.structField] = f.tag()
	}
	v.RegisterStructValidationMapRules(tags, Input{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("rules: register %s: %v", tag, err))
	}
}

// tag compiles a field's constraints into a validator tag string.
func (f Field) tag() string {
	parts := make([]string, 0, len(f.Constraints)+1)
	if !f.Required {
		parts = append(parts, "omitempty")
	}
	for _, c := range f.Constraints {
		switch {
		case c.Field != "":
			parts = append(parts, c.Rule+"="+structFieldOf(c.Field))
		case c.Param != "":
			parts = append(parts, c.Rule+"="+c.Param)
		default:
			parts = append(parts, c.Rule)
		}
	}
	return strings.Join(parts, ",")
}

// message returns the message for the given validator tag.
func (f Field) message(rule string) string {
	for _, c := range f.Constraints {
		if c.Rule == rule {
			return c.Message
		}
	}
	return f.Name + " is invalid"
}

// Lookup returns the rule for a wire field name.
func Lookup(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func structFieldOf(name string) string {
	f, ok := Lookup(name)
	if !ok {
		panic("rules: unknown field " + name)
	}
	return f.structField
}

// Validate evaluates every rule against in and returns all violations in
// field order. It never stops at the first failing field.
func Validate(in Input) []dErrors.FieldError {
	byField := make(map[string]dErrors.FieldError, len(Fields))

	for name, raw := range in.Malformed {
		f, ok := Lookup(name)
		if !ok {
			continue
		}
		msg := f.TypeMessage
		if msg == "" {
			msg = fmt.Sprintf("%s must be a %s", f.Name, f.Kind)
		}
		byField[name] = violation(f, msg, raw)
	}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !asValidationErrors(err, &verrs) {
			panic(fmt.Sprintf("rules: unexpected validator error: %v", err))
		}
		for _, fe := range verrs {
			f := fieldByStruct(fe.StructField())
			if _, seen := byField[f.Name]; seen {
				continue
			}
			byField[f.Name] = violation(f, f.message(fe.Tag()), valueOf(in, f.Name))
		}
	}

	return Ordered(mapValues(byField))
}

// Check validates a single string value against a field's rules, as the
// availability endpoints do before touching the store.
func Check(name, value string) *dErrors.FieldError {
	f, ok := Lookup(name)
	if !ok {
		return nil
	}
	err := validate.Var(value, f.tag())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) || len(verrs) == 0 {
		return &dErrors.FieldError{Field: f.Name, Message: f.Name + " is invalid"}
	}
	v := violation(f, f.message(verrs[0].Tag()), value)
	return &v
}

// Taken builds the uniqueness violation for a unique field.
func Taken(name string, value any) dErrors.FieldError {
	f, ok := Lookup(name)
	if !ok {
		return dErrors.FieldError{Field: name, Message: name + " is already in use", Value: value}
	}
	return violation(f, f.TakenMessage, value)
}

// Ordered sorts violations into form order; unknown fields go last.
func Ordered(errs []dErrors.FieldError) []dErrors.FieldError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]dErrors.FieldError, 0, len(errs))
	for _, f := range Fields {
		for _, e := range errs {
			if e.Field == f.Name {
				out = append(out, e)
			}
		}
	}
	for _, e := range errs {
		if _, ok := Lookup(e.Field); !ok {
			out = append(out, e)
		}
	}
	return out
}

// HasPasswordClasses reports whether s has an ASCII lowercase letter, an
// ASCII uppercase letter and a digit.
func HasPasswordClasses(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

func violation(f Field, msg string, value any) dErrors.FieldError {
	fe := dErrors.FieldError{Field: f.Name, Message: msg}
	if !f.Secret {
		fe.Value = value
	}
	return fe
}

func fieldByStruct(structField string) Field {
	for _, f := range Fields {
		if f.structField == structField {
			return f
		}
	}
	return Field{Name: strings.ToLower(structField)}
}

func valueOf(in Input, name string) any {
	switch name {
	case FieldUsername:
		return in.Username
	case FieldEmail:
		return in.Email
	case FieldAge:
		return derefOrNil(in.Age)
	case FieldBiography:
		return in.Biography
	case FieldCategory:
		return in.Category
	case FieldRating:
		return derefOrNil(in.Rating)
	default:
		return nil
	}
}

func derefOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func mapValues(m map[string]dErrors.FieldError) []dErrors.FieldError {
	out := make([]dErrors.FieldError, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

func lengthMessage(field string, lo, hi int) string {
	return fmt.Sprintf("%s must be between %d and %d characters", field, lo, hi)
}

func rangeMessage(field string, lo, hi int) string {
	return fmt.Sprintf("%s must be a number between %d and %d", field, lo, hi)
}
