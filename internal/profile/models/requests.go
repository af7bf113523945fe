package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"signup/internal/profile/rules"
	"signup/pkg/email"
)

// RegistrationRequest is the untrusted registration payload.
type RegistrationRequest struct {
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	Age             FlexInt `json:"age"`
	Biography       string  `json:"biography"`
	Category        string  `json:"category"`
	Rating          FlexInt `json:"rating"`

	// malformed holds string fields that arrived with another JSON type.
	malformed map[string]any
}

// UnmarshalJSON decodes the payload field by field. A string field carrying
// another JSON type is recorded for RuleInput rather than failing the decode,
// so it is reported with the other violations.
func (r *RegistrationRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = RegistrationRequest{}
	for name, dst := range r.stringFields() {
		msg, ok := fields[name]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		switch s := v.(type) {
		case nil:
		case string:
			*dst = s
		default:
			if r.malformed == nil {
				r.malformed = make(map[string]any)
			}
			r.malformed[name] = s
		}
	}
	for name, dst := range map[string]*FlexInt{rules.FieldAge: &r.Age, rules.FieldRating: &r.Rating} {
		if msg, ok := fields[name]; ok {
			if err := dst.UnmarshalJSON(msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *RegistrationRequest) stringFields() map[string]*string {
	return map[string]*string{
		rules.FieldUsername:        &r.Username,
		rules.FieldEmail:           &r.Email,
		rules.FieldPassword:        &r.Password,
		rules.FieldConfirmPassword: &r.ConfirmPassword,
		rules.FieldBiography:       &r.Biography,
		rules.FieldCategory:        &r.Category,
	}
}

// Normalize trims identifiers and lowercases the email. Passwords and the
// biography are kept byte-for-byte.
func (r *RegistrationRequest) Normalize() {
	if r == nil {
		return
	}
	r.Username = strings.TrimSpace(r.Username)
	r.Email = email.Normalize(r.Email)
	r.Category = strings.TrimSpace(r.Category)
}

// RuleInput converts the request into the rule set's input.
func (r *RegistrationRequest) RuleInput() rules.Input {
	in := rules.Input{
		Username:        r.Username,
		Email:           r.Email,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
		Age:             r.Age.Ptr(),
		Biography:       r.Biography,
		Category:        r.Category,
		Rating:          r.Rating.Ptr(),
	}
	for name, raw := range r.malformed {
		if in.Malformed == nil {
			in.Malformed = make(map[string]any)
		}
		in.Malformed[name] = raw
	}
	for name, f := range map[string]FlexInt{rules.FieldAge: r.Age, rules.FieldRating: r.Rating} {
		if f.Present && !f.Valid {
			if in.Malformed == nil {
				in.Malformed = make(map[string]any)
			}
			in.Malformed[name] = f.Raw
		}
	}
	return in
}

// FlexInt decodes a JSON integer or a numeric string, as posted by browser
// forms. Invalid input is recorded instead of failing the whole decode so it
// can be reported alongside the other field violations. An empty string or
// null counts as absent.
type FlexInt struct {
	Value   int
	Present bool
	Valid   bool
	Raw     any
}

// Int returns a present and valid FlexInt.
func Int(n int) FlexInt {
	return FlexInt{Value: n, Present: true, Valid: true, Raw: n}
}

// Ptr returns the value when present and valid, nil otherwise.
func (f FlexInt) Ptr() *int {
	if !f.Present || !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		f.Present = true
		f.Raw = v
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			f.Value = int(v)
			f.Valid = true
			f.Raw = f.Value
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		f.Present = true
		f.Raw = v
		if n, err := strconv.Atoi(s); err == nil && n >= math.MinInt32 && n <= math.MaxInt32 {
			f.Value = n
			f.Valid = true
		}
	default:
		f.Present = true
		f.Raw = v
	}
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Present {
		return []byte("null"), nil
	}
	if f.Valid {
		return json.Marshal(f.Value)
	}
	return json.Marshal(f.Raw)
}
