package rules

// Descriptor is the browser-facing copy of the rule table. The form renders
// hints and pre-submit checks from it; the server never trusts its outcome.
type Descriptor struct {
	Version int     `json:"version"`
	Fields  []Field `json:"fields"`
}

// DescriptorVersion changes whenever a rule changes meaning.
const DescriptorVersion = 1

// Describe returns the rule table for clients.
func Describe() Descriptor {
	fields := make([]Field, len(Fields))
	for i, f := range Fields {
		f.Constraints = append([]Constraint(nil), f.Constraints...)
		f.Options = append([]string(nil), f.Options...)
		fields[i] = f
	}
	return Descriptor{Version: DescriptorVersion, Fields: fields}
}
