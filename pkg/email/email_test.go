package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A@B.COM", "a@b.com"},
		{"  Mixed.Case@Example.org ", "mixed.case@example.org"},
		{"already@lower.io", "already@lower.io"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "b.com", Domain("a@b.com"))
	assert.Equal(t, "c.org", Domain(`"a@b"@c.org`))
	assert.Equal(t, "", Domain("no-at-sign"))
	assert.Equal(t, "", Domain("trailing@"))
}
