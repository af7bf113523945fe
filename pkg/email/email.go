// Package email holds address helpers shared by validation and storage.
package email

import "strings"

// Normalize trims surrounding whitespace and lowercases the address so that
// comparisons and the unique index see one canonical form.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Domain returns the part after the last '@', or "" when there is none.
func Domain(address string) string {
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return address[at+1:]
}
