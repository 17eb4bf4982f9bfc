// Package tokens generates the opaque identifiers handed out to players and
// printed on checkpoints, and the human-readable completion codes.
package tokens

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CodeAlphabet leaves out 0, 1, O and I so codes survive being read aloud at the counter.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const CodeLength = 8

// SessionToken returns a 21-character URL-safe token.
func SessionToken() (string, error) {
	return gonanoid.New()
}

// QRToken returns the token encoded into a checkpoint's scan URL.
func QRToken() (string, error) {
	return gonanoid.New()
}

func CompletionCode() (string, error) {
	return gonanoid.Generate(CodeAlphabet, CodeLength)
}

// NormalizeCode upper-cases and trims a code typed in by staff.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCompletionCode reports whether s has the shape of an issued code.
func IsCompletionCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return false
		}
	}
	return true
}
