package verify

import (
	"strings"
	"unicode"

	"github.com/badoux/checkmail"
)

// IsValidSyntax reports whether email has the user@host.tld shape.
// Catches: double @, missing TLD, whitespace/control characters, double dots.
// Plus-addressing, dots, hyphens and digits in the local part are accepted.
func IsValidSyntax(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	if strings.IndexFunc(email, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return false
	}

	localPart, domainPart, _ := strings.Cut(email, "@")
	if len(localPart) == 0 || len(localPart) > 64 {
		return false
	}
	if strings.Contains(localPart, "..") ||
		strings.HasPrefix(localPart, ".") || strings.HasSuffix(localPart, ".") {
		return false
	}

	// A TLD is required.
	if !strings.Contains(domainPart, ".") {
		return false
	}
	labels := strings.Split(domainPart, ".")
	if len(labels[len(labels)-1]) < 2 {
		return false
	}

	return checkmail.ValidateFormat(email) == nil
}
