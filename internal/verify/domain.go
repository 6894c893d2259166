package verify

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode"
)

// ErrInvalidDomain is returned when a raw URL or host cannot be reduced to a
// usable domain.
var ErrInvalidDomain = errors.New("invalid domain")

// Domain is a canonical lowercase host: no scheme, no www. prefix, no
// port, path, query or fragment.
type Domain string

func (d Domain) String() string { return string(d) }

// SanitizeDomain normalizes a raw URL or bare host into a Domain.
// "https://www.Empresa.com.pe:8080/contacto?x=1" becomes "empresa.com.pe".
func SanitizeDomain(raw string) (Domain, error) {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if strings.Contains(d, ":") {
		host, _, err := net.SplitHostPort(d)
		if err != nil {
			return "", fmt.Errorf("%w: %q has a malformed port", ErrInvalidDomain, raw)
		}
		d = host
	}

	if d == "" {
		return "", fmt.Errorf("%w: %q is empty after normalization", ErrInvalidDomain, raw)
	}
	if !strings.Contains(d, ".") {
		return "", fmt.Errorf("%w: %q has no dot", ErrInvalidDomain, raw)
	}
	if strings.IndexFunc(d, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalidDomain, raw)
	}
	return Domain(d), nil
}

// domainOf returns the part after the last @ of an address.
func domainOf(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return email[at+1:]
}

// LocalPart returns the part before the first @ of an address.
func LocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
