package verify

import "strings"

// DefaultDisposableDomains lists known throwaway-mail providers.
var DefaultDisposableDomains = []string{
	"mailinator.com",
	"guerrillamail.com",
	"10minutemail.com",
	"tempmail.com",
	"throwaway.email",
	"yopmail.com",
	"temp-mail.org",
	"fakeinbox.com",
	"trashmail.com",
	"maildrop.cc",
}

// DisposableFilter answers set membership for disposable domains. It is
// built once and never mutated, so it is safe for concurrent use.
type DisposableFilter struct {
	domains map[string]struct{}
}

// NewDisposableFilter builds a filter from the given domains. With no
// arguments it uses DefaultDisposableDomains.
func NewDisposableFilter(domains ...string) *DisposableFilter {
	if len(domains) == 0 {
		domains = DefaultDisposableDomains
	}
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return &DisposableFilter{domains: set}
}

// IsDisposable reports whether domain is a known disposable provider.
func (f *DisposableFilter) IsDisposable(domain string) bool {
	_, ok := f.domains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// Len returns the number of domains in the set.
func (f *DisposableFilter) Len() int { return len(f.domains) }
