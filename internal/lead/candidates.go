package lead

import (
	"strings"

	"leadscore/internal/verify"
)

// CandidateGenerator guesses corporate mailbox addresses for a domain.
type CandidateGenerator struct {
	tables Tables
}

func NewCandidateGenerator(t Tables) *CandidateGenerator {
	return &CandidateGenerator{tables: t}
}

// Generate returns candidate addresses for domain in generation order:
// generic, decision-maker, department and misc prefixes, then country-TLD
// variants, then free-mail guesses derived from companyName. The result is
// de-duplicated keeping the first occurrence. An empty domain yields nil.
func (g *CandidateGenerator) Generate(domain verify.Domain, companyName string) []string {
	if domain == "" {
		return nil
	}
	t := g.tables
	d := domain.String()

	var out []string
	seen := make(map[string]struct{})
	add := func(local, host string) {
		email := local + "@" + host
		if _, dup := seen[email]; dup {
			return
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}

	for _, group := range [][]string{t.GenericPrefixes, t.DecisionPrefixes, t.DepartmentPrefixes, t.MiscPrefixes} {
		for _, p := range group {
			add(p, d)
		}
	}

	if t.CountrySuffix != "" && !strings.HasSuffix(d, t.CountrySuffix) {
		for _, p := range t.CountryPrefixes {
			add(p, d+t.CountrySuffix)
		}
	}

	if name := slug(companyName); len(name) > 3 && len(t.FreeMailProviders) >= 2 {
		add(name, t.FreeMailProviders[0])
		add(name, t.FreeMailProviders[1])
		add(name+t.CountryName, t.FreeMailProviders[0])
	}
	return out
}

// slug lowercases s and keeps only [a-z0-9].
func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
