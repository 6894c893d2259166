package lead

import (
	"context"
	"strings"
)

// Presence is the result of an online-map presence lookup.
type Presence int

const (
	PresenceUnknown Presence = iota
	PresencePresent
	PresenceAbsent
)

func (p Presence) String() string {
	switch p {
	case PresencePresent:
		return "present"
	case PresenceAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

func (p Presence) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Presence) UnmarshalText(b []byte) error {
	switch string(b) {
	case "present":
		*p = PresencePresent
	case "absent":
		*p = PresenceAbsent
	default:
		*p = PresenceUnknown
	}
	return nil
}

// PresenceChecker reports whether a company has an established listing on
// an online map service.
type PresenceChecker interface {
	Check(ctx context.Context, c Company) Presence
}

// UnknownPresence is the default checker: no listing source is configured,
// so every company is Unknown and earns no presence points.
type UnknownPresence struct{}

func (UnknownPresence) Check(context.Context, Company) Presence { return PresenceUnknown }

// StaticPresence answers from a fixed map keyed by company name.
type StaticPresence map[string]Presence

func (s StaticPresence) Check(_ context.Context, c Company) Presence {
	return s[c.Name]
}

const (
	sizeMedium      = "mediana"
	sizeSmallMedium = "pequeña-mediana"
	sizeSmall       = "pequeña"
	industryOther   = "otros"
)

// Enricher derives tags from a company and its verified emails.
type Enricher struct {
	tables Tables
}

func NewEnricher(t Tables) *Enricher {
	return &Enricher{tables: t}
}

// NeedsMarketing is true for companies without a website, without any
// verified email, or in a high-need industry.
func (e *Enricher) NeedsMarketing(domain string, verified []string, activity string) bool {
	if domain == "" || len(verified) == 0 {
		return true
	}
	activity = strings.ToLower(activity)
	for _, ind := range e.tables.HighNeedIndustries {
		if strings.Contains(activity, ind) {
			return true
		}
	}
	return false
}

// IsNew flags companies whose name hints at a recent founding, or that have
// no website yet.
func (e *Enricher) IsNew(name, domain string) bool {
	name = strings.ToLower(name)
	for _, p := range e.tables.RecencyPatterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return domain == ""
}

// CompanySize estimates size from departmental mailboxes and the domain.
func (e *Enricher) CompanySize(domain string, verified []string) string {
	for _, email := range verified {
		for _, dept := range e.tables.DepartmentLocalParts {
			if strings.Contains(email, dept+"@") {
				return sizeMedium
			}
		}
	}
	if strings.Contains(domain, ".com.pe") {
		return sizeSmallMedium
	}
	return sizeSmall
}

// Industry returns the first industry whose keyword appears in the company
// name or activity.
func (e *Enricher) Industry(name, activity string) string {
	text := strings.ToLower(name + " " + activity)
	for _, ind := range e.tables.Industries {
		for _, k := range ind.Keywords {
			if strings.Contains(text, k) {
				return ind.Name
			}
		}
	}
	return industryOther
}
