// Package lead turns harvested companies into scored sales leads.
package lead

import (
	"time"

	"github.com/google/uuid"

	"leadscore/internal/verify"
)

// Company is a harvested directory record. It is read-only input.
type Company struct {
	RegistrationID string `json:"ruc,omitempty" yaml:"ruc"`
	Name           string `json:"name" yaml:"name" validate:"required"`
	Domain         string `json:"domain,omitempty" yaml:"domain"`
	Activity       string `json:"activity,omitempty" yaml:"activity"`
	Phone          string `json:"phone,omitempty" yaml:"phone"`
	Address        string `json:"address,omitempty" yaml:"address"`
}

// Lead is a Company scored and annotated by the Aggregator. Domain holds
// the canonical host when the company had one.
type Lead struct {
	ID uuid.UUID `json:"id"`
	Company

	CandidateEmails []string        `json:"candidate_emails"`
	Checks          []verify.Result `json:"checks"`
	VerifiedEmails  []verify.Result `json:"verified_emails"`
	Ranking         Ranking         `json:"ranking"`
	DecisionMaker   string          `json:"decision_maker,omitempty"`

	Score             int        `json:"score"`
	Industry          string     `json:"industry"`
	CompanySize       string     `json:"company_size"`
	NeedsMarketing    bool       `json:"needs_marketing"`
	IsNew             bool       `json:"is_new"`
	Presence          Presence   `json:"presence"`
	HasOnlinePresence bool       `json:"has_online_presence"`
	DomainRegistered  *time.Time `json:"domain_registered,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasDomain reports whether the company has a usable website domain.
func (l Lead) HasDomain() bool { return l.Domain != "" }

// ValidEmails returns the verified addresses in probe order.
func (l Lead) ValidEmails() []string {
	out := make([]string, 0, len(l.VerifiedEmails))
	for _, r := range l.VerifiedEmails {
		out = append(out, r.Email)
	}
	return out
}

// PrimaryEmail is the first verified address, or "".
func (l Lead) PrimaryEmail() string {
	if len(l.VerifiedEmails) == 0 {
		return ""
	}
	return l.VerifiedEmails[0].Email
}

// Retryable reports whether any probe of this lead could change on retry.
func (l Lead) Retryable() bool {
	for _, r := range l.Checks {
		if r.Retryable() {
			return true
		}
	}
	return false
}
