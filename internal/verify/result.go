package verify

// Verdict is the final classification of an email address.
type Verdict string

const (
	VerdictValid    Verdict = "valid"
	VerdictProbable Verdict = "probable"
	VerdictDoubtful Verdict = "doubtful"
	VerdictInvalid  Verdict = "invalid"
)

// Result is produced fresh by every Scorer.Verify call and is not modified
// afterwards.
type Result struct {
	Email          string   `json:"email"`
	SyntaxValid    bool     `json:"syntax_valid"`
	DomainResolves bool     `json:"domain_resolves"`
	HasMX          bool     `json:"has_mx"`
	IsDisposable   bool     `json:"is_disposable"`
	MXHosts        []string `json:"mx_hosts,omitempty"`

	// SMTPAccepted is nil when the probe did not run or was inconclusive.
	SMTPAccepted *bool        `json:"smtp_accepted"`
	SMTPOutcome  ProbeOutcome `json:"smtp_outcome"`
	SMTPCode     int          `json:"smtp_code,omitempty"`
	// CatchAll is set only when catch-all detection ran.
	CatchAll *bool `json:"catch_all,omitempty"`

	Score         int     `json:"score"`
	Verdict       Verdict `json:"verdict"`
	FailureReason string  `json:"failure_reason,omitempty"`
}

// Verified reports whether the address landed in the Valid or Probable band.
func (r Result) Verified() bool {
	return r.Verdict == VerdictValid || r.Verdict == VerdictProbable
}

// Retryable reports whether asking the mail server again later could change
// the outcome: the probe was inconclusive or the server greylisted us.
func (r Result) Retryable() bool {
	switch r.SMTPOutcome {
	case ProbeInconclusive:
		return true
	case ProbeRejected:
		return DescribeReply(r.SMTPCode).Retryable()
	}
	return false
}

// Stats aggregates a batch of results.
type Stats struct {
	Total        int     `json:"total"`
	Valid        int     `json:"valid"`
	Probable     int     `json:"probable"`
	Doubtful     int     `json:"doubtful"`
	Invalid      int     `json:"invalid"`
	WithMX       int     `json:"with_mx"`
	SMTPAccepted int     `json:"smtp_accepted"`
	Disposable   int     `json:"disposable"`
	PercentValid float64 `json:"percent_valid"`
}

// Summarize counts verdicts and signals over results.
func Summarize(results []Result) Stats {
	s := Stats{Total: len(results)}
	for _, r := range results {
		switch r.Verdict {
		case VerdictValid:
			s.Valid++
		case VerdictProbable:
			s.Probable++
		case VerdictDoubtful:
			s.Doubtful++
		default:
			s.Invalid++
		}
		if r.HasMX {
			s.WithMX++
		}
		if r.SMTPAccepted != nil && *r.SMTPAccepted {
			s.SMTPAccepted++
		}
		if r.IsDisposable {
			s.Disposable++
		}
	}
	if s.Total > 0 {
		pct := float64(s.Valid) / float64(s.Total) * 100
		s.PercentValid = float64(int(pct*100+0.5)) / 100
	}
	return s
}
