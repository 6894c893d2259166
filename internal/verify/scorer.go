package verify

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"leadscore/internal/logging"
)

// stagePoints is awarded for every passed stage: syntax, dns, mx, smtp.
const stagePoints = 25

// Options enables or disables individual scorer stages.
type Options struct {
	SyntaxCheck     bool
	DisposableCheck bool
	DNSCheck        bool
	SMTPCheck       bool
	// CatchAllCheck probes a random mailbox after an accepted RCPT. It only
	// annotates the result and never changes the score.
	CatchAllCheck bool
}

// DefaultOptions enables every scoring stage.
func DefaultOptions() Options {
	return Options{
		SyntaxCheck:     true,
		DisposableCheck: true,
		DNSCheck:        true,
		SMTPCheck:       true,
	}
}

// DNSLookup is satisfied by *DNSProbe.
type DNSLookup interface {
	Probe(ctx context.Context, domain string) DNSResult
}

// Prober is satisfied by *SMTPProbe.
type Prober interface {
	Probe(ctx context.Context, email, mxHost string) ProbeResult
}

// CatchAllDetector is satisfied by *SMTPProbe.
type CatchAllDetector interface {
	DetectCatchAll(ctx context.Context, domain, mxHost string) (bool, ProbeResult)
}

// Throttle paces outbound probes per mail server. Implementations block
// until the probe may proceed or ctx is done.
type Throttle interface {
	Wait(ctx context.Context, mxHost string) error
}

// Scorer runs the layered verification:
// syntax → disposable → dns → mx → smtp, stopping at the first failure.
type Scorer struct {
	opts       Options
	disposable *DisposableFilter
	dns        DNSLookup
	smtp       Prober
	throttle   Throttle
	log        logrus.FieldLogger
}

// ScorerOption customizes a Scorer.
type ScorerOption func(*Scorer)

// WithDisposableFilter replaces the default disposable domain set.
func WithDisposableFilter(f *DisposableFilter) ScorerOption {
	return func(s *Scorer) { s.disposable = f }
}

// WithThrottle paces SMTP probes.
func WithThrottle(t Throttle) ScorerOption {
	return func(s *Scorer) { s.throttle = t }
}

// WithLogger sets the logger used for per-address debug output.
func WithLogger(log logrus.FieldLogger) ScorerOption {
	return func(s *Scorer) { s.log = log }
}

// NewScorer wires the scorer stages. smtp may be nil, in which case the
// SMTP stage never runs.
func NewScorer(opts Options, dns DNSLookup, smtp Prober, options ...ScorerOption) *Scorer {
	s := &Scorer{
		opts:       opts,
		disposable: NewDisposableFilter(),
		dns:        dns,
		smtp:       smtp,
		log:        logging.Discard(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Verify scores a single address. It never returns an error: network
// trouble is folded into the result.
func (s *Scorer) Verify(ctx context.Context, raw string) Result {
	email := strings.ToLower(strings.TrimSpace(raw))
	res := s.verify(ctx, email)
	s.log.WithFields(logrus.Fields{
		"email":   logging.RedactEmail(email),
		"score":   res.Score,
		"verdict": res.Verdict,
		"smtp":    res.SMTPOutcome,
	}).Debug("🔍 email scored")
	return res
}

func (s *Scorer) verify(ctx context.Context, email string) Result {
	res := Result{Email: email, Verdict: VerdictInvalid}

	// 1. Syntax
	if s.opts.SyntaxCheck {
		if !IsValidSyntax(email) {
			res.FailureReason = "invalid syntax"
			return res
		}
		res.SyntaxValid = true
		res.Score += stagePoints
	} else if strings.Count(email, "@") != 1 {
		res.FailureReason = "address has no single @"
		return res
	}
	domain := domainOf(email)

	// 2. Disposable, before any network call.
	if s.opts.DisposableCheck && s.disposable.IsDisposable(domain) {
		res.IsDisposable = true
		res.Score = 0
		res.FailureReason = "disposable domain"
		return res
	}

	if !s.opts.DNSCheck || s.dns == nil {
		res.Verdict = band(res.Score)
		return res
	}

	// 3. A / AAAA
	dns := s.dns.Probe(ctx, domain)
	if !dns.Resolves() {
		res.FailureReason = "domain does not resolve"
		return res
	}
	res.DomainResolves = true
	res.Score += stagePoints

	// 4. MX
	if !dns.HasMX {
		res.Verdict = VerdictDoubtful
		res.FailureReason = "no MX records"
		return res
	}
	res.HasMX = true
	res.MXHosts = append([]string(nil), dns.MXHosts...)
	res.Score += stagePoints

	// 5. SMTP against the highest-preference exchanger only.
	if s.opts.SMTPCheck && s.smtp != nil {
		s.probe(ctx, &res, domain, dns.MXHosts[0])
	}

	res.Verdict = band(res.Score)
	return res
}

func (s *Scorer) probe(ctx context.Context, res *Result, domain, mx string) {
	if s.throttle != nil {
		if err := s.throttle.Wait(ctx, mx); err != nil {
			res.SMTPOutcome = ProbeInconclusive
			res.FailureReason = "SMTP probe not sent: " + err.Error()
			return
		}
	}

	pr := s.smtp.Probe(ctx, res.Email, mx)
	res.SMTPOutcome = pr.Outcome
	res.SMTPCode = pr.Code

	switch pr.Outcome {
	case ProbeAccepted:
		accepted := true
		res.SMTPAccepted = &accepted
		res.Score += stagePoints
		if s.opts.CatchAllCheck && (s.throttle == nil || s.throttle.Wait(ctx, mx) == nil) {
			if d, ok := s.smtp.(CatchAllDetector); ok {
				catchAll, _ := d.DetectCatchAll(ctx, domain, mx)
				res.CatchAll = &catchAll
			}
		}
	case ProbeRejected:
		accepted := false
		res.SMTPAccepted = &accepted
		res.FailureReason = pr.Reason()
	default:
		res.FailureReason = pr.Reason()
	}
}

// band maps a cumulative score to a verdict. It is used only when the
// pipeline ran to the end without an early stop.
func band(score int) Verdict {
	switch {
	case score >= 75:
		return VerdictValid
	case score >= 50:
		return VerdictProbable
	default:
		return VerdictDoubtful
	}
}
