package lead

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"leadscore/internal/logging"
	"leadscore/internal/verify"
)

const (
	domainPoints         = 20
	verifiedEmailPoints  = 25
	decisionMakerPoints  = 25
	needsMarketingPoints = 15
	newCompanyPoints     = 20
	noPresencePoints     = 30

	// DefaultMaxCandidates bounds how many candidates are probed per company.
	DefaultMaxCandidates = 5
)

// Verifier is satisfied by *verify.Scorer.
type Verifier interface {
	Verify(ctx context.Context, email string) verify.Result
}

// Aggregator builds a Lead from a Company: it guesses candidate emails,
// verifies the first few, ranks the verified ones and adds enrichment
// signals into a single score.
type Aggregator struct {
	verifier      Verifier
	generator     *CandidateGenerator
	ranker        *Ranker
	enricher      *Enricher
	presence      PresenceChecker
	registry      DomainRegistry
	maxCandidates int
	concurrency   int
	log           logrus.FieldLogger
	now           func() time.Time
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithTables replaces the default lookup tables.
func WithTables(t Tables) Option {
	return func(a *Aggregator) {
		a.generator = NewCandidateGenerator(t)
		a.ranker = NewRanker(t)
		a.enricher = NewEnricher(t)
	}
}

func WithPresenceChecker(p PresenceChecker) Option {
	return func(a *Aggregator) { a.presence = p }
}

// WithDomainRegistry enables the domain registration date annotation.
func WithDomainRegistry(r DomainRegistry) Option {
	return func(a *Aggregator) { a.registry = r }
}

func WithMaxCandidates(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxCandidates = n
		}
	}
}

// WithConcurrency verifies up to n candidates of one company at a time.
// Per-server pacing is left to the verifier's throttle.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Aggregator) { a.log = log }
}

func NewAggregator(v Verifier, opts ...Option) *Aggregator {
	t := DefaultTables()
	a := &Aggregator{
		verifier:      v,
		generator:     NewCandidateGenerator(t),
		ranker:        NewRanker(t),
		enricher:      NewEnricher(t),
		presence:      UnknownPresence{},
		maxCandidates: DefaultMaxCandidates,
		concurrency:   1,
		log:           logging.Discard(),
		now:           time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Candidates exposes the generator used by the aggregator.
func (a *Aggregator) Candidates(domain verify.Domain, companyName string) []string {
	return a.generator.Generate(domain, companyName)
}

// Rank exposes the ranker used by the aggregator.
func (a *Aggregator) Rank(emails []string) Ranking {
	return a.ranker.Rank(emails)
}

// Build scores one company. The only error is a malformed domain, wrapped
// around verify.ErrInvalidDomain; network trouble is folded into the lead.
func (a *Aggregator) Build(ctx context.Context, c Company) (Lead, error) {
	l := Lead{
		ID:              uuid.New(),
		Company:         c,
		CandidateEmails: []string{},
		Checks:          []verify.Result{},
		VerifiedEmails:  []verify.Result{},
		CreatedAt:       a.now().UTC(),
	}

	if c.Domain != "" {
		domain, err := verify.SanitizeDomain(c.Domain)
		if err != nil {
			return Lead{}, fmt.Errorf("company %q: %w", c.Name, err)
		}
		l.Domain = domain.String()
		l.Score += domainPoints

		l.CandidateEmails = a.generator.Generate(domain, c.Name)
		l.Checks = a.verifyCandidates(ctx, l.CandidateEmails)
		for _, r := range l.Checks {
			if r.Verified() {
				l.VerifiedEmails = append(l.VerifiedEmails, r)
			}
		}

		if len(l.VerifiedEmails) > 0 {
			l.Score += verifiedEmailPoints
			l.Ranking = a.ranker.Rank(l.ValidEmails())
			if l.Ranking.HasBest() {
				l.DecisionMaker = l.Ranking.Best
				l.Score += decisionMakerPoints
			}
		}

		if a.registry != nil {
			if t, err := a.registry.Registered(ctx, l.Domain); err == nil {
				l.DomainRegistered = &t
			} else {
				a.log.WithError(err).WithField("domain", l.Domain).Debug("whois lookup failed")
			}
		}
	}

	a.enrich(ctx, &l)

	a.log.WithFields(logrus.Fields{
		"company":  c.Name,
		"domain":   l.Domain,
		"verified": len(l.VerifiedEmails),
		"score":    l.Score,
	}).Debug("🏷️ lead built")
	return l, nil
}

func (a *Aggregator) enrich(ctx context.Context, l *Lead) {
	valid := l.ValidEmails()

	l.Industry = a.enricher.Industry(l.Name, l.Activity)
	l.CompanySize = a.enricher.CompanySize(l.Domain, valid)

	l.NeedsMarketing = a.enricher.NeedsMarketing(l.Domain, valid, l.Activity)
	if l.NeedsMarketing {
		l.Score += needsMarketingPoints
	}

	l.IsNew = a.enricher.IsNew(l.Name, l.Domain)
	if l.IsNew {
		l.Score += newCompanyPoints
	}

	l.Presence = a.presence.Check(ctx, l.Company)
	l.HasOnlinePresence = l.Presence == PresencePresent
	if l.Presence == PresenceAbsent {
		l.Score += noPresencePoints
	}
}

// verifyCandidates probes the first maxCandidates addresses. Results keep
// candidate order whatever the concurrency.
func (a *Aggregator) verifyCandidates(ctx context.Context, candidates []string) []verify.Result {
	if len(candidates) > a.maxCandidates {
		candidates = candidates[:a.maxCandidates]
	}
	results := make([]verify.Result, len(candidates))

	if a.concurrency <= 1 {
		for i, email := range candidates {
			results[i] = a.verifier.Verify(ctx, email)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, email := range candidates {
		g.Go(func() error {
			results[i] = a.verifier.Verify(ctx, email)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
