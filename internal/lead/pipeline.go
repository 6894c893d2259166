package lead

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"leadscore/internal/logging"
)

// HotLeadScore is the score from which a lead counts as hot.
const HotLeadScore = 80

// Stats summarizes a pipeline run.
type Stats struct {
	Companies      int `json:"companies"`
	Leads          int `json:"leads"`
	Failed         int `json:"failed"`
	Filtered       int `json:"filtered"`
	WithValidEmail int `json:"with_valid_email"`
	DecisionMakers int `json:"decision_makers"`
	HotLeads       int `json:"hot_leads"`
}

// Builder is satisfied by *Aggregator.
type Builder interface {
	Build(ctx context.Context, c Company) (Lead, error)
}

// Pipeline builds leads for a batch of companies.
type Pipeline struct {
	builder  Builder
	minScore int
	log      logrus.FieldLogger
}

func NewPipeline(b Builder, minScore int, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logging.Discard()
	}
	return &Pipeline{builder: b, minScore: minScore, log: log}
}

// Run builds every company in order. A company that fails is logged and
// counted; it never stops the batch. Leads under the minimum score are
// dropped and the rest are sorted by descending score, ties in input order.
// Run stops early only when ctx is done.
func (p *Pipeline) Run(ctx context.Context, companies []Company) ([]Lead, Stats, error) {
	var (
		leads []Lead
		stats = Stats{Companies: len(companies)}
	)

	for i, c := range companies {
		if err := ctx.Err(); err != nil {
			return sortLeads(leads), stats, err
		}

		l, err := p.builder.Build(ctx, c)
		if err != nil {
			stats.Failed++
			p.log.WithError(err).WithField("company", c.Name).Warn("⚠️ company skipped")
			continue
		}
		if l.Score < p.minScore {
			stats.Filtered++
			continue
		}

		leads = append(leads, l)
		stats.Leads++
		if len(l.VerifiedEmails) > 0 {
			stats.WithValidEmail++
		}
		if l.DecisionMaker != "" {
			stats.DecisionMakers++
		}
		if l.Score >= HotLeadScore {
			stats.HotLeads++
		}

		p.log.WithFields(logrus.Fields{
			"n":       i + 1,
			"of":      len(companies),
			"company": c.Name,
			"score":   l.Score,
			"email":   logging.RedactEmail(l.PrimaryEmail()),
		}).Info("✅ lead processed")
	}

	return sortLeads(leads), stats, nil
}

func sortLeads(leads []Lead) []Lead {
	sort.SliceStable(leads, func(i, j int) bool { return leads[i].Score > leads[j].Score })
	return leads
}

