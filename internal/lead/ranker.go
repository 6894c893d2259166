package lead

import (
	"regexp"
	"sort"
	"strings"

	"leadscore/internal/verify"
)

const (
	genericScore  = 10
	bareNameScore = 40
	initialsScore = 35
	topSize       = 3
)

var (
	bareNameRe = regexp.MustCompile(`^[a-z]{3,10}$`)
	initialsRe = regexp.MustCompile(`^[a-z]{1,2}$`)
)

// RankedEmail is an address with its seniority score.
type RankedEmail struct {
	Email string `json:"email"`
	Score int    `json:"score"`
}

// Ranking is recomputed on every Rank call.
type Ranking struct {
	Scores map[string]int `json:"scores"`
	Ranked []RankedEmail  `json:"ranked"`
	Best   string         `json:"best,omitempty"`
	Top    []string       `json:"top"`
}

// HasBest reports whether a decision maker was picked.
func (r Ranking) HasBest() bool { return r.Best != "" }

// Ranker scores addresses by how likely they reach a decision maker.
type Ranker struct {
	keywords []SeniorityKeyword
	generic  map[string]struct{}
}

func NewRanker(t Tables) *Ranker {
	generic := make(map[string]struct{}, len(t.GenericLocalParts))
	for _, g := range t.GenericLocalParts {
		generic[g] = struct{}{}
	}
	return &Ranker{keywords: t.SeniorityKeywords, generic: generic}
}

// Score returns the seniority score of one address.
func (r *Ranker) Score(email string) int {
	local := strings.ToLower(verify.LocalPart(email))

	score := 0
	for _, k := range r.keywords {
		if strings.Contains(local, k.Keyword) && k.Score > score {
			score = k.Score
		}
	}
	if _, ok := r.generic[local]; ok && score == 0 {
		score = genericScore
	}
	// Short all-letter local-parts are usually a person's name or initials.
	if bareNameRe.MatchString(local) {
		score = max(score, bareNameScore)
	}
	if initialsRe.MatchString(local) {
		score = max(score, initialsScore)
	}
	return score
}

// Rank sorts emails by descending score. Ties keep input order.
func (r *Ranker) Rank(emails []string) Ranking {
	ranking := Ranking{
		Scores: make(map[string]int, len(emails)),
		Ranked: make([]RankedEmail, 0, len(emails)),
		Top:    make([]string, 0, topSize),
	}
	for _, e := range emails {
		if _, dup := ranking.Scores[e]; dup {
			continue
		}
		s := r.Score(e)
		ranking.Scores[e] = s
		ranking.Ranked = append(ranking.Ranked, RankedEmail{Email: e, Score: s})
	}
	sort.SliceStable(ranking.Ranked, func(i, j int) bool {
		return ranking.Ranked[i].Score > ranking.Ranked[j].Score
	})

	for i := 0; i < len(ranking.Ranked) && i < topSize; i++ {
		ranking.Top = append(ranking.Top, ranking.Ranked[i].Email)
	}
	if len(ranking.Top) > 0 {
		ranking.Best = ranking.Top[0]
	}
	return ranking
}
