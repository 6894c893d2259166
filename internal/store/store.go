// Package store persists leads and their email checks in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"leadscore/internal/lead"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
	id                UUID PRIMARY KEY,
	job_id            TEXT,
	ruc               TEXT,
	name              TEXT NOT NULL,
	domain            TEXT,
	activity          TEXT,
	phone             TEXT,
	address           TEXT,
	primary_email     TEXT,
	valid_emails      TEXT[] NOT NULL DEFAULT '{}',
	candidate_emails  TEXT[] NOT NULL DEFAULT '{}',
	decision_maker    TEXT,
	score             INTEGER NOT NULL,
	industry          TEXT,
	company_size      TEXT,
	needs_marketing   BOOLEAN NOT NULL,
	is_new            BOOLEAN NOT NULL,
	presence          TEXT NOT NULL,
	ranking           JSONB,
	domain_registered TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS leads_score_idx ON leads (score DESC);

CREATE TABLE IF NOT EXISTS email_checks (
	lead_id        UUID NOT NULL REFERENCES leads (id) ON DELETE CASCADE,
	email          TEXT NOT NULL,
	verdict        TEXT NOT NULL,
	score          INTEGER NOT NULL,
	smtp_outcome   TEXT NOT NULL,
	smtp_code      INTEGER,
	failure_reason TEXT,
	mx_host        TEXT,
	catch_all      BOOLEAN,
	PRIMARY KEY (lead_id, email)
);
`

const insertLead = `
	INSERT INTO leads (
		id, job_id, ruc, name, domain, activity, phone, address,
		primary_email, valid_emails, candidate_emails, decision_maker,
		score, industry, company_size, needs_marketing, is_new, presence,
		ranking, domain_registered, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	ON CONFLICT (id) DO UPDATE SET
		score = EXCLUDED.score,
		valid_emails = EXCLUDED.valid_emails,
		decision_maker = EXCLUDED.decision_maker,
		ranking = EXCLUDED.ranking
`

const upsertCheck = `
	INSERT INTO email_checks (
		lead_id, email, verdict, score, smtp_outcome, smtp_code, failure_reason, mx_host, catch_all
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (lead_id, email) DO UPDATE SET
		verdict = EXCLUDED.verdict,
		score = EXCLUDED.score,
		smtp_outcome = EXCLUDED.smtp_outcome,
		smtp_code = EXCLUDED.smtp_code,
		failure_reason = EXCLUDED.failure_reason
`

// Store writes leads. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL at url and pings it.
func Open(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SaveLead stores l and every email check in one transaction. Saving the
// same lead again updates it in place.
func (s *Store) SaveLead(ctx context.Context, jobID string, l lead.Lead) error {
	ranking, err := json.Marshal(l.Ranking)
	if err != nil {
		return fmt.Errorf("encode ranking: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, insertLead,
		l.ID, nullString(jobID), nullString(l.RegistrationID), l.Name, nullString(l.Domain),
		nullString(l.Activity), nullString(l.Phone), nullString(l.Address),
		nullString(l.PrimaryEmail()), pq.Array(l.ValidEmails()), pq.Array(l.CandidateEmails),
		nullString(l.DecisionMaker), l.Score, l.Industry, l.CompanySize,
		l.NeedsMarketing, l.IsNew, l.Presence.String(), ranking, l.DomainRegistered, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead %s: %w", l.ID, err)
	}

	for _, c := range l.Checks {
		mx := ""
		if len(c.MXHosts) > 0 {
			mx = c.MXHosts[0]
		}
		_, err = tx.ExecContext(ctx, upsertCheck,
			l.ID, c.Email, string(c.Verdict), c.Score, c.SMTPOutcome.String(),
			c.SMTPCode, nullString(c.FailureReason), nullString(mx), c.CatchAll,
		)
		if err != nil {
			return fmt.Errorf("insert check %s: %w", c.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lead %s: %w", l.ID, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
