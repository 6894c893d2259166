// Package api exposes verification, candidate generation, ranking and
// lead building over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"leadscore/internal/lead"
	"leadscore/internal/logging"
	"leadscore/internal/verify"
)

const maxBodyBytes = 1 << 20

// LeadService is satisfied by *lead.Aggregator.
type LeadService interface {
	Candidates(domain verify.Domain, companyName string) []string
	Rank(emails []string) lead.Ranking
	Build(ctx context.Context, c lead.Company) (lead.Lead, error)
}

// Reporter is satisfied by *sentry.Hub.
type Reporter interface {
	CaptureException(err error) *sentry.EventID
}

// Handlers serves the HTTP API.
type Handlers struct {
	verifier lead.Verifier
	leads    LeadService
	validate *validator.Validate
	log      logrus.FieldLogger
	reporter Reporter
}

type Option func(*Handlers)

// WithReporter sends unexpected handler failures to r.
func WithReporter(r Reporter) Option {
	return func(h *Handlers) { h.reporter = r }
}

func NewHandlers(v lead.Verifier, leads LeadService, log logrus.FieldLogger, opts ...Option) *Handlers {
	if log == nil {
		log = logging.Discard()
	}
	h := &Handlers{verifier: v, leads: leads, validate: validator.New(), log: log}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Verify handles GET /v1/verify?email=.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}
	respondJSON(w, http.StatusOK, h.verifier.Verify(r.Context(), email))
}

type candidatesResponse struct {
	Domain     string   `json:"domain"`
	Candidates []string `json:"candidates"`
}

// Candidates handles GET /v1/candidates?domain=&name=.
func (h *Handlers) Candidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	domain, err := verify.SanitizeDomain(q.Get("domain"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, candidatesResponse{
		Domain:     domain.String(),
		Candidates: h.leads.Candidates(domain, q.Get("name")),
	})
}

type rankRequest struct {
	Emails []string `json:"emails" validate:"required,max=200,dive,required"`
}

// Rank handles POST /v1/rank.
func (h *Handlers) Rank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !h.decode(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, h.leads.Rank(req.Emails))
}

// BuildLead handles POST /v1/leads with a company body.
func (h *Handlers) BuildLead(w http.ResponseWriter, r *http.Request) {
	var c lead.Company
	if !h.decode(w, r, &c) {
		return
	}

	l, err := h.leads.Build(r.Context(), c)
	if err != nil {
		if errors.Is(err, verify.ErrInvalidDomain) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.WithError(err).WithField("company", c.Name).Error("❌ build lead failed")
		if h.reporter != nil {
			h.reporter.CaptureException(err)
		}
		respondError(w, http.StatusInternalServerError, "failed to build lead")
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// decode reads a JSON body into v and validates it. It writes the error
// response and returns false on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, field+" must have at most "+fe.Param()+" items")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, ", ")
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
