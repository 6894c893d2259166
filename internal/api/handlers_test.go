package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscore/internal/lead"
	"leadscore/internal/verify"
)

type stubVerifier map[string]verify.Verdict

func (s stubVerifier) Verify(_ context.Context, email string) verify.Result {
	v, ok := s[email]
	if !ok {
		v = verify.VerdictInvalid
	}
	return verify.Result{Email: email, Verdict: v}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	v := stubVerifier{
		"info@acme.com.pe":     verify.VerdictValid,
		"gerencia@acme.com.pe": verify.VerdictValid,
	}
	agg := lead.NewAggregator(v, lead.WithMaxCandidates(6))
	srv := httptest.NewServer(NewRouter(NewHandlers(v, agg, nil)))
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestVerify(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/verify?email=info@acme.com.pe")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var res verify.Result
	decodeBody(t, resp, &res)
	assert.Equal(t, verify.VerdictValid, res.Verdict)

	resp, err = http.Get(srv.URL + "/v1/verify")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errBody map[string]string
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "email is required", errBody["error"])
}

func TestCandidates(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/candidates?domain=https://www.acme.com/&name=Acme")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body candidatesResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "acme.com", body.Domain)
	assert.Equal(t, "info@acme.com", body.Candidates[0])
	assert.Contains(t, body.Candidates, "acmeperu@gmail.com")

	resp, err = http.Get(srv.URL + "/v1/candidates?domain=nodot")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRank(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/rank", "application/json",
		strings.NewReader(`{"emails":["ceo@x.com","info@x.com","ab@x.com"]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ranking lead.Ranking
	decodeBody(t, resp, &ranking)
	assert.Equal(t, "ceo@x.com", ranking.Best)
	assert.Len(t, ranking.Top, 3)
}

func TestRankRejectsBadBodies(t *testing.T) {
	srv := newTestServer(t)
	for _, body := range []string{`not json`, `{}`, `{"emails":[""]}`, `{"emails":[],"extra":1}`} {
		resp, err := http.Post(srv.URL+"/v1/rank", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestBuildLead(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/leads", "application/json",
		strings.NewReader(`{"name":"Acme SAC","domain":"www.acme.com.pe","activity":"software"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var l lead.Lead
	decodeBody(t, resp, &l)
	assert.Equal(t, "acme.com.pe", l.Domain)
	assert.Equal(t, "gerencia@acme.com.pe", l.DecisionMaker)
	assert.Equal(t, "tecnologia", l.Industry)
	// domain 20 + verified 25 + decision maker 25
	assert.Equal(t, 70, l.Score)
}

func TestBuildLeadErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/leads", "application/json", strings.NewReader(`{"domain":"acme.pe"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/leads", "application/json", strings.NewReader(`{"name":"X","domain":"nodot"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

// brokenLeads fails every build with a usable domain.
type brokenLeads struct {
	*lead.Aggregator
}

func (brokenLeads) Build(_ context.Context, c lead.Company) (lead.Lead, error) {
	if _, err := verify.SanitizeDomain(c.Domain); err != nil {
		return lead.Lead{}, err
	}
	return lead.Lead{}, errors.New("whois: connection reset")
}

type capturingReporter struct {
	errs []error
}

func (r *capturingReporter) CaptureException(err error) *sentry.EventID {
	r.errs = append(r.errs, err)
	return nil
}

func TestBuildLeadInternalErrorIsReported(t *testing.T) {
	v := stubVerifier{}
	rep := &capturingReporter{}
	h := NewHandlers(v, brokenLeads{lead.NewAggregator(v)}, nil, WithReporter(rep))
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/v1/leads", "application/json", strings.NewReader(`{"name":"Acme","domain":"acme.pe"}`))
	require.NoError(t, err)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "failed to build lead", body["error"])

	require.Len(t, rep.errs, 1)
	assert.EqualError(t, rep.errs[0], "whois: connection reset")

	// Bad domains are the caller's fault and are not reported.
	resp, err = http.Post(srv.URL+"/v1/leads", "application/json", strings.NewReader(`{"name":"X","domain":"nodot"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Len(t, rep.errs, 1)
}

func TestCORSPreflight(t *testing.T) {
	v := stubVerifier{}
	h := NewHandlers(v, lead.NewAggregator(v), nil)
	srv := httptest.NewServer(NewRouter(h, "https://panel.leadscore.pe"))
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/rank", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://panel.leadscore.pe")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "https://panel.leadscore.pe", resp.Header.Get("Access-Control-Allow-Origin"))

	resp2, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}
