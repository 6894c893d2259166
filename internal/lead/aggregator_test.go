package lead

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscore/internal/verify"
)

type fakeVerifier struct {
	mu       sync.Mutex
	verdicts map[string]verify.Verdict
	calls    []string
}

func (f *fakeVerifier) Verify(_ context.Context, email string) verify.Result {
	f.mu.Lock()
	f.calls = append(f.calls, email)
	f.mu.Unlock()

	v, ok := f.verdicts[email]
	if !ok {
		v = verify.VerdictInvalid
	}
	return verify.Result{Email: email, Verdict: v}
}

type fakeRegistry struct {
	created time.Time
	err     error
}

func (f fakeRegistry) Registered(context.Context, string) (time.Time, error) {
	return f.created, f.err
}

func TestBuildFullLead(t *testing.T) {
	v := &fakeVerifier{verdicts: map[string]verify.Verdict{
		"info@marisco.com.pe":   verify.VerdictValid,
		"ventas@marisco.com.pe": verify.VerdictProbable,
		"rrhh@marisco.com.pe":   verify.VerdictValid, // beyond the probe cap
	}}
	a := NewAggregator(v)

	l, err := a.Build(context.Background(), Company{
		RegistrationID: "20123456789",
		Name:           "Ceviches del Callao SAC",
		Domain:         "https://www.Marisco.com.pe/",
		Activity:       "Restaurante",
	})
	require.NoError(t, err)

	assert.Equal(t, "marisco.com.pe", l.Domain)
	assert.Equal(t, "20123456789", l.RegistrationID)
	assert.Len(t, v.calls, DefaultMaxCandidates)
	assert.Equal(t, l.CandidateEmails[:DefaultMaxCandidates], v.calls)
	assert.Len(t, l.Checks, DefaultMaxCandidates)
	assert.Equal(t, []string{"info@marisco.com.pe", "ventas@marisco.com.pe"}, l.ValidEmails())
	assert.Equal(t, "info@marisco.com.pe", l.PrimaryEmail())

	assert.Equal(t, "ventas@marisco.com.pe", l.DecisionMaker)
	assert.Equal(t, "restaurante", l.Industry)
	assert.Equal(t, "pequeña-mediana", l.CompanySize)
	assert.True(t, l.NeedsMarketing)
	assert.False(t, l.IsNew)
	assert.Equal(t, PresenceUnknown, l.Presence)
	assert.False(t, l.HasOnlinePresence)
	// domain 20 + verified 25 + decision maker 25 + needs marketing 15
	assert.Equal(t, 85, l.Score)
	assert.NotEqual(t, uuid.Nil, l.ID)
}

func TestBuildWithoutDomain(t *testing.T) {
	v := &fakeVerifier{}
	a := NewAggregator(v)

	l, err := a.Build(context.Background(), Company{Name: "Bodega Don Pepe"})
	require.NoError(t, err)

	assert.Empty(t, v.calls)
	assert.Empty(t, l.CandidateEmails)
	assert.Empty(t, l.DecisionMaker)
	assert.True(t, l.NeedsMarketing)
	assert.True(t, l.IsNew)
	// needs marketing 15 + new company 20, no domain points
	assert.Equal(t, 35, l.Score)
}

func TestBuildAbsentPresenceAddsPoints(t *testing.T) {
	a := NewAggregator(&fakeVerifier{}, WithPresenceChecker(StaticPresence{
		"Bodega Don Pepe":  PresenceAbsent,
		"Hotel Miraflores": PresencePresent,
	}))

	l, err := a.Build(context.Background(), Company{Name: "Bodega Don Pepe"})
	require.NoError(t, err)
	assert.Equal(t, 65, l.Score)
	assert.Equal(t, PresenceAbsent, l.Presence)

	l, err = a.Build(context.Background(), Company{Name: "Hotel Miraflores"})
	require.NoError(t, err)
	assert.Equal(t, 35, l.Score)
	assert.True(t, l.HasOnlinePresence)
}

func TestBuildNoVerifiedEmails(t *testing.T) {
	a := NewAggregator(&fakeVerifier{})
	l, err := a.Build(context.Background(), Company{Name: "Transportes Andinos", Domain: "andinos.pe"})
	require.NoError(t, err)

	assert.Empty(t, l.VerifiedEmails)
	assert.False(t, l.Ranking.HasBest())
	// domain 20 + needs marketing 15
	assert.Equal(t, 35, l.Score)
	assert.Equal(t, "pequeña", l.CompanySize)
}

func TestBuildInvalidDomain(t *testing.T) {
	v := &fakeVerifier{}
	_, err := NewAggregator(v).Build(context.Background(), Company{Name: "X", Domain: "http://localhost/"})
	assert.ErrorIs(t, err, verify.ErrInvalidDomain)
	assert.Empty(t, v.calls)
}

func TestBuildConcurrentKeepsCandidateOrder(t *testing.T) {
	verdicts := map[string]verify.Verdict{}
	for _, p := range []string{"info", "ventas", "contacto", "administracion", "consultas", "gerencia", "gerente", "director"} {
		verdicts[p+"@acme.pe"] = verify.VerdictValid
	}
	v := &fakeVerifier{verdicts: verdicts}
	a := NewAggregator(v, WithConcurrency(4), WithMaxCandidates(8))

	l, err := a.Build(context.Background(), Company{Name: "Acme", Domain: "acme.pe"})
	require.NoError(t, err)

	assert.Len(t, v.calls, 8)
	assert.Equal(t, l.CandidateEmails[:8], l.ValidEmails())
	assert.Equal(t, "gerencia@acme.pe", l.DecisionMaker)
	assert.Equal(t, "pequeña", l.CompanySize)
}

func TestBuildDomainRegistry(t *testing.T) {
	created := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	a := NewAggregator(&fakeVerifier{}, WithDomainRegistry(fakeRegistry{created: created}))

	l, err := a.Build(context.Background(), Company{Name: "Acme", Domain: "acme.pe"})
	require.NoError(t, err)
	require.NotNil(t, l.DomainRegistered)
	assert.Equal(t, created, *l.DomainRegistered)

	a = NewAggregator(&fakeVerifier{}, WithDomainRegistry(fakeRegistry{err: errors.New("timeout")}))
	l, err = a.Build(context.Background(), Company{Name: "Acme", Domain: "acme.pe"})
	require.NoError(t, err)
	assert.Nil(t, l.DomainRegistered)
	assert.Equal(t, 35, l.Score, "registration date never changes the score")
}

func TestBuildCustomTables(t *testing.T) {
	tables := DefaultTables()
	tables.GenericPrefixes = []string{"hola"}
	tables.DecisionPrefixes = nil
	tables.DepartmentPrefixes = nil
	tables.MiscPrefixes = nil

	a := NewAggregator(&fakeVerifier{}, WithTables(tables))
	assert.Equal(t, []string{"hola@acme.pe"}, a.Candidates("acme.pe", ""))
	assert.Equal(t, "jefe@acme.pe", a.Rank([]string{"jefe@acme.pe"}).Best)
}
