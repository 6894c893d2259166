package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankBestBeatsGenericAndInitials(t *testing.T) {
	r := NewRanker(DefaultTables())
	got := r.Rank([]string{"ceo@x.com", "info@x.com", "ab@x.com"})

	assert.Equal(t, "ceo@x.com", got.Best)
	assert.Equal(t, 100, got.Scores["ceo@x.com"])
	assert.Equal(t, 35, got.Scores["ab@x.com"])
	assert.Equal(t, []string{"ceo@x.com", "info@x.com", "ab@x.com"}, got.Top)
}

func TestRankBareName(t *testing.T) {
	got := NewRanker(DefaultTables()).Rank([]string{"jose@x.com"})
	assert.GreaterOrEqual(t, got.Scores["jose@x.com"], 40)
	assert.Equal(t, "jose@x.com", got.Best)
}

func TestScore(t *testing.T) {
	r := NewRanker(DefaultTables())
	tests := map[string]int{
		"gerente.general@x.pe":   90,
		"asistente.ceo@x.pe":     100,
		"administracion@x.pe":    70,
		"marketing.digital@x.pe": 60,
		"info@x.pe":              40,
		"noreply@x.pe":           40,
		"soporte.tecnico@x.pe":   0,
		"contacto01@x.pe":        0,
		"jc@x.pe":                35,
		"j.perez@x.pe":           0,
		"VENTAS@X.PE":            50,
	}
	for email, want := range tests {
		assert.Equal(t, want, r.Score(email), email)
	}
}

func TestRankStableTies(t *testing.T) {
	r := NewRanker(DefaultTables())
	got := r.Rank([]string{"maria@x.pe", "jose@x.pe", "ventas@x.pe", "luis@x.pe"})

	assert.Equal(t, []RankedEmail{
		{"ventas@x.pe", 50},
		{"maria@x.pe", 40},
		{"jose@x.pe", 40},
		{"luis@x.pe", 40},
	}, got.Ranked)
	assert.Equal(t, []string{"ventas@x.pe", "maria@x.pe", "jose@x.pe"}, got.Top)
}

func TestRankEmpty(t *testing.T) {
	got := NewRanker(DefaultTables()).Rank(nil)
	assert.False(t, got.HasBest())
	assert.Empty(t, got.Top)
	assert.Empty(t, got.Scores)
}

func TestScoreGenericFallback(t *testing.T) {
	tables := DefaultTables()
	tables.GenericLocalParts = append(tables.GenericLocalParts, "no-reply")
	assert.Equal(t, 10, NewRanker(tables).Score("no-reply@x.pe"))
}
