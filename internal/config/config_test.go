package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	cfg.Verification.HeloName = "mx-probe.leads.pe"
	require.NoError(t, cfg.Validate())

	opts := cfg.Verification.Options()
	assert.True(t, opts.SyntaxCheck)
	assert.True(t, opts.DisposableCheck)
	assert.True(t, opts.DNSCheck)
	assert.True(t, opts.SMTPCheck)
	assert.False(t, opts.CatchAllCheck)
	assert.Equal(t, 5*time.Second, cfg.Verification.Timeout())
	assert.Equal(t, 5, cfg.Verification.MaxCandidatesPerDomain)
	assert.Nil(t, cfg.SMTP.Proxy.Verify())
}

func TestLoadYAMLKeepsUnsetDefaults(t *testing.T) {
	path := writeConfig(t, `
verification:
  smtp_check: false
  timeout_seconds: 8
  helo_name: probe.leads.pe
filters:
  min_score: 40
redis:
  retry_delay_seconds: 60
rate_limits:
  providers:
    google.com: 0.5
tables:
  free_mail_providers: [outlook.com, yahoo.com]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Verification.SMTPCheck)
	assert.True(t, cfg.Verification.DNSCheck, "unset keys keep their defaults")
	assert.Equal(t, 8*time.Second, cfg.Verification.Timeout())
	assert.Equal(t, 40, cfg.Filters.MinScore)
	assert.Equal(t, time.Minute, cfg.Redis.QueueConfig().RetryDelay)
	assert.Equal(t, "company_queue", cfg.Redis.QueueConfig().Queue)
	assert.Equal(t, 0.5, cfg.RateLimits.Providers["google.com"])

	tables := cfg.LeadTables()
	assert.Equal(t, []string{"outlook.com", "yahoo.com"}, tables.FreeMailProviders)
	assert.Equal(t, ".pe", tables.CountrySuffix)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "verification: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("IS_DEV", "")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/leads")
	t.Setenv("SOCKS5_PROXY", "proxy.internal:1080")
	t.Setenv("PROXY_USER", "probe")
	t.Setenv("PROXY_PASS", "secret")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("WORKER_HOSTNAME", "worker1.leads.pe")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SENTRY_DSN", "")

	cfg, err := LoadFromEnv(writeConfig(t, "server:\n  addr: \":9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "postgres://u:p@db/leads", cfg.Database.URL)
	assert.Equal(t, "2525", cfg.SMTP.Port)
	assert.Equal(t, "worker1.leads.pe", cfg.Verification.HeloName)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)

	proxy := cfg.SMTP.Proxy.Verify()
	require.NotNil(t, proxy)
	assert.Equal(t, "proxy.internal:1080", proxy.Address)
	assert.Equal(t, "probe", proxy.Username)
	assert.Equal(t, "secret", proxy.Password)
}

func TestLoadFromEnvBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	t.Setenv("WORKER_HOSTNAME", "worker1.leads.pe")
	_, err := LoadFromEnv(writeConfig(t, "{}"))
	assert.ErrorContains(t, err, "REDIS_DB")
}

func TestValidateLocalHELO(t *testing.T) {
	for _, helo := range []string{"localhost", "127.0.0.1", "127.0.1.1"} {
		cfg := Default()
		cfg.Verification.HeloName = helo
		assert.ErrorIs(t, cfg.Validate(), ErrLocalHELO, helo)

		cfg.Dev = true
		assert.NoError(t, cfg.Validate(), helo)
	}
}

func TestValidateReportsFields(t *testing.T) {
	cfg := Default()
	cfg.Verification.HeloName = "probe.leads.pe"
	cfg.Verification.TimeoutSeconds = 0
	cfg.Logging.Format = "xml"
	cfg.Redis.Addr = "no-port"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Verification.TimeoutSeconds must be at least 1")
	assert.Contains(t, err.Error(), "Logging.Format must be one of text json")
	assert.Contains(t, err.Error(), "Redis.Addr must be host:port")
}
