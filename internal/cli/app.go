package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"leadscore/internal/config"
	"leadscore/internal/lead"
	"leadscore/internal/logging"
	"leadscore/internal/ratelimit"
	"leadscore/internal/verify"
)

// app bundles what every command needs.
type app struct {
	cfg *config.Config
	log *logrus.Logger
}

func loadApp(configPath string) (*app, error) {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if cfg.Dev {
		log.Warn("🔧 running in dev mode")
	}
	if cfg.SMTP.Proxy.Address == "" && !cfg.Dev && cfg.Verification.SMTPCheck {
		log.Warn("⚠️  SOCKS5 proxy not set - SMTP probes use this host's IP")
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) scorer() (*verify.Scorer, error) {
	v := a.cfg.Verification
	probe, err := verify.NewSMTPProbe(v.HeloName, v.MailFrom, a.cfg.SMTP.Port, v.Timeout(), a.cfg.SMTP.Proxy.Verify())
	if err != nil {
		return nil, fmt.Errorf("smtp probe: %w", err)
	}
	tables := a.cfg.LeadTables()
	return verify.NewScorer(v.Options(), verify.NewDNSProbe(v.Timeout()), probe,
		verify.WithDisposableFilter(verify.NewDisposableFilter(tables.DisposableDomains...)),
		verify.WithThrottle(ratelimit.New(a.cfg.RateLimits, a.log)),
		verify.WithLogger(a.log),
	), nil
}

// aggregator builds leads with s, so callers that also verify directly
// share one rate limiter.
func (a *app) aggregator(s *verify.Scorer) *lead.Aggregator {
	opts := []lead.Option{
		lead.WithTables(a.cfg.LeadTables()),
		lead.WithMaxCandidates(a.cfg.Verification.MaxCandidatesPerDomain),
		lead.WithConcurrency(a.cfg.Verification.Concurrency),
		lead.WithLogger(a.log),
	}
	if a.cfg.Verification.WhoisLookup {
		opts = append(opts, lead.WithDomainRegistry(lead.NewWhoisRegistry(a.cfg.Verification.Timeout())))
	}
	return lead.NewAggregator(s, opts...)
}

func (a *app) redis(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", a.cfg.Redis.Addr, err)
	}
	a.log.Info("✅ connected to Redis")
	return client, nil
}

// sentry initializes error reporting. It returns a nil hub when no DSN is
// configured; the returned func flushes pending events.
func (a *app) sentry() (*sentry.Hub, func()) {
	if a.cfg.Sentry.DSN == "" {
		return nil, func() {}
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         a.cfg.Sentry.DSN,
		Environment: a.cfg.Sentry.Environment,
		Release:     "leadscore@" + version,
	})
	if err != nil {
		a.log.WithError(err).Warn("⚠️  sentry disabled")
		return nil, func() {}
	}
	return sentry.CurrentHub(), func() { sentry.Flush(2 * time.Second) }
}

// readCompanies loads a JSON or YAML list of companies.
func readCompanies(path string) ([]lead.Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read companies: %w", err)
	}

	var companies []lead.Company
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &companies)
	default:
		err = json.Unmarshal(data, &companies)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return companies, nil
}
