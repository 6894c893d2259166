// Package ratelimit paces SMTP probes globally and per mail provider.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"leadscore/internal/logging"
)

// Config holds probe rates in checks per second.
type Config struct {
	Global    float64            `yaml:"global" validate:"gt=0"`
	Default   float64            `yaml:"default" validate:"gt=0"`
	Providers map[string]float64 `yaml:"providers"`
}

// DefaultConfig mirrors the limits large providers tolerate before
// throttling or blocklisting the probing IP.
func DefaultConfig() Config {
	return Config{
		Global:  10,
		Default: 5,
		Providers: map[string]float64{
			"google.com":     2, // gmail, workspace
			"googlemail.com": 2,
			"outlook.com":    1, // outlook, hotmail, live, office365
			"hotmail.com":    1,
			"yahoodns.net":   1,
		},
	}
}

// Manager holds a global limiter plus one limiter per mail provider.
// Providers are keyed by the registrable domain of the MX host so that
// every exchanger of a provider shares one budget.
type Manager struct {
	global    *rate.Limiter
	limiters  map[string]*rate.Limiter
	sensitive map[string]struct{}
	def       rate.Limit
	log       logrus.FieldLogger
	mu        sync.RWMutex
}

// New creates a Manager from cfg. Zero rates fall back to DefaultConfig.
func New(cfg Config, log logrus.FieldLogger) *Manager {
	d := DefaultConfig()
	if cfg.Global <= 0 {
		cfg.Global = d.Global
	}
	if cfg.Default <= 0 {
		cfg.Default = d.Default
	}
	if cfg.Providers == nil {
		cfg.Providers = d.Providers
	}
	if log == nil {
		log = logging.Discard()
	}

	m := &Manager{
		global:    rate.NewLimiter(rate.Limit(cfg.Global), burst(cfg.Global)),
		limiters:  make(map[string]*rate.Limiter, len(cfg.Providers)),
		sensitive: make(map[string]struct{}, len(cfg.Providers)),
		def:       rate.Limit(cfg.Default),
		log:       log,
	}
	for provider, r := range cfg.Providers {
		key := strings.ToLower(provider)
		m.limiters[key] = rate.NewLimiter(rate.Limit(r), providerBurst)
		m.sensitive[key] = struct{}{}
	}
	return m
}

// providerBurst keeps at least 1/rate between two probes to the same
// provider. Only the global limiter may burst.
const providerBurst = 1

func burst(r float64) int {
	if r < 1 {
		return 1
	}
	return int(r)
}

// ProviderKey maps an MX host to its registrable domain,
// e.g. "gmail-smtp-in.l.google.com." -> "google.com".
func ProviderKey(host string) string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if key, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return key
	}
	return host
}

// Wait blocks until both the global and the provider limiter allow a probe
// to mxHost. It returns ctx's error if ctx is done first.
func (m *Manager) Wait(ctx context.Context, mxHost string) error {
	key := ProviderKey(mxHost)

	if err := m.global.Wait(ctx); err != nil {
		return err
	}
	if err := m.limiter(key).Wait(ctx); err != nil {
		return err
	}

	if _, ok := m.sensitive[key]; ok {
		m.log.WithField("provider", key).Debug("⏳ rate limit wait")
	}
	return nil
}

func (m *Manager) limiter(key string) *rate.Limiter {
	m.mu.RLock()
	limiter, exists := m.limiters[key]
	m.mu.RUnlock()
	if exists {
		return limiter
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Double-check after acquiring write lock
	if limiter, exists = m.limiters[key]; !exists {
		limiter = rate.NewLimiter(m.def, providerBurst)
		m.limiters[key] = limiter
	}
	return limiter
}

// Rate returns the configured rate for the provider serving mxHost.
func (m *Manager) Rate(mxHost string) string {
	key := ProviderKey(mxHost)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sensitive[key]; ok {
		return fmt.Sprintf("%.1f/sec", float64(m.limiters[key].Limit()))
	}
	return fmt.Sprintf("%.1f/sec (default)", float64(m.def))
}
