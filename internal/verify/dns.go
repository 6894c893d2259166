package verify

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"
)

// DefaultTimeout bounds every DNS lookup and every SMTP socket operation.
const DefaultTimeout = 5 * time.Second

// Resolver is the subset of *net.Resolver used by DNSProbe.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// DNSResult is the outcome of a single DNS probe.
type DNSResult struct {
	HasA    bool
	HasAAAA bool
	HasMX   bool
	// MXHosts are ordered by ascending preference, trailing dot removed.
	MXHosts []string
}

// Resolves reports whether the domain has an A or AAAA record.
func (r DNSResult) Resolves() bool { return r.HasA || r.HasAAAA }

// DNSProbe resolves A, AAAA and MX records for a domain. Resolution errors
// are not returned: an unresolvable domain is a normal outcome.
type DNSProbe struct {
	Resolver Resolver
	Timeout  time.Duration
}

// NewDNSProbe returns a probe backed by the system resolver.
func NewDNSProbe(timeout time.Duration) *DNSProbe {
	return &DNSProbe{Resolver: net.DefaultResolver, Timeout: timeout}
}

// Probe performs one lookup per record type, each bounded by Timeout on
// its own. No retries.
func (p *DNSProbe) Probe(ctx context.Context, domain string) DNSResult {
	var res DNSResult
	res.HasA = p.lookupIP(ctx, "ip4", domain)
	res.HasAAAA = p.lookupIP(ctx, "ip6", domain)

	records, err := p.lookupMX(ctx, domain)
	if err != nil {
		return res
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
	for _, mx := range records {
		// A null MX (".") advertises that the domain accepts no mail.
		host := strings.TrimSuffix(strings.TrimSpace(mx.Host), ".")
		if host == "" {
			continue
		}
		res.MXHosts = append(res.MXHosts, host)
	}
	res.HasMX = len(res.MXHosts) > 0
	return res
}

func (p *DNSProbe) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

func (p *DNSProbe) lookupIP(ctx context.Context, network, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	ips, err := p.Resolver.LookupIP(ctx, network, domain)
	return err == nil && len(ips) > 0
}

func (p *DNSProbe) lookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	return p.Resolver.LookupMX(ctx, domain)
}
