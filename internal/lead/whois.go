package lead

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/likexian/whois"
)

// ErrNoCreationDate is returned when a WHOIS record carries no creation date.
var ErrNoCreationDate = errors.New("whois: no creation date")

// DomainRegistry looks up when a domain was registered.
type DomainRegistry interface {
	Registered(ctx context.Context, domain string) (time.Time, error)
}

var creationRe = regexp.MustCompile(`(?im)^\s*(?:creation date|created(?: on)?|registered(?: on)?|registration date|domain registration date)\s*:\s*(.+?)\s*$`)

var whoisLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.0Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"02/01/2006",
}

// WhoisRegistry queries public WHOIS servers.
type WhoisRegistry struct {
	client *whois.Client
}

func NewWhoisRegistry(timeout time.Duration) *WhoisRegistry {
	c := whois.NewClient()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &WhoisRegistry{client: c}
}

func (w *WhoisRegistry) Registered(ctx context.Context, domain string) (time.Time, error) {
	type reply struct {
		raw string
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		raw, err := w.client.Whois(domain)
		ch <- reply{raw, err}
	}()

	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return time.Time{}, r.err
		}
		return parseCreationDate(r.raw)
	}
}

// parseCreationDate extracts the first parseable creation date from a raw
// WHOIS response.
func parseCreationDate(raw string) (time.Time, error) {
	for _, m := range creationRe.FindAllStringSubmatch(raw, -1) {
		value := strings.TrimSpace(m[1])
		for _, layout := range whoisLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, ErrNoCreationDate
}
