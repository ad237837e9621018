// Package geo enriches resolved IPv4 addresses with location metadata
// from the ipinfo.io API. It uses net/http plus encoding/json directly,
// keeping the adapter small; each IP is queried independently so one
// IP's failure never affects the others.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/Kuraiyume/Akari/internal/log"
)

const (
	_defaultBaseURL = "https://ipinfo.io"
	_defaultTimeout = 10 * time.Second
	// At most this many geolocation requests run at once per batch.
	_maxInflight = 4
)

// Record holds location metadata for one IP address. When the lookup for
// that IP failed, Err is set and all other fields are empty.
type Record struct {
	IP       string `json:"ip"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Org      string `json:"org"`
	Postal   string `json:"postal"`
	Timezone string `json:"timezone"`
	Location string `json:"loc"`
	Err      string `json:"-"`
}

// Lines renders the record as an indented display block.
func (r Record) Lines() []string {
	if r.Err != "" {
		return []string{fmt.Sprintf("Geolocation for %s: %s", r.IP, r.Err)}
	}
	return []string{
		fmt.Sprintf("Geolocation for %s:", r.IP),
		fmt.Sprintf("  City: %s", r.City),
		fmt.Sprintf("  Region: %s", r.Region),
		fmt.Sprintf("  Country: %s", r.Country),
		fmt.Sprintf("  Org: %s", r.Org),
		fmt.Sprintf("  Postal: %s", r.Postal),
		fmt.Sprintf("  Timezone: %s", r.Timezone),
		fmt.Sprintf("  Location: %s", r.Location),
	}
}

// Doer is the subset of *http.Client the adapter needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Locator defines the interface for IP geolocation.
type Locator interface {
	// Lookup returns one Record per input IP, keyed by the IP string.
	// A per-IP failure is recorded in that Record's Err field; the
	// returned error is the advisory aggregate of those failures.
	Lookup(ctx context.Context, ips []string) (map[string]Record, error)
}

var _ Locator = (*Client)(nil)

// Client implements Locator against the ipinfo.io HTTP API.
type Client struct {
	HTTP    Doer
	BaseURL string
	Token   string
}

// Opt is a function option for configuring the Client.
type Opt func(c *Client)

// New creates a geolocation client with the given API token.
func New(token string, opts ...Opt) *Client {
	c := &Client{
		HTTP:    &http.Client{Timeout: _defaultTimeout},
		BaseURL: _defaultBaseURL,
		Token:   token,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithBaseURL returns an option to point the client at a different
// endpoint, used by tests against httptest servers.
func WithBaseURL(base string) Opt {
	return func(c *Client) {
		c.BaseURL = base
	}
}

// WithHTTPClient returns an option to inject a custom HTTP client.
func WithHTTPClient(d Doer) Opt {
	return func(c *Client) {
		c.HTTP = d
	}
}

// Lookup queries ipinfo.io for each distinct IP. Queries fan out
// concurrently with a small in-flight cap; results are collected under a
// mutex. Duplicate IPs in the input collapse to a single query.
func (c *Client) Lookup(ctx context.Context, ips []string) (map[string]Record, error) {
	out := make(map[string]Record, len(ips))
	if len(ips) == 0 {
		return out, nil
	}

	var (
		mu   sync.Mutex
		errs error
	)

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(_maxInflight)

	seen := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		if _, dup := seen[ip]; dup {
			continue
		}
		seen[ip] = struct{}{}

		ip := ip
		grp.Go(func() error {
			rec, err := c.lookupOne(ctx, ip)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Collect but don't cancel peers.
				errs = multierr.Append(errs, fmt.Errorf("geolocate %s: %w", ip, err))
				out[ip] = Record{IP: ip, Err: err.Error()}
				return nil
			}
			out[ip] = rec
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		log.Debugf("geo: partial failures: %v", errs)
	}
	return out, errs
}

func (c *Client) lookupOne(ctx context.Context, ip string) (Record, error) {
	endpoint := fmt.Sprintf("%s/%s/json", c.BaseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Record{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		q := req.URL.Query()
		q.Set("token", c.Token)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Record{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decoding response: %w", err)
	}
	if rec.IP == "" {
		rec.IP = ip
	}
	return rec, nil
}
