// Package resolver performs single DNS record lookups for Akari.
// It queries one (domain, record type) pair at a time against a configurable
// nameserver and maps every outcome to a classified, human-readable result.
package resolver

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

var (
	// ErrEmptyDomain is returned when an empty domain is provided.
	ErrEmptyDomain = fmt.Errorf("empty domain")
	// ErrEmptyMsg is returned when the DNS response message is empty.
	ErrEmptyMsg = fmt.Errorf("empty message")
	// ErrUnsupportedType is returned for record types outside the supported set.
	ErrUnsupportedType = fmt.Errorf("unsupported record type")
)

var _defaultNameserver = "1.1.1.1:53"

var _ Querier = (*Client)(nil)

// Querier defines the interface for one-shot DNS lookups.
// The retry wrapper and the engine both program against it.
type Querier interface {
	// Resolve looks up one record type for one domain.
	// Classified DNS outcomes (no answer, NXDOMAIN, too many questions)
	// come back inside the Lookup; transport-level failures come back
	// as an error so callers can retry them.
	Resolve(ctx context.Context, domain, recordType string) (*Lookup, error)
}

// Exchanger defines the interface for DNS message exchange.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, a string) (r *dns.Msg, rtt time.Duration, err error)
}

// Client implements the Querier interface over a miekg/dns client.
type Client struct {
	Client     Exchanger
	Timeout    time.Duration
	Nameserver string
}

// Opt is a function option for configuring the Client.
type Opt func(r *Client)

// New creates a new Client with the given per-query timeout and optional
// configurations. The returned Client is ready to use for lookups.
func New(timeout time.Duration, opts ...Opt) *Client {
	res := &Client{
		Client: &dns.Client{
			Timeout: timeout,
		},
		Timeout: timeout,
	}

	for _, o := range opts {
		o(res)
	}

	return res
}

// WithNameserver returns an option to set a custom nameserver.
// A bare host gets port 53 appended. If not provided, the default
// nameserver (1.1.1.1:53) is used.
func WithNameserver(ns string) Opt {
	return func(r *Client) {
		if ns != "" && !strings.Contains(ns, ":") {
			ns += ":53"
		}
		r.Nameserver = ns
	}
}

// WithTimeout returns an option to set a custom timeout for DNS queries.
// This overrides the timeout provided to New.
func WithTimeout(timeout time.Duration) Opt {
	return func(r *Client) {
		r.Timeout = timeout
	}
}

// Resolve executes one DNS query and classifies the response.
// NXDOMAIN, empty answers and YXDOMAIN are results, not errors: the
// distinction is only used for message selection. Network failures,
// server failures and refusals return an error; no retries happen at
// this layer.
func (r *Client) Resolve(ctx context.Context, domain, recordType string) (*Lookup, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, ErrEmptyDomain
	}

	qtype, ok := TypeCode(recordType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, recordType)
	}

	name, err := queryName(domain, qtype)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	// Fresh request each call: ExchangeContext mutates *dns.Msg.
	req := &dns.Msg{}
	req.SetQuestion(name, qtype)
	// DNSSEC-sized answers (DNSKEY, DS, TLSA) overflow 512-byte UDP.
	req.SetEdns0(4096, false)

	resp, _, err := r.Client.ExchangeContext(ctx, req, r.nameserver())
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrEmptyMsg
	}

	lookup := &Lookup{Domain: domain, Type: strings.ToUpper(recordType)}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		lookup.Records = renderAnswers(resp, qtype)
		if len(lookup.Records) == 0 {
			lookup.Status = StatusNoRecords
		}
	case dns.RcodeNameError:
		lookup.Status = StatusNXDomain
	case dns.RcodeYXDomain:
		lookup.Status = StatusTooManyQuestions
	default:
		// SERVFAIL, REFUSED and friends are transient from the client's
		// point of view and worth a retry.
		return nil, fmt.Errorf("query for %q returned %s", domain, dns.RcodeToString[resp.Rcode])
	}

	return lookup, nil
}

// queryName builds the wire-format query name. IDN labels are converted
// to punycode first, and a PTR query for a literal IP address uses the
// corresponding reverse name.
func queryName(domain string, qtype uint16) (string, error) {
	if qtype == dns.TypePTR {
		if ip := net.ParseIP(domain); ip != nil {
			rev, err := dns.ReverseAddr(domain)
			if err != nil {
				return "", fmt.Errorf("reverse address for %q: %w", domain, err)
			}
			return rev, nil
		}
	}

	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		// Pass the raw name through; the nameserver gets the final say.
		ascii = domain
	}
	return dns.Fqdn(ascii), nil
}

func (r *Client) nameserver() string {
	if r.Nameserver == "" {
		return _defaultNameserver
	}
	return r.Nameserver
}

// renderAnswers extracts display strings from the answer section.
// Only records of the requested type are rendered; when a CNAME chain
// leaves no direct match, every answer is rendered instead so a
// successful response never collapses to "no records".
func renderAnswers(resp *dns.Msg, qtype uint16) []string {
	var matched, all []string
	for _, rr := range resp.Answer {
		s := renderRR(rr)
		all = append(all, s)
		if rr.Header().Rrtype == qtype {
			matched = append(matched, s)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return all
}

// renderRR formats a single resource record value the way dig prints the
// RDATA, without the owner/TTL/class prefix.
func renderRR(rr dns.RR) string {
	switch r := rr.(type) {
	case *dns.A:
		return r.A.String()
	case *dns.AAAA:
		return r.AAAA.String()
	case *dns.CNAME:
		return r.Target
	case *dns.MX:
		return fmt.Sprintf("%d %s", r.Preference, r.Mx)
	case *dns.NS:
		return r.Ns
	case *dns.TXT:
		return strings.Join(r.Txt, " ")
	case *dns.SOA:
		return fmt.Sprintf("%s %s %d %d %d %d %d",
			r.Ns, r.Mbox, r.Serial, r.Refresh, r.Retry, r.Expire, r.Minttl)
	case *dns.PTR:
		return r.Ptr
	case *dns.SRV:
		return fmt.Sprintf("%d %d %d %s", r.Priority, r.Weight, r.Port, r.Target)
	case *dns.CAA:
		return fmt.Sprintf("%d %s %q", r.Flag, r.Tag, r.Value)
	case *dns.NAPTR:
		return fmt.Sprintf("%d %d %q %q %q %s",
			r.Order, r.Preference, r.Flags, r.Service, r.Regexp, r.Replacement)
	case *dns.DS:
		return fmt.Sprintf("%d %d %d %s",
			r.KeyTag, r.Algorithm, r.DigestType, strings.ToUpper(r.Digest))
	case *dns.DNSKEY:
		return fmt.Sprintf("%d %d %d %s", r.Flags, r.Protocol, r.Algorithm, r.PublicKey)
	case *dns.TLSA:
		return fmt.Sprintf("%d %d %d %s",
			r.Usage, r.Selector, r.MatchingType, r.Certificate)
	default:
		// LOC and anything else: strip the header off the full
		// presentation format.
		return strings.TrimSpace(strings.TrimPrefix(rr.String(), rr.Header().String()))
	}
}
