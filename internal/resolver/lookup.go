package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// Status classifies the outcome of a lookup. The classification is used
// purely for message selection, never for control flow.
type Status int

const (
	// StatusSuccess means at least one record was returned.
	StatusSuccess Status = iota
	// StatusNoRecords means the domain exists but holds no records of
	// the requested type.
	StatusNoRecords
	// StatusNXDomain means the domain does not exist.
	StatusNXDomain
	// StatusTimeout means resolution exceeded the per-query timeout.
	StatusTimeout
	// StatusTooManyQuestions means the query was malformed or oversized.
	StatusTooManyQuestions
	// StatusNoNameservers means no nameserver was reachable.
	StatusNoNameservers
	// StatusError covers any other failure; Err carries the underlying
	// message.
	StatusError
)

// Lookup is the result of resolving one (domain, record type) pair.
// It is owned by the task that produced it until merged into the
// aggregate result list.
type Lookup struct {
	Domain  string
	Type    string
	Status  Status
	Records []string
	Err     string
}

// Lines renders the result as display lines: one header line plus one
// line per record on success, or a single classified message otherwise.
func (l *Lookup) Lines() []string {
	switch l.Status {
	case StatusSuccess:
		lines := make([]string, 0, len(l.Records)+1)
		lines = append(lines, fmt.Sprintf("%s records for %s:", l.Type, l.Domain))
		lines = append(lines, l.Records...)
		return lines
	case StatusNoRecords:
		return []string{fmt.Sprintf("No %s records found for %s.", l.Type, l.Domain)}
	case StatusNXDomain:
		return []string{fmt.Sprintf("The domain %s does not exist.", l.Domain)}
	case StatusTimeout:
		return []string{fmt.Sprintf("Timeout while resolving %s for %s records.", l.Domain, l.Type)}
	case StatusTooManyQuestions:
		return []string{fmt.Sprintf("Too many questions in the DNS query for %s.", l.Domain)}
	case StatusNoNameservers:
		return []string{fmt.Sprintf("No nameservers available to resolve %s.", l.Domain)}
	default:
		return []string{fmt.Sprintf("An error occurred: %s", l.Err)}
	}
}

// IPv4Addrs returns the records that parse as IPv4 addresses.
// Only meaningful for A lookups; used to feed geolocation enrichment.
func (l *Lookup) IPv4Addrs() []string {
	var ips []string
	for _, rec := range l.Records {
		if ip := net.ParseIP(rec); ip != nil && ip.To4() != nil {
			ips = append(ips, rec)
		}
	}
	return ips
}

// Classify converts a transport-level resolution error into a Lookup
// carrying the matching classified status. It is the bridge between the
// error-returning side of Resolve and the lines-only result model: after
// retries are exhausted, the final error still yields exactly one
// visible outcome for the pair.
func Classify(domain, recordType string, err error) *Lookup {
	l := &Lookup{Domain: domain, Type: strings.ToUpper(recordType)}

	switch {
	case err == nil:
		l.Status = StatusError
		l.Err = "unknown failure"
	case isTimeout(err):
		l.Status = StatusTimeout
	case isUnreachable(err):
		l.Status = StatusNoNameservers
	default:
		l.Status = StatusError
		l.Err = err.Error()
	}
	return l
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func isUnreachable(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		strings.Contains(err.Error(), "no such host")
}
