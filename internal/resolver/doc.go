// Package resolver provides classified, single-shot DNS record lookups.
//
// The package is the lowest layer of the Akari lookup pipeline. Given a
// domain and a record type from the supported set it performs exactly one
// query against the configured nameserver and maps the outcome to either
// a Lookup value (for classified DNS-level outcomes) or an error (for
// transport-level failures a caller may retry).
//
// # Supported record types
//
// A, AAAA, CNAME, MX, NS, SOA, TXT, CAA, PTR, SRV, NAPTR, DS, DNSKEY,
// TLSA, LOC. The set is a fixed enumeration: other types miekg/dns could
// express are rejected with ErrUnsupportedType.
//
// # Basic Usage
//
// Create a client and resolve one pair:
//
//	client := resolver.New(5 * time.Second)
//	lookup, err := client.Resolve(ctx, "example.com", "A")
//	if err != nil {
//		// transport failure; retry or classify:
//		lookup = resolver.Classify("example.com", "A", err)
//	}
//	for _, line := range lookup.Lines() {
//		fmt.Println(line)
//	}
//
// Configure a custom nameserver:
//
//	client := resolver.New(
//		5 * time.Second,
//		resolver.WithNameserver("8.8.8.8"),
//	)
//
// # Outcome classification
//
// Every lookup yields exactly one of the following statuses:
//
//   - StatusSuccess: one header line plus one line per record
//   - StatusNoRecords: the zone answered but holds no records of the type
//   - StatusNXDomain: the domain does not exist
//   - StatusTimeout: the query exceeded the per-query timeout
//   - StatusTooManyQuestions: the query was malformed or oversized
//   - StatusNoNameservers: no nameserver was reachable
//   - StatusError: anything else, with the underlying message attached
//
// The first three come straight from the response. The rest are derived
// from the transport error by Classify, which callers invoke after any
// retry policy has given up.
//
// # Implementation Notes
//
//   - Uses github.com/miekg/dns for the wire exchange, behind the
//     Exchanger interface so tests can substitute a mock
//   - IDN inputs are converted to punycode with golang.org/x/net/idna
//   - A PTR query for a literal IP address resolves the reverse name
//   - EDNS0 with a 4096-byte buffer is requested so DNSSEC-sized
//     answers fit
//   - The client is stateless per call and safe for concurrent use
package resolver
