package resolver

import (
	"strings"

	"github.com/miekg/dns"
)

// DefaultTypes is the record-type set queried when the user does not
// narrow the selection. Order matters: it is the dispatch order in
// sequential mode.
var DefaultTypes = []string{
	"A", "AAAA", "CNAME", "MX", "NS", "SOA", "TXT", "CAA",
	"PTR", "SRV", "NAPTR", "DS", "DNSKEY", "TLSA", "LOC",
}

// typeDescriptions feeds the `akari types` listing.
var typeDescriptions = map[string]string{
	"A":      "IPv4 address",
	"AAAA":   "IPv6 address",
	"CNAME":  "Canonical name (alias)",
	"MX":     "Mail exchange",
	"NS":     "Authoritative nameserver",
	"SOA":    "Start of authority",
	"TXT":    "Text record",
	"CAA":    "Certification authority authorization",
	"PTR":    "Reverse pointer",
	"SRV":    "Service locator",
	"NAPTR":  "Naming authority pointer",
	"DS":     "Delegation signer (DNSSEC)",
	"DNSKEY": "DNSSEC public key",
	"TLSA":   "TLS certificate association (DANE)",
	"LOC":    "Geographic location",
}

// TypeCode maps a record-type name from the supported set to its DNS
// wire code. Names outside the set report ok=false even when miekg/dns
// knows them; the supported set is a deliberate, fixed enumeration.
func TypeCode(name string) (uint16, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if _, supported := typeDescriptions[upper]; !supported {
		return 0, false
	}
	code, ok := dns.StringToType[upper]
	return code, ok
}

// DescribeType returns a short human description of a supported record
// type, or "" for unknown types.
func DescribeType(name string) string {
	return typeDescriptions[strings.ToUpper(strings.TrimSpace(name))]
}
