//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/encoder.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/query.go
//

package esnikeys

import (
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

const (
	// QueryFlagBlockLengthPadding enables using RFC8467 block length padding.
	QueryFlagBlockLengthPadding = 1 << iota

	// QueryFlagDNSSec enables requesting for DNSSEC signatures.
	QueryFlagDNSSec
)

const (
	// QueryMaxResponseSizeUDP is the maximum response size when using UDP
	// and is consistent with what the standard library uses.
	QueryMaxResponseSizeUDP = 1232

	// QueryMaxResponseSizeTCP is the maximum response size when using TCP
	// and is consistent with what the standard library uses.
	QueryMaxResponseSizeTCP = 4096
)

// QueryPrefix is the label under which a domain publishes its ESNIKeys.
const QueryPrefix = "_esni."

// QueryName returns the name holding the ESNIKeys of the given domain,
// adding [QueryPrefix] unless the name already starts with it.
func QueryName(name string) string {
	if strings.HasPrefix(name, QueryPrefix) {
		return name
	}
	return QueryPrefix + name
}

// Query is a DNS query for the ESNIKeys TXT record of a domain.
//
// Construct using [NewQuery] or set the MANDATORY fields.
type Query struct {
	// Flags OPTIONALLY modify the query flags.
	//
	// Use [QueryFlagBlockLengthPadding] and [QueryFlagDNSSec].
	Flags uint16

	// ID is the OPTIONAL query ID.
	ID uint16

	// MaxSize is the OPTIONAL maximum response size
	// to include in the query using EDNS(0).
	//
	// Use [QueryMaxResponseSizeUDP] or [QueryMaxResponseSizeTCP].
	MaxSize uint16

	// Name is the MANDATORY name to query, usually built using [QueryName].
	Name string
}

// NewQuery constructs a new [*Query] for the ESNIKeys of the given domain.
//
// By default, the query uses a randomized ID, requests recursion, and uses
// [QueryMaxResponseSizeUDP] as the EDNS(0) maximum response size.
func NewQuery(domain string) *Query {
	return &Query{
		Name:    QueryName(domain),
		Flags:   0,
		ID:      dns.Id(),
		MaxSize: QueryMaxResponseSizeUDP,
	}
}

// Clone returns a deep copy of the query.
func (q *Query) Clone() *Query {
	return &Query{
		Name:    q.Name,
		Flags:   q.Flags,
		ID:      q.ID,
		MaxSize: q.MaxSize,
	}
}

// NewMsg creates a new TXT [*dns.Msg] from the [*Query].
func (q *Query) NewMsg() (*dns.Msg, error) {
	// IDNA rejects the underscore in the prefix, so encode only the domain.
	domain, hasPrefix := strings.CutPrefix(q.Name, QueryPrefix)
	punyName, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return nil, err
	}
	if hasPrefix {
		punyName = QueryPrefix + punyName
	}
	if !dns.IsFqdn(punyName) {
		punyName = dns.Fqdn(punyName)
	}

	msg := new(dns.Msg)
	msg.Id = q.ID
	msg.RecursionDesired = true
	msg.Question = []dns.Question{{
		Name:   punyName,
		Qtype:  dns.TypeTXT,
		Qclass: dns.ClassINET,
	}}
	msg.SetEdns0(q.MaxSize, q.Flags&QueryFlagDNSSec != 0)

	// Pad to the closest multiple of 128 octets (RFC8467#section-4.1),
	// counting the 4 octets of the option header itself.
	if q.Flags&QueryFlagBlockLengthPadding != 0 {
		const desiredSize = 128
		remainder := (desiredSize - uint16(msg.Len()+4)) % desiredSize
		opt := new(dns.EDNS0_PADDING)
		opt.Padding = make([]byte, remainder)
		msg.IsEdns0().Option = append(msg.IsEdns0().Option, opt)
	}

	return msg, nil
}
