//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: https://github.com/ooni/probe-engine/blob/v0.23.0/netx/resolver/decoder.go
// Adapted from: https://github.com/golang/go/blob/go1.21.10/src/net/dnsclient_unix.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/dns/dnscore/response.go
//

package esnikeys

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// These error messages use the same suffixes used by the Go standard library.
var (
	// ErrCannotUnmarshalMessage indicates that we cannot unmarshal a DNS message.
	ErrCannotUnmarshalMessage = errors.New("cannot unmarshal DNS message")

	// ErrInvalidQuery means that the query does not contain a single question.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidResponse means that the response is not a response message
	// or does not contain a single question matching the query.
	ErrInvalidResponse = errors.New("invalid DNS response")

	// ErrNoName indicates that the server response code is NXDOMAIN.
	ErrNoName = errors.New("no such host")

	// ErrServerMisbehaving indicates that the server response code is
	// neither 0, nor NXDOMAIN, nor SERVFAIL.
	ErrServerMisbehaving = errors.New("server misbehaving")

	// ErrServerTemporarilyMisbehaving indicates that the server answer is SERVFAIL.
	//
	// The error message is same as [ErrServerMisbehaving] for compatibility with the
	// Go standard library, which assigns the same error string to both errors.
	ErrServerTemporarilyMisbehaving = errors.New("server misbehaving")

	// ErrNoData indicates that there is no pertinent answer in the response.
	ErrNoData = errors.New("no answer from DNS server")
)

// ValidateResponseForQuery checks that resp answers query and returns
// the single question of the query.
func ValidateResponseForQuery(query, resp *dns.Msg) (dns.Question, error) {
	if !resp.Response || resp.Id != query.Id {
		return dns.Question{}, ErrInvalidResponse
	}
	if len(query.Question) != 1 {
		return dns.Question{}, ErrInvalidQuery
	}
	if len(resp.Question) != 1 {
		return dns.Question{}, ErrInvalidResponse
	}
	asked, got := query.Question[0], resp.Question[0]
	if !responseEqualASCIIName(got.Name, asked.Name) ||
		got.Qclass != asked.Qclass ||
		got.Qtype != asked.Qtype {
		return dns.Question{}, ErrInvalidResponse
	}
	return asked, nil
}

// Borrowed from Go src/net package.
func responseEqualASCIIName(x, y string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := 0; i < len(x); i++ {
		a := x[i]
		b := y[i]
		if 'A' <= a && a <= 'Z' {
			a += 0x20
		}
		if 'A' <= b && b <= 'Z' {
			b += 0x20
		}
		if a != b {
			return false
		}
	}
	return true
}

// ResponseErrorFromRCODE maps the RCODE of a validated response to an
// error using the same suffixes as [*net.Resolver]. It returns nil when
// the RCODE is zero and the response carries answers.
func ResponseErrorFromRCODE(resp *dns.Msg) error {
	switch {
	case resp.Rcode == dns.RcodeNameError:
		return ErrNoName
	case resp.Rcode == dns.RcodeServerFailure:
		return ErrServerTemporarilyMisbehaving
	case resp.Rcode != dns.RcodeSuccess:
		return ErrServerMisbehaving
	case !resp.Authoritative && !resp.RecursionAvailable && len(resp.Answer) == 0:
		// lame referral
		return ErrNoData
	default:
		return nil
	}
}

// ResponseExtractValidAnswers returns the answers whose owner name belongs
// to the CNAME chain starting at the question name, in response order, or
// [ErrNoData] when there are none.
//
// The _esni name of a domain is frequently a CNAME pointing into the
// CDN zone serving the keys, so following the chain matters here.
func ResponseExtractValidAnswers(q0 dns.Question, resp *dns.Msg) ([]dns.RR, error) {
	validNames := map[string]bool{dns.CanonicalName(q0.Name): true}
	currentName := q0.Name
	for _, answer := range resp.Answer {
		cname, ok := answer.(*dns.CNAME)
		if !ok {
			continue
		}
		header := cname.Header()
		if responseEqualASCIIName(currentName, header.Name) && header.Class == q0.Qclass {
			currentName = dns.CanonicalName(cname.Target)
			validNames[currentName] = true
		}
	}

	valid := []dns.RR{}
	for _, answer := range resp.Answer {
		header := answer.Header()
		if validNames[dns.CanonicalName(header.Name)] && header.Class == q0.Qclass {
			valid = append(valid, answer)
		}
	}
	if len(valid) < 1 {
		return nil, ErrNoData
	}
	return valid, nil
}

// Response is a validated DNS response to a [*Query].
//
// Construct a new instance using [ParseResponse].
type Response struct {
	// Query is the original query message.
	Query *dns.Msg

	// Response is the response message.
	Response *dns.Msg

	// ValidRRs contains the valid RRs for the query.
	ValidRRs []dns.RR
}

// ParseResponse returns a [*Response] given a query and response messages or an
// error if the response message is not valid for the query.
func ParseResponse(query *dns.Msg, resp *dns.Msg) (*Response, error) {
	q0, err := ValidateResponseForQuery(query, resp)
	if err != nil {
		return nil, err
	}
	if err := ResponseErrorFromRCODE(resp); err != nil {
		return nil, err
	}
	rrs, err := ResponseExtractValidAnswers(q0, resp)
	if err != nil {
		return nil, err
	}
	return &Response{Query: query, Response: resp, ValidRRs: rrs}, nil
}

// RecordsTXT returns the payload of every TXT record in the response.
//
// The character strings of a record are concatenated, since publishers
// split payloads longer than 255 bytes, and stray quotes are removed.
func (r *Response) RecordsTXT() ([]string, error) {
	out := make([]string, 0, len(r.ValidRRs))
	for _, rr := range r.ValidRRs {
		if txt, ok := rr.(*dns.TXT); ok {
			out = append(out, strings.ReplaceAll(strings.Join(txt.Txt, ""), `"`, ""))
		}
	}
	if len(out) < 1 {
		return nil, ErrNoData
	}
	return out, nil
}

// DecodeTXT base64-decodes a TXT payload into a raw ESNIKeys record.
func DecodeTXT(payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, err.Error())
	}
	return raw, nil
}

// ESNIKeys decodes, parses and verifies every TXT record in the response.
//
// A domain may publish more than one record. This method returns all the
// records that are valid, in response order, and the first error when
// none of them is valid.
func (r *Response) ESNIKeys() ([]*ESNIKeys, error) {
	payloads, err := r.RecordsTXT()
	if err != nil {
		return nil, err
	}
	var (
		out      []*ESNIKeys
		firstErr error
	)
	for _, payload := range payloads {
		k, err := parseTXT(payload)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, k)
	}
	if len(out) < 1 {
		return nil, firstErr
	}
	return out, nil
}

func parseTXT(payload string) (*ESNIKeys, error) {
	raw, err := DecodeTXT(payload)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}
