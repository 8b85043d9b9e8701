// SPDX-License-Identifier: GPL-3.0-or-later

package esnikeys

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/miekg/dns"
)

// Exchanger sends a DNS query message and returns the raw response message.
type Exchanger interface {
	Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error)
}

// DNSExchanger is an [Exchanger] speaking classic DNS with a [*dns.Client].
type DNSExchanger struct {
	// Client is the MANDATORY client. Its Net field selects UDP or TCP.
	Client *dns.Client

	// Address is the MANDATORY resolver address (e.g., "8.8.8.8:53").
	Address string
}

var _ Exchanger = &DNSExchanger{}

// Exchange implements [Exchanger].
func (ex *DNSExchanger) Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	resp, _, err := ex.Client.ExchangeContext(ctx, query, ex.Address)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DoHMediaType is the media type of RFC 8484 DNS-over-HTTPS messages.
const DoHMediaType = "application/dns-message"

// dohMaxResponseSize bounds the size of the response body we read.
const dohMaxResponseSize = 1 << 16

// DoHExchanger is an [Exchanger] speaking RFC 8484 DNS-over-HTTPS.
type DoHExchanger struct {
	// Client is the OPTIONAL HTTP client. If nil, we use [http.DefaultClient].
	Client *http.Client

	// URL is the MANDATORY server URL (e.g., "https://dns.google/dns-query").
	URL string
}

var _ Exchanger = &DoHExchanger{}

// Exchange implements [Exchanger].
func (ex *DoHExchanger) Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	rawQuery, err := query.Pack()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ex.URL, bytes.NewReader(rawQuery))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", DoHMediaType)
	req.Header.Set("Accept", DoHMediaType)

	client := ex.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpResp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP status %d", ErrServerMisbehaving, httpResp.StatusCode)
	}
	ct := httpResp.Header.Get("Content-Type")
	if mediaType, _, _ := mime.ParseMediaType(ct); mediaType != DoHMediaType {
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrInvalidResponse, ct)
	}

	rawResp, err := io.ReadAll(io.LimitReader(httpResp.Body, dohMaxResponseSize))
	if err != nil {
		return nil, err
	}
	resp := new(dns.Msg)
	if err := resp.Unpack(rawResp); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCannotUnmarshalMessage, err.Error())
	}
	return resp, nil
}

// Exchange sends the query using ex and returns the validated response.
func Exchange(ctx context.Context, ex Exchanger, query *Query) (*Response, error) {
	msg, err := query.NewMsg()
	if err != nil {
		return nil, err
	}
	resp, err := ex.Exchange(ctx, msg)
	if err != nil {
		return nil, err
	}
	return ParseResponse(msg, resp)
}

// Lookup fetches the ESNIKeys published by a domain and returns the
// records that decode and verify successfully.
//
// Lookup does not retry and does not cache.
func Lookup(ctx context.Context, ex Exchanger, query *Query) ([]*ESNIKeys, error) {
	resp, err := Exchange(ctx, ex, query)
	if err != nil {
		return nil, err
	}
	return resp.ESNIKeys()
}
