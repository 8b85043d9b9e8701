// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/bassosimone/esnikeys"
	"github.com/bassosimone/esnikeys/internal/config"
	"github.com/bassosimone/esnikeys/internal/logger"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// sampleTXT is a valid draft-02 record with one x25519 key.
const sampleTXT = "/wH4seFuACQAHQAgAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEBAQEAAhMBAQQAAAAAX+Y2sAAAAABf7h+wAAA="

type staticExchanger struct {
	payloads []string
}

func (ex *staticExchanger) Exchange(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	resp := new(dns.Msg)
	resp.SetReply(query)
	resp.RecursionAvailable = true
	for _, payload := range ex.payloads {
		resp.Answer = append(resp.Answer, &dns.TXT{
			Hdr: dns.RR_Header{
				Name:   query.Question[0].Name,
				Rrtype: dns.TypeTXT,
				Class:  dns.ClassINET,
			},
			Txt: []string{payload},
		})
	}
	return resp, nil
}

func brokenTXT() string {
	raw, _ := base64.StdEncoding.DecodeString(sampleTXT)
	raw[esnikeys.ChecksumOffset] ^= 0x01
	return base64.StdEncoding.EncodeToString(raw)
}

func TestRunFormat(t *testing.T) {
	var out bytes.Buffer
	ex := &staticExchanger{payloads: []string{sampleTXT}}
	err := run(context.Background(), &out, ex, "example.com", config.Default())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.String(), "domain: _esni.example.com\n"))
	require.Contains(t, out.String(), "  0: x25519 [")
	require.Contains(t, out.String(), "padded_length: 260\n")
}

func TestRunHex(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Default()
	cfg.Hex = true
	ex := &staticExchanger{payloads: []string{sampleTXT}}
	require.NoError(t, run(context.Background(), &out, ex, "_esni.example.com", cfg))
	require.Contains(t, out.String(), "hex: ff 01 f8 b1 e1 6e 00 24 00 1d")
}

func TestRunChecksumMismatch(t *testing.T) {
	ex := &staticExchanger{payloads: []string{brokenTXT()}}

	t.Run("Verify", func(t *testing.T) {
		var out bytes.Buffer
		err := run(context.Background(), &out, ex, "example.com", config.Default())
		require.ErrorIs(t, err, esnikeys.ErrChecksumMismatch)
	})

	t.Run("NoVerify", func(t *testing.T) {
		var out bytes.Buffer
		cfg := config.Default()
		cfg.NoVerify = true
		require.NoError(t, run(context.Background(), &out, ex, "example.com", cfg))
		require.Contains(t, out.String(), "checksum: f9 b1 e1 6e\n")
	})
}

func TestRunErrors(t *testing.T) {
	t.Run("NoData", func(t *testing.T) {
		var out bytes.Buffer
		err := run(context.Background(), &out, &staticExchanger{}, "example.com", config.Default())
		require.ErrorIs(t, err, esnikeys.ErrNoData)
	})

	t.Run("InvalidEncoding", func(t *testing.T) {
		var out bytes.Buffer
		ex := &staticExchanger{payloads: []string{"%%%"}}
		err := run(context.Background(), &out, ex, "example.com", config.Default())
		require.ErrorIs(t, err, esnikeys.ErrInvalidEncoding)
	})
}

func TestNewQuery(t *testing.T) {
	cfg := config.Default()
	cfg.Padding = true
	cfg.DNSSec = true
	cfg.Network = "tcp"
	query := newQuery("example.com", cfg)
	require.Equal(t, "_esni.example.com", query.Name)
	require.Equal(t, uint16(esnikeys.QueryFlagBlockLengthPadding|esnikeys.QueryFlagDNSSec), query.Flags)
	require.Equal(t, uint16(esnikeys.QueryMaxResponseSizeTCP), query.MaxSize)

	query = newQuery("example.com", config.Default())
	require.Equal(t, uint16(0), query.Flags)
	require.Equal(t, uint16(esnikeys.QueryMaxResponseSizeUDP), query.MaxSize)
}

func TestNewExchanger(t *testing.T) {
	cfg := config.Default()
	dnsEx, ok := newExchanger(cfg).(*esnikeys.DNSExchanger)
	require.True(t, ok)
	require.Equal(t, cfg.Resolver, dnsEx.Address)
	require.Equal(t, "udp", dnsEx.Client.Net)

	cfg.DoHURL = "https://dns.example/dns-query"
	dohEx, ok := newExchanger(cfg).(*esnikeys.DoHExchanger)
	require.True(t, ok)
	require.Equal(t, cfg.DoHURL, dohEx.URL)
}

func TestRootCommandRequiresName(t *testing.T) {
	viper.Reset()
	cmd, err := newRootCommand(&bytes.Buffer{})
	require.NoError(t, err)
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}

func TestRootCommandLogLevelFromEnvironment(t *testing.T) {
	viper.Reset()
	defer logger.SetLevel("warn")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv(logger.EnvLevel, "error")

	cmd, err := newRootCommand(&bytes.Buffer{})
	require.NoError(t, err)
	cmd.SetArgs([]string{"--resolver", "127.0.0.1:1", "--timeout", "200ms", "example.com"})
	require.Error(t, cmd.Execute())
	require.Equal(t, logrus.ErrorLevel, logger.Get().GetLevel())
}
