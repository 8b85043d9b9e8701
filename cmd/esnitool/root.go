// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bassosimone/esnikeys"
	"github.com/bassosimone/esnikeys/internal/config"
	"github.com/bassosimone/esnikeys/internal/logger"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCommand(stdout io.Writer) (*cobra.Command, error) {
	var cfgFile string
	cmd := &cobra.Command{
		Use:           "esnitool NAME",
		Short:         "Fetch and print the ESNIKeys published by a domain",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init(cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromViper()
			logger.SetLevel(cfg.LogLevel)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			return run(ctx, stdout, newExchanger(cfg), args[0], cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/esnitool/esnitool.yaml)")
	flags.Bool("hex", false, "print the raw ESNIKeys in hex")
	flags.Bool("no-verify", false, "print records whose checksum does not match")
	flags.String("resolver", config.Default().Resolver, "DNS resolver address")
	flags.String("network", config.Default().Network, "DNS resolver network (udp or tcp)")
	flags.String("doh", "", "DNS-over-HTTPS URL, overrides --resolver")
	flags.Duration("timeout", config.Default().Timeout, "lookup timeout")
	flags.Bool("padding", false, "pad the query to a multiple of 128 bytes")
	flags.Bool("dnssec", false, "request DNSSEC signatures")
	flags.String("log-level", config.Default().LogLevel, "log level (debug, info, warn, error, none)")

	for key, name := range map[string]string{
		config.KeyHex:      "hex",
		config.KeyNoVerify: "no-verify",
		config.KeyResolver: "resolver",
		config.KeyNetwork:  "network",
		config.KeyDoHURL:   "doh",
		config.KeyTimeout:  "timeout",
		config.KeyPadding:  "padding",
		config.KeyDNSSec:   "dnssec",
		config.KeyLogLevel: "log-level",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

func newExchanger(cfg config.Config) esnikeys.Exchanger {
	if cfg.DoHURL != "" {
		return &esnikeys.DoHExchanger{
			Client: &http.Client{Timeout: cfg.Timeout},
			URL:    cfg.DoHURL,
		}
	}
	return &esnikeys.DNSExchanger{
		Client:  &dns.Client{Net: cfg.Network, Timeout: cfg.Timeout},
		Address: cfg.Resolver,
	}
}

func newQuery(name string, cfg config.Config) *esnikeys.Query {
	query := esnikeys.NewQuery(name)
	if cfg.Padding {
		query.Flags |= esnikeys.QueryFlagBlockLengthPadding
	}
	if cfg.DNSSec {
		query.Flags |= esnikeys.QueryFlagDNSSec
	}
	if cfg.Network == "tcp" || cfg.DoHURL != "" {
		query.MaxSize = esnikeys.QueryMaxResponseSizeTCP
	}
	return query
}

func run(ctx context.Context, w io.Writer, ex esnikeys.Exchanger, name string, cfg config.Config) error {
	query := newQuery(name, cfg)
	fmt.Fprintf(w, "domain: %s\n", query.Name)
	log.WithFields(logrus.Fields{
		"name":     query.Name,
		"resolver": cfg.Resolver,
		"doh":      cfg.DoHURL,
	}).Debug("esnitool: looking up ESNIKeys")

	resp, err := esnikeys.Exchange(ctx, ex, query)
	if err != nil {
		return fmt.Errorf("DNS lookup failed: %w", err)
	}
	payloads, err := resp.RecordsTXT()
	if err != nil {
		return fmt.Errorf("DNS lookup failed: %w", err)
	}
	log.WithField("count", len(payloads)).Debug("esnitool: got TXT records")

	for _, payload := range payloads {
		raw, err := esnikeys.DecodeTXT(payload)
		if err != nil {
			return err
		}
		if cfg.Hex {
			fmt.Fprintf(w, "hex: %s\n", esnikeys.HexDump(raw))
			continue
		}
		if err := printRecord(w, raw, cfg.NoVerify); err != nil {
			return err
		}
	}
	return nil
}

func printRecord(w io.Writer, raw []byte, noVerify bool) error {
	k, err := esnikeys.Parse(raw)
	if errors.Is(err, esnikeys.ErrChecksumMismatch) && noVerify {
		log.WithError(err).Warn("esnitool: printing record with invalid checksum")
		k, err = esnikeys.ParseUnverified(raw)
	}
	if err != nil {
		return err
	}
	return k.Format(w)
}
