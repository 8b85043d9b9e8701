// SPDX-License-Identifier: GPL-3.0-or-later

package esnikeys

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"
)

// Named groups from the TLS Supported Groups registry.
//
// See https://www.iana.org/assignments/tls-parameters/tls-parameters.xhtml#tls-parameters-8
var groupNames = map[uint16]string{
	0x0017: "secp256r1",
	0x0018: "secp384r1",
	0x0019: "secp521r1",
	0x001d: "x25519",
	0x001e: "x448",
	0x0100: "ffdhe2048",
	0x0101: "ffdhe3072",
	0x0102: "ffdhe4096",
	0x0103: "ffdhe6144",
	0x0104: "ffdhe8192",
}

// TLS 1.3 cipher suites.
//
// See https://datatracker.ietf.org/doc/html/rfc8446#appendix-B.4
var cipherSuiteNames = map[uint16]string{
	0x1301: "TLS_AES_128_GCM_SHA256",
	0x1302: "TLS_AES_256_GCM_SHA384",
	0x1303: "TLS_CHACHA20_POLY1305_SHA256",
	0x1304: "TLS_AES_128_CCM_SHA256",
	0x1305: "TLS_AES_128_CCM_8_SHA256",
}

// GroupName returns the name of a TLS named group.
func GroupName(group uint16) string {
	if name, ok := groupNames[group]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%04x)", group)
}

// String returns the name of the cipher suite.
func (cs CipherSuite) String() string {
	if name, ok := cipherSuiteNames[cs.ID()]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%04x)", cs.ID())
}

// HexDump returns the bytes as space-separated lowercase hex.
func HexDump(raw []byte) string {
	parts := make([]string, 0, len(raw))
	for _, c := range raw {
		parts = append(parts, hex.EncodeToString([]byte{c}))
	}
	return strings.Join(parts, " ")
}

// formatUnixTime renders a unix timestamp as RFC 3339 in UTC.
func formatUnixTime(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}

// Format writes a human-readable description of the record to w.
func (k *ESNIKeys) Format(w io.Writer) error {
	var sb strings.Builder

	version := "unknown"
	if k.Version == VersionDraft02 {
		version = "draft-02"
	}
	fmt.Fprintf(&sb, "version: 0x%04x (%s)\n", k.Version, version)
	fmt.Fprintf(&sb, "checksum: %s\n", HexDump(k.Checksum[:]))

	fmt.Fprintf(&sb, "keys (%d):\n", len(k.Keys))
	for i, entry := range k.Keys {
		fmt.Fprintf(&sb, "  %d: %s [%s]\n", i, GroupName(entry.Group), HexDump(entry.KeyExchange))
	}

	fmt.Fprintf(&sb, "cipher_suites (%d):\n", len(k.CipherSuites))
	for i, cs := range k.CipherSuites {
		fmt.Fprintf(&sb, "  %d: %s\n", i, cs)
	}

	fmt.Fprintf(&sb, "padded_length: %d\n", k.PaddedLength)
	fmt.Fprintf(&sb, "not_before: %s\n", formatUnixTime(k.NotBefore))
	fmt.Fprintf(&sb, "not_after: %s\n", formatUnixTime(k.NotAfter))

	if len(k.Extensions) > 0 {
		fmt.Fprintf(&sb, "extensions: %s\n", HexDump(k.Extensions))
	} else {
		sb.WriteString("extensions: none\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
