// SPDX-License-Identifier: GPL-3.0-or-later

// Package esnikeys parses and validates TLS ESNIKeys records.
//
// An ESNIKeys record (draft-ietf-tls-esni-02) carries the key shares and
// cipher suites a client needs to encrypt the SNI, and it is published
// base64-encoded in the TXT record of the `_esni.` name of a domain.
//
// [Parse] decodes a raw record and verifies its embedded checksum. The
// building blocks used by [Parse] ([ReadUint16], [ReadBytes], [ReadRepeated],
// ...) are exported so that callers can decode related structures.
//
// [NewQuery], [ParseResponse] and [Lookup] fetch records from the DNS. We
// use and expose [github.com/miekg/dns] types for that.
package esnikeys
