// SPDX-License-Identifier: GPL-3.0-or-later

package esnikeys

//
// ESNIKeys record.
//
// See https://datatracker.ietf.org/doc/html/draft-ietf-tls-esni-02#section-4.1
//
//	struct {
//		uint16 version;
//		uint8 checksum[4];
//		KeyShareEntry keys<4..2^16-1>;
//		CipherSuite cipher_suites<2..2^16-2>;
//		uint16 padded_length;
//		uint64 not_before;
//		uint64 not_after;
//		Extension extensions<0..2^16-1>;
//	} ESNIKeys;
//

const (
	// VersionDraft02 is the version published by draft-ietf-tls-esni-02.
	VersionDraft02 = 0xff01

	// ChecksumOffset is the offset of the checksum field in the record.
	ChecksumOffset = 2

	// ChecksumSize is the size of the checksum field in bytes.
	ChecksumSize = 4
)

// KeyShareEntry is a key share offered for the ESNI key exchange.
type KeyShareEntry struct {
	// Group is the TLS named group (e.g., 0x001d for x25519).
	Group uint16

	// KeyExchange is the public key material.
	KeyExchange []byte
}

// CipherSuite is a TLS cipher suite identifier.
type CipherSuite [2]byte

// ID returns the cipher suite as a 16-bit value.
func (cs CipherSuite) ID() uint16 {
	return uint16(cs[0])<<8 | uint16(cs[1])
}

// ESNIKeys is a decoded ESNIKeys record.
//
// Construct using [Parse].
type ESNIKeys struct {
	// Version is the format version (usually [VersionDraft02]).
	Version uint16

	// Checksum contains the first four bytes of the record digest.
	Checksum [ChecksumSize]byte

	// Keys contains the key shares in preference order.
	Keys []KeyShareEntry

	// CipherSuites contains the cipher suites in preference order.
	CipherSuites []CipherSuite

	// PaddedLength is the length to which senders pad the SNI.
	PaddedLength uint16

	// NotBefore is the unix time at which the keys become valid.
	NotBefore uint64

	// NotAfter is the unix time after which the keys are no longer valid.
	NotAfter uint64

	// Extensions contains the uninterpreted extensions block.
	Extensions []byte
}

// Parse decodes a raw ESNIKeys record and verifies its checksum.
//
// It returns [ErrTruncated] when the record is structurally incomplete
// and [ErrChecksumMismatch] when the checksum does not match. The
// checksum is only checked once the structure has been fully decoded.
func Parse(raw []byte) (*ESNIKeys, error) {
	candidate, err := ParseUnverified(raw)
	if err != nil {
		return nil, err
	}
	return VerifyChecksum(raw, candidate)
}

// ParseUnverified decodes a raw ESNIKeys record without verifying the
// checksum. Use [Parse] unless you are inspecting a broken record.
//
// Bytes following the extensions are ignored.
func ParseUnverified(raw []byte) (*ESNIKeys, error) {
	k := &ESNIKeys{}
	var err error
	rest := raw

	if k.Version, rest, err = ReadUint16(rest); err != nil {
		return nil, newErrTruncated("version")
	}

	checksum, rest, err := ReadBytes(rest, ChecksumSize)
	if err != nil {
		return nil, newErrTruncated("checksum")
	}
	copy(k.Checksum[:], checksum)

	keys, rest, err := ReadUint16LengthPrefixed(rest)
	if err != nil {
		return nil, newErrTruncated("keys")
	}

	suites, rest, err := ReadUint16LengthPrefixed(rest)
	if err != nil {
		return nil, newErrTruncated("cipher_suites")
	}

	if k.PaddedLength, rest, err = ReadUint16(rest); err != nil {
		return nil, newErrTruncated("padded_length")
	}
	if k.NotBefore, rest, err = ReadUint64(rest); err != nil {
		return nil, newErrTruncated("not_before")
	}
	if k.NotAfter, rest, err = ReadUint64(rest); err != nil {
		return nil, newErrTruncated("not_after")
	}
	if k.Extensions, _, err = ReadUint16LengthPrefixed(rest); err != nil {
		return nil, newErrTruncated("extensions")
	}

	// The lists never fail the record: a malformed element just ends
	// the list, and the remaining bytes of the block are dropped.
	k.Keys, _ = ReadRepeated(keys, readKeyShareEntry)
	k.CipherSuites, _ = ReadRepeated(suites, readCipherSuite)

	return k, nil
}

func readKeyShareEntry(in []byte) (KeyShareEntry, []byte, error) {
	group, rest, err := ReadUint16(in)
	if err != nil {
		return KeyShareEntry{}, in, err
	}
	keyExchange, rest, err := ReadUint16LengthPrefixed(rest)
	if err != nil {
		return KeyShareEntry{}, in, err
	}
	return KeyShareEntry{Group: group, KeyExchange: keyExchange}, rest, nil
}

func readCipherSuite(in []byte) (CipherSuite, []byte, error) {
	var cs CipherSuite
	chunk, rest, err := ReadBytes(in, len(cs))
	if err != nil {
		return cs, in, err
	}
	copy(cs[:], chunk)
	return cs, rest, nil
}
