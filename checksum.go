// SPDX-License-Identifier: GPL-3.0-or-later

package esnikeys

import (
	"bytes"
	"crypto/sha256"
	"fmt"
)

// ComputeChecksum returns the checksum of a raw ESNIKeys record, that is,
// the first four bytes of the SHA-256 of the record with the checksum
// field set to zero. The input buffer is not modified.
func ComputeChecksum(raw []byte) ([ChecksumSize]byte, error) {
	var out [ChecksumSize]byte
	if len(raw) < ChecksumOffset+ChecksumSize {
		return out, newErrTruncated("checksum")
	}
	zeroed := bytes.Clone(raw)
	clear(zeroed[ChecksumOffset : ChecksumOffset+ChecksumSize])
	digest := sha256.Sum256(zeroed)
	copy(out[:], digest[:ChecksumSize])
	return out, nil
}

// VerifyChecksum checks the candidate checksum against the raw record it
// was decoded from. It returns the candidate on success and [ErrChecksumMismatch]
// otherwise, in which case the candidate must be discarded.
func VerifyChecksum(raw []byte, candidate *ESNIKeys) (*ESNIKeys, error) {
	expected, err := ComputeChecksum(raw)
	if err != nil {
		return nil, err
	}
	if expected != candidate.Checksum {
		return nil, fmt.Errorf("%w: got %x, expected %x",
			ErrChecksumMismatch, candidate.Checksum[:], expected[:])
	}
	return candidate, nil
}
