// SPDX-License-Identifier: GPL-3.0-or-later

package esnikeys

import (
	"errors"
	"fmt"
)

// Errors emitted when decoding an ESNIKeys record.
var (
	// ErrTruncated means the buffer ended before a fixed-width field
	// or a field with a declared length could be fully read.
	ErrTruncated = errors.New("esnikeys: truncated record")

	// ErrChecksumMismatch means the record is structurally well formed
	// but its checksum does not match the recomputed digest.
	ErrChecksumMismatch = errors.New("esnikeys: checksum mismatch")

	// ErrInvalidEncoding means a TXT payload is not valid base64.
	ErrInvalidEncoding = errors.New("esnikeys: invalid base64 encoding")

	// ErrFieldTooLong means a field does not fit its length prefix
	// and the record cannot be serialized.
	ErrFieldTooLong = errors.New("esnikeys: field too long")
)

// newErrTruncated returns a new [ErrTruncated] naming the field.
func newErrTruncated(field string) error {
	return fmt.Errorf("%w: cannot read %s", ErrTruncated, field)
}
