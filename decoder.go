// SPDX-License-Identifier: GPL-3.0-or-later

package esnikeys

//
// Field decoding primitives.
//
// Each function takes the unread input and returns the decoded value
// together with the input that follows it. On failure, the function
// returns [ErrTruncated] and consumes nothing.
//
// See https://pkg.go.dev/golang.org/x/crypto/cryptobyte
//

import "golang.org/x/crypto/cryptobyte"

// ReadUint8 reads a single byte.
func ReadUint8(in []byte) (uint8, []byte, error) {
	cursor := cryptobyte.String(in)
	var value uint8
	if !cursor.ReadUint8(&value) {
		return 0, in, ErrTruncated
	}
	return value, cursor, nil
}

// ReadUint16 reads a big-endian 16-bit unsigned integer.
func ReadUint16(in []byte) (uint16, []byte, error) {
	cursor := cryptobyte.String(in)
	var value uint16
	if !cursor.ReadUint16(&value) {
		return 0, in, ErrTruncated
	}
	return value, cursor, nil
}

// ReadUint64 reads a big-endian 64-bit unsigned integer.
func ReadUint64(in []byte) (uint64, []byte, error) {
	cursor := cryptobyte.String(in)
	var value uint64
	if !cursor.ReadUint64(&value) {
		return 0, in, ErrTruncated
	}
	return value, cursor, nil
}

// ReadBytes reads the next n bytes and returns a copy of them, so the
// result does not alias the input buffer. Reading zero bytes returns nil,
// like [ReadRepeated] does for an empty sequence.
func ReadBytes(in []byte, n int) ([]byte, []byte, error) {
	if n < 0 {
		return nil, in, ErrTruncated
	}
	cursor := cryptobyte.String(in)
	var chunk []byte
	if !cursor.ReadBytes(&chunk, n) {
		return nil, in, ErrTruncated
	}
	if n == 0 {
		return nil, cursor, nil
	}
	out := make([]byte, n)
	copy(out, chunk)
	return out, cursor, nil
}

// ReadUint16LengthPrefixed reads a 16-bit length followed by that many bytes.
func ReadUint16LengthPrefixed(in []byte) ([]byte, []byte, error) {
	length, rest, err := ReadUint16(in)
	if err != nil {
		return nil, in, err
	}
	chunk, rest, err := ReadBytes(rest, int(length))
	if err != nil {
		return nil, in, err
	}
	return chunk, rest, nil
}

// ReadRepeated applies elem until the input is exhausted or elem fails.
//
// It returns the elements parsed so far, in input order, and the input
// following the last element that was parsed successfully. An element
// that cannot be parsed ends the sequence; it is not an error. The loop
// also ends if elem succeeds without consuming any input.
func ReadRepeated[T any](in []byte, elem func([]byte) (T, []byte, error)) ([]T, []byte) {
	var out []T
	for len(in) > 0 {
		value, rest, err := elem(in)
		if err != nil || len(rest) >= len(in) {
			break
		}
		out = append(out, value)
		in = rest
	}
	return out, in
}
