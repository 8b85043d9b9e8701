// SPDX-License-Identifier: GPL-3.0-or-later

package esnikeys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadIntegers(t *testing.T) {
	t.Run("ReadUint8", func(t *testing.T) {
		value, rest, err := ReadUint8([]byte{0xab, 0x01})
		require.NoError(t, err)
		require.Equal(t, uint8(0xab), value)
		require.Equal(t, []byte{0x01}, rest)

		_, rest, err = ReadUint8(nil)
		require.ErrorIs(t, err, ErrTruncated)
		require.Empty(t, rest)
	})

	t.Run("ReadUint16", func(t *testing.T) {
		value, rest, err := ReadUint16([]byte{0xff, 0x01, 0x02})
		require.NoError(t, err)
		require.Equal(t, uint16(0xff01), value)
		require.Equal(t, []byte{0x02}, rest)

		in := []byte{0xff}
		_, rest, err = ReadUint16(in)
		require.ErrorIs(t, err, ErrTruncated)
		require.Equal(t, in, rest)
	})

	t.Run("ReadUint64", func(t *testing.T) {
		in := []byte{0, 0, 0, 0, 0x5f, 0xe6, 0x36, 0xb0}
		value, rest, err := ReadUint64(in)
		require.NoError(t, err)
		require.Equal(t, uint64(1608922800), value)
		require.Empty(t, rest)

		_, rest, err = ReadUint64(in[:7])
		require.ErrorIs(t, err, ErrTruncated)
		require.Equal(t, in[:7], rest)
	})
}

func TestReadBytes(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		n     int
		chunk []byte
		rest  []byte
		err   error
	}{
		{"Exact", []byte{1, 2, 3}, 3, []byte{1, 2, 3}, []byte{}, nil},
		{"Prefix", []byte{1, 2, 3}, 2, []byte{1, 2}, []byte{3}, nil},
		{"Zero", []byte{1}, 0, nil, []byte{1}, nil},
		{"Short", []byte{1, 2}, 3, nil, []byte{1, 2}, ErrTruncated},
		{"Negative", []byte{1, 2}, -1, nil, []byte{1, 2}, ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, rest, err := ReadBytes(tt.in, tt.n)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.chunk, chunk)
			require.Equal(t, tt.rest, rest)
		})
	}
}

func TestReadBytesReturnsCopy(t *testing.T) {
	in := []byte{1, 2, 3}
	chunk, _, err := ReadBytes(in, 2)
	require.NoError(t, err)
	in[0] = 0xff
	require.Equal(t, []byte{1, 2}, chunk)
}

func TestReadUint16LengthPrefixed(t *testing.T) {
	chunk, rest, err := ReadUint16LengthPrefixed([]byte{0x00, 0x02, 0xaa, 0xbb, 0xcc})
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0xbb}, chunk)
	require.Equal(t, []byte{0xcc}, rest)

	in := []byte{0x00, 0x03, 0xaa, 0xbb}
	_, rest, err = ReadUint16LengthPrefixed(in)
	require.ErrorIs(t, err, ErrTruncated)
	require.Equal(t, in, rest)

	_, _, err = ReadUint16LengthPrefixed([]byte{0x00})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadRepeated(t *testing.T) {
	t.Run("ConsumesEverything", func(t *testing.T) {
		values, rest := ReadRepeated([]byte{0, 1, 0, 2, 0, 3}, ReadUint16)
		require.Equal(t, []uint16{1, 2, 3}, values)
		require.Empty(t, rest)
	})

	t.Run("StopsAtPartialElement", func(t *testing.T) {
		values, rest := ReadRepeated([]byte{0, 1, 0, 2, 0x07}, ReadUint16)
		require.Equal(t, []uint16{1, 2}, values)
		require.Equal(t, []byte{0x07}, rest)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		values, rest := ReadRepeated(nil, ReadUint16)
		require.Empty(t, values)
		require.Empty(t, rest)
	})

	t.Run("StopsWhenNothingIsConsumed", func(t *testing.T) {
		calls := 0
		noop := func(in []byte) (int, []byte, error) {
			calls++
			return 0, in, nil
		}
		values, rest := ReadRepeated([]byte{1, 2}, noop)
		require.Empty(t, values)
		require.Equal(t, []byte{1, 2}, rest)
		require.Equal(t, 1, calls)
	})
}
