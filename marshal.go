// SPDX-License-Identifier: GPL-3.0-or-later

package esnikeys

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Marshal serializes the record and updates its Checksum field so that
// the returned bytes are accepted by [Parse].
func (k *ESNIKeys) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint16(k.Version)
	b.AddBytes(make([]byte, ChecksumSize))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, entry := range k.Keys {
			b.AddUint16(entry.Group)
			b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes(entry.KeyExchange)
			})
		}
	})
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, cs := range k.CipherSuites {
			b.AddBytes(cs[:])
		}
	})
	b.AddUint16(k.PaddedLength)
	b.AddUint64(k.NotBefore)
	b.AddUint64(k.NotAfter)
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(k.Extensions)
	})

	raw, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFieldTooLong, err.Error())
	}

	checksum, err := ComputeChecksum(raw)
	if err != nil {
		return nil, err
	}
	copy(raw[ChecksumOffset:], checksum[:])
	k.Checksum = checksum
	return raw, nil
}
