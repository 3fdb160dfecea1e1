// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"fmt"
	"hash/crc32"

	"github.com/yudatun/pt-box/pterrors"
)

// checksum is the IEEE 802.3 CRC32 used for both the header and the entry
// array: reflected input/output, init 0xFFFFFFFF, final XOR 0xFFFFFFFF.
// hash/crc32.ChecksumIEEE is bit-exact with this definition.
func checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// headerChecksum computes the CRC32 of a 92-byte GPT header with the
// checksum field (bytes 16..20) zeroed. It rejects any length other than
// HeaderSize: a zero-length or truncated header CRC request is a layout
// bug, not a valid empty-input CRC.
func headerChecksum(b []byte) (uint32, error) {
	if len(b) != HeaderSize {
		return 0, fmt.Errorf("%w: header checksum requires exactly %d bytes, got %d", pterrors.ErrLayout, HeaderSize, len(b))
	}

	clean := make([]byte, HeaderSize)
	copy(clean, b)
	clean[16], clean[17], clean[18], clean[19] = 0, 0, 0, 0

	return checksum(clean), nil
}
