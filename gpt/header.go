// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gpt builds byte-exact protective-MBR + primary/backup GPT
// partition table images from a planned partition layout.
package gpt

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/yudatun/pt-box/internal/gptutil"
)

const (
	// Magic is the GPT header signature, "EFI PART".
	Magic = "EFI PART"
	// Revision is the GPT revision 1.0.
	Revision = 0x00010000
	// HeaderSize is the on-disk GPT header size in bytes.
	HeaderSize = 92
	// EntrySize is the size of one partition entry in bytes.
	EntrySize = 128
	// MaxEntries is the maximum number of entries the on-disk array holds.
	MaxEntries = 128
)

// EntryArraySectors returns the number of sectors occupied by the fixed
// 128-entry array, regardless of how many entries are actually in use.
func EntryArraySectors(sectorSizeBytes uint64) uint64 {
	total := uint64(MaxEntries) * EntrySize

	return (total + sectorSizeBytes - 1) / sectorSizeBytes
}

// FirstUsableLBA is the first LBA available to partitions: one sector for
// the protective MBR, one for the primary header, then the entry array.
func FirstUsableLBA(sectorSizeBytes uint64) uint64 {
	return 2 + EntryArraySectors(sectorSizeBytes)
}

// Header is the in-memory representation of the 92-byte GPT header.
//
//nolint:govet
type Header struct {
	CurrentLBA     uint64
	BackupLBA      uint64
	FirstUsableLBA uint64
	LastUsableLBA  uint64
	DiskGUID       uuid.UUID
	EntriesLBA     uint64
	NumEntries     uint32
	EntriesCRC     uint32
}

// Bytes serializes the header into HeaderSize little-endian bytes, with
// the CRC field computed over the header itself, zeroed during
// computation.
func (h Header) Bytes() ([]byte, error) {
	b := make([]byte, HeaderSize)

	copy(b[0:8], Magic)
	binary.LittleEndian.PutUint32(b[8:12], Revision)
	binary.LittleEndian.PutUint32(b[12:16], HeaderSize)
	// b[16:20] header_crc32, filled in below
	// b[20:24] reserved, already zero
	binary.LittleEndian.PutUint64(b[24:32], h.CurrentLBA)
	binary.LittleEndian.PutUint64(b[32:40], h.BackupLBA)
	binary.LittleEndian.PutUint64(b[40:48], h.FirstUsableLBA)
	binary.LittleEndian.PutUint64(b[48:56], h.LastUsableLBA)

	guidBytes, err := h.DiskGUID.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal disk guid: %w", err)
	}

	copy(b[56:72], gptutil.UUIDToGUID(guidBytes))

	binary.LittleEndian.PutUint64(b[72:80], h.EntriesLBA)
	binary.LittleEndian.PutUint32(b[80:84], h.NumEntries)
	binary.LittleEndian.PutUint32(b[84:88], EntrySize)
	binary.LittleEndian.PutUint32(b[88:92], h.EntriesCRC)

	crc, err := headerChecksum(b)
	if err != nil {
		return nil, err
	}

	binary.LittleEndian.PutUint32(b[16:20], crc)

	return b, nil
}
