// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package mbrutil implements the low-level MBR byte layout shared by the
// protective MBR (GPT path) and the legacy MBR/EBR path: the 16-byte
// partition entry and the disk signature quirk.
package mbrutil

import "encoding/binary"

// EntrySize is the size of one MBR partition table entry in bytes.
const EntrySize = 16

// SignatureOffset is the byte offset of the disk signature within an MBR
// sector.
const SignatureOffset = 440

// EntryArrayOffset is the byte offset of the four-entry partition array
// within an MBR sector.
const EntryArrayOffset = 446

// CHS is a cylinder-head-sector address as packed into an MBR entry's
// 3-byte first/last sector fields.
type CHS struct {
	Head        byte
	SectorCyl   byte // bits 5..0 sector, bits 7..6 cylinder high
	CylinderLow byte
}

// PutEntry encodes one 16-byte MBR partition entry into b[0:16].
func PutEntry(b []byte, bootable byte, first, last CHS, partType byte, firstLBA, numSectors uint32) {
	b[0] = bootable
	b[1] = first.Head
	b[2] = first.SectorCyl
	b[3] = first.CylinderLow
	b[4] = partType
	b[5] = last.Head
	b[6] = last.SectorCyl
	b[7] = last.CylinderLow

	binary.LittleEndian.PutUint32(b[8:12], firstLBA)
	binary.LittleEndian.PutUint32(b[12:16], numSectors)
}

// PutDiskSignature writes the 32-bit disk signature at b[0:4] in
// big-endian order. This deviates from the standard little-endian
// placement real BIOSes expect; it is a preserved compatibility quirk,
// not a new design choice, so every caller (protective MBR included)
// goes through this single function.
func PutDiskSignature(b []byte, signature uint32) {
	binary.BigEndian.PutUint32(b[0:4], signature)
}

// PutMagic writes the 0x55AA boot signature at b[0:2].
func PutMagic(b []byte) {
	b[0] = 0x55
	b[1] = 0xAA
}
