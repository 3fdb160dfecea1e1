// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config holds the in-memory representation of a partition table
// declaration: process-wide Instructions plus the ordered Partition list.
// A Configuration value is built once by a decoder and threaded
// explicitly through the planner and serializers; there is no
// package-level singleton.
package config

import "github.com/google/uuid"

// Instructions holds the process-wide knobs that apply to every partition
// in a Configuration.
type Instructions struct {
	// WriteProtectBulkSizeKB is the write-protection quantum, in KB.
	WriteProtectBulkSizeKB uint64
	// WriteProtectGPT pre-protects the first bulk of a GPT device.
	WriteProtectGPT bool
	// SectorSizeBytes is the logical sector size in bytes.
	SectorSizeBytes uint64
	// AutoGrowLastPartition forces the last partition's size to the
	// "extends to end of device" sentinel.
	AutoGrowLastPartition bool
	// DiskSignature is the 32-bit MBR disk signature, also reused as the
	// protective MBR's signature field on the GPT path.
	DiskSignature uint32
	// DiskGUID is the GPT disk GUID. nil means the GPT serializer uses its
	// fixed default disk GUID.
	DiskGUID *uuid.UUID
}

// DefaultInstructions returns the baseline defaults: a 64 MiB
// write-protect bulk and 512-byte sectors, with every other knob off.
func DefaultInstructions() Instructions {
	return Instructions{
		WriteProtectBulkSizeKB: 65536,
		SectorSizeBytes:        512,
	}
}

// SectorsPerBulk returns the write-protection quantum expressed in sectors.
func (in Instructions) SectorsPerBulk() uint64 {
	return kbToSectors(in.WriteProtectBulkSizeKB, in.SectorSizeBytes)
}

func kbToSectors(kb, sectorSizeBytes uint64) uint64 {
	return kb * 1024 / sectorSizeBytes
}
