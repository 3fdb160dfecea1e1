// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yudatun/pt-box/config"
	"github.com/yudatun/pt-box/internal/mbrutil"
	"github.com/yudatun/pt-box/pterrors"
)

const sectorsPerGPTRegion = 1 + 32 // header sector + 32 entry-array sectors

// Images holds the three artifacts the GPT serializer produces.
type Images struct {
	Both   []byte // protective MBR + primary GPT + backup GPT
	Main   []byte // protective MBR + primary GPT
	Backup []byte // backup GPT only
}

// Build assembles the protective MBR and the primary/backup GPT byte
// streams from a planned layout.
func Build(in config.Instructions, plan Plan, opts Options) (Images, error) {
	sectorSize := in.SectorSizeBytes
	if sectorSize == 0 {
		return Images{}, fmt.Errorf("%w: sector size must be nonzero", pterrors.ErrConfig)
	}

	entryArraySectors := EntryArraySectors(sectorSize)
	if entryArraySectors != 32 {
		return Images{}, fmt.Errorf("%w: non-512-byte sectors are not supported by this serializer", pterrors.ErrLayout)
	}

	entries, err := entryArrayBytes(plan.Entries)
	if err != nil {
		return Images{}, err
	}

	entriesCRC := checksum(entries[:uint64(plan.NumEntries)*EntrySize])

	diskGUID := opts.diskGUID(in)

	// deviceLastLBA is the value the planner's LastUsableLBA conflates
	// with the true device-last-sector: both the primary header's
	// backup_lba and the secondary header's current_lba reuse it
	// bit-exact, auto-grow's zero included.
	deviceLastLBA := plan.LastUsableLBA

	primaryHeader := Header{
		CurrentLBA:     1,
		BackupLBA:      deviceLastLBA,
		FirstUsableLBA: FirstUsableLBA(sectorSize),
		LastUsableLBA:  plan.LastUsableLBA,
		DiskGUID:       diskGUID,
		EntriesLBA:     2,
		NumEntries:     plan.NumEntries,
		EntriesCRC:     entriesCRC,
	}

	var secondaryEntriesLBA uint64
	if deviceLastLBA > 32 {
		secondaryEntriesLBA = deviceLastLBA - 32
	}

	secondaryHeader := Header{
		CurrentLBA:     deviceLastLBA,
		BackupLBA:      1,
		FirstUsableLBA: FirstUsableLBA(sectorSize),
		LastUsableLBA:  plan.LastUsableLBA,
		DiskGUID:       diskGUID,
		EntriesLBA:     secondaryEntriesLBA,
		NumEntries:     plan.NumEntries,
		EntriesCRC:     entriesCRC,
	}

	primaryHeaderBytes, err := primaryHeader.Bytes()
	if err != nil {
		return Images{}, fmt.Errorf("serialize primary header: %w", err)
	}

	secondaryHeaderBytes, err := secondaryHeader.Bytes()
	if err != nil {
		return Images{}, fmt.Errorf("serialize backup header: %w", err)
	}

	pmbr := protectiveMBR(in, opts)

	primaryRegion := make([]byte, sectorsPerGPTRegion*sectorSize)
	copy(primaryRegion[0:sectorSize], pad(primaryHeaderBytes, sectorSize))
	copy(primaryRegion[sectorSize:], entries)

	backupRegion := make([]byte, sectorsPerGPTRegion*sectorSize)
	copy(backupRegion[0:len(entries)], entries)
	copy(backupRegion[uint64(len(backupRegion))-sectorSize:], pad(secondaryHeaderBytes, sectorSize))

	main := append(append([]byte{}, pmbr...), primaryRegion...)
	both := append(append([]byte{}, main...), backupRegion...)
	backup := append([]byte{}, backupRegion...)

	return Images{Both: both, Main: main, Backup: backup}, nil
}

// entryArrayBytes renders the fixed 128-entry, 16 KiB array: declared
// entries first, the rest zero-filled, regardless of the quantized
// header entry count.
func entryArrayBytes(entries []Entry) ([]byte, error) {
	if len(entries) > MaxEntries {
		return nil, fmt.Errorf("%w: %d entries exceed the 128-entry table", pterrors.ErrLayout, len(entries))
	}

	buf := make([]byte, MaxEntries*EntrySize)

	for i, e := range entries {
		b, err := e.Bytes()
		if err != nil {
			return nil, fmt.Errorf("serialize entry %d: %w", i, err)
		}

		copy(buf[i*EntrySize:(i+1)*EntrySize], b)
	}

	return buf, nil
}

// protectiveMBR builds the single-sector protective MBR preceding the
// primary GPT: one 0xEE entry spanning the whole addressable device (or
// as much of it as a 32-bit sector count can express).
func protectiveMBR(in config.Instructions, opts Options) []byte {
	b := make([]byte, in.SectorSizeBytes)

	bootable := byte(0x00)
	if opts.MarkPMBRBootable {
		bootable = 0x80
	}

	mbrutil.PutEntry(
		b[mbrutil.EntryArrayOffset:mbrutil.EntryArrayOffset+mbrutil.EntrySize],
		bootable,
		mbrutil.CHS{Head: 0x00, SectorCyl: 0x01, CylinderLow: 0x00},
		mbrutil.CHS{Head: 0xFF, SectorCyl: 0xFF, CylinderLow: 0xFF},
		0xEE,
		1,
		0xFFFFFFFF,
	)

	mbrutil.PutDiskSignature(b[mbrutil.SignatureOffset:mbrutil.SignatureOffset+4], in.DiskSignature)
	mbrutil.PutMagic(b[len(b)-2:])

	return b
}

// pad right-pads (or truncates) a buffer to exactly n bytes, as a GPT
// header sector is n bytes with the header occupying only the first 92.
func pad(b []byte, n uint64) []byte {
	out := make([]byte, n)
	copy(out, b)

	return out
}

// diskGUID resolves the disk GUID to serialize: the configuration's pinned
// value if set, otherwise the default constant.
func (o Options) diskGUID(in config.Instructions) uuid.UUID {
	if in.DiskGUID != nil {
		return *in.DiskGUID
	}

	return defaultDiskGUID
}
