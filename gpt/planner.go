// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/yudatun/pt-box/config"
	"github.com/yudatun/pt-box/pterrors"
	"github.com/yudatun/pt-box/wpchunk"
)

// Plan is the outcome of running the layout planner: the entries to
// serialize, the header's last-usable-LBA value (0 when the last
// partition auto-grew), and the quantized entry count for the header.
type Plan struct {
	Entries       []Entry
	LastUsableLBA uint64
	NumEntries    uint32
	Protect       *wpchunk.Tracker
}

// PlanLayout assigns LBA ranges to partitions: cursor-based placement
// starting at FirstUsableLBA, bulk-aligned realignment around the
// write-protect tracker, auto-grow sentinel for the last partition, and
// sequential/explicit/random unique GUIDs.
func PlanLayout(in config.Instructions, partitions []config.Partition, opts Options) (Plan, error) {
	if len(partitions) == 0 {
		return Plan{}, fmt.Errorf("%w: no partitions declared", pterrors.ErrConfig)
	}

	sectorsPerBulk := in.SectorsPerBulk()
	protect := wpchunk.NewTracker(in.WriteProtectGPT && sectorsPerBulk > 0, sectorsPerBulk)

	firstLBA := FirstUsableLBA(in.SectorSizeBytes)
	lastLBA := firstLBA

	entries := make([]Entry, 0, len(partitions))

	for i, part := range partitions {
		var sectorsTillNextBulk uint64
		if sectorsPerBulk > 0 {
			sectorsTillNextBulk = (sectorsPerBulk - (firstLBA % sectorsPerBulk)) % sectorsPerBulk
		}

		last := protect.Last()

		switch {
		case part.ReadOnly && firstLBA > last.EndSector:
			firstLBA += sectorsTillNextBulk
			protect.Update(firstLBA, part.SizeInSec, sectorsPerBulk)
		case part.ReadOnly:
			protect.Update(firstLBA, part.SizeInSec, sectorsPerBulk)
		case !part.ReadOnly && firstLBA <= last.EndSector:
			firstLBA += sectorsTillNextBulk
		}

		sizeInSec := part.SizeInSec

		isLast := i == len(partitions)-1
		if isLast && in.AutoGrowLastPartition {
			sizeInSec = 0
		}

		lastLBA = firstLBA + sizeInSec - 1

		id, err := uniqueGUID(part, i, opts)
		if err != nil {
			return Plan{}, err
		}

		entries = append(entries, Entry{
			TypeGUID:   part.Type.GPTType,
			UniqueGUID: id,
			FirstLBA:   firstLBA,
			LastLBA:    lastLBA,
			Attributes: part.GPTAttributes(),
			Label:      part.Label,
		})

		firstLBA = lastLBA + 1
	}

	lastUsableLBA := lastLBA + 32
	if in.AutoGrowLastPartition {
		lastUsableLBA = 0
	}

	numEntries := uint32(MaxEntries)
	if !opts.All128Entries {
		numEntries = uint32((len(partitions) + 3) / 4 * 4)
	}

	if numEntries > MaxEntries {
		return Plan{}, pterrors.NewOutOfSpace(
			fmt.Errorf("%w: %d partitions exceed the 128-entry table", pterrors.ErrLayout, len(partitions)),
		)
	}

	return Plan{Entries: entries, LastUsableLBA: lastUsableLBA, NumEntries: numEntries, Protect: protect}, nil
}

func uniqueGUID(part config.Partition, index int, opts Options) (uuid.UUID, error) {
	switch {
	case opts.SequentialGUID:
		return sequentialGUID(index), nil
	case part.UniqueGUID != nil:
		return *part.UniqueGUID, nil
	default:
		id, err := uuid.NewRandomFromReader(opts.rng())
		if err != nil {
			return uuid.Nil, fmt.Errorf("generate unique guid: %w", err)
		}

		return id, nil
	}
}

// sequentialGUID builds the ordinal GUID assigned when sequential mode
// is requested: the on-disk bytes are the raw integer index+1 in
// little-endian, which after the mixed-endian disk transform means the
// GUID's first 32 bits hold index+1 in big-endian.
func sequentialGUID(index int) uuid.UUID {
	var id uuid.UUID

	binary.BigEndian.PutUint32(id[0:4], uint32(index+1)) //nolint:gosec

	return id
}
