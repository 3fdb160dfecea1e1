// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mbr

import (
	"fmt"

	"github.com/yudatun/pt-box/config"
	"github.com/yudatun/pt-box/pterrors"
	"github.com/yudatun/pt-box/wpchunk"
)

// maxPrimaryEntries is the number of primary slots an MBR sector holds.
const maxPrimaryEntries = 4

// extendedPartitionType is the DOS extended-partition type code.
const extendedPartitionType = 0x05

// Plan is the outcome of the MBR layout planner: the primary entries
// (up to four, the last being the type-0x05 extended placeholder when an
// EBR chain follows), the EBR chain itself, and the write-protect
// tracker fed by every partition (all MBR partitions are marked
// read-only unconditionally).
type Plan struct {
	PrimaryEntries []Entry
	EBRChain       [][4]Entry
	Protect        *wpchunk.Tracker
}

// PlanLayout assigns LBA ranges to partitions: cursor-based placement
// starting at LBA 1, pinned-offset clamping, and (when N>4) three
// primary entries plus an extended entry followed by one EBR per
// remaining partition.
func PlanLayout(in config.Instructions, partitions []config.Partition) (Plan, error) {
	n := len(partitions)
	if n == 0 {
		return Plan{}, fmt.Errorf("%w: no partitions declared", pterrors.ErrConfig)
	}

	sectorsPerBulk := in.SectorsPerBulk()
	protect := wpchunk.NewTracker(false, sectorsPerBulk)

	primaryCount := n
	needsEBR := false

	if n > maxPrimaryEntries {
		primaryCount = maxPrimaryEntries - 1
		needsEBR = true
	}

	if needsEBR {
		if err := validateEBRCandidates(partitions[primaryCount:]); err != nil {
			return Plan{}, err
		}
	}

	entries := make([]Entry, 0, maxPrimaryEntries)

	firstLBA, lastLBA := uint64(1), uint64(1)

	for i := 0; i < primaryCount; i++ {
		part := partitions[i]

		if pinned, ok := part.PinnedFirstLBAInKB(); ok {
			firstLBA = pinned * 1024 / in.SectorSizeBytes
		}

		if firstLBA < lastLBA {
			firstLBA = lastLBA
		}

		protect.Update(firstLBA, part.SizeInSec, sectorsPerBulk)

		entries = append(entries, Entry{
			Bootable:   bootableFlag(part.Bootable),
			PartType:   part.Type.MBRType,
			FirstLBA:   uint32(firstLBA), //nolint:gosec
			NumSectors: uint32(part.SizeInSec), //nolint:gosec
		})

		lastLBA = firstLBA + part.SizeInSec
	}

	var ebrChain [][4]Entry

	if needsEBR {
		entries = append(entries, Entry{
			PartType:   extendedPartitionType,
			FirstLBA:   uint32(lastLBA), //nolint:gosec
			NumSectors: 0,
		})

		ebrChain = buildEBRChain(partitions, primaryCount, lastLBA, protect, sectorsPerBulk)
	}

	return Plan{PrimaryEntries: entries, EBRChain: ebrChain, Protect: protect}, nil
}

// validateEBRCandidates checks the EBR chain's fixed "next pointer"
// arithmetic assumption: it only holds when every post-primary
// partition is the same size, so the chain's sector math lines up.
// Anything else is rejected rather than silently emitting a malformed
// chain.
func validateEBRCandidates(partitions []config.Partition) error {
	if len(partitions) == 0 {
		return nil
	}

	want := partitions[0].SizeInSec

	for _, part := range partitions[1:] {
		if part.SizeInSec != want {
			return fmt.Errorf("%w: EBR chain requires identical partition sizes, got %d and %d", pterrors.ErrLayout, want, part.SizeInSec)
		}
	}

	return nil
}

// buildEBRChain builds one EBR record per partition past the first
// three primaries. ebrBase is the extended partition's own start LBA
// (also the cursor returned by the primary loop); each EBR's real
// partition entry expresses its start as an offset from ebrBase minus
// the EBR's ordinal position in the chain.
func buildEBRChain(partitions []config.Partition, primaryCount int, ebrBase uint64, protect *wpchunk.Tracker, sectorsPerBulk uint64) [][4]Entry {
	n := len(partitions)

	chain := make([][4]Entry, 0, n-primaryCount)

	cursor := ebrBase + uint64(n) - uint64(maxPrimaryEntries-1)
	last := cursor

	for i, ebrOffset := primaryCount, uint64(0); i < n; i, ebrOffset = i+1, ebrOffset+1 {
		part := partitions[i]

		if cursor < last {
			cursor = last
		}

		protect.Update(cursor, part.SizeInSec, sectorsPerBulk)

		entry1 := Entry{
			Bootable:   bootableFlag(part.Bootable),
			PartType:   part.Type.MBRType,
			FirstLBA:   uint32(cursor - ebrBase - ebrOffset), //nolint:gosec
			NumSectors: uint32(part.SizeInSec),                //nolint:gosec
		}

		last = cursor + part.SizeInSec

		var entry2 Entry
		if i < n-1 {
			entry2 = Entry{
				PartType:   extendedPartitionType,
				FirstLBA:   uint32(i - 2), //nolint:gosec
				NumSectors: 1,
			}
		}

		chain = append(chain, [4]Entry{entry1, entry2, {}, {}})

		cursor = last
	}

	return chain
}
