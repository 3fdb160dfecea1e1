// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package wpchunk maintains the monotonic, coalesced list of write-protect
// chunks as partitions are laid down by the GPT/MBR layout planners.
package wpchunk

import "github.com/siderolabs/gen/xslices"

// Chunk is a contiguous range of sectors marked read-only, a whole number
// of bulks long.
type Chunk struct {
	StartSector uint64
	EndSector   uint64
	NumSectors  uint64
	StartBulk   uint64
	NumBulk     uint64
}

// Tracker holds the ordered, non-overlapping chunk list.
type Tracker struct {
	chunks []Chunk
}

// NewTracker initializes a tracker with a single zero chunk, as the
// original Partitions.__init__ does.
//
// When preProtectFirstBulk is true (GPT with write-protect enabled and a
// nonzero bulk size), the initial chunk is pre-populated to cover the
// first bulk, matching parser.py's post-parse adjustment of wp_chunk_list[0].
func NewTracker(preProtectFirstBulk bool, sectorsPerBulk uint64) *Tracker {
	t := &Tracker{chunks: []Chunk{{}}}

	if preProtectFirstBulk && sectorsPerBulk > 0 {
		t.chunks[0] = Chunk{
			StartSector: 0,
			EndSector:   sectorsPerBulk - 1,
			NumSectors:  sectorsPerBulk,
			StartBulk:   0,
			NumBulk:     1,
		}
	}

	return t
}

// Chunks returns the current, ungrown chunk list, excluding the initial
// placeholder chunk if it was never grown into a real bulk-aligned range
// (i.e. no partition ever required write protection). The returned slice
// must not be modified.
func (t *Tracker) Chunks() []Chunk {
	return xslices.FilterInPlace(append([]Chunk(nil), t.chunks...), func(c Chunk) bool {
		return c.NumSectors > 0
	})
}

// Last returns the most recently opened chunk.
func (t *Tracker) Last() Chunk {
	return t.chunks[len(t.chunks)-1]
}

// Update folds the sector range [startLBA, startLBA+sizeSectors) into the
// tracker, extending the last chunk by whole bulks if it already reaches
// one sector short of startLBA, or otherwise opening a new chunk of whole
// bulks that starts at startLBA itself (the tracker does not align it to a
// bulk boundary). Chunks never shrink and never overlap.
//
// The one-sector-short comparison (not startLBA itself) is inherited from
// the layout planners: two read-only partitions placed back to back, with
// no gap, fold into a single chunk.
//
// The untouched placeholder chunk (NumSectors == 0) never takes the extend
// path, even when startLBA-1 happens to equal its zero-value EndSector:
// there is nothing protected yet to extend, and doing so would leave
// EndSector one sector short of StartSector+NumSectors-1.
func (t *Tracker) Update(startLBA, sizeSectors, sectorsPerBulk uint64) {
	if sectorsPerBulk == 0 {
		return
	}

	touchesEnd := startLBA - 1
	rangeEnd := startLBA + sizeSectors - 1

	last := &t.chunks[len(t.chunks)-1]

	if last.NumSectors != 0 && touchesEnd <= last.EndSector {
		for rangeEnd > last.EndSector {
			last.EndSector += sectorsPerBulk
			last.NumSectors += sectorsPerBulk
		}

		last.NumBulk = last.NumSectors / sectorsPerBulk

		return
	}

	next := Chunk{
		StartSector: startLBA,
		EndSector:   startLBA + sectorsPerBulk - 1,
		NumSectors:  sectorsPerBulk,
	}

	for rangeEnd > next.EndSector {
		next.EndSector += sectorsPerBulk
		next.NumSectors += sectorsPerBulk
	}

	next.StartBulk = next.StartSector / sectorsPerBulk
	next.NumBulk = next.NumSectors / sectorsPerBulk

	t.chunks = append(t.chunks, next)
}
