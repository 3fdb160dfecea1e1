// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mbr

import (
	"fmt"

	"github.com/yudatun/pt-box/config"
	"github.com/yudatun/pt-box/internal/mbrutil"
	"github.com/yudatun/pt-box/pterrors"
)

// Images holds the MBR artifact and, when the layout needed one, the
// concatenated EBR chain.
type Images struct {
	MBR []byte
	EBR []byte // nil when the layout has no EBR chain
}

// Build serializes a Plan into the MBR sector and, when present, the EBR
// chain. bootCode is copied into the start of the MBR sector; pass nil for
// none. The disk signature is then written at bytes 440..443, over any
// boot code bytes there.
func Build(in config.Instructions, plan Plan, bootCode []byte) (Images, error) {
	if err := ValidateBootCode(bootCode); err != nil {
		return Images{}, err
	}

	sectorSize := in.SectorSizeBytes

	record := make([]byte, sectorSize)
	copy(record, bootCode)

	for i, entry := range plan.PrimaryEntries {
		if i >= maxPrimaryEntries {
			return Images{}, pterrors.NewOutOfSpace(
				fmt.Errorf("%w: %d primary entries exceed the 4-entry table", pterrors.ErrLayout, len(plan.PrimaryEntries)),
			)
		}

		off := mbrutil.EntryArrayOffset + i*mbrutil.EntrySize
		copy(record[off:off+mbrutil.EntrySize], entry.Bytes())
	}

	mbrutil.PutDiskSignature(record[mbrutil.SignatureOffset:mbrutil.SignatureOffset+4], in.DiskSignature)
	mbrutil.PutMagic(record[len(record)-2:])

	var ebr []byte

	if len(plan.EBRChain) > 0 {
		ebr = make([]byte, 0, len(plan.EBRChain)*int(sectorSize))

		for _, entries := range plan.EBRChain {
			sector := make([]byte, sectorSize)

			for i, e := range entries {
				off := mbrutil.EntryArrayOffset + i*mbrutil.EntrySize
				copy(sector[off:off+mbrutil.EntrySize], e.Bytes())
			}

			mbrutil.PutMagic(sector[len(sector)-2:])

			ebr = append(ebr, sector...)
		}
	}

	return Images{MBR: record, EBR: ebr}, nil
}
