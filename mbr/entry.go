// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package mbr builds byte-exact legacy MBR (+ optional EBR chain) images
// from a planned partition layout.
package mbr

import "github.com/yudatun/pt-box/internal/mbrutil"

// Entry is one 16-byte MBR (or EBR) partition table entry. The CHS
// fields are always zero; only the GPT path's protective-MBR entry sets
// them.
type Entry struct {
	Bootable   byte
	PartType   byte
	FirstLBA   uint32
	NumSectors uint32
}

// Bytes serializes the entry into mbrutil.EntrySize bytes.
func (e Entry) Bytes() []byte {
	b := make([]byte, mbrutil.EntrySize)

	mbrutil.PutEntry(b, e.Bootable, mbrutil.CHS{}, mbrutil.CHS{}, e.PartType, e.FirstLBA, e.NumSectors)

	return b
}

func bootableFlag(bootable bool) byte {
	if bootable {
		return 0x80
	}

	return 0x00
}
