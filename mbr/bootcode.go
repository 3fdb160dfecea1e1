// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mbr

import (
	"fmt"

	"github.com/yudatun/pt-box/pterrors"
)

// Valid boot code sizes: a boot loader stub without (440) or with (446)
// the six bytes that follow it in the sector, the 4-byte disk signature
// at 440 and 2 reserved bytes at 444, ending where the partition table
// begins.
const (
	BootCodeSizeShort = 440
	BootCodeSizeFull  = 446
)

// BootCodeLoader is the thin external collaborator that reads raw boot
// code bytes from a file. Build never performs file I/O itself; it only
// validates and embeds the result.
type BootCodeLoader interface {
	LoadBootCode() ([]byte, error)
}

// ValidateBootCode checks that a loaded blob is exactly 440 or 446
// bytes, or empty to mean "no boot code".
func ValidateBootCode(code []byte) error {
	switch len(code) {
	case 0, BootCodeSizeShort, BootCodeSizeFull:
		return nil
	default:
		return fmt.Errorf("%w: boot code must be %d or %d bytes, got %d", pterrors.ErrIO, BootCodeSizeShort, BootCodeSizeFull, len(code))
	}
}
