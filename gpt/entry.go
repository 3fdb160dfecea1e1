// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"

	"github.com/yudatun/pt-box/internal/gptutil"
)

// maxLabelUnits is the maximum number of UTF-16 code units a label may
// occupy in the 72-byte label field (36 units * 2 bytes).
const maxLabelUnits = 36

// highSurrogateMin and highSurrogateMax bound the UTF-16 high-surrogate
// range, used to avoid truncating a label mid-surrogate-pair.
const (
	highSurrogateMin = 0xD800
	highSurrogateMax = 0xDBFF
)

// Entry is one 128-byte GPT partition entry.
type Entry struct {
	TypeGUID   uuid.UUID
	UniqueGUID uuid.UUID
	FirstLBA   uint64
	LastLBA    uint64
	Attributes uint64
	Label      string
}

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Bytes serializes the entry into EntrySize little-endian bytes. The
// label is truncated to 36 UTF-16 code units.
func (e Entry) Bytes() ([]byte, error) {
	b := make([]byte, EntrySize)

	typeGUID, err := e.TypeGUID.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal type guid: %w", err)
	}

	uniqueGUID, err := e.UniqueGUID.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal unique guid: %w", err)
	}

	copy(b[0:16], gptutil.UUIDToGUID(typeGUID))
	copy(b[16:32], gptutil.UUIDToGUID(uniqueGUID))
	binary.LittleEndian.PutUint64(b[32:40], e.FirstLBA)
	binary.LittleEndian.PutUint64(b[40:48], e.LastLBA)
	binary.LittleEndian.PutUint64(b[48:56], e.Attributes)

	encoded, err := utf16LE.NewEncoder().Bytes([]byte(e.Label))
	if err != nil {
		return nil, fmt.Errorf("encode label %q: %w", e.Label, err)
	}

	// Truncate to maxLabelUnits UTF-16 code units, not runes: a label with
	// astral-plane characters encodes each as a surrogate pair (2 units),
	// so counting runes would under-truncate relative to the fixed
	// 72-byte field.
	if maxBytes := maxLabelUnits * 2; len(encoded) > maxBytes {
		encoded = encoded[:maxBytes]

		if last := binary.LittleEndian.Uint16(encoded[maxBytes-2 : maxBytes]); last >= highSurrogateMin && last <= highSurrogateMax {
			encoded = encoded[:maxBytes-2]
		}
	}

	copy(b[56:128], encoded)

	return b, nil
}

// IsZero reports whether the entry's type GUID is zero, which marks an
// unused slot such as the padding up to entry_count. The other fields are
// not checked.
func (e Entry) IsZero() bool {
	return e.TypeGUID == uuid.Nil
}
