// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudatun/pt-box/pterrors"
)

func TestChecksumGoldenVectors(t *testing.T) {
	assert.Equal(t, uint32(0x00000000), checksum(nil))
	assert.Equal(t, uint32(0xCBF43926), checksum([]byte("123456789")))
	assert.Equal(t, uint32(0xC2B526E7), checksum(make([]byte, HeaderSize)))
}

func TestHeaderChecksumRejectsWrongLength(t *testing.T) {
	_, err := headerChecksum(make([]byte, HeaderSize-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, pterrors.ErrLayout)
}

func TestHeaderChecksumZeroesCRCFieldFirst(t *testing.T) {
	b := make([]byte, HeaderSize)
	b[16], b[17], b[18], b[19] = 0xDE, 0xAD, 0xBE, 0xEF

	got, err := headerChecksum(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xC2B526E7), got)
}
