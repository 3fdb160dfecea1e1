// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package xmlconfig_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudatun/pt-box/config"
	"github.com/yudatun/pt-box/xmlconfig"
)

const gptDoc = `<root>
  <configuration/>
  <parser_instructions>WRITE_PROTECT_BULK_SIZE_IN_KB=128 DISK_SIGNATURE=0xDEADBEEF</parser_instructions>
  <physical_partition>
    <partition label="modem" size_in_kb="1024" type="05e44e2d-7ea3-4a0a-b9e8-a6fc9fb8f1d3" bootable="false" readonly="true"/>
    <partition label="boot" size_in_kb="2048" first_lba_in_kb="4096" type="0x20000000000000000000000000000001" uniqueguid="0x30000000000000000000000000000002" bootable="true"/>
  </physical_partition>
</root>`

const mbrDoc = `<root>
  <physical_partition>
    <partition label="p1" size_in_kb="1024" type="0x83"/>
    <partition label="p2" size_in_kb="1024" type="83" bootable="true"/>
  </physical_partition>
</root>`

func TestDecodeGPTDocument(t *testing.T) {
	cfg, err := xmlconfig.Decode(strings.NewReader(gptDoc))
	require.NoError(t, err)

	assert.Equal(t, config.TableGPT, cfg.Table)
	assert.Equal(t, uint64(128), cfg.Instructions.WriteProtectBulkSizeKB)
	assert.Equal(t, uint32(0xDEADBEEF), cfg.Instructions.DiskSignature)
	require.Len(t, cfg.Partitions, 2)

	assert.False(t, cfg.Partitions[0].Bootable)
	assert.True(t, cfg.Partitions[0].ReadOnly)

	assert.True(t, cfg.Partitions[1].Bootable)
	require.NotNil(t, cfg.Partitions[1].FirstLBAInKB)
	assert.Equal(t, uint64(4096), *cfg.Partitions[1].FirstLBAInKB)
	require.NotNil(t, cfg.Partitions[1].UniqueGUID)
}

func TestDecodeMBRDocument(t *testing.T) {
	cfg, err := xmlconfig.Decode(strings.NewReader(mbrDoc))
	require.NoError(t, err)

	assert.Equal(t, config.TableMBR, cfg.Table)
	require.Len(t, cfg.Partitions, 2)
	assert.Equal(t, byte(0x83), cfg.Partitions[0].Type.MBRType)
	assert.Equal(t, byte(0x83), cfg.Partitions[1].Type.MBRType)
	assert.True(t, cfg.Partitions[1].Bootable)
}

func TestDecodeRejectsDuplicateConfiguration(t *testing.T) {
	doc := `<root><configuration/><configuration/><physical_partition><partition label="p" size_in_kb="1" type="0x83"/></physical_partition></root>`

	_, err := xmlconfig.Decode(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeRejectsDuplicateParserInstructions(t *testing.T) {
	doc := `<root>
    <parser_instructions>SECTOR_SIZE_IN_BYTES=512</parser_instructions>
    <parser_instructions>SECTOR_SIZE_IN_BYTES=4096</parser_instructions>
    <physical_partition><partition label="p" size_in_kb="1" type="0x83"/></physical_partition>
  </root>`

	_, err := xmlconfig.Decode(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeRejectsDuplicatePhysicalPartition(t *testing.T) {
	doc := `<root>
    <physical_partition><partition label="p1" size_in_kb="1" type="0x83"/></physical_partition>
    <physical_partition><partition label="p2" size_in_kb="1" type="0x83"/></physical_partition>
  </root>`

	_, err := xmlconfig.Decode(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeRejectsEmptyPartitionList(t *testing.T) {
	doc := `<root><physical_partition/></root>`

	_, err := xmlconfig.Decode(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeRejectsMissingPhysicalPartition(t *testing.T) {
	doc := `<root><configuration/></root>`

	_, err := xmlconfig.Decode(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeRejectsReservedExtLabel(t *testing.T) {
	doc := `<root><physical_partition><partition label="EXT" size_in_kb="1" type="0x83"/></physical_partition></root>`

	_, err := xmlconfig.Decode(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeRejectsMixedTableKinds(t *testing.T) {
	doc := `<root><physical_partition>
    <partition label="p1" size_in_kb="1" type="0x83"/>
    <partition label="p2" size_in_kb="1" type="05e44e2d-7ea3-4a0a-b9e8-a6fc9fb8f1d3"/>
  </physical_partition></root>`

	_, err := xmlconfig.Decode(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeIgnoresUnknownInstructionKey(t *testing.T) {
	doc := `<root>
    <parser_instructions>SOME_FUTURE_KEY=123</parser_instructions>
    <physical_partition><partition label="p" size_in_kb="1" type="0x83"/></physical_partition>
  </root>`

	_, err := xmlconfig.Decode(strings.NewReader(doc))
	require.NoError(t, err)
}

func TestDecodeGUIDFormsAgree(t *testing.T) {
	dashed := `<root><physical_partition><partition label="p" size_in_kb="1" type="05e44e2d-7ea3-4a0a-b9e8-a6fc9fb8f1d3"/></physical_partition></root>`
	raw := `<root><physical_partition><partition label="p" size_in_kb="1" type="0xd3f1b89ffca6e8b94a0a7ea305e44e2d"/></physical_partition></root>`

	cfgDashed, err := xmlconfig.Decode(strings.NewReader(dashed))
	require.NoError(t, err)

	cfgRaw, err := xmlconfig.Decode(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, cfgDashed.Partitions[0].Type.GPTType, cfgRaw.Partitions[0].Type.GPTType)
}

func TestDecodeBooleansAreCaseInsensitive(t *testing.T) {
	doc := `<root><physical_partition><partition label="p" size_in_kb="1" type="0x83" bootable="TRUE" readonly="True"/></physical_partition></root>`

	cfg, err := xmlconfig.Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.True(t, cfg.Partitions[0].Bootable)
	assert.True(t, cfg.Partitions[0].ReadOnly)
}

func TestDecodeRejectsMalformedInstructionExpression(t *testing.T) {
	doc := `<root>
    <parser_instructions>NOT_A_KEY_VALUE_PAIR</parser_instructions>
    <physical_partition><partition label="p" size_in_kb="1" type="0x83"/></physical_partition>
  </root>`

	_, err := xmlconfig.Decode(strings.NewReader(doc))
	require.Error(t, err)
}
