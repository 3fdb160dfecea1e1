// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package orchestrator_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yudatun/pt-box/orchestrator"
)

const gptDoc = `<root>
  <parser_instructions>SEQUENTIAL_GUID_UNUSED=1</parser_instructions>
  <physical_partition>
    <partition label="system" size_in_kb="1024" type="0fc63daf-8483-4772-8e79-3d69d8477de4"/>
    <partition label="data" size_in_kb="2048" type="0fc63daf-8483-4772-8e79-3d69d8477de4"/>
  </physical_partition>
</root>`

const mbrDoc = `<root>
  <physical_partition>
    <partition label="p1" size_in_kb="1024" type="0x83" bootable="true"/>
    <partition label="p2" size_in_kb="1024" type="0x83"/>
    <partition label="p3" size_in_kb="1024" type="0x83"/>
    <partition label="p4" size_in_kb="1024" type="0x83"/>
    <partition label="p5" size_in_kb="1024" type="0x83"/>
  </physical_partition>
</root>`

func TestRunEmitsGPTArtifacts(t *testing.T) {
	dir := t.TempDir()

	names, err := orchestrator.Run(strings.NewReader(gptDoc), dir, orchestrator.NewOptions())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		orchestrator.GPTBothFileName,
		orchestrator.GPTMainFileName,
		orchestrator.GPTBackupFileName,
	}, names)

	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}

	both, err := os.ReadFile(filepath.Join(dir, orchestrator.GPTBothFileName))
	require.NoError(t, err)

	main, err := os.ReadFile(filepath.Join(dir, orchestrator.GPTMainFileName))
	require.NoError(t, err)

	backup, err := os.ReadFile(filepath.Join(dir, orchestrator.GPTBackupFileName))
	require.NoError(t, err)

	assert.Len(t, both, len(main)+len(backup))
}

func TestRunEmitsMBRArtifactsWithExtendedChain(t *testing.T) {
	dir := t.TempDir()

	names, err := orchestrator.Run(strings.NewReader(mbrDoc), dir, orchestrator.NewOptions())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{orchestrator.MBRFileName, orchestrator.EBRFileName}, names)

	mbrBytes, err := os.ReadFile(filepath.Join(dir, orchestrator.MBRFileName))
	require.NoError(t, err)
	assert.Len(t, mbrBytes, 512)

	ebrBytes, err := os.ReadFile(filepath.Join(dir, orchestrator.EBRFileName))
	require.NoError(t, err)
	assert.Len(t, ebrBytes, 2*512)
}

func TestRunRejectsMalformedXML(t *testing.T) {
	dir := t.TempDir()

	_, err := orchestrator.Run(strings.NewReader("<not-xml"), dir, orchestrator.NewOptions())
	require.Error(t, err)
}

func TestRunCreatesOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	_, err := orchestrator.Run(strings.NewReader(mbrDoc), dir, orchestrator.NewOptions())
	require.NoError(t, err)

	_, err = os.Stat(dir)
	require.NoError(t, err)
}
