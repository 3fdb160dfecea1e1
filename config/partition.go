// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"github.com/google/uuid"
	pointer "github.com/siderolabs/go-pointer"
)

// Kind distinguishes the two mutually-exclusive forms a Partition's type
// field can take: a tagged variant decided once, at decode time, rather
// than a dynamically-typed field holding either an 8-bit int or a
// 128-bit GUID.
type Kind int

const (
	// KindUnset means the partition's type has not been classified yet.
	KindUnset Kind = iota
	// KindMBR means Type.MBRType holds an 8-bit MBR partition type code.
	KindMBR
	// KindGPT means Type.GPTType holds a 128-bit GPT partition type GUID.
	KindGPT
)

// Type is the tagged MBR/GPT partition type variant.
type Type struct {
	Kind    Kind
	MBRType byte
	GPTType uuid.UUID
}

// MBR builds an MBR-kind Type.
func MBR(code byte) Type {
	return Type{Kind: KindMBR, MBRType: code}
}

// GPT builds a GPT-kind Type.
func GPT(id uuid.UUID) Type {
	return Type{Kind: KindGPT, GPTType: id}
}

// Table identifies which on-disk table format a Configuration produces.
type Table int

const (
	// TableUnknown means the table kind has not been established yet.
	TableUnknown Table = iota
	// TableMBR means a legacy MBR (+ optional EBR chain) is emitted.
	TableMBR
	// TableGPT means a protective MBR plus primary/backup GPT is emitted.
	TableGPT
)

// Partition is one declared, ordered partition entry.
//
//nolint:govet
type Partition struct {
	Label string

	// FirstLBAInKB is the optional pinned start, MBR only. nil means
	// unpinned (the planner assigns the next free LBA).
	FirstLBAInKB *uint64

	SizeInKB  uint64
	SizeInSec uint64

	Type Type

	// UniqueGUID is the optional explicit GPT unique partition GUID.
	// nil means "assign one" (sequential or random, per Options).
	UniqueGUID *uuid.UUID

	Bootable       bool // MBR
	ReadOnly       bool // GPT
	Hidden         bool // GPT
	DontAutomount  bool // GPT
	System         bool // GPT

	// Filename and Sparse are carried through from the declaration but are
	// not consumed by the core: they describe the payload a separate
	// flashing step writes into the partition.
	Filename string
	Sparse   string
}

// WithUniqueGUID returns a copy of p with an explicit unique GUID set.
func (p Partition) WithUniqueGUID(id uuid.UUID) Partition {
	p.UniqueGUID = pointer.To(id)

	return p
}

// PinnedFirstLBAInKB reports the pinned starting offset and whether one was set.
func (p Partition) PinnedFirstLBAInKB() (uint64, bool) {
	if p.FirstLBAInKB == nil || *p.FirstLBAInKB == 0 {
		return 0, false
	}

	return *p.FirstLBAInKB, true
}

// GPTAttributes composes the GPT entry attribute bitmask from the
// partition's boolean flags: bits 60 (read-only), 62 (hidden), 63
// (no-automount), 0 (system/required).
func (p Partition) GPTAttributes() uint64 {
	var attrs uint64

	if p.ReadOnly {
		attrs |= 1 << 60
	}

	if p.Hidden {
		attrs |= 1 << 62
	}

	if p.DontAutomount {
		attrs |= 1 << 63
	}

	if p.System {
		attrs |= 1
	}

	return attrs
}

// Configuration is the full, decoded partition table declaration: global
// Instructions plus the ordered Partition list and which on-disk table
// format they imply.
type Configuration struct {
	Instructions Instructions
	Partitions   []Partition
	Table        Table
}
