// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"crypto/rand"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultDiskGUID is the disk GUID used when a Configuration doesn't pin
// one, re-expressed in standard UUID form so it round-trips through the
// mixed-endian on-disk transform to a fixed, repeatable byte sequence.
var defaultDiskGUID = uuid.MustParse("98101b32-bbe2-4bf2-a06e-2bb33d000c20")

// Options collects the pluggable knobs of the GPT layout planner and
// serializer: a plain struct of fields plus a functional-option
// constructor, defaulting the logger to zap.NewNop().
type Options struct {
	// Logger is the diagnostic logger. PlanLayout and Build do not write
	// to it.
	Logger *zap.Logger
	// SequentialGUID assigns unique GUIDs in declaration order (1, 2, 3…)
	// instead of random ones.
	SequentialGUID bool
	// All128Entries forces header.NumEntries to 128 regardless of how
	// many partitions are declared.
	All128Entries bool
	// MarkPMBRBootable sets the boot flag on the protective MBR's single
	// entry, for BIOSes that refuse to boot a disk with no bootable entry.
	MarkPMBRBootable bool

	rngReader io.Reader
}

// Option configures Options.
type Option func(*Options)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithSequentialGUID enables ordinal unique-GUID assignment.
func WithSequentialGUID(enabled bool) Option {
	return func(o *Options) { o.SequentialGUID = enabled }
}

// WithAll128Entries forces the header's entry count to 128.
func WithAll128Entries(enabled bool) Option {
	return func(o *Options) { o.All128Entries = enabled }
}

// WithMarkPMBRBootable marks the protective MBR entry bootable.
func WithMarkPMBRBootable(enabled bool) Option {
	return func(o *Options) { o.MarkPMBRBootable = enabled }
}

// WithRandomSource overrides the randomness source used for unique GUID
// generation. Tests pass a seeded reader for deterministic output.
func WithRandomSource(r io.Reader) Option {
	return func(o *Options) { o.rngReader = r }
}

// NewOptions applies the given options over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{Logger: zap.NewNop()}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func (o Options) rng() io.Reader {
	if o.rngReader != nil {
		return o.rngReader
	}

	return rand.Reader
}
