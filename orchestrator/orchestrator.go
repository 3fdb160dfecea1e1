// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package orchestrator ties the XML decoder, the GPT/MBR layout planners
// and serializers, and the final artifact write-out into a single
// XML-in, files-out pipeline: decode, classify the table type, dispatch
// to the matching planner and serializer, write the fixed-name
// artifacts, closing every file on every exit path.
package orchestrator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yudatun/pt-box/config"
	"github.com/yudatun/pt-box/gpt"
	"github.com/yudatun/pt-box/mbr"
	"github.com/yudatun/pt-box/pterrors"
	"github.com/yudatun/pt-box/xmlconfig"
)

// Artifact file names, fixed for every run.
const (
	MBRFileName       = "MBR.bin"
	EBRFileName       = "EBR.bin"
	GPTBothFileName   = "gpt_both.bin"
	GPTMainFileName   = "gpt_main.bin"
	GPTBackupFileName = "gpt_backup.bin"
)

// Options collects the orchestrator's pluggable knobs.
type Options struct {
	Logger *zap.Logger

	SequentialGUID   bool
	All128Entries    bool
	MarkPMBRBootable bool

	// BootCode is copied into the start of MBR.bin, ahead of the disk
	// signature. nil means no boot code (the code region stays zero).
	BootCode []byte
}

// Option configures Options.
type Option func(*Options)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithSequentialGUID enables ordinal GPT unique-GUID assignment.
func WithSequentialGUID(enabled bool) Option {
	return func(o *Options) { o.SequentialGUID = enabled }
}

// WithAll128Entries forces the GPT header's entry count to 128.
func WithAll128Entries(enabled bool) Option {
	return func(o *Options) { o.All128Entries = enabled }
}

// WithMarkPMBRBootable marks the protective MBR entry bootable.
func WithMarkPMBRBootable(enabled bool) Option {
	return func(o *Options) { o.MarkPMBRBootable = enabled }
}

// WithBootCode sets the legacy MBR's boot code region.
func WithBootCode(code []byte) Option {
	return func(o *Options) { o.BootCode = code }
}

// NewOptions applies the given options over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{Logger: zap.NewNop()}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Run decodes r into a Configuration, plans and serializes the table it
// describes, and emits the resulting artifacts into dir (created if
// necessary). It reports the fixed set of file names it wrote.
func Run(r io.Reader, dir string, opts Options) ([]string, error) {
	cfg, err := xmlconfig.Decode(r)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output directory: %v", pterrors.ErrIO, err)
	}

	switch cfg.Table {
	case config.TableGPT:
		return runGPT(cfg, dir, opts)
	case config.TableMBR:
		return runMBR(cfg, dir, opts)
	default:
		return nil, fmt.Errorf("%w: no partitions to classify a table type", pterrors.ErrConfig)
	}
}

func runGPT(cfg config.Configuration, dir string, opts Options) ([]string, error) {
	gptOpts := gpt.NewOptions(
		gpt.WithLogger(opts.Logger),
		gpt.WithSequentialGUID(opts.SequentialGUID),
		gpt.WithAll128Entries(opts.All128Entries),
		gpt.WithMarkPMBRBootable(opts.MarkPMBRBootable),
	)

	plan, err := gpt.PlanLayout(cfg.Instructions, cfg.Partitions, gptOpts)
	if err != nil {
		return nil, err
	}

	images, err := gpt.Build(cfg.Instructions, plan, gptOpts)
	if err != nil {
		return nil, err
	}

	if err := writeFile(dir, GPTBothFileName, images.Both); err != nil {
		return nil, err
	}

	if err := writeFile(dir, GPTMainFileName, images.Main); err != nil {
		return nil, err
	}

	if err := writeFile(dir, GPTBackupFileName, images.Backup); err != nil {
		return nil, err
	}

	return []string{GPTBothFileName, GPTMainFileName, GPTBackupFileName}, nil
}

func runMBR(cfg config.Configuration, dir string, opts Options) ([]string, error) {
	plan, err := mbr.PlanLayout(cfg.Instructions, cfg.Partitions)
	if err != nil {
		return nil, err
	}

	images, err := mbr.Build(cfg.Instructions, plan, opts.BootCode)
	if err != nil {
		return nil, err
	}

	if err := writeFile(dir, MBRFileName, images.MBR); err != nil {
		return nil, err
	}

	written := []string{MBRFileName}

	if len(images.EBR) > 0 {
		if err := writeFile(dir, EBRFileName, images.EBR); err != nil {
			return nil, err
		}

		written = append(written, EBRFileName)
	}

	return written, nil
}

// writeFile opens, writes and closes name within dir, on every exit
// path.
func writeFile(dir, name string, data []byte) (err error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", pterrors.ErrIO, name, err)
	}

	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w: close %s: %v", pterrors.ErrIO, name, cerr)
		}
	}()

	if _, werr := f.Write(data); werr != nil {
		return fmt.Errorf("%w: write %s: %v", pterrors.ErrIO, name, werr)
	}

	return nil
}
