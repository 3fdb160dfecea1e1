// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package xmlconfig decodes the declarative XML partition table
// description into a config.Configuration, using the standard library's
// encoding/xml.
package xmlconfig

import (
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yudatun/pt-box/config"
	"github.com/yudatun/pt-box/internal/gptutil"
	"github.com/yudatun/pt-box/pterrors"
)

// root is the outer container: its name varies across samples in the
// wild, so Decode walks its children by tag rather than binding a fixed
// root element name.
type root struct {
	Configuration      []struct{}        `xml:"configuration"`
	ParserInstructions []string          `xml:"parser_instructions"`
	PhysicalPartition  []physicalPartXML `xml:"physical_partition"`
}

type physicalPartXML struct {
	Partitions []partitionXML `xml:"partition"`
}

type partitionXML struct {
	Label          string `xml:"label,attr"`
	FirstLBAInKB   string `xml:"first_lba_in_kb,attr"`
	SizeInKB       string `xml:"size_in_kb,attr"`
	Type           string `xml:"type,attr"`
	UniqueGUID     string `xml:"uniqueguid,attr"`
	Bootable       string `xml:"bootable,attr"`
	ReadOnly       string `xml:"readonly,attr"`
	Hidden         string `xml:"hidden,attr"`
	DontAutomount  string `xml:"dontautomount,attr"`
	System         string `xml:"system,attr"`
	Filename       string `xml:"filename,attr"`
	Sparse         string `xml:"sparse,attr"`
}

// Decode parses r into a Configuration. Unknown parser_instructions keys
// and unknown partition attributes are silently ignored. Boolean
// attributes are true only for a case-insensitive "true" and false for
// any other value.
func Decode(r io.Reader) (config.Configuration, error) {
	var doc root

	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return config.Configuration{}, fmt.Errorf("%w: decode xml: %v", pterrors.ErrConfig, err)
	}

	if len(doc.Configuration) > 1 {
		return config.Configuration{}, fmt.Errorf("%w: multiple configuration tags", pterrors.ErrConfig)
	}

	if len(doc.ParserInstructions) > 1 {
		return config.Configuration{}, fmt.Errorf("%w: multiple parser_instructions tags", pterrors.ErrConfig)
	}

	if len(doc.PhysicalPartition) > 1 {
		return config.Configuration{}, fmt.Errorf("%w: multiple physical_partition tags", pterrors.ErrConfig)
	}

	in := config.DefaultInstructions()

	if len(doc.ParserInstructions) == 1 {
		if err := applyInstructions(&in, doc.ParserInstructions[0]); err != nil {
			return config.Configuration{}, err
		}
	}

	if len(doc.PhysicalPartition) == 0 || len(doc.PhysicalPartition[0].Partitions) == 0 {
		return config.Configuration{}, fmt.Errorf("%w: no partitions declared", pterrors.ErrConfig)
	}

	rawPartitions := doc.PhysicalPartition[0].Partitions

	partitions := make([]config.Partition, 0, len(rawPartitions))

	table := config.TableUnknown

	for i, px := range rawPartitions {
		part, kind, err := decodePartition(px, in.SectorSizeBytes)
		if err != nil {
			return config.Configuration{}, fmt.Errorf("partition %d: %w", i, err)
		}

		wantTable := config.TableGPT
		if kind == config.KindMBR {
			wantTable = config.TableMBR
		}

		if table == config.TableUnknown {
			table = wantTable
		} else if table != wantTable {
			return config.Configuration{}, fmt.Errorf("%w: partition %d mixes MBR and GPT types in one table", pterrors.ErrConfig, i)
		}

		partitions = append(partitions, part)
	}

	return config.Configuration{Instructions: in, Partitions: partitions, Table: table}, nil
}

func applyInstructions(in *config.Instructions, text string) error {
	for _, field := range strings.Fields(text) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return fmt.Errorf("%w: malformed parser_instructions expression %q", pterrors.ErrConfig, field)
		}

		switch key {
		case "WRITE_PROTECT_BULK_SIZE_IN_KB":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", pterrors.ErrConfig, key, err)
			}

			in.WriteProtectBulkSizeKB = n
		case "WRITE_PROTECT_GPT":
			in.WriteProtectGPT = parseBool(value)
		case "SECTOR_SIZE_IN_BYTES":
			n, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", pterrors.ErrConfig, key, err)
			}

			in.SectorSizeBytes = n
		case "AUTO_GROW_LAST_PARTITION":
			in.AutoGrowLastPartition = parseBool(value)
		case "DISK_SIGNATURE":
			n, err := strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 32)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", pterrors.ErrConfig, key, err)
			}

			in.DiskSignature = uint32(n)
		default:
			// Unknown keys are ignored without a warning; they do not abort.
		}
	}

	return nil
}

func decodePartition(px partitionXML, sectorSizeBytes uint64) (config.Partition, config.Kind, error) {
	if px.Label == "EXT" {
		return config.Partition{}, 0, fmt.Errorf("%w: label EXT is reserved", pterrors.ErrConfig)
	}

	typ, kind, err := parseType(px.Type)
	if err != nil {
		return config.Partition{}, 0, err
	}

	sizeKB, err := strconv.ParseUint(px.SizeInKB, 10, 64)
	if err != nil {
		return config.Partition{}, 0, fmt.Errorf("%w: size_in_kb: %v", pterrors.ErrConfig, err)
	}

	part := config.Partition{
		Label:         px.Label,
		SizeInKB:      sizeKB,
		SizeInSec:     sizeKB * 1024 / sectorSizeBytes,
		Type:          typ,
		Bootable:      parseBool(px.Bootable),
		ReadOnly:      parseBool(px.ReadOnly),
		Hidden:        parseBool(px.Hidden),
		DontAutomount: parseBool(px.DontAutomount),
		System:        parseBool(px.System),
		Filename:      px.Filename,
		Sparse:        px.Sparse,
	}

	if px.FirstLBAInKB != "" {
		kb, err := strconv.ParseUint(px.FirstLBAInKB, 10, 64)
		if err != nil {
			return config.Partition{}, 0, fmt.Errorf("%w: first_lba_in_kb: %v", pterrors.ErrConfig, err)
		}

		part.FirstLBAInKB = &kb
	}

	if px.UniqueGUID != "" {
		id, err := parseGUID(px.UniqueGUID)
		if err != nil {
			return config.Partition{}, 0, fmt.Errorf("%w: uniqueguid: %v", pterrors.ErrConfig, err)
		}

		part = part.WithUniqueGUID(id)
	}

	return part, kind, nil
}

// parseType disambiguates a type attribute into the tagged MBR/GPT
// variant, trying GUID forms (32-hex or dashed) before the 1-2 hex digit
// MBR form.
func parseType(s string) (config.Type, config.Kind, error) {
	if id, err := parseGUID(s); err == nil {
		return config.GPT(id), config.KindGPT, nil
	}

	code, err := parseMBRType(s)
	if err != nil {
		return config.Type{}, 0, fmt.Errorf("%w: invalid type %q", pterrors.ErrConfig, s)
	}

	return config.MBR(code), config.KindMBR, nil
}

func parseMBRType(s string) (byte, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if len(trimmed) == 0 || len(trimmed) > 2 {
		return 0, fmt.Errorf("not an mbr type")
	}

	n, err := strconv.ParseUint(trimmed, 16, 8)
	if err != nil {
		return 0, err
	}

	return byte(n), nil
}

// parseGUID accepts either the 32-hex-digit "0x..." raw form or the
// standard dashed UUID form, normalizing both to the standard-form
// uuid.UUID used throughout the rest of the core.
//
// The raw "0x" form is taken as one 128-bit big-endian integer literal
// and written out little-endian, byte for byte reversed end to end,
// not as pre-swapped mixed-endian GUID bytes: the 32 typed hex digits
// are decoded in order and then fully reversed before the usual
// mixed-endian normalization is applied, so that the bytes this
// produces on disk equal the literal reversed of what was typed.
func parseGUID(s string) (uuid.UUID, error) {
	if hexDigits, ok := strings.CutPrefix(s, "0x"); ok && len(hexDigits) == 32 {
		raw, err := hex.DecodeString(hexDigits)
		if err != nil {
			return uuid.Nil, err
		}

		reversed := make([]byte, len(raw))
		for i, b := range raw {
			reversed[len(raw)-1-i] = b
		}

		return uuid.FromBytes(gptutil.GUIDToUUID(reversed))
	}

	return uuid.Parse(s)
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "true")
}
