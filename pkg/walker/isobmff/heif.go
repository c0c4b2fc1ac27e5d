// Copyright 2025 James-HoneyBadger
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package isobmff

import (
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

// HeifWalker implements walker.Handler for HEIC and AVIF still images.
// EXIF and XMP payloads are located through the meta box's item tables
// (iinf for item types, iloc for byte extents) and through direct Exif
// boxes under iprp/ipco, then overwritten with zeros. mdat is never
// touched except through iloc extents that point into it.
type HeifWalker struct {
	// Format is HEIC or AVIF, used in diagnostics.
	Format format.Format
}

// NewHeif returns a walker for a HEIC/AVIF flavor.
func NewHeif(f format.Format) *HeifWalker { return &HeifWalker{Format: f} }

// itemInfo is one iinf entry.
type itemInfo struct {
	id       uint32
	itemType string
}

// extent is one iloc byte range in file coordinates.
type extent struct {
	offset uint64
	length uint64
}

// taggedSpan is a metadata byte range and the field it carries.
type taggedSpan struct {
	extent
	field policy.Field
}

// metadataSpans locates the byte extents of EXIF and XMP items plus direct
// Exif property boxes, each tagged with the field it carries.
func (w *HeifWalker) metadataSpans(data []byte) ([]taggedSpan, error) {
	var spans []taggedSpan

	var items []itemInfo
	locations := map[uint32][]extent{}

	err := walkBoxes(w.Format, data, 0, len(data), 0, func(b box, _ int) bool {
		switch b.typ {
		case "iinf":
			items = append(items, parseIinf(data, b)...)
			return false
		case "iloc":
			parseIloc(data, b, locations)
			return false
		case "Exif":
			// Direct Exif property box under iprp/ipco.
			spans = append(spans, taggedSpan{
				extent: extent{offset: uint64(b.contentStart), length: uint64(b.end - b.contentStart)},
				field:  policy.FieldEXIF,
			})
			return false
		case "mdat":
			return false
		}
		return true
	})
	if err != nil {
		return spans, err
	}

	for _, it := range items {
		var f policy.Field
		switch it.itemType {
		case "Exif":
			f = policy.FieldEXIF
		case "mime":
			f = policy.FieldXMP
		default:
			continue
		}
		for _, e := range locations[it.id] {
			spans = append(spans, taggedSpan{extent: e, field: f})
		}
	}
	return spans, nil
}

// parseIinf reads item infos from an iinf box: a version+flags header, an
// entry count, then a run of infe child boxes.
func parseIinf(data []byte, b box) []itemInfo {
	off := b.contentStart
	version, err := bytecursor.ReadU8(data, off)
	if err != nil {
		return nil
	}
	off += 4
	if version == 0 {
		off += 2
	} else {
		off += 4
	}

	boxes, _ := parseBoxes(format.HEIC, data, off, b.end)
	var items []itemInfo
	for _, child := range boxes {
		if child.typ != "infe" {
			continue
		}
		if it, ok := parseInfe(data, child); ok {
			items = append(items, it)
		}
	}
	return items
}

// parseInfe reads one item info entry (versions 2 and 3 carry item types).
func parseInfe(data []byte, b box) (itemInfo, bool) {
	off := b.contentStart
	version, err := bytecursor.ReadU8(data, off)
	if err != nil || version < 2 {
		return itemInfo{}, false
	}
	off += 4

	var id uint32
	if version == 2 {
		v, err := bytecursor.ReadU16(data, off, false)
		if err != nil {
			return itemInfo{}, false
		}
		id = uint32(v)
		off += 2
	} else {
		v, err := bytecursor.ReadU32(data, off, false)
		if err != nil {
			return itemInfo{}, false
		}
		id = v
		off += 4
	}
	off += 2 // item_protection_index

	typ, err := bytecursor.ASCII(data, off, 4)
	if err != nil {
		return itemInfo{}, false
	}
	return itemInfo{id: id, itemType: typ}, true
}

// parseIloc reads the item location box into a per-item extent map.
// Only construction method 0 (absolute file offsets) is zeroable.
func parseIloc(data []byte, b box, out map[uint32][]extent) {
	off := b.contentStart
	version, err := bytecursor.ReadU8(data, off)
	if err != nil {
		return
	}
	off += 4

	sizes, err := bytecursor.ReadU8(data, off)
	if err != nil {
		return
	}
	offsetSize := int(sizes >> 4)
	lengthSize := int(sizes & 0x0F)
	sizes2, err := bytecursor.ReadU8(data, off+1)
	if err != nil {
		return
	}
	baseOffsetSize := int(sizes2 >> 4)
	indexSize := 0
	if version == 1 || version == 2 {
		indexSize = int(sizes2 & 0x0F)
	}
	off += 2

	var itemCount uint32
	if version < 2 {
		v, err := bytecursor.ReadU16(data, off, false)
		if err != nil {
			return
		}
		itemCount = uint32(v)
		off += 2
	} else {
		v, err := bytecursor.ReadU32(data, off, false)
		if err != nil {
			return
		}
		itemCount = v
		off += 4
	}

	readSized := func(n int) (uint64, bool) {
		var v uint64
		for i := 0; i < n; i++ {
			b8, err := bytecursor.ReadU8(data, off)
			if err != nil {
				return 0, false
			}
			v = v<<8 | uint64(b8)
			off++
		}
		return v, true
	}

	for i := uint32(0); i < itemCount && i < 4096; i++ {
		var id uint32
		if version < 2 {
			v, err := bytecursor.ReadU16(data, off, false)
			if err != nil {
				return
			}
			id = uint32(v)
			off += 2
		} else {
			v, err := bytecursor.ReadU32(data, off, false)
			if err != nil {
				return
			}
			id = v
			off += 4
		}

		method := uint16(0)
		if version == 1 || version == 2 {
			m, err := bytecursor.ReadU16(data, off, false)
			if err != nil {
				return
			}
			method = m & 0x000F
			off += 2
		}
		off += 2 // data_reference_index

		baseOffset, ok := readSized(baseOffsetSize)
		if !ok {
			return
		}

		extentCount, err := bytecursor.ReadU16(data, off, false)
		if err != nil {
			return
		}
		off += 2

		for e := uint16(0); e < extentCount && e < 256; e++ {
			if _, ok := readSized(indexSize); !ok {
				return
			}
			extOffset, ok := readSized(offsetSize)
			if !ok {
				return
			}
			extLength, ok := readSized(lengthSize)
			if !ok {
				return
			}
			if method == 0 {
				out[id] = append(out[id], extent{offset: baseOffset + extOffset, length: extLength})
			}
		}
	}
}

// Strip overwrites every metadata extent the policy removes with zeros.
// The spans are collected from an immutable snapshot before any mutation
// begins, so the walk never observes its own edits.
func (w *HeifWalker) Strip(data []byte, p *policy.Policy) (*walker.Result, error) {
	spans, err := w.metadataSpans(data)
	if err != nil {
		return nil, err
	}

	out := append([]byte{}, data...)
	var candidates []policy.Field
	for _, s := range spans {
		if p.ShouldKeep(s.field) {
			continue
		}
		end := s.offset + s.length
		if s.offset > uint64(len(out)) || end > uint64(len(out)) {
			continue
		}
		alreadyZero := true
		for j := s.offset; j < end; j++ {
			if out[j] != 0 {
				alreadyZero = false
			}
			out[j] = 0
		}
		if !alreadyZero {
			candidates = append(candidates, s.field)
		}
	}

	return &walker.Result{Data: out, Removed: p.Removed(candidates)}, nil
}

// Inspect lists the metadata fields present, best-effort on corruption.
func (w *HeifWalker) Inspect(data []byte) []policy.Field {
	spans, _ := w.metadataSpans(data)
	var fields []policy.Field
	for _, s := range spans {
		fields = append(fields, s.field)
	}
	return policy.Dedup(fields)
}
