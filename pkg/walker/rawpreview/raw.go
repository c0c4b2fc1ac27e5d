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

// Package rawpreview scrubs proprietary camera RAW files (CR2, NEF, ARW)
// by extracting the embedded JPEG preview and running the JPEG scrub on
// it. The RAW sensor data itself is undocumented per vendor and cannot be
// rewritten safely, so this is the one path where the output container
// differs from the input.
package rawpreview

import (
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/exif"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
	jpegwalker "github.com/James-HoneyBadger/HB-Scrub/pkg/walker/jpeg"
)

// maxIFDChain caps how many chained IFDs are searched for a preview.
const maxIFDChain = 8

// Walker implements walker.Handler for TIFF-based proprietary RAW files.
type Walker struct {
	// Format is CR2, NEF or ARW, used in diagnostics.
	Format format.Format
}

// New returns a walker for a proprietary RAW flavor.
func New(f format.Format) *Walker { return &Walker{Format: f} }

// previewSpan is one embedded JPEG candidate.
type previewSpan struct {
	offset uint32
	length uint32
}

// ifdPreview reads the JPEGInterchangeFormat/Length pair from one IFD.
func ifdPreview(data []byte, d *exif.IFD) (previewSpan, bool) {
	offEntry, ok := d.Find(exif.TagJPEGInterchange)
	if !ok {
		return previewSpan{}, false
	}
	lenEntry, ok := d.Find(exif.TagJPEGInterchangeLength)
	if !ok {
		return previewSpan{}, false
	}
	span := previewSpan{
		offset: exif.LongValue(data, d, offEntry),
		length: exif.LongValue(data, d, lenEntry),
	}
	if span.length == 0 || uint64(span.offset)+uint64(span.length) > uint64(len(data)) {
		return previewSpan{}, false
	}
	return span, true
}

// subIFDOffsets reads the SubIFDs pointer array from IFD0. Proprietary RAW
// files often park the full-size preview in a SubIFD instead of the
// thumbnail chain.
func subIFDOffsets(data []byte, d *exif.IFD) []uint32 {
	entry, ok := d.Find(exif.TagSubIFDs)
	if !ok || entry.Type != exif.TypeLong {
		return nil
	}

	var offsets []uint32
	if entry.Inline() {
		offsets = append(offsets, entry.ValueOrOffset)
		return offsets
	}
	for i := uint32(0); i < entry.Count && i < 16; i++ {
		off := int(entry.ValueOrOffset) + int(i)*4
		v, err := bytecursor.ReadU32(data, off, d.LittleEndian)
		if err != nil {
			break
		}
		offsets = append(offsets, v)
	}
	return offsets
}

// findPreview locates the largest embedded JPEG preview: the chained IFDs
// and every SubIFD are searched for JPEGInterchangeFormat pairs, and when
// no pointer names one, a backward scan anchors on the last EOI marker and
// takes the nearest SOI before it.
func (w *Walker) findPreview(data []byte) (previewSpan, bool) {
	var best previewSpan

	if littleEndian, ifd0, ok := exif.ParseHeader(data); ok {
		off := ifd0
		for i := 0; i < maxIFDChain && off != 0; i++ {
			d := exif.ParseIFD(data, int(off), littleEndian)
			if d == nil {
				break
			}
			if span, ok := ifdPreview(data, d); ok && span.length > best.length {
				best = span
			}
			if i == 0 {
				for _, sub := range subIFDOffsets(data, d) {
					sd := exif.ParseIFD(data, int(sub), littleEndian)
					if sd == nil {
						continue
					}
					if span, ok := ifdPreview(data, sd); ok && span.length > best.length {
						best = span
					}
				}
			}
			off = d.NextOffset
		}
	}
	if best.length > 0 {
		return best, true
	}

	// No pointer names a preview: scan backward from the last EOI marker
	// for the SOI that opens it.
	eoi := bytecursor.LastIndexOf(data, []byte{0xFF, 0xD9}, len(data))
	if eoi < 0 {
		return previewSpan{}, false
	}
	soi := bytecursor.LastIndexOf(data, []byte{0xFF, 0xD8, 0xFF}, eoi)
	if soi < 0 {
		return previewSpan{}, false
	}
	return previewSpan{offset: uint32(soi), length: uint32(eoi + 2 - soi)}, true
}

// Strip extracts the embedded JPEG preview and scrubs it with the JPEG
// walker. The result is a JPEG, not a RAW, so OutputFormat is populated.
func (w *Walker) Strip(data []byte, p *policy.Policy) (*walker.Result, error) {
	span, ok := w.findPreview(data)
	if !ok {
		return nil, walker.Corrupt(w.Format, 0, "no embedded JPEG preview found")
	}

	preview := data[span.offset : span.offset+span.length]
	res, err := jpegwalker.New().Strip(preview, p)
	if err != nil {
		return nil, err
	}
	res.OutputFormat = format.JPEG
	return res, nil
}

// Inspect lists the metadata fields in the RAW's TIFF structure,
// best-effort on corruption.
func (w *Walker) Inspect(data []byte) []policy.Field {
	return policy.FieldsInTIFFBlock(data)
}
