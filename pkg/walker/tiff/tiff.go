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

// Package tiff scrubs TIFF and DNG files in place. Entries elsewhere in a
// TIFF hold absolute byte offsets (strip offsets, tile offsets, sub-IFD
// pointers), so nothing is ever removed: IFD0 is rewritten at its original
// offset with only the kept entries, and the value bytes of every dropped
// entry — including entire EXIF and GPS sub-IFDs — are overwritten with
// zeros. Output length always equals input length.
package tiff

import (
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/exif"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

// maxSubIFDDepth caps recursion through chained sub-IFD pointers.
const maxSubIFDDepth = 10

// metadataTags are the IFD0 tags the policy may drop. Everything else in
// IFD0 is structural and always kept.
var metadataTags = map[uint16]bool{
	exif.TagImageDescription: true,
	exif.TagMake:             true,
	exif.TagModel:            true,
	exif.TagOrientation:      true,
	exif.TagSoftware:         true,
	exif.TagDateTime:         true,
	exif.TagArtist:           true,
	exif.TagXMP:              true,
	exif.TagIPTC:             true,
	exif.TagCopyright:        true,
	exif.TagExifIFD:          true,
	exif.TagICCProfile:       true,
	exif.TagGPSIFD:           true,
}

// Walker implements walker.Handler for TIFF and DNG.
type Walker struct{}

// New returns a TIFF walker.
func New() *Walker { return &Walker{} }

// Strip rewrites IFD0 with only the kept entries and zeroes the dropped
// entries' out-of-line values and sub-IFDs. Parsing always reads the
// original buffer; mutation happens on the copy, so the walk never observes
// its own edits. GPS precision redaction is not supported for TIFF: levels
// other than Exact fall through to full removal.
func (w *Walker) Strip(data []byte, p *policy.Policy) (*walker.Result, error) {
	little, ifd0Off, ok := exif.ParseHeader(data)
	if !ok {
		return nil, walker.Corrupt(format.TIFF, 0, "missing TIFF byte-order mark")
	}

	ifd0 := exif.ParseIFD(data, int(ifd0Off), little)
	if len(ifd0.Entries) == 0 {
		return nil, walker.Corrupt(format.TIFF, int(ifd0Off), "unreadable IFD0")
	}

	out := append([]byte{}, data...)

	var kept []exif.Entry
	var candidates []policy.Field
	for _, e := range ifd0.Entries {
		f := policy.FieldForTag(e.Tag)
		if !metadataTags[e.Tag] || f == "" || p.ShouldKeep(f) {
			kept = append(kept, e)
			continue
		}
		candidates = append(candidates, f)

		if !e.Inline() {
			zeroSpan(out, int(e.ValueOrOffset), e.ByteSize())
		}
		if e.Tag == exif.TagExifIFD || e.Tag == exif.TagGPSIFD {
			if e.Tag == exif.TagExifIFD {
				candidates = append(candidates, subIFDFields(data, int(e.ValueOrOffset), little)...)
			}
			zeroSubIFD(data, out, int(e.ValueOrOffset), little, 0)
		}
	}

	rewriteIFD0(out, ifd0, kept, little)

	return &walker.Result{Data: out, Removed: p.Removed(candidates)}, nil
}

// rewriteIFD0 writes the kept entries back at the IFD's original offset.
// Kept entries never exceed the original count, so the rewrite always
// fits; the tail of the original entry table is zero-filled and the
// next-IFD offset is preserved so thumbnail IFDs stay reachable.
func rewriteIFD0(out []byte, ifd0 *exif.IFD, kept []exif.Entry, little bool) {
	base := ifd0.Offset
	origEnd := base + 2 + len(ifd0.Entries)*exif.EntrySize + 4

	_ = bytecursor.WriteU16(out, base, uint16(len(kept)), little)
	off := base + 2
	for _, e := range kept {
		copy(out[off:off+exif.EntrySize], out[e.Offset:e.Offset+exif.EntrySize])
		off += exif.EntrySize
	}
	_ = bytecursor.WriteU32(out, off, ifd0.NextOffset, little)
	off += 4
	zeroSpan(out, off, origEnd-off)
}

// zeroSubIFD zeroes an entire sub-IFD: every entry's out-of-line value,
// nested sub-IFDs behind pointer tags, and finally the directory bytes
// themselves. src is the immutable parse snapshot, out the mutable copy.
func zeroSubIFD(src, out []byte, off int, little bool, depth int) {
	if depth > maxSubIFDDepth {
		return
	}
	d := exif.ParseIFD(src, off, little)
	for _, e := range d.Entries {
		switch e.Tag {
		case exif.TagExifIFD, exif.TagGPSIFD, exif.TagInteropIFD:
			zeroSubIFD(src, out, int(e.ValueOrOffset), little, depth+1)
		}
		if !e.Inline() {
			zeroSpan(out, int(e.ValueOrOffset), e.ByteSize())
		}
	}
	zeroSpan(out, off, 2+len(d.Entries)*exif.EntrySize+4)
}

// subIFDFields reports the fields found inside a sub-IFD for the outcome.
func subIFDFields(src []byte, off int, little bool) []policy.Field {
	var fields []policy.Field
	d := exif.ParseIFD(src, off, little)
	for _, e := range d.Entries {
		if f := policy.FieldForTag(e.Tag); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func zeroSpan(out []byte, off, n int) {
	if off < 0 || n <= 0 || off >= len(out) {
		return
	}
	end := off + n
	if end > len(out) {
		end = len(out)
	}
	for i := off; i < end; i++ {
		out[i] = 0
	}
}

// Inspect lists the metadata fields present. The whole file is one TIFF
// block, so this is the shared best-effort block inspection.
func (w *Walker) Inspect(data []byte) []policy.Field {
	return policy.FieldsInTIFFBlock(data)
}
