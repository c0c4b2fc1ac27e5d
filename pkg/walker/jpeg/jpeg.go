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

// Package jpeg walks JPEG marker segments and rebuilds the file without
// metadata-bearing ones. Entropy-coded data after SOS is copied verbatim.
package jpeg

import (
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

// JPEG markers.
const (
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
	markerAPP13 = 0xED
	markerCOM   = 0xFE
)

// Payload signatures inside APPn segments.
var (
	exifHeader = []byte("Exif\x00\x00")
	xmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	iccHeader  = []byte("ICC_PROFILE\x00")
	iptcHeader = []byte("Photoshop 3.0\x00")
)

// segment is one marker segment: the marker byte, its full span in the
// source (marker bytes included), and the payload after the length field.
type segment struct {
	marker     byte
	start, end int
	payload    []byte
}

// Walker implements walker.Handler for JPEG.
type Walker struct{}

// New returns a JPEG walker.
func New() *Walker { return &Walker{} }

// parse splits data into marker segments up to SOS. sosStart is the offset
// of the SOS marker (or EOI for imageless streams), after which everything
// is opaque entropy data. On corruption the segments collected so far are
// returned alongside the error so inspection can stay best-effort.
func parse(data []byte) (segs []segment, sosStart int, err error) {
	if !bytecursor.StartsWith(data, []byte{0xFF, markerSOI}) {
		return nil, 0, walker.Corrupt(format.JPEG, 0, "missing SOI marker")
	}

	off := 2
	for {
		if off >= len(data) {
			return segs, 0, walker.Corrupt(format.JPEG, off, "no SOS or EOI marker before end of data")
		}
		if data[off] != 0xFF {
			return segs, 0, walker.Corrupt(format.JPEG, off, "expected marker, found 0x%02X", data[off])
		}
		// Fill bytes: consecutive 0xFF before the marker code.
		for off < len(data) && data[off] == 0xFF {
			off++
		}
		if off >= len(data) {
			return segs, 0, walker.Corrupt(format.JPEG, off, "truncated marker")
		}
		m := data[off]
		off++

		switch {
		case m == markerSOS, m == markerEOI:
			return segs, off - 2, nil
		case m >= 0xD0 && m <= 0xD7, m == 0x01:
			// RST and TEM are standalone, no length field.
			segs = append(segs, segment{marker: m, start: off - 2, end: off})
			continue
		}

		length, rerr := bytecursor.ReadU16(data, off, false)
		if rerr != nil {
			return segs, 0, walker.Corrupt(format.JPEG, off, "truncated segment length")
		}
		// The length field counts itself, so the payload is length-2 bytes.
		if length < 2 || off+int(length) > len(data) {
			return segs, 0, walker.Corrupt(format.JPEG, off, "segment length %d exceeds remaining buffer", length)
		}
		segs = append(segs, segment{
			marker:  m,
			start:   off - 2,
			end:     off + int(length),
			payload: data[off+2 : off+int(length)],
		})
		off += int(length)
	}
}

// classify maps a segment to the metadata field it carries, or "" for
// structural segments that are always kept.
func classify(s segment) policy.Field {
	switch s.marker {
	case markerAPP1:
		if bytecursor.StartsWith(s.payload, exifHeader) {
			return policy.FieldEXIF
		}
		if bytecursor.StartsWith(s.payload, xmpHeader) {
			return policy.FieldXMP
		}
	case markerAPP2:
		if bytecursor.StartsWith(s.payload, iccHeader) {
			return policy.FieldICCProfile
		}
	case markerAPP13:
		if bytecursor.StartsWith(s.payload, iptcHeader) {
			return policy.FieldIPTC
		}
	case markerCOM:
		return policy.FieldComment
	}
	return ""
}

// exifBlock returns the TIFF block inside an EXIF APP1 segment.
func exifBlock(s segment) []byte {
	return s.payload[len(exifHeader):]
}

// Strip rebuilds the JPEG without metadata segments the policy removes,
// re-inserting a minimal EXIF segment immediately before SOS when the
// policy calls for orientation preservation, injection, or GPS redaction.
func (w *Walker) Strip(data []byte, p *policy.Policy) (*walker.Result, error) {
	segs, sosStart, err := parse(data)
	if err != nil {
		return nil, err
	}

	var origEXIF []byte
	var candidates []policy.Field
	for _, s := range segs {
		if classify(s) == policy.FieldEXIF {
			origEXIF = exifBlock(s)
			break
		}
	}

	out := make([]byte, 0, len(data))
	out = append(out, 0xFF, markerSOI)
	for _, s := range segs {
		f := classify(s)
		if f == "" {
			out = append(out, data[s.start:s.end]...)
			continue
		}
		if p.ShouldKeep(f) {
			out = append(out, data[s.start:s.end]...)
			continue
		}
		candidates = append(candidates, f)
		if f == policy.FieldEXIF {
			candidates = append(candidates, policy.FieldsInTIFFBlock(origEXIF)...)
		}
	}

	if m := p.BuildReinjection(origEXIF); m != nil {
		out = appendEXIFSegment(out, m.Encode())
	}

	out = append(out, data[sosStart:]...)
	return &walker.Result{Data: out, Removed: p.Removed(candidates)}, nil
}

// appendEXIFSegment wraps a TIFF block in an APP1 segment.
func appendEXIFSegment(out, tiffBlock []byte) []byte {
	length := 2 + len(exifHeader) + len(tiffBlock)
	out = append(out, 0xFF, markerAPP1, byte(length>>8), byte(length))
	out = append(out, exifHeader...)
	return append(out, tiffBlock...)
}

// Inspect lists the metadata fields present. Parse errors degrade to
// whatever was classified before the corruption.
func (w *Walker) Inspect(data []byte) []policy.Field {
	segs, _, _ := parse(data)

	var fields []policy.Field
	for _, s := range segs {
		f := classify(s)
		if f == "" {
			continue
		}
		fields = append(fields, f)
		if f == policy.FieldEXIF {
			fields = append(fields, policy.FieldsInTIFFBlock(exifBlock(s))...)
		}
	}
	return policy.Dedup(fields)
}
