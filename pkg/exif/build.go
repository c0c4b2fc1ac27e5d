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

package exif

import (
	"math"
	"sort"
)

// MinimalEXIF describes a synthetic EXIF block to build from scratch: a
// handful of ASCII fields, an optional orientation, and an optional
// precision-reduced GPS position. Used for orientation-only preservation,
// metadata injection, and GPS redaction re-insertion.
type MinimalEXIF struct {
	// ASCII maps a TIFF tag to its string value (without NUL terminator).
	ASCII map[uint16]string
	// Orientation is the EXIF orientation value 1..8, or 0 to omit.
	Orientation uint16
	// GPS, when non-nil, adds a GPS-only sub-IFD.
	GPS *GPSFields
}

// GPSFields is a decimal-degree position truncated to Decimals digits and
// re-encoded as a degrees/0/0 RATIONAL triple (minutes and seconds zeroed).
type GPSFields struct {
	Latitude  float64
	Longitude float64
	Decimals  int
}

// Empty reports whether the block would contain nothing.
func (m *MinimalEXIF) Empty() bool {
	return len(m.ASCII) == 0 && m.Orientation == 0 && m.GPS == nil
}

type entrySpec struct {
	tag    uint16
	typ    uint16
	count  uint32
	inline [4]byte // used when data is nil
	data   []byte  // out-of-line value bytes, already padded to even length
}

// Encode serializes the block as a complete little-endian TIFF structure:
// header, IFD0 with entries sorted by tag, out-of-line values padded to
// even byte boundaries, and the GPS sub-IFD when present.
func (m *MinimalEXIF) Encode() []byte {
	var specs []entrySpec

	for tag, val := range m.ASCII {
		specs = append(specs, asciiSpec(tag, val))
	}
	if m.Orientation != 0 {
		s := entrySpec{tag: TagOrientation, typ: TypeShort, count: 1}
		s.inline[0] = byte(m.Orientation)
		s.inline[1] = byte(m.Orientation >> 8)
		specs = append(specs, s)
	}
	gpsIdx := -1
	if m.GPS != nil {
		specs = append(specs, entrySpec{tag: TagGPSIFD, typ: TypeLong, count: 1})
		gpsIdx = len(specs) - 1
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].tag < specs[j].tag })
	if gpsIdx >= 0 {
		for i, s := range specs {
			if s.tag == TagGPSIFD {
				gpsIdx = i
			}
		}
	}

	n := len(specs)
	dataStart := HeaderSize + 2 + n*EntrySize + 4

	// First pass: place out-of-line values.
	off := dataStart
	for i := range specs {
		if specs[i].data != nil {
			putU32LE(specs[i].inline[:], uint32(off))
			off += len(specs[i].data)
		}
	}
	gpsOffset := off
	var gpsBlock []byte
	if m.GPS != nil {
		gpsBlock = buildGPSIFD(gpsOffset, m.GPS)
		putU32LE(specs[gpsIdx].inline[:], uint32(gpsOffset))
	}

	out := make([]byte, 0, gpsOffset+len(gpsBlock))
	out = append(out, 'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00)
	out = append(out, byte(n), byte(n>>8))
	for _, s := range specs {
		out = appendEntryLE(out, s)
	}
	out = append(out, 0, 0, 0, 0) // next IFD offset: terminal
	for _, s := range specs {
		out = append(out, s.data...)
	}
	out = append(out, gpsBlock...)
	return out
}

// asciiSpec builds an ASCII entry, inline when the value plus NUL fits in
// four bytes, out-of-line (even-padded) otherwise.
func asciiSpec(tag uint16, val string) entrySpec {
	raw := append([]byte(val), 0)
	s := entrySpec{tag: tag, typ: TypeASCII, count: uint32(len(raw))}
	if len(raw) <= 4 {
		copy(s.inline[:], raw)
		return s
	}
	if len(raw)%2 != 0 {
		raw = append(raw, 0)
	}
	s.data = raw
	return s
}

// buildGPSIFD encodes a GPS-only sub-IFD whose internal offsets are
// absolute, assuming the IFD begins at base within the final block. The
// coordinate is truncated toward zero to the requested digit count and
// stored as a single degrees rational with minutes and seconds zeroed.
func buildGPSIFD(base int, g *GPSFields) []byte {
	latRef, lonRef := "N", "E"
	if g.Latitude < 0 {
		latRef = "S"
	}
	if g.Longitude < 0 {
		lonRef = "W"
	}

	den := uint32(math.Pow(10, float64(g.Decimals)))
	latNum := uint32(math.Trunc(math.Abs(g.Latitude) * float64(den)))
	lonNum := uint32(math.Trunc(math.Abs(g.Longitude) * float64(den)))

	const entries = 4
	dataOff := base + 2 + entries*EntrySize + 4

	specs := []entrySpec{
		refSpec(TagGPSLatitudeRef, latRef),
		{tag: TagGPSLatitude, typ: TypeRational, count: 3, data: rationalTriple(latNum, den)},
		refSpec(TagGPSLongitudeRef, lonRef),
		{tag: TagGPSLongitude, typ: TypeRational, count: 3, data: rationalTriple(lonNum, den)},
	}
	off := dataOff
	for i := range specs {
		if specs[i].data != nil {
			putU32LE(specs[i].inline[:], uint32(off))
			off += len(specs[i].data)
		}
	}

	out := make([]byte, 0, off-base)
	out = append(out, byte(entries), 0)
	for _, s := range specs {
		out = appendEntryLE(out, s)
	}
	out = append(out, 0, 0, 0, 0)
	for _, s := range specs {
		out = append(out, s.data...)
	}
	return out
}

func refSpec(tag uint16, ref string) entrySpec {
	s := entrySpec{tag: tag, typ: TypeASCII, count: 2}
	s.inline[0] = ref[0]
	return s
}

// rationalTriple encodes value/den, 0/1, 0/1 as 24 little-endian bytes.
func rationalTriple(num, den uint32) []byte {
	out := make([]byte, 24)
	putU32LE(out[0:], num)
	putU32LE(out[4:], den)
	putU32LE(out[12:], 1)
	putU32LE(out[20:], 1)
	return out
}

func appendEntryLE(out []byte, s entrySpec) []byte {
	out = append(out, byte(s.tag), byte(s.tag>>8))
	out = append(out, byte(s.typ), byte(s.typ>>8))
	out = append(out, byte(s.count), byte(s.count>>8), byte(s.count>>16), byte(s.count>>24))
	out = append(out, s.inline[:]...)
	return out
}

func putU32LE(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}
