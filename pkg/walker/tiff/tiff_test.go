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

package tiff

import (
	"bytes"
	"testing"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/exif"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
)

// Fixture layout (little-endian):
//
//	  0  header
//	  8  IFD0: 4 entries (ImageWidth, Make, StripOffsets, GPS pointer)
//	 62  Make value "CameraCo\0" padded to 10 bytes
//	 72  GPS sub-IFD: 2 entries (latitude, longitude)
//	102  latitude RATIONAL triple
//	126  longitude RATIONAL triple
//	150  pixel data
const (
	makeOff  = 62
	gpsOff   = 72
	latOff   = 102
	lonOff   = 126
	pixelOff = 150
)

var pixelData = []byte("PIXELDATA")

func le16(out []byte, v uint16) []byte {
	return append(out, byte(v), byte(v>>8))
}

func le32(out []byte, v uint32) []byte {
	return append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func entry(out []byte, tag, typ uint16, count, val uint32) []byte {
	out = le16(out, tag)
	out = le16(out, typ)
	out = le32(out, count)
	return le32(out, val)
}

func rationalTriple(out []byte, deg, min, sec uint32) []byte {
	out = le32(out, deg)
	out = le32(out, 1)
	out = le32(out, min)
	out = le32(out, 1)
	out = le32(out, sec)
	return le32(out, 1)
}

func buildTIFF() []byte {
	out := []byte{'I', 'I', 0x2A, 0x00}
	out = le32(out, 8)

	out = le16(out, 4)
	out = entry(out, 0x0100, exif.TypeShort, 1, 2)           // ImageWidth
	out = entry(out, exif.TagMake, exif.TypeASCII, 9, makeOff)
	out = entry(out, 0x0111, exif.TypeLong, 1, pixelOff)     // StripOffsets
	out = entry(out, exif.TagGPSIFD, exif.TypeLong, 1, gpsOff)
	out = le32(out, 0) // next IFD

	out = append(out, "CameraCo\x00\x00"...)

	out = le16(out, 2)
	out = entry(out, exif.TagGPSLatitude, exif.TypeRational, 3, latOff)
	out = entry(out, exif.TagGPSLongitude, exif.TypeRational, 3, lonOff)
	out = le32(out, 0)

	out = rationalTriple(out, 51, 30, 0)
	out = rationalTriple(out, 0, 6, 0)

	return append(out, pixelData...)
}

func TestStripZeroInPlace(t *testing.T) {
	src := buildTIFF()
	res, err := New().Strip(src, policy.Default())
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}

	if len(res.Data) != len(src) {
		t.Fatalf("output length %d != input length %d", len(res.Data), len(src))
	}
	if bytes.Contains(res.Data, []byte("CameraCo")) {
		t.Fatalf("Make value not zeroed")
	}
	for i := gpsOff; i < pixelOff; i++ {
		if res.Data[i] != 0 {
			t.Fatalf("GPS sub-IFD byte at %d not zeroed", i)
		}
	}
	for i := makeOff; i < gpsOff; i++ {
		if res.Data[i] != 0 {
			t.Fatalf("Make value byte at %d not zeroed", i)
		}
	}
}

func TestStripOffsetsStable(t *testing.T) {
	src := buildTIFF()
	res, err := New().Strip(src, policy.Default())
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}

	// Pixel bytes at their fixed offset are untouched.
	if !bytes.Equal(res.Data[pixelOff:pixelOff+len(pixelData)], pixelData) {
		t.Fatalf("pixel data at offset %d changed", pixelOff)
	}

	// The post-strip StripOffsets entry still points at the same offset.
	little, ifd0Off, ok := exif.ParseHeader(res.Data)
	if !ok {
		t.Fatalf("stripped output lost its TIFF header")
	}
	d := exif.ParseIFD(res.Data, int(ifd0Off), little)
	e, found := d.Find(0x0111)
	if !found {
		t.Fatalf("StripOffsets entry missing after strip")
	}
	if e.ValueOrOffset != pixelOff {
		t.Fatalf("StripOffsets = %d, want %d", e.ValueOrOffset, pixelOff)
	}
}

func TestIFD0RewrittenWithKeptEntriesOnly(t *testing.T) {
	src := buildTIFF()
	res, err := New().Strip(src, policy.Default())
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}

	little, ifd0Off, _ := exif.ParseHeader(res.Data)
	d := exif.ParseIFD(res.Data, int(ifd0Off), little)
	if len(d.Entries) != 2 {
		t.Fatalf("IFD0 entry count = %d, want 2 (ImageWidth, StripOffsets)", len(d.Entries))
	}
	if _, found := d.Find(exif.TagMake); found {
		t.Fatalf("Make entry survived rewrite")
	}
	if _, found := d.Find(exif.TagGPSIFD); found {
		t.Fatalf("GPS pointer survived rewrite")
	}
	if d.NextOffset != 0 {
		t.Fatalf("next IFD offset = %d, want 0", d.NextOffset)
	}
}

func TestRemovedFieldsReported(t *testing.T) {
	src := buildTIFF()
	res, err := New().Strip(src, policy.Default())
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	got := map[policy.Field]bool{}
	for _, f := range res.Removed {
		got[f] = true
	}
	if !got[policy.FieldMake] || !got[policy.FieldGPS] {
		t.Fatalf("Removed = %v, want Make and GPS", res.Removed)
	}
}

func TestKeepListPreservesEntry(t *testing.T) {
	src := buildTIFF()
	p, err := policy.Resolve(policy.Options{Keep: []string{"make"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	res, err := New().Strip(src, p)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if !bytes.Contains(res.Data, []byte("CameraCo")) {
		t.Fatalf("allowlisted Make zeroed")
	}
	little, ifd0Off, _ := exif.ParseHeader(res.Data)
	d := exif.ParseIFD(res.Data, int(ifd0Off), little)
	if _, found := d.Find(exif.TagMake); !found {
		t.Fatalf("allowlisted Make entry missing from rewritten IFD0")
	}
}

func TestStripIdempotent(t *testing.T) {
	src := buildTIFF()
	p := policy.Default()
	once, err := New().Strip(src, p)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	twice, err := New().Strip(once.Data, p)
	if err != nil {
		t.Fatalf("second Strip: %v", err)
	}
	if !bytes.Equal(once.Data, twice.Data) {
		t.Fatalf("strip is not idempotent")
	}
	if len(twice.Removed) != 0 {
		t.Fatalf("second pass removed %v, want nothing", twice.Removed)
	}
}

func TestInspect(t *testing.T) {
	fields := New().Inspect(buildTIFF())
	got := map[policy.Field]bool{}
	for _, f := range fields {
		got[f] = true
	}
	if !got[policy.FieldMake] || !got[policy.FieldGPS] {
		t.Fatalf("Inspect = %v, want Make and GPS", fields)
	}
}

func TestStripRejectsNonTIFF(t *testing.T) {
	if _, err := New().Strip([]byte("not a tiff at all"), policy.Default()); err == nil {
		t.Fatalf("Strip should fail without byte-order mark")
	}
}
