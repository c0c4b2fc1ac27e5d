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

package format

import (
	"encoding/binary"
	"testing"
)

func ftypBox(major string, compatible ...string) []byte {
	content := []byte(major)
	content = append(content, 0, 0, 0, 0) // minor version
	for _, b := range compatible {
		content = append(content, b...)
	}
	box := binary.BigEndian.AppendUint32(nil, uint32(8+len(content)))
	box = append(box, "ftyp"...)
	return append(box, content...)
}

// tiffWithMake builds a little-endian TIFF whose IFD0 holds a single
// ASCII Make entry stored out of line after the IFD.
func tiffWithMake(value string) []byte {
	value += "\x00"
	data := []byte{'I', 'I', 0x2A, 0x00}
	data = binary.LittleEndian.AppendUint32(data, 8) // IFD0 offset
	data = binary.LittleEndian.AppendUint16(data, 1) // entry count
	data = binary.LittleEndian.AppendUint16(data, tagMake)
	data = binary.LittleEndian.AppendUint16(data, 2) // ASCII
	data = binary.LittleEndian.AppendUint32(data, uint32(len(value)))
	valueOff := 8 + 2 + 12 + 4
	data = binary.LittleEndian.AppendUint32(data, uint32(valueOff))
	data = binary.LittleEndian.AppendUint32(data, 0) // next IFD
	return append(data, value...)
}

func TestDetectFixedMagics(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, JPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0}, PNG},
		{"gif87a", []byte("GIF87a trailing"), GIF},
		{"gif89a", []byte("GIF89a trailing"), GIF},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), WebP},
		{"pdf", []byte("%PDF-1.7\n"), PDF},
		{"empty", nil, Unknown},
		{"short", []byte{0xFF}, Unknown},
		{"riff-wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.data); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDetectISOBMFFBrands(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"heic", ftypBox("heic", "mif1"), HEIC},
		{"avif", ftypBox("avif", "mif1"), AVIF},
		{"mov", ftypBox("qt  "), MOV},
		{"mp4", ftypBox("isom", "iso2", "mp41"), MP4},
		{"compatible-fallback", ftypBox("zzzz", "heic"), HEIC},
		{"unknown-brands", ftypBox("zzzz", "yyyy"), MP4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.data); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDetectTIFFFamily(t *testing.T) {
	plainBE := []byte{'M', 'M', 0x00, 0x2A, 0, 0, 0, 0}
	if got := Detect(plainBE); got != TIFF {
		t.Errorf("Expected TIFF, got %v", got)
	}

	cr2 := []byte{'I', 'I', 0x2A, 0x00, 0x10, 0, 0, 0, 'C', 'R', 2, 0}
	if got := Detect(cr2); got != CR2 {
		t.Errorf("Expected CR2, got %v", got)
	}

	if got := Detect(tiffWithMake("NIKON CORPORATION")); got != NEF {
		t.Errorf("Expected NEF, got %v", got)
	}
	if got := Detect(tiffWithMake("SONY")); got != ARW {
		t.Errorf("Expected ARW, got %v", got)
	}
	if got := Detect(tiffWithMake("Leica Camera AG")); got != TIFF {
		t.Errorf("Expected TIFF, got %v", got)
	}
}

func TestDetectNEFPrefixCaseInsensitive(t *testing.T) {
	if got := Detect(tiffWithMake("Nikon")); got != NEF {
		t.Errorf("Expected NEF, got %v", got)
	}
}

func TestDetectDNGVersionTag(t *testing.T) {
	data := []byte{'I', 'I', 0x2A, 0x00}
	data = binary.LittleEndian.AppendUint32(data, 8)
	data = binary.LittleEndian.AppendUint16(data, 1)
	data = binary.LittleEndian.AppendUint16(data, tagDNGVersion)
	data = binary.LittleEndian.AppendUint16(data, 1) // BYTE
	data = binary.LittleEndian.AppendUint32(data, 4)
	data = append(data, 1, 4, 0, 0)
	data = binary.LittleEndian.AppendUint32(data, 0)
	if got := Detect(data); got != DNG {
		t.Errorf("Expected DNG, got %v", got)
	}
}

func TestDetectSVG(t *testing.T) {
	doc := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	if got := Detect(doc); got != SVG {
		t.Errorf("Expected SVG, got %v", got)
	}
	noRoot := []byte(`<?xml version="1.0"?><html></html>`)
	if got := Detect(noRoot); got != Unknown {
		t.Errorf("Expected Unknown, got %v", got)
	}
}

func TestFormatPredicates(t *testing.T) {
	if !CR2.IsTIFFBased() || !CR2.IsProprietaryRaw() {
		t.Errorf("Expected CR2 to be TIFF-based proprietary raw")
	}
	if !TIFF.IsTIFFBased() || TIFF.IsProprietaryRaw() {
		t.Errorf("Expected TIFF to be TIFF-based but not proprietary raw")
	}
	if !HEIC.IsISOBMFF() || JPEG.IsISOBMFF() {
		t.Errorf("Expected only ISOBMFF formats to report IsISOBMFF")
	}
	if got := MOV.String(); got != "mov" {
		t.Errorf("Expected mov, got %q", got)
	}
}
