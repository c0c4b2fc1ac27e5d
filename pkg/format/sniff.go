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
	"bytes"
	"strings"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
)

// sniffLimit caps how far Detect looks into the buffer. Everything a magic
// check needs lives well inside the first 4 KiB.
const sniffLimit = 4096

// ifdEntryCap bounds the IFD0 scan so corrupt entry counts cannot make the
// sniffer loop over garbage.
const ifdEntryCap = 512

var (
	pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic    = []byte{0xFF, 0xD8, 0xFF}
	pdfMagic     = []byte("%PDF-")
)

// Detect classifies data into a Format by magic bytes. Order matters:
// fixed-magic formats are checked before the variable-brand ISOBMFF check,
// which is checked before the TIFF-family scan, which is checked before the
// SVG text heuristic. Returns Unknown when nothing matches.
func Detect(data []byte) Format {
	if len(data) > sniffLimit {
		data = data[:sniffLimit]
	}

	switch {
	case bytecursor.StartsWith(data, jpegMagic):
		return JPEG
	case bytecursor.StartsWith(data, pngSignature):
		return PNG
	case bytecursor.StartsWith(data, []byte("GIF87a")) || bytecursor.StartsWith(data, []byte("GIF89a")):
		return GIF
	case bytecursor.StartsWith(data, []byte("RIFF")) && bytecursor.MatchAt(data, 8, []byte("WEBP")):
		return WebP
	case bytecursor.StartsWith(data, pdfMagic):
		return PDF
	}

	if f := detectISOBMFF(data); f != Unknown {
		return f
	}
	if f := detectTIFFFamily(data); f != Unknown {
		return f
	}
	if detectSVG(data) {
		return SVG
	}
	return Unknown
}

// brandFormat maps an ISOBMFF major (or compatible) brand to a format.
func brandFormat(brand string) Format {
	switch brand {
	case "heic", "heix", "heim", "heis", "hevc", "hevm", "hevs", "mif1", "msf1":
		return HEIC
	case "avif", "avis":
		return AVIF
	case "qt  ":
		return MOV
	case "isom", "iso2", "iso4", "iso5", "iso6", "mp41", "mp42", "mp4v", "m4v ", "m4a ", "dash":
		return MP4
	}
	return Unknown
}

// detectISOBMFF checks for an ftyp box at offset 4 and dispatches on its
// major brand, falling back to a compatible-brands scan when the major
// brand is unrecognized.
func detectISOBMFF(data []byte) Format {
	if !bytecursor.MatchAt(data, 4, []byte("ftyp")) {
		return Unknown
	}
	size, err := bytecursor.ReadU32(data, 0, false)
	if err != nil || size < 16 || int(size) > len(data) {
		return Unknown
	}

	major, err := bytecursor.ASCII(data, 8, 4)
	if err != nil {
		return Unknown
	}
	if f := brandFormat(major); f != Unknown {
		return f
	}

	// Major brand unrecognized: walk the compatible brands.
	for off := 16; off+4 <= int(size); off += 4 {
		brand, err := bytecursor.ASCII(data, off, 4)
		if err != nil {
			break
		}
		if f := brandFormat(brand); f != Unknown {
			return f
		}
	}
	// It is a valid ISOBMFF file of some flavor; treat as MP4 so the
	// zero-in-place atom walker still gets a chance at it.
	return MP4
}

// TIFF tags the sniffer cares about.
const (
	tagMake       = 0x010F
	tagDNGVersion = 0xC612
)

// detectTIFFFamily identifies plain TIFF and the TIFF-based raw formats.
// CR2 carries an explicit "CR" marker at offset 8; DNG is recognized by the
// DNGVersion tag in IFD0; NEF and ARW are sniffed from the Make tag.
func detectTIFFFamily(data []byte) Format {
	var little bool
	switch {
	case bytecursor.StartsWith(data, []byte{'I', 'I', 0x2A, 0x00}):
		little = true
	case bytecursor.StartsWith(data, []byte{'M', 'M', 0x00, 0x2A}):
		little = false
	default:
		return Unknown
	}

	if bytecursor.MatchAt(data, 8, []byte{'C', 'R'}) {
		return CR2
	}

	ifdOff, err := bytecursor.ReadU32(data, 4, little)
	if err != nil {
		return TIFF
	}
	count, err := bytecursor.ReadU16(data, int(ifdOff), little)
	if err != nil || count > ifdEntryCap {
		return TIFF
	}

	for i := 0; i < int(count); i++ {
		entry := int(ifdOff) + 2 + i*12
		tag, err := bytecursor.ReadU16(data, entry, little)
		if err != nil {
			break
		}
		switch tag {
		case tagDNGVersion:
			return DNG
		case tagMake:
			if make := ifdASCIIValue(data, entry, little); make != "" {
				upper := strings.ToUpper(make)
				if strings.HasPrefix(upper, "NIKON") {
					return NEF
				}
				if strings.HasPrefix(upper, "SONY") {
					return ARW
				}
			}
		}
	}
	return TIFF
}

// ifdASCIIValue extracts the ASCII value of the 12-byte IFD entry at off,
// whether stored inline or at an offset. Best effort: any structural
// problem yields the empty string.
func ifdASCIIValue(data []byte, off int, little bool) string {
	typ, err := bytecursor.ReadU16(data, off+2, little)
	if err != nil || typ != 2 { // ASCII
		return ""
	}
	count, err := bytecursor.ReadU32(data, off+4, little)
	if err != nil || count == 0 || count > 256 {
		return ""
	}
	valOff := off + 8
	if count > 4 {
		indirect, err := bytecursor.ReadU32(data, off+8, little)
		if err != nil {
			return ""
		}
		valOff = int(indirect)
	}
	s, err := bytecursor.ASCII(data, valOff, int(count))
	if err != nil {
		return ""
	}
	return bytecursor.TrimNUL(s)
}

// detectSVG applies a capped text heuristic: an XML declaration or the SVG
// namespace URI within the sniff window, with an <svg element somewhere in
// the same window.
func detectSVG(data []byte) bool {
	if !bytes.Contains(data, []byte("<?xml")) && !bytes.Contains(data, []byte("http://www.w3.org/2000/svg")) {
		return false
	}
	return bytes.Contains(data, []byte("<svg"))
}
