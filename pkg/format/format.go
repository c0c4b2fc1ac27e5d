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

// Package format defines the container formats HB-Scrub understands and the
// magic-byte sniffer that classifies raw bytes into one of them.
package format

// Format identifies a supported container format.
type Format int

const (
	// Unknown means no magic matched. Callers must treat it as terminal.
	Unknown Format = iota
	// JPEG is a JFIF/EXIF JPEG stream.
	JPEG
	// PNG covers PNG and APNG.
	PNG
	// WebP is a RIFF container with a WEBP form type.
	WebP
	// GIF covers GIF87a and GIF89a.
	GIF
	// TIFF is a plain TIFF file.
	TIFF
	// DNG is Adobe's TIFF-based raw format.
	DNG
	// CR2 is Canon's TIFF-based raw format.
	CR2
	// NEF is Nikon's TIFF-based raw format.
	NEF
	// ARW is Sony's TIFF-based raw format.
	ARW
	// HEIC is an ISOBMFF still-image container (HEVC payload).
	HEIC
	// AVIF is an ISOBMFF still-image container (AV1 payload).
	AVIF
	// MP4 is an ISOBMFF movie container.
	MP4
	// MOV is Apple's QuickTime movie container.
	MOV
	// PDF is a Portable Document Format file.
	PDF
	// SVG is an XML vector image. Detected but not strippable.
	SVG
)

// String returns the conventional short name for a format.
func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case WebP:
		return "webp"
	case GIF:
		return "gif"
	case TIFF:
		return "tiff"
	case DNG:
		return "dng"
	case CR2:
		return "cr2"
	case NEF:
		return "nef"
	case ARW:
		return "arw"
	case HEIC:
		return "heic"
	case AVIF:
		return "avif"
	case MP4:
		return "mp4"
	case MOV:
		return "mov"
	case PDF:
		return "pdf"
	case SVG:
		return "svg"
	default:
		return "unknown"
	}
}

// IsTIFFBased reports whether the format uses the TIFF container layout.
func (f Format) IsTIFFBased() bool {
	switch f {
	case TIFF, DNG, CR2, NEF, ARW:
		return true
	}
	return false
}

// IsProprietaryRaw reports whether the format is a camera raw file whose
// scrubbed output is the embedded JPEG preview rather than the raw itself.
func (f Format) IsProprietaryRaw() bool {
	switch f {
	case CR2, NEF, ARW:
		return true
	}
	return false
}

// IsISOBMFF reports whether the format is an ISO Base Media File Format
// box tree.
func (f Format) IsISOBMFF() bool {
	switch f {
	case HEIC, AVIF, MP4, MOV:
		return true
	}
	return false
}
