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

// Package webp walks a WebP RIFF container and rebuilds it without the
// EXIF, XMP and (by policy) ICCP chunks. Because the VP8X chunk's feature
// flags describe which optional chunks exist, it is regenerated from the
// surviving chunk set rather than copied.
package webp

import (
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

// VP8X feature flag bits.
const (
	flagAnimation = 0x02
	flagXMP       = 0x04
	flagEXIF      = 0x08
	flagAlpha     = 0x10
	flagICC       = 0x20
)

// chunk is one RIFF chunk: FourCC plus payload. Odd-length payloads are
// followed by a pad byte on the wire; the payload slice excludes it.
type chunk struct {
	fourCC string
	data   []byte
}

// Walker implements walker.Handler for WebP.
type Walker struct{}

// New returns a WebP walker.
func New() *Walker { return &Walker{} }

// parse splits the container into chunks after validating the RIFF/WEBP
// header. Partial results accompany the error for best-effort inspection.
func parse(data []byte) ([]chunk, error) {
	if !bytecursor.StartsWith(data, []byte("RIFF")) || !bytecursor.MatchAt(data, 8, []byte("WEBP")) {
		return nil, walker.Corrupt(format.WebP, 0, "missing RIFF/WEBP header")
	}

	var chunks []chunk
	off := 12
	for off+8 <= len(data) {
		fourCC, err := bytecursor.ASCII(data, off, 4)
		if err != nil {
			return chunks, walker.Corrupt(format.WebP, off, "truncated chunk FourCC")
		}
		length, err := bytecursor.ReadU32(data, off+4, true)
		if err != nil {
			return chunks, walker.Corrupt(format.WebP, off+4, "truncated chunk length")
		}
		end := off + 8 + int(length)
		if int(length) > len(data) || end > len(data) || end < off {
			return chunks, walker.Corrupt(format.WebP, off, "chunk %q length %d exceeds remaining buffer", fourCC, length)
		}
		chunks = append(chunks, chunk{fourCC: fourCC, data: data[off+8 : end]})
		off = end
		if length%2 != 0 {
			off++ // even padding
		}
	}
	return chunks, nil
}

// classify maps a chunk to a metadata field, or "" for image chunks.
func classify(c chunk) policy.Field {
	switch c.fourCC {
	case "EXIF":
		return policy.FieldEXIF
	case "XMP ":
		return policy.FieldXMP
	case "ICCP":
		return policy.FieldICCProfile
	}
	return ""
}

// exifTIFFBlock unwraps a WebP EXIF chunk to the TIFF block. Some encoders
// prefix the chunk with the JPEG-style "Exif\0\0" header, some do not.
func exifTIFFBlock(data []byte) []byte {
	if bytecursor.StartsWith(data, []byte("Exif\x00\x00")) {
		return data[6:]
	}
	return data
}

// dimensions returns the canvas width and height, preferring VP8X and
// falling back to the VP8/VP8L bitstream headers.
func dimensions(chunks []chunk) (width, height uint32, alpha bool, ok bool) {
	for _, c := range chunks {
		switch c.fourCC {
		case "VP8X":
			if len(c.data) >= 10 {
				w := uint32(c.data[4]) | uint32(c.data[5])<<8 | uint32(c.data[6])<<16
				h := uint32(c.data[7]) | uint32(c.data[8])<<8 | uint32(c.data[9])<<16
				return w + 1, h + 1, c.data[0]&flagAlpha != 0, true
			}
		case "VP8 ":
			// Frame tag (3 bytes), start code 9D 01 2A, then 14-bit
			// width and height.
			if len(c.data) >= 10 && c.data[3] == 0x9D && c.data[4] == 0x01 && c.data[5] == 0x2A {
				w := (uint32(c.data[6]) | uint32(c.data[7])<<8) & 0x3FFF
				h := (uint32(c.data[8]) | uint32(c.data[9])<<8) & 0x3FFF
				return w, h, false, true
			}
		case "VP8L":
			if len(c.data) >= 5 && c.data[0] == 0x2F {
				bits, err := bytecursor.ReadU32(c.data, 1, true)
				if err == nil {
					w := (bits & 0x3FFF) + 1
					h := ((bits >> 14) & 0x3FFF) + 1
					return w, h, bits>>28&1 != 0, true
				}
			}
		}
	}
	return 0, 0, false, false
}

// buildVP8X encodes a VP8X chunk for the given canvas and feature set.
func buildVP8X(width, height uint32, flags byte) chunk {
	data := make([]byte, 10)
	data[0] = flags
	data[4] = byte(width - 1)
	data[5] = byte((width - 1) >> 8)
	data[6] = byte((width - 1) >> 16)
	data[7] = byte(height - 1)
	data[8] = byte((height - 1) >> 8)
	data[9] = byte((height - 1) >> 16)
	return chunk{fourCC: "VP8X", data: data}
}

// appendChunk serializes a chunk with even padding.
func appendChunk(out []byte, c chunk) []byte {
	var hdr [8]byte
	copy(hdr[:4], c.fourCC)
	_ = bytecursor.WriteU32(hdr[:], 4, uint32(len(c.data)), true)
	out = append(out, hdr[:]...)
	out = append(out, c.data...)
	if len(c.data)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

// Strip rebuilds the container without removed metadata chunks and with a
// regenerated VP8X reflecting what actually remains.
func (w *Walker) Strip(data []byte, p *policy.Policy) (*walker.Result, error) {
	chunks, err := parse(data)
	if err != nil {
		return nil, err
	}

	width, height, alphaHint, haveDims := dimensions(chunks)

	var kept []chunk
	var candidates []policy.Field
	hadVP8X := false
	for _, c := range chunks {
		if c.fourCC == "VP8X" {
			hadVP8X = true
			continue // regenerated below
		}
		f := classify(c)
		if f != "" && !p.ShouldKeep(f) {
			candidates = append(candidates, f)
			if f == policy.FieldEXIF {
				candidates = append(candidates, policy.FieldsInTIFFBlock(exifTIFFBlock(c.data))...)
			}
			continue
		}
		kept = append(kept, c)
	}

	// Recompute the feature flags from the surviving set.
	var flags byte
	animated := false
	for _, c := range kept {
		switch c.fourCC {
		case "ICCP":
			flags |= flagICC
		case "EXIF":
			flags |= flagEXIF
		case "XMP ":
			flags |= flagXMP
		case "ALPH":
			flags |= flagAlpha
		case "ANIM", "ANMF":
			animated = true
		}
	}
	if animated {
		flags |= flagAnimation
	}
	if alphaHint {
		flags |= flagAlpha
	}

	needVP8X := flags != 0 || animated || hadVP8X
	out := make([]byte, 0, len(data))
	out = append(out, "RIFF\x00\x00\x00\x00WEBP"...)
	if needVP8X && haveDims {
		out = appendChunk(out, buildVP8X(width, height, flags))
	}
	for _, c := range kept {
		out = appendChunk(out, c)
	}
	_ = bytecursor.WriteU32(out, 4, uint32(len(out)-8), true)

	return &walker.Result{Data: out, Removed: p.Removed(candidates)}, nil
}

// Inspect lists the metadata fields present, best-effort on corruption.
func (w *Walker) Inspect(data []byte) []policy.Field {
	chunks, _ := parse(data)

	var fields []policy.Field
	for _, c := range chunks {
		f := classify(c)
		if f == "" {
			continue
		}
		fields = append(fields, f)
		if f == policy.FieldEXIF {
			fields = append(fields, policy.FieldsInTIFFBlock(exifTIFFBlock(c.data))...)
		}
	}
	return policy.Dedup(fields)
}
