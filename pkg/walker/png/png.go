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

// Package png walks PNG chunks and rebuilds the file without metadata
// chunks. Every kept chunk gets its CRC-32 recomputed over type and data.
// Structural chunks and the APNG animation chunks are never dropped.
package png

import (
	"strings"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/checksum"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

var signature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// chunk is one PNG chunk: 4-byte length, 4-byte type, data, 4-byte CRC.
type chunk struct {
	typ  string
	data []byte
}

// neverDrop lists chunk types that survive any policy: image structure,
// rendering parameters, and the APNG animation control chunks.
var neverDrop = map[string]bool{
	"IHDR": true, "PLTE": true, "IDAT": true, "IEND": true,
	"tRNS": true, "gAMA": true, "cHRM": true, "sRGB": true,
	"sBIT": true, "bKGD": true, "hIST": true, "pHYs": true,
	"sPLT": true,
	"acTL": true, "fcTL": true, "fdAT": true,
}

// Walker implements walker.Handler for PNG.
type Walker struct{}

// New returns a PNG walker.
func New() *Walker { return &Walker{} }

// parse splits data into chunks. Partial results come back with the error
// so inspection can stay best-effort.
func parse(data []byte) ([]chunk, error) {
	if !bytecursor.StartsWith(data, signature) {
		return nil, walker.Corrupt(format.PNG, 0, "missing PNG signature")
	}

	var chunks []chunk
	off := len(signature)
	for off < len(data) {
		length, err := bytecursor.ReadU32(data, off, false)
		if err != nil {
			return chunks, walker.Corrupt(format.PNG, off, "truncated chunk length")
		}
		typ, err := bytecursor.ASCII(data, off+4, 4)
		if err != nil {
			return chunks, walker.Corrupt(format.PNG, off+4, "truncated chunk type")
		}
		end := off + 8 + int(length) + 4
		if int(length) > len(data) || end > len(data) || end < off {
			return chunks, walker.Corrupt(format.PNG, off, "chunk %q length %d exceeds remaining buffer", typ, length)
		}
		chunks = append(chunks, chunk{typ: typ, data: data[off+8 : off+8+int(length)]})
		off = end
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

// classify maps a chunk to the metadata field it carries, or "" when it is
// not metadata. Text chunks classify by their keyword so a Copyright tEXt
// can be preserved while a Comment one is dropped.
func classify(c chunk) policy.Field {
	switch c.typ {
	case "eXIf":
		return policy.FieldEXIF
	case "iCCP":
		return policy.FieldICCProfile
	case "tIME":
		return policy.FieldDateTime
	case "tEXt", "zTXt", "iTXt":
		return textField(c)
	}
	return ""
}

// textField classifies a text chunk by its NUL-terminated keyword.
func textField(c chunk) policy.Field {
	keyword := c.data
	if i := indexNUL(c.data); i >= 0 {
		keyword = c.data[:i]
	}
	switch strings.ToLower(string(keyword)) {
	case "title":
		return policy.FieldTitle
	case "description":
		return policy.FieldDescription
	case "copyright":
		return policy.FieldCopyright
	case "author":
		return policy.FieldArtist
	case "software":
		return policy.FieldSoftware
	case "creation time":
		return policy.FieldDateTime
	case "xml:com.adobe.xmp":
		return policy.FieldXMP
	}
	return policy.FieldComment
}

func indexNUL(b []byte) int {
	for i, v := range b {
		if v == 0 {
			return i
		}
	}
	return -1
}

// appendChunk serializes a chunk with a freshly computed CRC.
func appendChunk(out []byte, typ string, data []byte) []byte {
	var hdr [8]byte
	_ = bytecursor.WriteU32(hdr[:4], 0, uint32(len(data)), false)
	copy(hdr[4:], typ)
	out = append(out, hdr[:]...)
	out = append(out, data...)

	var crc [4]byte
	_ = bytecursor.WriteU32(crc[:], 0, checksum.ChunkCRC([]byte(typ), data), false)
	return append(out, crc[:]...)
}

// Strip rebuilds the PNG from kept chunks, recomputing every CRC, and
// re-inserts a minimal eXIf chunk right after IHDR when the policy calls
// for orientation preservation, injection, or GPS redaction.
func (w *Walker) Strip(data []byte, p *policy.Policy) (*walker.Result, error) {
	chunks, err := parse(data)
	if err != nil {
		return nil, err
	}

	var origEXIF []byte
	for _, c := range chunks {
		if c.typ == "eXIf" {
			origEXIF = c.data
			break
		}
	}

	var candidates []policy.Field
	out := append([]byte{}, signature...)
	injected := p.BuildReinjection(origEXIF)

	for _, c := range chunks {
		f := classify(c)
		keep := neverDrop[c.typ] || f == "" || p.ShouldKeep(f)
		if !keep {
			candidates = append(candidates, f)
			if c.typ == "eXIf" {
				candidates = append(candidates, policy.FieldsInTIFFBlock(c.data)...)
			}
			continue
		}
		out = appendChunk(out, c.typ, c.data)
		if c.typ == "IHDR" && injected != nil {
			out = appendChunk(out, "eXIf", injected.Encode())
			injected = nil
		}
	}

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
		if c.typ == "eXIf" {
			fields = append(fields, policy.FieldsInTIFFBlock(c.data)...)
		}
	}
	return policy.Dedup(fields)
}
