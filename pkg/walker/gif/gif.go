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

// Package gif walks GIF blocks and rebuilds the file without Comment and
// metadata-bearing Application extensions. Graphics Control and NETSCAPE
// loop extensions are always preserved so animations keep playing; unknown
// extension sub-types are carried through as opaque blocks rather than
// silently dropped.
package gif

import (
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

// Block introducers and extension sub-types.
const (
	introExtension = 0x21
	introImage     = 0x2C
	introTrailer   = 0x3B

	extGraphicsControl = 0xF9
	extComment         = 0xFE
	extApplication     = 0xFF
	extPlainText       = 0x01
)

// block is one GIF block: its full span in the source, its introducer, the
// extension sub-type (for extensions), and the reassembled application
// identifier when the block is an Application extension.
type block struct {
	intro      byte
	subType    byte
	start, end int
	appID      string
}

// Walker implements walker.Handler for GIF.
type Walker struct{}

// New returns a GIF walker.
func New() *Walker { return &Walker{} }

// skipSubBlocks advances past a length-prefixed sub-block sequence,
// returning the offset just past the zero-length terminator.
func skipSubBlocks(data []byte, off int) (int, error) {
	for {
		n, err := bytecursor.ReadU8(data, off)
		if err != nil {
			return 0, err
		}
		off++
		if n == 0 {
			return off, nil
		}
		if off+int(n) > len(data) {
			return 0, &bytecursor.BoundsError{Requested: int(n), Available: len(data) - off}
		}
		off += int(n)
	}
}

// headerEnd returns the offset just past the header, logical screen
// descriptor and global color table.
func headerEnd(data []byte) (int, error) {
	if !bytecursor.StartsWith(data, []byte("GIF87a")) && !bytecursor.StartsWith(data, []byte("GIF89a")) {
		return 0, walker.Corrupt(format.GIF, 0, "missing GIF signature")
	}
	// Logical screen descriptor: width, height, packed, background, aspect.
	packed, err := bytecursor.ReadU8(data, 10)
	if err != nil {
		return 0, walker.Corrupt(format.GIF, 6, "truncated logical screen descriptor")
	}
	off := 13
	if packed&0x80 != 0 {
		tableSize := 3 * (1 << ((packed & 0x07) + 1))
		off += tableSize
	}
	if off > len(data) {
		return 0, walker.Corrupt(format.GIF, 13, "global color table exceeds buffer")
	}
	return off, nil
}

// parse splits the data stream into blocks. Partial results accompany the
// error for best-effort inspection.
func parse(data []byte, from int) ([]block, error) {
	var blocks []block
	off := from
	for off < len(data) {
		intro := data[off]
		start := off
		switch intro {
		case introTrailer:
			blocks = append(blocks, block{intro: intro, start: start, end: off + 1})
			return blocks, nil

		case introExtension:
			subType, err := bytecursor.ReadU8(data, off+1)
			if err != nil {
				return blocks, walker.Corrupt(format.GIF, off, "truncated extension introducer")
			}
			end, err := skipSubBlocks(data, off+2)
			if err != nil {
				return blocks, walker.Corrupt(format.GIF, off, "truncated extension sub-blocks")
			}
			b := block{intro: intro, subType: subType, start: start, end: end}
			if subType == extApplication {
				b.appID = applicationID(data, off+2)
			}
			blocks = append(blocks, b)
			off = end

		case introImage:
			// Descriptor: left, top, width, height, packed.
			packed, err := bytecursor.ReadU8(data, off+9)
			if err != nil {
				return blocks, walker.Corrupt(format.GIF, off, "truncated image descriptor")
			}
			off += 10
			if packed&0x80 != 0 {
				off += 3 * (1 << ((packed & 0x07) + 1))
			}
			// LZW minimum code size, then the compressed sub-blocks.
			off++
			end, err := skipSubBlocks(data, off)
			if err != nil {
				return blocks, walker.Corrupt(format.GIF, start, "truncated image data")
			}
			blocks = append(blocks, block{intro: intro, start: start, end: end})
			off = end

		default:
			return blocks, walker.Corrupt(format.GIF, off, "unknown block introducer 0x%02X", intro)
		}
	}
	return blocks, walker.Corrupt(format.GIF, len(data), "missing trailer")
}

// applicationID reassembles the first sub-block of an Application
// extension, which carries the 11-byte identifier plus authentication code.
func applicationID(data []byte, off int) string {
	n, err := bytecursor.ReadU8(data, off)
	if err != nil || int(n) > len(data)-off-1 {
		return ""
	}
	s, err := bytecursor.ASCII(data, off+1, int(n))
	if err != nil {
		return ""
	}
	return s
}

// classify maps a block to the metadata field it carries, or "" for blocks
// that are kept. NETSCAPE loop extensions are animation control, not
// metadata; XMP rides in an Application extension with its own identifier.
func classify(b block) policy.Field {
	if b.intro != introExtension {
		return ""
	}
	switch b.subType {
	case extComment:
		return policy.FieldComment
	case extApplication:
		switch b.appID {
		case "NETSCAPE2.0", "ANIMEXTS1.0":
			return ""
		case "XMP DataXMP":
			return policy.FieldXMP
		default:
			if b.appID == "" {
				// Unknown sub-type size: preserve as an opaque block.
				return ""
			}
			return policy.FieldComment
		}
	}
	return ""
}

// Strip rebuilds the GIF keeping the header, images, and every
// non-metadata block.
func (w *Walker) Strip(data []byte, p *policy.Policy) (*walker.Result, error) {
	hdrEnd, err := headerEnd(data)
	if err != nil {
		return nil, err
	}
	blocks, err := parse(data, hdrEnd)
	if err != nil {
		return nil, err
	}

	var candidates []policy.Field
	out := append([]byte{}, data[:hdrEnd]...)
	for _, b := range blocks {
		f := classify(b)
		if f != "" && !p.ShouldKeep(f) {
			candidates = append(candidates, f)
			continue
		}
		out = append(out, data[b.start:b.end]...)
	}

	return &walker.Result{Data: out, Removed: p.Removed(candidates)}, nil
}

// Inspect lists the metadata fields present, best-effort on corruption.
func (w *Walker) Inspect(data []byte) []policy.Field {
	hdrEnd, err := headerEnd(data)
	if err != nil {
		return nil
	}
	blocks, _ := parse(data, hdrEnd)

	var fields []policy.Field
	for _, b := range blocks {
		if f := classify(b); f != "" {
			fields = append(fields, f)
		}
	}
	return policy.Dedup(fields)
}
