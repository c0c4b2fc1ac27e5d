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

// Package isobmff scrubs ISO Base Media File Format containers: HEIC and
// AVIF still images, MP4 and QuickTime movies. Boxes are never removed —
// chunk-offset tables (stco/co64) hold absolute file offsets, so removal
// would corrupt playback — metadata extents are overwritten with zeros
// instead, and output length always equals input length.
package isobmff

import (
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

// maxDepth caps recursion into container boxes as a corruption guard.
const maxDepth = 10

// box is one parsed box: its type, the span of the whole box, and where
// its content starts (past the size/type header, extended sizes included).
type box struct {
	typ          string
	start        int
	contentStart int
	end          int
}

// content returns the box content span.
func (b box) content(data []byte) []byte {
	return data[b.contentStart:b.end]
}

// containerTypes are boxes whose content is a sequence of child boxes.
// meta is also a container but carries a 4-byte version+flags header before
// its children.
var containerTypes = map[string]bool{
	"moov": true, "trak": true, "mdia": true, "minf": true,
	"stbl": true, "udta": true, "edts": true, "dinf": true,
	"iprp": true, "ipco": true, "ilst": true,
}

// parseBoxes reads the sequence of sibling boxes in data[start:end].
// A 32-bit size of 1 switches to the 64-bit extended size; a size of 0
// means the box extends to the end of the enclosing span.
func parseBoxes(f format.Format, data []byte, start, end int) ([]box, error) {
	var boxes []box
	off := start
	for off+8 <= end {
		size32, err := bytecursor.ReadU32(data, off, false)
		if err != nil {
			return boxes, walker.Corrupt(f, off, "truncated box size")
		}
		typ, err := bytecursor.ASCII(data, off+4, 4)
		if err != nil {
			return boxes, walker.Corrupt(f, off+4, "truncated box type")
		}

		contentStart := off + 8
		var size uint64
		switch size32 {
		case 0:
			size = uint64(end - off)
		case 1:
			ext, err := bytecursor.ReadU64(data, off+8, false)
			if err != nil {
				return boxes, walker.Corrupt(f, off+8, "truncated extended box size")
			}
			size = ext
			contentStart = off + 16
		default:
			size = uint64(size32)
		}

		if size < uint64(contentStart-off) || uint64(off)+size > uint64(end) {
			return boxes, walker.Corrupt(f, off, "box %q size %d exceeds enclosing span", typ, size)
		}
		boxes = append(boxes, box{typ: typ, start: off, contentStart: contentStart, end: off + int(size)})
		off += int(size)
	}
	return boxes, nil
}

// walkBoxes calls fn for every box in the tree, recursing into container
// types up to maxDepth. fn returning false stops recursion into that box's
// children, not the walk itself.
func walkBoxes(f format.Format, data []byte, start, end, depth int, fn func(b box, depth int) bool) error {
	if depth > maxDepth {
		return nil
	}
	boxes, err := parseBoxes(f, data, start, end)
	for _, b := range boxes {
		if !fn(b, depth) {
			continue
		}
		childStart := b.contentStart
		switch {
		case b.typ == "meta":
			childStart += 4 // version + flags
		case !containerTypes[b.typ]:
			continue
		}
		if childStart > b.end {
			continue
		}
		if werr := walkBoxes(f, data, childStart, b.end, depth+1, fn); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
