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

// Package exif implements the TIFF/EXIF tag model shared by the JPEG, TIFF,
// DNG, RAW and PNG walkers: IFD parsing, typed value decoding, GPS
// coordinate conversion, and synthesis of minimal EXIF blocks for
// re-injection.
package exif

import (
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
)

// TIFF value types.
const (
	TypeByte      = 1
	TypeASCII     = 2
	TypeShort     = 3
	TypeLong      = 4
	TypeRational  = 5
	TypeSByte     = 6
	TypeUndefined = 7
	TypeSShort    = 8
	TypeSLong     = 9
	TypeSRational = 10
	TypeFloat     = 11
	TypeDouble    = 12
)

// typeSizes maps a TIFF type to its per-element byte size. Index 0 is
// unused; unknown types fall back to size 1 so count arithmetic stays sane.
var typeSizes = [13]int{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

// TypeSize returns the per-element byte size of a TIFF value type.
func TypeSize(typ uint16) int {
	if int(typ) < len(typeSizes) && typeSizes[typ] > 0 {
		return typeSizes[typ]
	}
	return 1
}

// MaxIFDEntries caps the entry count read from a file. Real IFDs stay far
// below this; corrupt counts must not drive the parser across the buffer.
const MaxIFDEntries = 512

// EntrySize is the fixed byte size of one IFD entry.
const EntrySize = 12

// HeaderSize is the byte size of a TIFF header (order mark, magic, IFD0
// offset).
const HeaderSize = 8

// Entry is one 12-byte IFD entry: tag, type, count, and a 4-byte field
// holding either the value itself or an offset to it.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	// ValueOrOffset is the raw 4-byte field decoded in the IFD's byte
	// order. Whether it is a value or an offset depends on Inline.
	ValueOrOffset uint32
	// Offset is where this entry's 12 bytes sit in the parsed buffer.
	Offset int
}

// ByteSize returns count × element size for the entry's value.
func (e Entry) ByteSize() int {
	return TypeSize(e.Type) * int(e.Count)
}

// Inline reports whether the value is stored inside the entry's 4-byte
// field rather than at an offset. This is the load-bearing TIFF invariant:
// values of 4 bytes or fewer are always inline.
func (e Entry) Inline() bool {
	return e.ByteSize() <= 4
}

// IFD is one parsed Image File Directory: its entries in file order, the
// offset of the next IFD (zero means terminal), and the byte order it was
// read with.
type IFD struct {
	Entries      []Entry
	NextOffset   uint32
	LittleEndian bool
	// Offset is where the IFD's entry count sits in the parsed buffer.
	Offset int
}

// Find returns the first entry with the given tag, or false.
func (d *IFD) Find(tag uint16) (Entry, bool) {
	for _, e := range d.Entries {
		if e.Tag == tag {
			return e, true
		}
	}
	return Entry{}, false
}

// ParseIFD reads the IFD at off. Truncated input degrades gracefully: the
// entries parsed before the truncation point are returned and NextOffset is
// zero. This model is shared with read-only inspection, where a partial
// directory beats a hard failure.
func ParseIFD(buf []byte, off int, littleEndian bool) *IFD {
	d := &IFD{LittleEndian: littleEndian, Offset: off}

	count, err := bytecursor.ReadU16(buf, off, littleEndian)
	if err != nil {
		return d
	}
	if count > MaxIFDEntries {
		count = MaxIFDEntries
	}

	for i := 0; i < int(count); i++ {
		entryOff := off + 2 + i*EntrySize
		tag, err := bytecursor.ReadU16(buf, entryOff, littleEndian)
		if err != nil {
			return d
		}
		typ, err := bytecursor.ReadU16(buf, entryOff+2, littleEndian)
		if err != nil {
			return d
		}
		cnt, err := bytecursor.ReadU32(buf, entryOff+4, littleEndian)
		if err != nil {
			return d
		}
		vo, err := bytecursor.ReadU32(buf, entryOff+8, littleEndian)
		if err != nil {
			return d
		}
		d.Entries = append(d.Entries, Entry{
			Tag:           tag,
			Type:          typ,
			Count:         cnt,
			ValueOrOffset: vo,
			Offset:        entryOff,
		})
	}

	next, err := bytecursor.ReadU32(buf, off+2+int(count)*EntrySize, littleEndian)
	if err == nil {
		d.NextOffset = next
	}
	return d
}

// ParseHeader validates a TIFF header and returns the byte order and IFD0
// offset. ok is false when the order mark or magic is wrong.
func ParseHeader(buf []byte) (littleEndian bool, ifd0 uint32, ok bool) {
	switch {
	case bytecursor.StartsWith(buf, []byte{'I', 'I', 0x2A, 0x00}):
		littleEndian = true
	case bytecursor.StartsWith(buf, []byte{'M', 'M', 0x00, 0x2A}):
		littleEndian = false
	default:
		return false, 0, false
	}
	off, err := bytecursor.ReadU32(buf, 4, littleEndian)
	if err != nil {
		return false, 0, false
	}
	return littleEndian, off, true
}
