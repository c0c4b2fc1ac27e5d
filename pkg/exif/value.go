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
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
)

// Rational is TIFF's unsigned numerator/denominator pair.
type Rational struct {
	Num uint32
	Den uint32
}

// Float converts the ratio to a float64. A zero denominator yields 0,
// never a division fault.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// SRational is the signed variant.
type SRational struct {
	Num int32
	Den int32
}

// Float converts the ratio to a float64, with zero denominator as 0.
func (r SRational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// ValueKind discriminates the decoded representations of Value.
type ValueKind int

const (
	// KindNone marks a type DecodeValue does not decode (BYTE, UNDEFINED,
	// FLOAT, ...). The raw bytes are still reachable through ValueSpan.
	KindNone ValueKind = iota
	// KindASCII is a NUL-terminated string.
	KindASCII
	// KindShort is a vector of 16-bit unsigned integers.
	KindShort
	// KindLong is a vector of 32-bit unsigned integers.
	KindLong
	// KindRational is a vector of unsigned ratios.
	KindRational
	// KindSRational is a vector of signed ratios.
	KindSRational
)

// Value is the decoded form of an IFD entry, discriminated by Kind. Only
// the field matching Kind is populated.
type Value struct {
	Kind       ValueKind
	ASCII      string
	Shorts     []uint16
	Longs      []uint32
	Rationals  []Rational
	SRationals []SRational
}

// ValueSpan returns the offset and length of an entry's value bytes within
// buf, resolving the inline-vs-offset storage rule.
func ValueSpan(buf []byte, d *IFD, e Entry) (off, length int, ok bool) {
	length = e.ByteSize()
	if e.Inline() {
		off = e.Offset + 8
	} else {
		off = int(e.ValueOrOffset)
	}
	if off < 0 || off+length > len(buf) {
		return 0, 0, false
	}
	return off, length, true
}

// DecodeValue decodes an entry's value from buf according to its TIFF
// type. ASCII values are trimmed of the trailing NUL. Types with no typed
// representation decode as KindNone.
func DecodeValue(buf []byte, d *IFD, e Entry) (*Value, error) {
	off, length, ok := ValueSpan(buf, d, e)
	if !ok {
		return nil, &bytecursor.BoundsError{Requested: e.ByteSize(), Available: 0}
	}

	le := d.LittleEndian
	switch e.Type {
	case TypeASCII:
		s, err := bytecursor.ASCII(buf, off, length)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: KindASCII, ASCII: bytecursor.TrimNUL(s)}, nil

	case TypeShort, TypeSShort:
		vals := make([]uint16, 0, e.Count)
		for i := 0; i < int(e.Count); i++ {
			v, err := bytecursor.ReadU16(buf, off+i*2, le)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return &Value{Kind: KindShort, Shorts: vals}, nil

	case TypeLong, TypeSLong:
		vals := make([]uint32, 0, e.Count)
		for i := 0; i < int(e.Count); i++ {
			v, err := bytecursor.ReadU32(buf, off+i*4, le)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return &Value{Kind: KindLong, Longs: vals}, nil

	case TypeRational:
		vals := make([]Rational, 0, e.Count)
		for i := 0; i < int(e.Count); i++ {
			num, err := bytecursor.ReadU32(buf, off+i*8, le)
			if err != nil {
				return nil, err
			}
			den, err := bytecursor.ReadU32(buf, off+i*8+4, le)
			if err != nil {
				return nil, err
			}
			vals = append(vals, Rational{Num: num, Den: den})
		}
		return &Value{Kind: KindRational, Rationals: vals}, nil

	case TypeSRational:
		vals := make([]SRational, 0, e.Count)
		for i := 0; i < int(e.Count); i++ {
			num, err := bytecursor.ReadU32(buf, off+i*8, le)
			if err != nil {
				return nil, err
			}
			den, err := bytecursor.ReadU32(buf, off+i*8+4, le)
			if err != nil {
				return nil, err
			}
			vals = append(vals, SRational{Num: int32(num), Den: int32(den)})
		}
		return &Value{Kind: KindSRational, SRationals: vals}, nil
	}

	return &Value{Kind: KindNone}, nil
}

// ASCIIValue decodes an entry as a string, returning "" on any failure.
func ASCIIValue(buf []byte, d *IFD, e Entry) string {
	v, err := DecodeValue(buf, d, e)
	if err != nil || v.Kind != KindASCII {
		return ""
	}
	return v.ASCII
}

// ShortValue decodes the first SHORT of an entry, returning 0 on failure.
func ShortValue(buf []byte, d *IFD, e Entry) uint16 {
	v, err := DecodeValue(buf, d, e)
	if err != nil || v.Kind != KindShort || len(v.Shorts) == 0 {
		return 0
	}
	return v.Shorts[0]
}

// LongValue decodes the first LONG of an entry. SHORT entries are widened,
// since offset-bearing tags (preview pointers) appear as either type in the
// wild. Returns 0 on failure.
func LongValue(buf []byte, d *IFD, e Entry) uint32 {
	v, err := DecodeValue(buf, d, e)
	if err != nil {
		return 0
	}
	switch v.Kind {
	case KindLong:
		if len(v.Longs) > 0 {
			return v.Longs[0]
		}
	case KindShort:
		if len(v.Shorts) > 0 {
			return uint32(v.Shorts[0])
		}
	}
	return 0
}
