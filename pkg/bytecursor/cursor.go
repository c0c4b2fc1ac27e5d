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

// Package bytecursor provides bounds-checked binary read/write primitives
// over byte buffers. Every container walker in HB-Scrub funnels its raw
// buffer access through this package, so a truncated or corrupt file always
// surfaces as a BoundsError instead of a panic or a silently short read.
//
// All 32-bit values are treated as unsigned; callers that need signed
// interpretation (TIFF SLONG, SRATIONAL) convert explicitly.
package bytecursor

import (
	"bytes"
	"fmt"
)

// BoundsError reports a read or write that would exceed the buffer.
// Requested is the byte count needed past the start offset; Available is
// how many bytes actually remain.
type BoundsError struct {
	Requested int
	Available int
}

// Error implements the error interface.
func (e *BoundsError) Error() string {
	return fmt.Sprintf("buffer overflow: requested %d bytes, %d available", e.Requested, e.Available)
}

// check validates that width bytes starting at off fit inside buf.
func check(buf []byte, off, width int) error {
	if off < 0 || off+width > len(buf) || off+width < 0 {
		avail := len(buf) - off
		if avail < 0 {
			avail = 0
		}
		return &BoundsError{Requested: width, Available: avail}
	}
	return nil
}

// ReadU8 reads one byte at off.
func ReadU8(buf []byte, off int) (uint8, error) {
	if err := check(buf, off, 1); err != nil {
		return 0, err
	}
	return buf[off], nil
}

// ReadU16 reads a 16-bit unsigned integer at off. When littleEndian is
// false the value is read big-endian.
func ReadU16(buf []byte, off int, littleEndian bool) (uint16, error) {
	if err := check(buf, off, 2); err != nil {
		return 0, err
	}
	if littleEndian {
		return uint16(buf[off]) | uint16(buf[off+1])<<8, nil
	}
	return uint16(buf[off])<<8 | uint16(buf[off+1]), nil
}

// ReadU32 reads a 32-bit unsigned integer at off. Values with the sign bit
// set decode unchanged; no sign extension ever happens here.
func ReadU32(buf []byte, off int, littleEndian bool) (uint32, error) {
	if err := check(buf, off, 4); err != nil {
		return 0, err
	}
	if littleEndian {
		return uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24, nil
	}
	return uint32(buf[off])<<24 | uint32(buf[off+1])<<16 | uint32(buf[off+2])<<8 | uint32(buf[off+3]), nil
}

// ReadU64 reads a 64-bit unsigned integer at off. Used by the ISOBMFF
// walker for extended box sizes; always big-endian in that format, but the
// endianness parameter is kept for symmetry.
func ReadU64(buf []byte, off int, littleEndian bool) (uint64, error) {
	if err := check(buf, off, 8); err != nil {
		return 0, err
	}
	var v uint64
	if littleEndian {
		for i := 7; i >= 0; i-- {
			v = v<<8 | uint64(buf[off+i])
		}
	} else {
		for i := 0; i < 8; i++ {
			v = v<<8 | uint64(buf[off+i])
		}
	}
	return v, nil
}

// WriteU16 writes a 16-bit unsigned integer at off.
func WriteU16(buf []byte, off int, v uint16, littleEndian bool) error {
	if err := check(buf, off, 2); err != nil {
		return err
	}
	if littleEndian {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
	} else {
		buf[off] = byte(v >> 8)
		buf[off+1] = byte(v)
	}
	return nil
}

// WriteU32 writes a 32-bit unsigned integer at off.
func WriteU32(buf []byte, off int, v uint32, littleEndian bool) error {
	if err := check(buf, off, 4); err != nil {
		return err
	}
	if littleEndian {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	} else {
		buf[off] = byte(v >> 24)
		buf[off+1] = byte(v >> 16)
		buf[off+2] = byte(v >> 8)
		buf[off+3] = byte(v)
	}
	return nil
}

// StartsWith reports whether buf begins with prefix.
func StartsWith(buf, prefix []byte) bool {
	return len(buf) >= len(prefix) && bytes.Equal(buf[:len(prefix)], prefix)
}

// MatchAt reports whether pattern occurs in buf at exactly off.
func MatchAt(buf []byte, off int, pattern []byte) bool {
	if off < 0 || off+len(pattern) > len(buf) {
		return false
	}
	return bytes.Equal(buf[off:off+len(pattern)], pattern)
}

// IndexOf returns the offset of the first occurrence of pattern in buf at
// or after from, or -1 when absent.
func IndexOf(buf, pattern []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(buf) {
		return -1
	}
	i := bytes.Index(buf[from:], pattern)
	if i < 0 {
		return -1
	}
	return from + i
}

// LastIndexOf returns the offset of the last occurrence of pattern in
// buf[:before], or -1 when absent. Used by the RAW preview locator's
// backward EOI-anchored scan.
func LastIndexOf(buf, pattern []byte, before int) int {
	if before > len(buf) {
		before = len(buf)
	}
	if before < 0 {
		return -1
	}
	return bytes.LastIndex(buf[:before], pattern)
}

// ASCII decodes n bytes at off as an ASCII string. Bytes outside the
// printable range come through unmodified; the caller decides how strict to
// be. A bounds violation returns the usual BoundsError.
func ASCII(buf []byte, off, n int) (string, error) {
	if err := check(buf, off, n); err != nil {
		return "", err
	}
	return string(buf[off : off+n]), nil
}

// TrimNUL strips a single trailing NUL and anything after it, matching how
// TIFF ASCII values are terminated.
func TrimNUL(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return s[:i]
		}
	}
	return s
}
