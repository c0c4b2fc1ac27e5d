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

package bytecursor

import (
	"errors"
	"testing"
)

func TestReadU16BothEndians(t *testing.T) {
	buf := []byte{0x12, 0x34}

	be, err := ReadU16(buf, 0, false)
	if err != nil {
		t.Fatalf("ReadU16 big-endian: %v", err)
	}
	if be != 0x1234 {
		t.Fatalf("ReadU16 big-endian = 0x%04X, want 0x1234", be)
	}

	le, err := ReadU16(buf, 0, true)
	if err != nil {
		t.Fatalf("ReadU16 little-endian: %v", err)
	}
	if le != 0x3412 {
		t.Fatalf("ReadU16 little-endian = 0x%04X, want 0x3412", le)
	}
}

func TestReadU32SignBitSet(t *testing.T) {
	// High bit set must not sign-extend or otherwise mangle the value.
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFE}

	be, err := ReadU32(buf, 0, false)
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if be != 0xFFFFFFFE {
		t.Fatalf("ReadU32 big-endian = 0x%08X, want 0xFFFFFFFE", be)
	}

	le, err := ReadU32(buf, 0, true)
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if le != 0xFEFFFFFF {
		t.Fatalf("ReadU32 little-endian = 0x%08X, want 0xFEFFFFFF", le)
	}
}

func TestReadBeyondEndReturnsBoundsError(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03}

	_, err := ReadU32(buf, 1, false)
	if err == nil {
		t.Fatalf("ReadU32 past end should fail")
	}

	var be *BoundsError
	if !errors.As(err, &be) {
		t.Fatalf("error should be *BoundsError, got %T", err)
	}
	if be.Requested != 4 || be.Available != 2 {
		t.Fatalf("BoundsError = {%d, %d}, want {4, 2}", be.Requested, be.Available)
	}
}

func TestReadNegativeOffset(t *testing.T) {
	if _, err := ReadU16([]byte{1, 2, 3, 4}, -1, false); err == nil {
		t.Fatalf("negative offset should fail")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	buf := make([]byte, 8)

	if err := WriteU32(buf, 0, 0xDEADBEEF, false); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	if err := WriteU32(buf, 4, 0xDEADBEEF, true); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}

	be, _ := ReadU32(buf, 0, false)
	le, _ := ReadU32(buf, 4, true)
	if be != 0xDEADBEEF || le != 0xDEADBEEF {
		t.Fatalf("round trip = 0x%08X / 0x%08X, want 0xDEADBEEF twice", be, le)
	}

	if err := WriteU16(buf, 7, 1, false); err == nil {
		t.Fatalf("WriteU16 past end should fail")
	}
}

func TestSearchHelpers(t *testing.T) {
	buf := []byte("abcExifabcExif")

	if !StartsWith(buf, []byte("abc")) {
		t.Fatalf("StartsWith failed")
	}
	if StartsWith(buf[:2], []byte("abc")) {
		t.Fatalf("StartsWith on short buffer should be false")
	}
	if !MatchAt(buf, 3, []byte("Exif")) {
		t.Fatalf("MatchAt failed")
	}
	if MatchAt(buf, 11, []byte("Exifxxxx")) {
		t.Fatalf("MatchAt past end should be false")
	}

	if got := IndexOf(buf, []byte("Exif"), 0); got != 3 {
		t.Fatalf("IndexOf = %d, want 3", got)
	}
	if got := IndexOf(buf, []byte("Exif"), 4); got != 10 {
		t.Fatalf("IndexOf from 4 = %d, want 10", got)
	}
	if got := IndexOf(buf, []byte("zzz"), 0); got != -1 {
		t.Fatalf("IndexOf missing = %d, want -1", got)
	}
	if got := LastIndexOf(buf, []byte("Exif"), len(buf)); got != 10 {
		t.Fatalf("LastIndexOf = %d, want 10", got)
	}
	if got := LastIndexOf(buf, []byte("Exif"), 7); got != 3 {
		t.Fatalf("LastIndexOf before 7 = %d, want 3", got)
	}
}

func TestTrimNUL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Canon\x00", "Canon"},
		{"Canon\x00garbage", "Canon"},
		{"Canon", "Canon"},
		{"", ""},
	}
	for _, c := range cases {
		if got := TrimNUL(c.in); got != c.want {
			t.Errorf("TrimNUL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
