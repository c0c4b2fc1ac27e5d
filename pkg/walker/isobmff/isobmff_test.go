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

package isobmff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
)

// mkBox wraps payload in a 32-bit-size box.
func mkBox(typ string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(out, uint32(8+len(payload)))
	copy(out[4:], typ)
	return append(out, payload...)
}

// fullBox prefixes a version+flags word.
func fullBox(typ string, version byte, payload []byte) []byte {
	return mkBox(typ, append([]byte{version, 0, 0, 0}, payload...))
}

func u16be(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

func u32be(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

// infeV2 builds a version-2 item info entry.
func infeV2(id uint16, itemType string) []byte {
	payload := append(u16be(id), 0, 0) // item ID, protection index
	payload = append(payload, []byte(itemType)...)
	payload = append(payload, 0) // empty item name
	return fullBox("infe", 2, payload)
}

// ilocV0 builds a version-0 item location box with a single extent for one
// item, using 4-byte offsets and lengths and no base offset.
func ilocV0(id uint16, offset, length uint32) []byte {
	payload := []byte{0x44, 0x00} // offset/length size 4, base offset size 0
	payload = append(payload, u16be(1)...)
	payload = append(payload, u16be(id)...)
	payload = append(payload, u16be(0)...) // data reference index
	payload = append(payload, u16be(1)...) // extent count
	payload = append(payload, u32be(offset)...)
	payload = append(payload, u32be(length)...)
	return fullBox("iloc", 0, payload)
}

// buildHEIC assembles ftyp + meta(iinf, iloc) + mdat carrying one EXIF item.
// Returns the file and the absolute offset of the EXIF payload.
func buildHEIC(t *testing.T, exifPayload []byte) ([]byte, int) {
	t.Helper()

	ftyp := mkBox("ftyp", append([]byte("heic"), append(u32be(0), []byte("mif1heic")...)...))

	iinf := fullBox("iinf", 0, append(u16be(1), infeV2(1, "Exif")...))

	// The iloc extent offset depends on the total size of everything
	// before the mdat payload, and the iloc box itself has fixed size.
	ilocSize := len(ilocV0(1, 0, 0))
	metaPayload := len(iinf) + ilocSize
	metaSize := 8 + 4 + metaPayload
	exifOffset := len(ftyp) + metaSize + 8 // mdat header

	iloc := ilocV0(1, uint32(exifOffset), uint32(len(exifPayload)))
	meta := fullBox("meta", 0, append(iinf, iloc...))
	mdat := mkBox("mdat", exifPayload)

	file := append(append(ftyp, meta...), mdat...)
	if !bytes.Equal(file[exifOffset:exifOffset+len(exifPayload)], exifPayload) {
		t.Fatalf("fixture arithmetic wrong: payload not at offset %d", exifOffset)
	}
	return file, exifOffset
}

func TestHeifStripZeroesExifExtent(t *testing.T) {
	payload := []byte("Exif\x00\x00II*\x00\x08\x00\x00\x00\x00\x00")
	src, off := buildHEIC(t, payload)

	res, err := NewHeif(format.HEIC).Strip(src, policy.Default())
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if len(res.Data) != len(src) {
		t.Fatalf("length changed: %d -> %d", len(src), len(res.Data))
	}
	for i := off; i < off+len(payload); i++ {
		if res.Data[i] != 0 {
			t.Fatalf("byte %d not zeroed: 0x%02X", i, res.Data[i])
		}
	}
	// Everything outside the extent is untouched.
	if !bytes.Equal(res.Data[:off], src[:off]) {
		t.Fatal("bytes before the extent changed")
	}
	if len(res.Removed) != 1 || res.Removed[0] != policy.FieldEXIF {
		t.Fatalf("Removed = %v, want [EXIF]", res.Removed)
	}
}

func TestHeifKeepPolicyLeavesExtent(t *testing.T) {
	payload := []byte("Exif\x00\x00II*\x00\x08\x00\x00\x00\x00\x00")
	src, _ := buildHEIC(t, payload)

	p, err := policy.Resolve(policy.Options{Keep: []string{"exif"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	res, err := NewHeif(format.HEIC).Strip(src, p)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if !bytes.Equal(res.Data, src) {
		t.Fatal("kept EXIF was modified")
	}
	if len(res.Removed) != 0 {
		t.Fatalf("Removed = %v, want none", res.Removed)
	}
}

func TestHeifInspect(t *testing.T) {
	src, _ := buildHEIC(t, []byte("Exif\x00\x00II*\x00"))
	fields := NewHeif(format.HEIC).Inspect(src)
	if len(fields) != 1 || fields[0] != policy.FieldEXIF {
		t.Fatalf("Inspect = %v, want [EXIF]", fields)
	}
}

func TestHeifStripIdempotent(t *testing.T) {
	src, _ := buildHEIC(t, []byte("Exif\x00\x00II*\x00\x08\x00\x00\x00"))
	w := NewHeif(format.HEIC)

	first, err := w.Strip(src, policy.Default())
	if err != nil {
		t.Fatalf("first Strip: %v", err)
	}
	second, err := w.Strip(first.Data, policy.Default())
	if err != nil {
		t.Fatalf("second Strip: %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatal("second strip changed bytes")
	}
	if len(second.Removed) != 0 {
		t.Fatalf("second strip reported removals: %v", second.Removed)
	}
}

// mvhdV0 builds a minimal version-0 mvhd with nonzero timestamps.
func mvhdV0() []byte {
	payload := append(u32be(0xD0000000), u32be(0xD0000001)...) // creation, modification
	payload = append(payload, u32be(600)...)                   // timescale
	payload = append(payload, u32be(1200)...)                  // duration
	return fullBox("mvhd", 0, payload)
}

func mvhdV1() []byte {
	var payload []byte
	payload = append(payload, u32be(0)...)
	payload = append(payload, u32be(0xD0000000)...) // creation (64-bit)
	payload = append(payload, u32be(0)...)
	payload = append(payload, u32be(0xD0000001)...) // modification (64-bit)
	payload = append(payload, u32be(600)...)        // timescale
	payload = append(payload, u32be(0)...)
	payload = append(payload, u32be(1200)...) // duration (64-bit)
	return fullBox("mvhd", 1, payload)
}

func gpsAtom() []byte {
	return mkBox("\xa9xyz", []byte("+48.85+002.35/"))
}

func buildMP4(mvhd []byte, udtaChildren ...[]byte) []byte {
	ftyp := mkBox("ftyp", append([]byte("isom"), append(u32be(0x200), []byte("isomiso2")...)...))
	var udtaPayload []byte
	for _, c := range udtaChildren {
		udtaPayload = append(udtaPayload, c...)
	}
	moovPayload := append(append([]byte{}, mvhd...), mkBox("udta", udtaPayload)...)
	moov := mkBox("moov", moovPayload)
	mdat := mkBox("mdat", []byte{0xDE, 0xAD, 0xBE, 0xEF})
	return append(append(ftyp, moov...), mdat...)
}

func TestVideoStripZeroesAtomsAndTimestamps(t *testing.T) {
	src := buildMP4(mvhdV0(), gpsAtom(), mkBox("\xa9too", []byte("Lavf58")))

	res, err := NewVideo(format.MP4).Strip(src, policy.Default())
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if len(res.Data) != len(src) {
		t.Fatalf("length changed: %d -> %d", len(src), len(res.Data))
	}
	if bytes.Contains(res.Data, []byte("+48.85")) {
		t.Fatal("GPS coordinate survived")
	}
	if bytes.Contains(res.Data, []byte("Lavf58")) {
		t.Fatal("encoder tag survived")
	}
	if bytes.Contains(res.Data, u32be(0xD0000000)) || bytes.Contains(res.Data, u32be(0xD0000001)) {
		t.Fatal("mvhd timestamps survived")
	}
	// Atom headers stay so offsets remain valid.
	if !bytes.Contains(res.Data, []byte("\xa9xyz")) || !bytes.Contains(res.Data, []byte("mvhd")) {
		t.Fatal("atom headers were removed")
	}
	// Timescale and duration are untouched.
	if !bytes.Contains(res.Data, u32be(600)) || !bytes.Contains(res.Data, u32be(1200)) {
		t.Fatal("mvhd timescale or duration damaged")
	}

	want := map[policy.Field]bool{policy.FieldGPS: true, policy.FieldSoftware: true, policy.FieldDateTime: true}
	if len(res.Removed) != len(want) {
		t.Fatalf("Removed = %v", res.Removed)
	}
	for _, f := range res.Removed {
		if !want[f] {
			t.Fatalf("unexpected removed field %q", f)
		}
	}
}

func TestVideoMvhdVersion1Timestamps(t *testing.T) {
	src := buildMP4(mvhdV1())

	res, err := NewVideo(format.MOV).Strip(src, policy.Default())
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if bytes.Contains(res.Data, u32be(0xD0000000)) || bytes.Contains(res.Data, u32be(0xD0000001)) {
		t.Fatal("64-bit mvhd timestamps survived")
	}
	if !bytes.Contains(res.Data, u32be(600)) || !bytes.Contains(res.Data, u32be(1200)) {
		t.Fatal("mvhd timescale or duration damaged")
	}
}

func TestVideoInspect(t *testing.T) {
	src := buildMP4(mvhdV0(), gpsAtom())
	fields := NewVideo(format.MP4).Inspect(src)

	seen := map[policy.Field]bool{}
	for _, f := range fields {
		seen[f] = true
	}
	if !seen[policy.FieldGPS] || !seen[policy.FieldDateTime] {
		t.Fatalf("Inspect = %v, want GPS and DateTime", fields)
	}
}

func TestVideoExactGPSKeepsLocation(t *testing.T) {
	src := buildMP4(mvhdV0(), gpsAtom())

	p, err := policy.Resolve(policy.Options{GPS: "exact"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	res, err := NewVideo(format.MP4).Strip(src, p)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	if !bytes.Contains(res.Data, []byte("+48.85+002.35/")) {
		t.Fatal("exact GPS policy still removed the location atom")
	}
}

func TestTruncatedBoxReportsCorruption(t *testing.T) {
	src := buildMP4(mvhdV0(), gpsAtom())
	src = src[:len(src)-2] // cut into the final box

	if _, err := NewVideo(format.MP4).Strip(src, policy.Default()); err == nil {
		t.Fatal("expected corruption error for truncated box")
	}
}
