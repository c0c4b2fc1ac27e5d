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
	"github.com/James-HoneyBadger/HB-Scrub/pkg/bytecursor"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

// VideoWalker implements walker.Handler for MP4 and QuickTime movies.
// A fixed set of metadata atoms, found anywhere in the tree (typically
// under moov/udta or moov/meta/ilst), has its content zeroed in place;
// atoms themselves stay so stco/co64 chunk offsets remain valid.
// Creation and modification timestamps in mvhd are zeroed as well.
type VideoWalker struct {
	// Format is MP4 or MOV, used in diagnostics.
	Format format.Format
}

// NewVideo returns a walker for an MP4/QuickTime flavor.
func NewVideo(f format.Format) *VideoWalker { return &VideoWalker{Format: f} }

// videoAtomFields maps metadata atom types to the field each carries.
// The \xa9 prefix is the QuickTime copyright glyph used by udta/ilst tags.
var videoAtomFields = map[string]policy.Field{
	"\xa9xyz": policy.FieldGPS,
	"\xa9mak": policy.FieldMake,
	"\xa9mod": policy.FieldModel,
	"\xa9swr": policy.FieldSoftware,
	"\xa9too": policy.FieldSoftware,
	"\xa9day": policy.FieldDateTime,
	"\xa9cpy": policy.FieldCopyright,
	"\xa9ART": policy.FieldArtist,
	"\xa9nam": policy.FieldTitle,
	"\xa9cmt": policy.FieldComment,
	"\xa9des": policy.FieldDescription,
	"XMP_":    policy.FieldXMP,
	"uuid":    policy.FieldXMP,
}

// videoSpans locates the content spans of the metadata atoms and the mvhd
// timestamp fields, each tagged with a field. mvhd timestamps are reported
// under FieldDateTime.
func (w *VideoWalker) videoSpans(data []byte) ([]taggedSpan, error) {
	var spans []taggedSpan

	err := walkBoxes(w.Format, data, 0, len(data), 0, func(b box, _ int) bool {
		if f, ok := videoAtomFields[b.typ]; ok {
			if b.end > b.contentStart {
				spans = append(spans, taggedSpan{
					extent: extent{offset: uint64(b.contentStart), length: uint64(b.end - b.contentStart)},
					field:  f,
				})
			}
			return false
		}
		switch b.typ {
		case "mvhd":
			for _, ts := range mvhdTimestampSpans(data, b) {
				spans = append(spans, taggedSpan{extent: ts, field: policy.FieldDateTime})
			}
			return false
		case "mdat":
			return false
		}
		return true
	})
	return spans, err
}

// mvhdTimestampSpans returns the creation_time and modification_time spans
// of an mvhd atom. Version 0 packs them as 32-bit values right after the
// version+flags word; version 1 widens them to 64 bits.
func mvhdTimestampSpans(data []byte, b box) []extent {
	version, err := bytecursor.ReadU8(data, b.contentStart)
	if err != nil {
		return nil
	}

	var fieldSize, gap int
	switch version {
	case 0:
		fieldSize, gap = 4, 4
	case 1:
		fieldSize, gap = 8, 8
	default:
		return nil
	}

	creation := b.contentStart + 4
	modification := creation + gap
	if modification+fieldSize > b.end {
		return nil
	}
	return []extent{
		{offset: uint64(creation), length: uint64(fieldSize)},
		{offset: uint64(modification), length: uint64(fieldSize)},
	}
}

// Strip zeroes the content of every metadata atom the policy removes, and
// the mvhd timestamps, on a copy of the input. Output length always equals
// input length.
func (w *VideoWalker) Strip(data []byte, p *policy.Policy) (*walker.Result, error) {
	spans, err := w.videoSpans(data)
	if err != nil {
		return nil, err
	}

	out := append([]byte{}, data...)
	var candidates []policy.Field
	for _, s := range spans {
		if p.ShouldKeep(s.field) {
			continue
		}
		end := s.offset + s.length
		if end > uint64(len(out)) {
			continue
		}
		alreadyZero := true
		for j := s.offset; j < end; j++ {
			if out[j] != 0 {
				alreadyZero = false
			}
			out[j] = 0
		}
		if !alreadyZero {
			candidates = append(candidates, s.field)
		}
	}

	return &walker.Result{Data: out, Removed: p.Removed(candidates)}, nil
}

// Inspect lists the metadata fields present, best-effort on corruption.
func (w *VideoWalker) Inspect(data []byte) []policy.Field {
	spans, _ := w.videoSpans(data)
	var fields []policy.Field
	for _, s := range spans {
		fields = append(fields, s.field)
	}
	return policy.Dedup(fields)
}
