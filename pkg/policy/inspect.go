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

package policy

import "github.com/James-HoneyBadger/HB-Scrub/pkg/exif"

// FieldsInTIFFBlock enumerates the metadata fields present in a TIFF/EXIF
// block (byte-order mark onward), walking IFD0, the EXIF sub-IFD, and the
// chained thumbnail IFD. Best effort: malformed structure yields whatever
// was readable, never an error, because this feeds read-only inspection.
func FieldsInTIFFBlock(block []byte) []Field {
	little, off, ok := exif.ParseHeader(block)
	if !ok {
		return nil
	}

	var fields []Field
	ifd0 := exif.ParseIFD(block, int(off), little)
	for _, e := range ifd0.Entries {
		if f := FieldForTag(e.Tag); f != "" {
			fields = append(fields, f)
		}
		if e.Tag == exif.TagExifIFD {
			sub := exif.ParseIFD(block, int(e.ValueOrOffset), little)
			for _, se := range sub.Entries {
				if f := FieldForTag(se.Tag); f != "" {
					fields = append(fields, f)
				}
			}
		}
	}
	if ifd0.NextOffset != 0 {
		fields = append(fields, FieldThumbnail)
	}
	return Dedup(fields)
}
