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

import (
	"strings"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/exif"
)

// Field names a kind of metadata, both for reporting what a file contains
// and for driving allow/deny decisions. It is an open enumeration: the
// constants below cover the known kinds, and any other string is carried
// through as-is so format-reported names are never lost.
type Field string

// Known metadata fields.
const (
	FieldGPS         Field = "GPS"
	FieldEXIF        Field = "EXIF"
	FieldXMP         Field = "XMP"
	FieldICCProfile  Field = "ICC Profile"
	FieldIPTC        Field = "IPTC"
	FieldCopyright   Field = "Copyright"
	FieldOrientation Field = "Orientation"
	FieldMake        Field = "Make"
	FieldModel       Field = "Model"
	FieldSoftware    Field = "Software"
	FieldDateTime    Field = "DateTime"
	FieldArtist      Field = "Artist"
	FieldComment     Field = "Comment"
	FieldThumbnail   Field = "Thumbnail"
	FieldTitle       Field = "Title"
	FieldDescription Field = "Description"
)

// fieldAliases maps lowercase spellings accepted from flags and query
// parameters to canonical fields.
var fieldAliases = map[string]Field{
	"gps":         FieldGPS,
	"location":    FieldGPS,
	"exif":        FieldEXIF,
	"xmp":         FieldXMP,
	"icc":         FieldICCProfile,
	"icc profile": FieldICCProfile,
	"icc-profile": FieldICCProfile,
	"iptc":        FieldIPTC,
	"copyright":   FieldCopyright,
	"orientation": FieldOrientation,
	"make":        FieldMake,
	"model":       FieldModel,
	"software":    FieldSoftware,
	"datetime":    FieldDateTime,
	"date":        FieldDateTime,
	"artist":      FieldArtist,
	"author":      FieldArtist,
	"comment":     FieldComment,
	"thumbnail":   FieldThumbnail,
	"title":       FieldTitle,
	"description": FieldDescription,
}

// ParseField normalizes a user-supplied field name. Unrecognized names are
// kept verbatim as open-enumeration values.
func ParseField(s string) Field {
	if f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return Field(strings.TrimSpace(s))
}

// ParseFields maps ParseField over a list, dropping empties.
func ParseFields(names []string) []Field {
	var out []Field
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		out = append(out, ParseField(n))
	}
	return out
}

// FieldForTag maps a TIFF/EXIF tag to the field it reports as. Tags with
// no mapping report under their numeric-tag label, or "" when unnamed.
func FieldForTag(tag uint16) Field {
	switch tag {
	case exif.TagGPSIFD:
		return FieldGPS
	case exif.TagExifIFD:
		return FieldEXIF
	case exif.TagXMP:
		return FieldXMP
	case exif.TagICCProfile:
		return FieldICCProfile
	case exif.TagIPTC:
		return FieldIPTC
	case exif.TagCopyright:
		return FieldCopyright
	case exif.TagOrientation:
		return FieldOrientation
	case exif.TagMake:
		return FieldMake
	case exif.TagModel:
		return FieldModel
	case exif.TagSoftware:
		return FieldSoftware
	case exif.TagDateTime, exif.TagDateTimeOriginal, exif.TagDateTimeDigitized:
		return FieldDateTime
	case exif.TagArtist:
		return FieldArtist
	case exif.TagImageDescription:
		return FieldDescription
	case exif.TagJPEGInterchange, exif.TagJPEGInterchangeLength:
		return FieldThumbnail
	case exif.TagUserComment:
		return FieldComment
	}
	return Field(exif.TagName(tag))
}

// Strings converts a field list to plain strings for reporting.
func Strings(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, string(f))
	}
	return out
}

// Dedup removes duplicates preserving first-seen order.
func Dedup(fields []Field) []Field {
	seen := make(map[Field]bool, len(fields))
	var out []Field
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
