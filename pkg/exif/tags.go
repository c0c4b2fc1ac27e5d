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

// Baseline TIFF and EXIF tags referenced across the walkers.
const (
	TagImageDescription      = 0x010E
	TagMake                  = 0x010F
	TagModel                 = 0x0110
	TagOrientation           = 0x0112
	TagSoftware              = 0x0131
	TagDateTime              = 0x0132
	TagArtist                = 0x013B
	TagSubIFDs               = 0x014A
	TagJPEGInterchange       = 0x0201
	TagJPEGInterchangeLength = 0x0202
	TagXMP                   = 0x02BC
	TagIPTC                  = 0x83BB
	TagCopyright             = 0x8298
	TagExifIFD               = 0x8769
	TagICCProfile            = 0x8773
	TagGPSIFD                = 0x8825
	TagDateTimeOriginal      = 0x9003
	TagDateTimeDigitized     = 0x9004
	TagMakerNote             = 0x927C
	TagUserComment           = 0x9286
	TagInteropIFD            = 0xA005
	TagDNGVersion            = 0xC612
)

// tagNames maps tag numbers to human labels. Used only for reporting what
// was found or removed, never for policy decisions.
var tagNames = map[uint16]string{
	TagImageDescription:      "ImageDescription",
	TagMake:                  "Make",
	TagModel:                 "Model",
	TagOrientation:           "Orientation",
	TagSoftware:              "Software",
	TagDateTime:              "DateTime",
	TagArtist:                "Artist",
	TagXMP:                   "XMP",
	TagIPTC:                  "IPTC",
	TagCopyright:             "Copyright",
	TagExifIFD:               "EXIF",
	TagICCProfile:            "ICC Profile",
	TagGPSIFD:                "GPS",
	TagDateTimeOriginal:      "DateTimeOriginal",
	TagDateTimeDigitized:     "DateTimeDigitized",
	TagMakerNote:             "MakerNote",
	TagUserComment:           "UserComment",
	TagJPEGInterchange:       "Thumbnail",
	TagJPEGInterchangeLength: "ThumbnailLength",
}

// TagName returns the human label for a tag, or "" when unmapped.
func TagName(tag uint16) string {
	return tagNames[tag]
}
