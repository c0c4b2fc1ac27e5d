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

// Package policy implements the removal-policy engine: which metadata
// fields to keep, strip, zero, or regenerate, GPS precision redaction, and
// the minimal-EXIF payload re-injected into cleaned output.
package policy

import (
	"fmt"
	"strings"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/exif"
)

// GPSRedaction selects how much positional precision survives a strip.
type GPSRedaction int

const (
	// GPSRemove strips the position entirely. This is the default.
	GPSRemove GPSRedaction = iota
	// GPSExact leaves GPS under normal field policy, no special redaction.
	GPSExact
	// GPSCity truncates to two decimal digits (~1 km).
	GPSCity
	// GPSRegion truncates to one decimal digit (~11 km).
	GPSRegion
	// GPSCountry truncates to zero decimal digits (~111 km).
	GPSCountry
)

// String returns the flag spelling of a redaction level.
func (g GPSRedaction) String() string {
	switch g {
	case GPSExact:
		return "exact"
	case GPSCity:
		return "city"
	case GPSRegion:
		return "region"
	case GPSCountry:
		return "country"
	default:
		return "remove"
	}
}

// Decimals returns the decimal-digit count for truncating levels. ok is
// false for Exact and Remove, which do not truncate.
func (g GPSRedaction) Decimals() (int, bool) {
	switch g {
	case GPSCity:
		return 2, true
	case GPSRegion:
		return 1, true
	case GPSCountry:
		return 0, true
	}
	return 0, false
}

// ParseGPSRedaction parses a flag value into a redaction level.
func ParseGPSRedaction(s string) (GPSRedaction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remove":
		return GPSRemove, nil
	case "exact":
		return GPSExact, nil
	case "city":
		return GPSCity, nil
	case "region":
		return GPSRegion, nil
	case "country":
		return GPSCountry, nil
	}
	return GPSRemove, fmt.Errorf("invalid gps redaction level %q (want exact, city, region, country or remove)", s)
}

// Injection holds field values written into the cleaned output as a
// synthetic EXIF block. Empty strings are omitted.
type Injection struct {
	Copyright   string
	Software    string
	Artist      string
	Description string
	DateTime    string
}

// Empty reports whether nothing is injected.
func (i Injection) Empty() bool {
	return i == Injection{}
}

// Options is the raw, unresolved configuration a caller assembles from
// flags or query parameters.
type Options struct {
	KeepOrientation  bool
	KeepColorProfile bool
	KeepCopyright    bool
	KeepTitle        bool
	KeepDescription  bool

	// Remove restricts stripping to only these fields.
	Remove []string
	// Keep always preserves these fields, overriding Remove.
	Keep []string

	// GPS is the redaction level flag value.
	GPS string

	Inject Injection
}

// Policy is the resolved removal policy. Precedence when deciding a field:
// the Keep allowlist wins over the Remove denylist, which wins over the
// five legacy preserve flags; with neither list set, everything is stripped
// except what the legacy flags name.
type Policy struct {
	KeepOrientation  bool
	KeepColorProfile bool
	KeepCopyright    bool
	KeepTitle        bool
	KeepDescription  bool

	Remove []Field
	Keep   []Field

	GPS GPSRedaction

	Inject Injection
}

// Default returns the strip-everything policy.
func Default() *Policy {
	return &Policy{}
}

// Resolve merges raw options into a Policy.
func Resolve(opts Options) (*Policy, error) {
	gps, err := ParseGPSRedaction(opts.GPS)
	if err != nil {
		return nil, err
	}
	return &Policy{
		KeepOrientation:  opts.KeepOrientation,
		KeepColorProfile: opts.KeepColorProfile,
		KeepCopyright:    opts.KeepCopyright,
		KeepTitle:        opts.KeepTitle,
		KeepDescription:  opts.KeepDescription,
		Remove:           Dedup(ParseFields(opts.Remove)),
		Keep:             Dedup(ParseFields(opts.Keep)),
		GPS:              gps,
		Inject:           opts.Inject,
	}, nil
}

func contains(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

// ShouldKeep decides whether a field survives the strip, applying the
// allowlist > denylist > legacy-flags precedence.
func (p *Policy) ShouldKeep(f Field) bool {
	if contains(p.Keep, f) {
		return true
	}
	if len(p.Remove) > 0 {
		return !contains(p.Remove, f)
	}
	switch f {
	case FieldOrientation:
		return p.KeepOrientation
	case FieldICCProfile:
		return p.KeepColorProfile
	case FieldCopyright:
		return p.KeepCopyright
	case FieldTitle:
		return p.KeepTitle
	case FieldDescription:
		return p.KeepDescription
	case FieldGPS:
		return p.GPS == GPSExact
	}
	return false
}

// Removed filters candidates down to the fields the policy actually
// strips, deduplicated, for outcome reporting.
func (p *Policy) Removed(candidates []Field) []Field {
	var out []Field
	for _, f := range Dedup(candidates) {
		if !p.ShouldKeep(f) {
			out = append(out, f)
		}
	}
	return out
}

// BuildReinjection computes the synthetic EXIF block to insert into the
// cleaned output, given the original file's EXIF payload (a TIFF block
// starting at the byte-order mark; nil when the file had none). It covers
// orientation preservation, injected field values, and GPS precision
// redaction — the redacted coordinate always derives from the original
// buffer, never from the stripped one. Returns nil when nothing needs
// re-inserting.
func (p *Policy) BuildReinjection(origEXIF []byte) *exif.MinimalEXIF {
	m := &exif.MinimalEXIF{ASCII: map[uint16]string{}}

	if p.Inject.Copyright != "" {
		m.ASCII[exif.TagCopyright] = p.Inject.Copyright
	}
	if p.Inject.Software != "" {
		m.ASCII[exif.TagSoftware] = p.Inject.Software
	}
	if p.Inject.Artist != "" {
		m.ASCII[exif.TagArtist] = p.Inject.Artist
	}
	if p.Inject.Description != "" {
		m.ASCII[exif.TagImageDescription] = p.Inject.Description
	}
	if p.Inject.DateTime != "" {
		m.ASCII[exif.TagDateTime] = p.Inject.DateTime
	}

	var ifd0 *exif.IFD
	var little bool
	if len(origEXIF) > 0 {
		var off uint32
		var ok bool
		little, off, ok = exif.ParseHeader(origEXIF)
		if ok {
			ifd0 = exif.ParseIFD(origEXIF, int(off), little)
		}
	}

	if ifd0 != nil && p.ShouldKeep(FieldOrientation) {
		if e, ok := ifd0.Find(exif.TagOrientation); ok {
			if v := exif.ShortValue(origEXIF, ifd0, e); v >= 1 && v <= 8 {
				m.Orientation = v
			}
		}
	}

	if decimals, ok := p.GPS.Decimals(); ok && ifd0 != nil {
		if ptr, found := ifd0.Find(exif.TagGPSIFD); found {
			gpsIFD := exif.ParseIFD(origEXIF, int(ptr.ValueOrOffset), little)
			if c, gpsOK := exif.GPSFromIFD(origEXIF, gpsIFD); gpsOK {
				m.GPS = &exif.GPSFields{
					Latitude:  exif.TruncateDegrees(c.Latitude, decimals),
					Longitude: exif.TruncateDegrees(c.Longitude, decimals),
					Decimals:  decimals,
				}
			}
		}
	}

	if m.Empty() {
		return nil
	}
	return m
}
