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

import "math"

// GPS IFD tags.
const (
	TagGPSLatitudeRef  = 0x0001
	TagGPSLatitude     = 0x0002
	TagGPSLongitudeRef = 0x0003
	TagGPSLongitude    = 0x0004
	TagGPSAltitudeRef  = 0x0005
	TagGPSAltitude     = 0x0006
	TagGPSSpeed        = 0x000D
	TagGPSImgDirection = 0x0011
	TagGPSDateStamp    = 0x001D
)

// Coordinate is a GPS position in decimal degrees with the hemisphere sign
// already applied. Optional fields are nil when the GPS IFD does not carry
// them.
type Coordinate struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64
	Speed     *float64
	Direction *float64
	DateStamp string
}

// dmsToDecimal converts a degrees/minutes/seconds RATIONAL triple to
// decimal degrees. Shorter slices use what is there.
func dmsToDecimal(dms []Rational) float64 {
	var v float64
	if len(dms) > 0 {
		v = dms[0].Float()
	}
	if len(dms) > 1 {
		v += dms[1].Float() / 60
	}
	if len(dms) > 2 {
		v += dms[2].Float() / 3600
	}
	return v
}

// GPSFromIFD decodes a GPS sub-IFD into a Coordinate. Both latitude and
// longitude triples must be present; everything else is optional. The S and
// W hemisphere references flip the sign.
func GPSFromIFD(buf []byte, d *IFD) (*Coordinate, bool) {
	latEntry, okLat := d.Find(TagGPSLatitude)
	lonEntry, okLon := d.Find(TagGPSLongitude)
	if !okLat || !okLon {
		return nil, false
	}

	latVal, err := DecodeValue(buf, d, latEntry)
	if err != nil || latVal.Kind != KindRational {
		return nil, false
	}
	lonVal, err := DecodeValue(buf, d, lonEntry)
	if err != nil || lonVal.Kind != KindRational {
		return nil, false
	}

	c := &Coordinate{
		Latitude:  dmsToDecimal(latVal.Rationals),
		Longitude: dmsToDecimal(lonVal.Rationals),
	}

	if e, ok := d.Find(TagGPSLatitudeRef); ok && ASCIIValue(buf, d, e) == "S" {
		c.Latitude = -c.Latitude
	}
	if e, ok := d.Find(TagGPSLongitudeRef); ok && ASCIIValue(buf, d, e) == "W" {
		c.Longitude = -c.Longitude
	}

	if e, ok := d.Find(TagGPSAltitude); ok {
		if v, err := DecodeValue(buf, d, e); err == nil && v.Kind == KindRational && len(v.Rationals) > 0 {
			alt := v.Rationals[0].Float()
			if ref, ok := d.Find(TagGPSAltitudeRef); ok {
				if span, _, spanOK := ValueSpan(buf, d, ref); spanOK && buf[span] == 1 {
					alt = -alt
				}
			}
			c.Altitude = &alt
		}
	}
	if e, ok := d.Find(TagGPSSpeed); ok {
		if v, err := DecodeValue(buf, d, e); err == nil && v.Kind == KindRational && len(v.Rationals) > 0 {
			s := v.Rationals[0].Float()
			c.Speed = &s
		}
	}
	if e, ok := d.Find(TagGPSImgDirection); ok {
		if v, err := DecodeValue(buf, d, e); err == nil && v.Kind == KindRational && len(v.Rationals) > 0 {
			dir := v.Rationals[0].Float()
			c.Direction = &dir
		}
	}
	if e, ok := d.Find(TagGPSDateStamp); ok {
		c.DateStamp = ASCIIValue(buf, d, e)
	}
	return c, true
}

// TruncateDegrees truncates a decimal-degree value toward zero at the
// given number of decimal digits. Truncation, not rounding: 51.509 at two
// digits is 51.50, and -0.19 at zero digits is 0.
func TruncateDegrees(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Trunc(v*p) / p
}
