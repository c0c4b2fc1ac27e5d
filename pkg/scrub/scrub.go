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

// Package scrub is the dispatch seam every collaborator calls into: it
// sniffs the format, selects the matching container walker, applies the
// removal policy and assembles the outcome record. It is purely
// synchronous, touches no filesystem or network, and retains no state
// between calls, so callers may run it concurrently on private buffers.
package scrub

import (
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
	gifwalker "github.com/James-HoneyBadger/HB-Scrub/pkg/walker/gif"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker/isobmff"
	jpegwalker "github.com/James-HoneyBadger/HB-Scrub/pkg/walker/jpeg"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker/pdf"
	pngwalker "github.com/James-HoneyBadger/HB-Scrub/pkg/walker/png"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker/rawpreview"
	tiffwalker "github.com/James-HoneyBadger/HB-Scrub/pkg/walker/tiff"
	webpwalker "github.com/James-HoneyBadger/HB-Scrub/pkg/walker/webp"
)

// Outcome is the record one strip pass produces.
type Outcome struct {
	// Data is the cleaned buffer, freshly owned by the caller.
	Data []byte `json:"-"`
	// DetectedFormat is what the sniffer classified the input as.
	DetectedFormat format.Format `json:"detected_format"`
	// OriginalLen and CleanedLen are the byte counts before and after.
	OriginalLen int `json:"original_len"`
	CleanedLen  int `json:"cleaned_len"`
	// Removed names the metadata fields that were stripped.
	Removed []string `json:"removed"`
	// OutputFormat is set only when the output container differs from the
	// input (RAW preview extraction yields a JPEG).
	OutputFormat format.Format `json:"output_format,omitempty"`
}

// handlerFor maps a sniffed format to its walker. The switch is
// deliberately exhaustive over the enum so a new format fails loudly here
// instead of silently falling through to Unsupported.
func handlerFor(f format.Format) walker.Handler {
	switch f {
	case format.JPEG:
		return jpegwalker.New()
	case format.PNG:
		return pngwalker.New()
	case format.WebP:
		return webpwalker.New()
	case format.GIF:
		return gifwalker.New()
	case format.TIFF, format.DNG:
		return tiffwalker.New()
	case format.CR2, format.NEF, format.ARW:
		return rawpreview.New(f)
	case format.HEIC, format.AVIF:
		return isobmff.NewHeif(f)
	case format.MP4, format.MOV:
		return isobmff.NewVideo(f)
	case format.PDF:
		return pdf.New()
	case format.SVG, format.Unknown:
		return nil
	}
	return nil
}

// Strip sniffs data, runs the matching walker with the given policy and
// returns the outcome. The input buffer is never mutated.
func Strip(data []byte, p *policy.Policy) (*Outcome, error) {
	f := format.Detect(data)
	h := handlerFor(f)
	if h == nil {
		return nil, &UnsupportedError{Format: f.String()}
	}
	if p == nil {
		p = policy.Default()
	}

	res, err := h.Strip(data, p)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Data:           res.Data,
		DetectedFormat: f,
		OriginalLen:    len(data),
		CleanedLen:     len(res.Data),
		Removed:        policy.Strings(res.Removed),
		OutputFormat:   res.OutputFormat,
	}, nil
}

// Inspect sniffs data and lists the metadata fields present without
// modifying anything. Unsupported input yields an error; corrupt but
// recognized input yields a best-effort partial list.
func Inspect(data []byte) ([]policy.Field, error) {
	f := format.Detect(data)
	h := handlerFor(f)
	if h == nil {
		return nil, &UnsupportedError{Format: f.String()}
	}
	return h.Inspect(data), nil
}
