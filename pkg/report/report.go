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

// Package report serializes scrub outcomes into JSON audit records. Each
// record carries digests of the input and output so an audit trail can
// prove which bytes went in and which came out.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/scrub"
)

// Digests identifies a byte buffer by two independent hashes.
type Digests struct {
	SHA256  string `json:"sha256"`
	BLAKE2b string `json:"blake2b"`
}

// digestsOf computes both digests of data.
func digestsOf(data []byte) Digests {
	sha := sha256.Sum256(data)
	b2b := blake2b.Sum256(data)
	return Digests{
		SHA256:  hex.EncodeToString(sha[:]),
		BLAKE2b: hex.EncodeToString(b2b[:]),
	}
}

// Record is one audit entry for a scrubbed input.
type Record struct {
	// Path is the input's origin: a file path, "-" for stdin, or a
	// client-supplied name on the HTTP path.
	Path string `json:"path,omitempty"`
	// Timestamp is when the scrub completed, RFC 3339 UTC.
	Timestamp string `json:"timestamp"`
	// DetectedFormat is the sniffed input format.
	DetectedFormat string `json:"detected_format"`
	// OutputFormat is set only when the output container differs from the
	// input.
	OutputFormat string `json:"output_format,omitempty"`
	// OriginalLen and CleanedLen are byte counts before and after.
	OriginalLen int `json:"original_len"`
	CleanedLen  int `json:"cleaned_len"`
	// Removed names the stripped metadata fields.
	Removed []string `json:"removed"`
	// Input and Output identify the exact bytes processed and produced.
	Input  Digests `json:"input"`
	Output Digests `json:"output"`
	// Error is set instead of the outcome fields when the scrub failed.
	Error string `json:"error,omitempty"`
}

// FromOutcome builds an audit record for a successful scrub of input.
func FromOutcome(path string, input []byte, out *scrub.Outcome) Record {
	r := Record{
		Path:           path,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		DetectedFormat: out.DetectedFormat.String(),
		OriginalLen:    out.OriginalLen,
		CleanedLen:     out.CleanedLen,
		Removed:        out.Removed,
		Input:          digestsOf(input),
		Output:         digestsOf(out.Data),
	}
	if r.Removed == nil {
		r.Removed = []string{}
	}
	if out.OutputFormat != 0 {
		r.OutputFormat = out.OutputFormat.String()
	}
	return r
}

// FromError builds an audit record for a failed scrub of input.
func FromError(path string, input []byte, err error) Record {
	return Record{
		Path:      path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Removed:   []string{},
		Input:     digestsOf(input),
		Error:     err.Error(),
	}
}

// JSON renders the record as a single JSON object.
func (r Record) JSON() ([]byte, error) {
	return json.Marshal(r)
}
