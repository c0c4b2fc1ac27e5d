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

// Package walker defines the interface every per-format container walker
// implements, the result they produce, and the corruption error they raise.
// Rebuilding walkers (JPEG, PNG, WebP, GIF) return a freshly assembled
// buffer; zeroing walkers (TIFF, ISOBMFF, PDF) return a same-length copy
// with metadata extents overwritten, because sibling blocks hold byte
// offsets into the zeroed regions.
package walker

import (
	"fmt"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
)

// Result is the output of one strip pass.
type Result struct {
	// Data is the cleaned buffer. Zeroing walkers keep len(Data) equal to
	// the input length.
	Data []byte
	// Removed lists the metadata fields that were actually stripped,
	// already filtered against the policy's preserved fields.
	Removed []policy.Field
	// OutputFormat is set only when the output container differs from the
	// input, which happens solely on the RAW preview-extraction path.
	OutputFormat format.Format
}

// Handler is one per-format container walker. Strip surfaces corruption as
// an error; Inspect is best-effort and degrades to a partial or empty list
// instead of failing, because a report of what is present is more useful
// than a hard error when nothing is being modified.
type Handler interface {
	Strip(data []byte, p *policy.Policy) (*Result, error)
	Inspect(data []byte) []policy.Field
}

// CorruptError reports a structural invariant failure in a container, with
// the byte offset where it was detected (-1 when unknown).
type CorruptError struct {
	Format format.Format
	Msg    string
	Offset int
}

// Error implements the error interface.
func (e *CorruptError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("corrupt %s container at offset %d: %s", e.Format, e.Offset, e.Msg)
	}
	return fmt.Sprintf("corrupt %s container: %s", e.Format, e.Msg)
}

// Corrupt builds a CorruptError.
func Corrupt(f format.Format, off int, msg string, args ...any) *CorruptError {
	return &CorruptError{Format: f, Msg: fmt.Sprintf(msg, args...), Offset: off}
}
