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

package scrub

import "fmt"

// UnsupportedError means the input's format has no walker, or no magic
// matched at all. Callers must treat it as terminal for that input.
type UnsupportedError struct {
	// Format is the sniffed format name, "unknown" when nothing matched.
	Format string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported format %q", e.Format)
}

// InvalidInputError means the caller supplied bytes or an encoded payload
// the normalizer could not interpret, before any container parsing began.
type InvalidInputError struct {
	Msg string
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	return e.Msg
}
