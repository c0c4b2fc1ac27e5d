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

// Package pdf scrubs document information from PDF files without parsing
// the full object graph. The /Info dictionary's string values are blanked
// with same-length filler and XMP metadata streams are overwritten with
// spaces, so every cross-reference offset in the file stays valid and the
// output length always equals the input length. Encrypted documents are
// returned unmodified: their strings are ciphered and blanking them would
// only corrupt the file.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

// Walker implements walker.Handler for PDF documents.
type Walker struct{}

// New returns a PDF walker.
func New() *Walker { return &Walker{} }

// infoKeyFields maps /Info dictionary keys to reported fields. Values
// under keys outside this table are still blanked, they just carry no
// field of their own.
var infoKeyFields = map[string]policy.Field{
	"Title":        policy.FieldTitle,
	"Author":       policy.FieldArtist,
	"Subject":      policy.FieldDescription,
	"Keywords":     policy.FieldDescription,
	"Creator":      policy.FieldSoftware,
	"Producer":     policy.FieldSoftware,
	"CreationDate": policy.FieldDateTime,
	"ModDate":      policy.FieldDateTime,
}

// encrypted reports whether the document declares an /Encrypt dictionary.
func encrypted(data []byte) bool {
	return bytes.Contains(data, []byte("/Encrypt"))
}

// infoObjectSpan locates the byte range of the document information
// object: the last "/Info N G R" reference names the object, then the
// matching "N G obj" ... "endobj" body is found. Returns ok=false when
// the document has no /Info entry.
func infoObjectSpan(data []byte) (start, end int, ok bool) {
	ref := bytes.LastIndex(data, []byte("/Info"))
	if ref < 0 {
		return 0, 0, false
	}

	num, gen, ok := parseObjectRef(data[ref+len("/Info"):])
	if !ok {
		return 0, 0, false
	}

	header := []byte(fmt.Sprintf("%d %d obj", num, gen))
	start = bytes.Index(data, header)
	if start < 0 {
		return 0, 0, false
	}
	rel := bytes.Index(data[start:], []byte("endobj"))
	if rel < 0 {
		return 0, 0, false
	}
	return start, start + rel, true
}

// parseObjectRef reads "N G R" after an /Info key.
func parseObjectRef(data []byte) (num, gen int, ok bool) {
	i := 0
	skipWS := func() {
		for i < len(data) && (data[i] == ' ' || data[i] == '\r' || data[i] == '\n' || data[i] == '\t') {
			i++
		}
	}
	readInt := func() (int, bool) {
		v, digits := 0, 0
		for i < len(data) && data[i] >= '0' && data[i] <= '9' {
			v = v*10 + int(data[i]-'0')
			i++
			digits++
		}
		return v, digits > 0
	}

	skipWS()
	num, ok = readInt()
	if !ok {
		return 0, 0, false
	}
	skipWS()
	gen, ok = readInt()
	if !ok {
		return 0, 0, false
	}
	skipWS()
	if i >= len(data) || data[i] != 'R' {
		return 0, 0, false
	}
	return num, gen, true
}

// infoValue is one key/value string inside the /Info dictionary: the span
// of the value's content (inside its delimiters), whether it is a hex
// string, and the field the key maps to ("" for unrecognized keys).
type infoValue struct {
	start, end int
	hex        bool
	field      policy.Field
}

// scanInfo walks the /Info object's bytes and pairs each /Key with the
// string value that follows it. Literal strings honor backslash escapes
// and nested parentheses.
func scanInfo(data []byte, start, end int) []infoValue {
	var values []infoValue
	var pending policy.Field

	i := start
	for i < end {
		switch data[i] {
		case '/':
			j := i + 1
			for j < end && isRegular(data[j]) {
				j++
			}
			pending = infoKeyFields[string(data[i+1:j])]
			i = j
		case '(':
			closing, ok := literalEnd(data, i, end)
			if !ok {
				return values
			}
			values = append(values, infoValue{start: i + 1, end: closing, field: pending})
			pending = ""
			i = closing + 1
		case '<':
			if i+1 < end && data[i+1] == '<' {
				i += 2
				continue
			}
			closing := bytes.IndexByte(data[i:end], '>')
			if closing < 0 {
				return values
			}
			values = append(values, infoValue{start: i + 1, end: i + closing, hex: true, field: pending})
			pending = ""
			i += closing + 1
		default:
			i++
		}
	}
	return values
}

// isRegular reports whether b can appear in a PDF name token.
func isRegular(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', '\x00', '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

// literalEnd finds the closing parenthesis of the literal opening at
// open, honoring backslash escapes and nested parentheses.
func literalEnd(data []byte, open, end int) (int, bool) {
	depth := 0
	for i := open; i < end; i++ {
		switch data[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// xmpStreamSpans locates the content spans of XMP metadata streams: each
// /Metadata subtype dictionary is followed by a stream keyword, and the
// content runs to the matching endstream.
func xmpStreamSpans(data []byte) [][2]int {
	var spans [][2]int
	off := 0
	for {
		rel := bytes.Index(data[off:], []byte("/Metadata"))
		if rel < 0 {
			return spans
		}
		at := off + rel
		off = at + len("/Metadata")

		streamRel := bytes.Index(data[at:], []byte("stream"))
		if streamRel < 0 {
			return spans
		}
		contentStart := at + streamRel + len("stream")
		// The stream keyword is followed by CRLF or LF.
		if contentStart < len(data) && data[contentStart] == '\r' {
			contentStart++
		}
		if contentStart < len(data) && data[contentStart] == '\n' {
			contentStart++
		}

		endRel := bytes.Index(data[contentStart:], []byte("endstream"))
		if endRel < 0 {
			return spans
		}
		spans = append(spans, [2]int{contentStart, contentStart + endRel})
		off = contentStart + endRel
	}
}

// Strip blanks /Info string values and XMP streams on a copy of the
// input. An encrypted document is returned byte-for-byte unmodified.
func (w *Walker) Strip(data []byte, p *policy.Policy) (*walker.Result, error) {
	out := append([]byte{}, data...)
	if encrypted(data) {
		return &walker.Result{Data: out}, nil
	}

	var candidates []policy.Field

	if start, end, ok := infoObjectSpan(data); ok {
		for _, v := range scanInfo(data, start, end) {
			if v.field != "" && p.ShouldKeep(v.field) {
				continue
			}
			filler := byte(' ')
			if v.hex {
				filler = '0'
			}
			blanked := false
			for i := v.start; i < v.end; i++ {
				if out[i] != filler {
					blanked = true
				}
				out[i] = filler
			}
			if blanked && v.field != "" {
				candidates = append(candidates, v.field)
			}
		}
	}

	for _, span := range xmpStreamSpans(data) {
		if p.ShouldKeep(policy.FieldXMP) {
			continue
		}
		blanked := false
		for i := span[0]; i < span[1]; i++ {
			if out[i] != ' ' {
				blanked = true
			}
			out[i] = ' '
		}
		if blanked {
			candidates = append(candidates, policy.FieldXMP)
		}
	}

	return &walker.Result{Data: out, Removed: p.Removed(candidates)}, nil
}

// Inspect lists the metadata fields present, best-effort.
func (w *Walker) Inspect(data []byte) []policy.Field {
	var fields []policy.Field
	if start, end, ok := infoObjectSpan(data); ok {
		for _, v := range scanInfo(data, start, end) {
			if v.field != "" {
				fields = append(fields, v.field)
			}
		}
	}
	if len(xmpStreamSpans(data)) > 0 {
		fields = append(fields, policy.FieldXMP)
	}
	return policy.Dedup(fields)
}
