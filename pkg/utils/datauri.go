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

// Package utils holds input normalization helpers shared by the CLI and
// the HTTP server.
package utils

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/scrub"
)

// ParseDataURL decodes an RFC 2397 data URL into its raw bytes and media
// type. Both base64 and percent-encoded payloads are accepted. A malformed
// string yields an InvalidInputError, never a partial decode.
func ParseDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", &scrub.InvalidInputError{Msg: "not a data URL: missing data: scheme"}
	}

	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return nil, "", &scrub.InvalidInputError{Msg: "not a data URL: missing comma separator"}
	}

	mediaType := "text/plain"
	isBase64 := false
	for i, part := range strings.Split(meta, ";") {
		switch {
		case part == "base64":
			isBase64 = true
		case i == 0 && part != "":
			mediaType = part
		}
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", &scrub.InvalidInputError{Msg: "invalid base64 payload in data URL: " + err.Error()}
		}
		return data, mediaType, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", &scrub.InvalidInputError{Msg: "invalid percent encoding in data URL: " + err.Error()}
	}
	return []byte(decoded), mediaType, nil
}
