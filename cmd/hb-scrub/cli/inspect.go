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

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/scrub"
)

// Inspect builds the inspect command.
func Inspect() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [OPTIONS] PATH...",
		Short: "List metadata present in files without modifying them.",
		Long: `List metadata present in files without modifying them.

    Each PATH is a file; "-" reads from stdin. Corrupt files produce a
    best-effort partial listing rather than an error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type listing struct {
				Path   string   `json:"path"`
				Format string   `json:"format"`
				Fields []string `json:"fields"`
				Error  string   `json:"error,omitempty"`
			}

			var listings []listing
			for _, path := range args {
				var data []byte
				var err error
				if path == "-" {
					data, err = io.ReadAll(os.Stdin)
				} else {
					data, err = os.ReadFile(path)
				}
				if err != nil {
					return err
				}

				l := listing{Path: path, Format: format.Detect(data).String(), Fields: []string{}}
				fields, err := scrub.Inspect(data)
				if err != nil {
					l.Error = err.Error()
				} else {
					l.Fields = policy.Strings(fields)
				}
				listings = append(listings, l)
			}

			if asJSON {
				out, err := json.MarshalIndent(listings, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			for _, l := range listings {
				switch {
				case l.Error != "":
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", l.Path, l.Error)
				case len(l.Fields) == 0:
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): no metadata found\n", l.Path, l.Format)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", l.Path, l.Format, strings.Join(l.Fields, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON.")
	return cmd
}
