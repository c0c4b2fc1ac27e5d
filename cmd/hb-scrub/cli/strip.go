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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/James-HoneyBadger/HB-Scrub/cmd/hb-scrub/cli/options"
	"github.com/James-HoneyBadger/HB-Scrub/internal/batch"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/config"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/report"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/scrub"
)

// Strip builds the strip command.
func Strip() *cobra.Command {
	pf := &options.PolicyFlags{}
	of := &options.OutputFlags{}

	cmd := &cobra.Command{
		Use:   "strip [OPTIONS] PATH...",
		Short: "Strip metadata from files.",
		Long: `Strip metadata from files.

    Each PATH is a file or a directory to scan recursively. Cleaned files
    are written next to the originals with the --suffix name, or over the
    originals with --in-place. A single "-" reads one file from stdin and
    writes the cleaned bytes to stdout.

    By default every metadata field is removed. The --keep-* flags, the
    --keep/--remove field lists and the --gps level narrow that down; the
    --inject-* values are written into the cleaned output as a minimal
    EXIF block.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := options.ScrubConfig(pf, of)
			if err != nil {
				return err
			}
			obs := ro.NewObservability()

			ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
			defer cancel()

			if len(args) == 1 && args[0] == "-" {
				return stripStdin(cfg)
			}

			records, err := batch.New(cfg, obs.Logger).Run(ctx, args)
			if err != nil {
				return err
			}
			if of.Report != "" {
				if err := writeReport(of.Report, records); err != nil {
					return err
				}
			}

			failures := 0
			for _, rec := range records {
				if rec.Error != "" {
					failures++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scrubbed %d file(s), %d failed\n", len(records)-failures, failures)
			if failures > 0 {
				return fmt.Errorf("%d file(s) could not be scrubbed", failures)
			}
			return nil
		},
	}

	options.AddAllFlags(cmd, pf, of)
	return cmd
}

// stripStdin scrubs a single file from stdin to stdout.
func stripStdin(cfg *config.ScrubConfig) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	p, err := cfg.Policy()
	if err != nil {
		return err
	}
	out, err := scrub.Strip(data, p)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out.Data)
	return err
}

// writeReport serializes batch records as a JSON array.
func writeReport(path string, records []report.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
