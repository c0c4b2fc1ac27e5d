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

// Package batch runs the scrub core over files and directories with a
// bounded worker pool. Each file is an independent unit of work on its own
// private buffer, so workers never share mutable state.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/config"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/logging"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/report"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/scrub"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/tracing"
)

// Runner scrubs a set of paths with a fixed worker pool.
type Runner struct {
	cfg *config.ScrubConfig
	log logging.Logger
}

// New creates a batch runner. A nil logger falls back to the default.
func New(cfg *config.ScrubConfig, log logging.Logger) *Runner {
	return &Runner{cfg: cfg, log: logging.EnsureLogger(log)}
}

// expand resolves the given paths into a sorted list of regular files,
// walking directories recursively.
func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath computes where a scrubbed file is written: in place, or a
// sibling with the configured suffix before the extension. When the scrub
// changed the container (RAW preview extraction) the extension becomes
// .jpg regardless.
func OutputPath(cfg *config.ScrubConfig, in string, outputFormat format.Format) string {
	ext := filepath.Ext(in)
	if outputFormat == format.JPEG {
		ext = ".jpg"
	}
	if cfg.InPlace() && outputFormat == format.Unknown {
		return in
	}
	base := strings.TrimSuffix(in, filepath.Ext(in))
	if cfg.InPlace() {
		return base + ext
	}
	return base + cfg.Suffix() + ext
}

// Run scrubs every file under the given paths and returns one audit record
// per file, in input order. Per-file failures become error records instead
// of aborting the batch; only setup failures (unreadable root paths, an
// invalid policy) return an error.
func (r *Runner) Run(ctx context.Context, paths []string) ([]report.Record, error) {
	p, err := r.cfg.Policy()
	if err != nil {
		return nil, err
	}
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}

	records := make([]report.Record, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = r.scrubFile(ctx, files[i], p)
			}
		}()
	}

	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return records, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()
	return records, nil
}

// scrubFile processes one file: read, strip, write, record.
func (r *Runner) scrubFile(ctx context.Context, path string, p *policy.Policy) report.Record {
	var rec report.Record
	err := tracing.Run(ctx, "scrub.file", map[string]interface{}{"path": path}, func(ctx context.Context) error {
		data, err := os.ReadFile(path)
		if err != nil {
			rec = report.FromError(path, nil, err)
			return nil
		}

		out, err := scrub.Strip(data, p)
		if err != nil {
			r.log.Warn("skipping %s: %v", path, err)
			rec = report.FromError(path, data, err)
			return nil
		}

		dest := OutputPath(r.cfg, path, out.OutputFormat)
		if err := os.WriteFile(dest, out.Data, 0o600); err != nil {
			rec = report.FromError(path, data, err)
			return nil
		}

		r.log.Info("scrubbed %s -> %s (%d fields removed)", path, dest, len(out.Removed))
		rec = report.FromOutcome(path, data, out)
		return nil
	})
	if err != nil {
		rec = report.FromError(path, nil, err)
	}
	return rec
}
