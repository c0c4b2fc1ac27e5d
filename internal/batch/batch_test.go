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

package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/config"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/format"
)

// sampleJPEG is a minimal JPEG with a comment segment.
func sampleJPEG() []byte {
	comment := []byte("from my phone")
	out := []byte{0xFF, 0xD8}
	out = append(out, 0xFF, 0xFE, 0x00, byte(len(comment)+2))
	out = append(out, comment...)
	out = append(out, 0xFF, 0xDA, 0x00, 0x04, 0x01, 0x00)
	out = append(out, 0xAA, 0xBB, 0xCC)
	return append(out, 0xFF, 0xD9)
}

func TestOutputPath(t *testing.T) {
	suffix := config.NewScrubConfig()
	inPlace := config.NewScrubConfig().UseOutput("", true)

	cases := []struct {
		cfg    *config.ScrubConfig
		in     string
		outFmt format.Format
		want   string
	}{
		{suffix, "a/photo.jpg", format.Unknown, "a/photo_clean.jpg"},
		{suffix, "shot.nef", format.JPEG, "shot_clean.jpg"},
		{inPlace, "a/photo.jpg", format.Unknown, "a/photo.jpg"},
		{inPlace, "shot.nef", format.JPEG, "shot.jpg"},
		{suffix, "noext", format.Unknown, "noext_clean"},
	}
	for _, c := range cases {
		if got := OutputPath(c.cfg, c.in, c.outFmt); got != c.want {
			t.Errorf("OutputPath(%q, %v) = %q, want %q", c.in, c.outFmt, got, c.want)
		}
	}
}

func TestRunScrubsDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.jpg", "two.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), sampleJPEG(), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	// A non-image file produces an error record, not a batch failure.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewScrubConfig().UseWorkers(2)
	records, err := New(cfg, nil).Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	succeeded, failed := 0, 0
	for _, rec := range records {
		if rec.Error != "" {
			failed++
			continue
		}
		succeeded++
		if rec.DetectedFormat != "JPEG" {
			t.Errorf("record format = %q", rec.DetectedFormat)
		}
	}
	if succeeded != 2 || failed != 1 {
		t.Fatalf("succeeded=%d failed=%d, want 2/1", succeeded, failed)
	}

	for _, name := range []string{"one_clean.jpg", "two_clean.jpg"} {
		cleaned, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
		if len(cleaned) >= len(sampleJPEG()) {
			t.Errorf("%s did not shrink", name)
		}
	}
}

func TestRunMissingPathFails(t *testing.T) {
	cfg := config.NewScrubConfig()
	if _, err := New(cfg, nil).Run(context.Background(), []string{"/does/not/exist"}); err == nil {
		t.Fatal("expected error for missing root path")
	}
}
