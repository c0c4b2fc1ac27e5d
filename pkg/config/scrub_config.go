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

package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
)

// ScrubConfig holds configuration for scrubbing files.
//
// It determines which metadata fields to keep or remove, how GPS
// coordinates are redacted, what gets injected into cleaned output, and
// how batch runs write their results.
type ScrubConfig struct {
	// Legacy preserve flags
	keepOrientation  bool
	keepColorProfile bool
	keepCopyright    bool
	keepTitle        bool
	keepDescription  bool

	// Field denylist ("remove only these") and allowlist ("always keep")
	removeFields []string
	keepFields   []string

	// GPS redaction level ("exact", "city", "region", "country", "remove")
	gpsRedaction string

	// Injected field values
	inject policy.Injection

	// Output file suffix for batch runs; ignored when inPlace is set
	suffix string

	// Whether batch runs overwrite the input file
	inPlace bool

	// Worker count for batch runs (0 = one per CPU)
	workers int
}

// NewScrubConfig creates a new scrub configuration with defaults.
//
// Defaults: strip everything, GPS removed, no injection, "_clean" output
// suffix, one worker per CPU.
//
// Returns a ScrubConfig ready for customization via method chaining.
func NewScrubConfig() *ScrubConfig {
	return &ScrubConfig{
		gpsRedaction: "remove",
		suffix:       "_clean",
	}
}

// UsePreserveFlags sets the five legacy preserve flags.
//
// Returns the ScrubConfig for method chaining.
func (c *ScrubConfig) UsePreserveFlags(orientation, colorProfile, copyright, title, description bool) *ScrubConfig {
	c.keepOrientation = orientation
	c.keepColorProfile = colorProfile
	c.keepCopyright = copyright
	c.keepTitle = title
	c.keepDescription = description
	return c
}

// UseFieldLists sets the field denylist and allowlist. The allowlist
// overrides the denylist, which overrides the legacy preserve flags.
//
// Returns the ScrubConfig for method chaining.
func (c *ScrubConfig) UseFieldLists(remove, keep []string) *ScrubConfig {
	c.removeFields = remove
	c.keepFields = keep
	return c
}

// UseGPSRedaction sets the GPS precision level: "exact", "city", "region",
// "country" or "remove".
//
// Returns the ScrubConfig for method chaining.
func (c *ScrubConfig) UseGPSRedaction(level string) *ScrubConfig {
	c.gpsRedaction = level
	return c
}

// UseInjection sets the field values written into cleaned output.
//
// Returns the ScrubConfig for method chaining.
func (c *ScrubConfig) UseInjection(inject policy.Injection) *ScrubConfig {
	c.inject = inject
	return c
}

// UseOutput configures where batch runs write results: a filename suffix
// for sibling output files, or in-place overwrite.
//
// Returns the ScrubConfig for method chaining.
func (c *ScrubConfig) UseOutput(suffix string, inPlace bool) *ScrubConfig {
	c.suffix = suffix
	c.inPlace = inPlace
	return c
}

// UseWorkers sets the batch worker count. Zero means one per CPU.
//
// Returns the ScrubConfig for method chaining.
func (c *ScrubConfig) UseWorkers(n int) *ScrubConfig {
	c.workers = n
	return c
}

// Validate checks the configuration for consistency.
//
// Returns an error describing the first problem found, or nil.
func (c *ScrubConfig) Validate() error {
	if _, err := policy.ParseGPSRedaction(c.gpsRedaction); err != nil {
		return err
	}
	for _, f := range append(append([]string{}, c.removeFields...), c.keepFields...) {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("empty field name in keep/remove list")
		}
	}
	if c.workers < 0 {
		return fmt.Errorf("worker count must not be negative, got %d", c.workers)
	}
	if !c.inPlace && c.suffix == "" {
		return fmt.Errorf("output suffix must not be empty unless scrubbing in place")
	}
	return nil
}

// Policy resolves the configuration into a removal policy.
func (c *ScrubConfig) Policy() (*policy.Policy, error) {
	return policy.Resolve(policy.Options{
		KeepOrientation:  c.keepOrientation,
		KeepColorProfile: c.keepColorProfile,
		KeepCopyright:    c.keepCopyright,
		KeepTitle:        c.keepTitle,
		KeepDescription:  c.keepDescription,
		Remove:           c.removeFields,
		Keep:             c.keepFields,
		GPS:              c.gpsRedaction,
		Inject:           c.inject,
	})
}

// Suffix returns the batch output suffix.
func (c *ScrubConfig) Suffix() string { return c.suffix }

// InPlace reports whether batch runs overwrite their input.
func (c *ScrubConfig) InPlace() bool { return c.inPlace }

// Workers returns the effective batch worker count.
func (c *ScrubConfig) Workers() int {
	if c.workers <= 0 {
		return runtime.NumCPU()
	}
	return c.workers
}
