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

package options

import (
	"github.com/spf13/cobra"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/config"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
)

// FlagAdder is implemented by any flag group that can register itself to a cobra command.
type FlagAdder interface {
	AddFlags(cmd *cobra.Command)
}

// PolicyFlags contains flags controlling which metadata fields survive a
// strip. These flags are shared by the strip and serve commands.
type PolicyFlags struct {
	// KeepOrientation preserves the EXIF orientation tag.
	KeepOrientation bool
	// KeepColorProfile preserves ICC color profiles.
	KeepColorProfile bool
	// KeepCopyright preserves copyright notices.
	KeepCopyright bool
	// KeepTitle preserves title fields.
	KeepTitle bool
	// KeepDescription preserves description fields.
	KeepDescription bool

	// RemoveFields restricts stripping to only these fields.
	RemoveFields []string
	// KeepFields always preserves these fields, overriding RemoveFields.
	KeepFields []string

	// GPS selects the GPS redaction level (exact, city, region, country, remove).
	GPS string

	// InjectCopyright etc. are values written into cleaned output.
	InjectCopyright   string
	InjectSoftware    string
	InjectArtist      string
	InjectDescription string
	InjectDateTime    string
}

// AddFlags adds policy flags to the cobra command.
func (o *PolicyFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.KeepOrientation, "keep-orientation", false, "Preserve the EXIF orientation tag.")
	cmd.Flags().BoolVar(&o.KeepColorProfile, "keep-color-profile", false, "Preserve ICC color profiles.")
	cmd.Flags().BoolVar(&o.KeepCopyright, "keep-copyright", false, "Preserve copyright notices.")
	cmd.Flags().BoolVar(&o.KeepTitle, "keep-title", false, "Preserve title fields.")
	cmd.Flags().BoolVar(&o.KeepDescription, "keep-description", false, "Preserve description fields.")

	cmd.Flags().StringSliceVar(&o.RemoveFields, "remove", nil,
		"Strip only these fields (e.g. GPS,Comment); everything else is kept.")
	cmd.Flags().StringSliceVar(&o.KeepFields, "keep", nil,
		"Always keep these fields; overrides --remove and the keep-* flags.")

	cmd.Flags().StringVar(&o.GPS, "gps", "remove",
		"GPS redaction level: exact, city (~1km), region (~11km), country (~111km) or remove.")

	cmd.Flags().StringVar(&o.InjectCopyright, "inject-copyright", "", "Copyright notice to write into cleaned output.")
	cmd.Flags().StringVar(&o.InjectSoftware, "inject-software", "", "Software tag to write into cleaned output.")
	cmd.Flags().StringVar(&o.InjectArtist, "inject-artist", "", "Artist tag to write into cleaned output.")
	cmd.Flags().StringVar(&o.InjectDescription, "inject-description", "", "Description to write into cleaned output.")
	cmd.Flags().StringVar(&o.InjectDateTime, "inject-datetime", "", "DateTime tag to write into cleaned output.")
}

// Injection converts the inject flags into a policy injection.
func (o *PolicyFlags) Injection() policy.Injection {
	return policy.Injection{
		Copyright:   o.InjectCopyright,
		Software:    o.InjectSoftware,
		Artist:      o.InjectArtist,
		Description: o.InjectDescription,
		DateTime:    o.InjectDateTime,
	}
}

// OutputFlags contains flags controlling where batch runs write results.
type OutputFlags struct {
	// Suffix is appended to the filename before the extension.
	Suffix string
	// InPlace overwrites the input file instead.
	InPlace bool
	// Workers is the batch worker count (0 = one per CPU).
	Workers int
	// Report, when set, writes a JSON audit report to this path.
	Report string
}

// AddFlags adds output flags to the cobra command.
func (o *OutputFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Suffix, "suffix", "_clean", "Output filename suffix. Defaults to _clean")
	cmd.Flags().BoolVar(&o.InPlace, "in-place", false, "Overwrite input files instead of writing siblings.")
	cmd.Flags().IntVar(&o.Workers, "workers", 0, "Concurrent workers for batch runs. 0 means one per CPU.")
	cmd.Flags().StringVar(&o.Report, "report", "", "Write a JSON audit report to this path.")
	_ = cmd.MarkFlagFilename("report", "json")
}

// ScrubConfig assembles the policy and output flags into a scrub
// configuration, validated and ready for the batch runner.
func ScrubConfig(pf *PolicyFlags, of *OutputFlags) (*config.ScrubConfig, error) {
	cfg := config.NewScrubConfig().
		UsePreserveFlags(pf.KeepOrientation, pf.KeepColorProfile, pf.KeepCopyright, pf.KeepTitle, pf.KeepDescription).
		UseFieldLists(pf.RemoveFields, pf.KeepFields).
		UseGPSRedaction(pf.GPS).
		UseInjection(pf.Injection()).
		UseOutput(of.Suffix, of.InPlace).
		UseWorkers(of.Workers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AddAllFlags is a helper function to register multiple flag groups at once.
func AddAllFlags(cmd *cobra.Command, flagGroups ...FlagAdder) {
	for _, fg := range flagGroups {
		fg.AddFlags(cmd)
	}
}
