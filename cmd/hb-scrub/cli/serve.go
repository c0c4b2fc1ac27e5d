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
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/James-HoneyBadger/HB-Scrub/internal/httpserver"
)

// Serve builds the serve command.
func Serve() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [OPTIONS]",
		Short: "Serve the scrubber over HTTP.",
		Long: `Serve the scrubber over HTTP.

    POST /strip    body: file bytes or a data URL; query: the same policy
                   options as the strip command (keep, remove, gps,
                   preserve, inject_*). Responds with the cleaned bytes
                   and a JSON audit record in the X-Scrub-Report header.
    POST /inspect  body: file bytes or a data URL. Responds with the
                   metadata fields present, as JSON.
    GET  /healthz  liveness probe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			obs := ro.NewObservability()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			obs.Logger.Info("listening on %s", addr)
			return httpserver.New(obs.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8337", "Address to listen on.")
	return cmd
}
