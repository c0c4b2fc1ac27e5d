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

// Package httpserver exposes the scrub core over HTTP. The body of a
// request is the file to process, either raw bytes or a data URL; policy
// options arrive as query parameters. The server holds no state between
// requests, so fasthttp's concurrent handler model needs no locking.
package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/James-HoneyBadger/HB-Scrub/pkg/logging"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/policy"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/report"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/scrub"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/utils"
	"github.com/James-HoneyBadger/HB-Scrub/pkg/walker"
)

// Server routes scrub requests. Create one with New and run it with
// ListenAndServe or hand Handler to an existing fasthttp server.
type Server struct {
	log logging.Logger
}

// New creates a server. A nil logger falls back to the default.
func New(log logging.Logger) *Server {
	return &Server{log: logging.EnsureLogger(log)}
}

// ListenAndServe blocks serving on addr until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "hb-scrub",
		MaxRequestBodySize: 256 << 20,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()

	select {
	case <-ctx.Done():
		return srv.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Handler dispatches one request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch {
	case bytes.Equal(ctx.Path(), []byte("/healthz")):
		s.handleHealth(ctx)
	case bytes.Equal(ctx.Path(), []byte("/strip")):
		s.handleStrip(ctx)
	case bytes.Equal(ctx.Path(), []byte("/inspect")):
		s.handleInspect(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"status":"ok"}`)
}

// requestBytes normalizes the request body: a body starting with "data:"
// is decoded as a data URL, anything else is taken as raw file bytes.
func requestBytes(ctx *fasthttp.RequestCtx) ([]byte, error) {
	body := ctx.PostBody()
	if len(body) == 0 {
		return nil, &scrub.InvalidInputError{Msg: "empty request body"}
	}
	if bytes.HasPrefix(body, []byte("data:")) {
		data, _, err := utils.ParseDataURL(string(body))
		return data, err
	}
	return body, nil
}

// policyFromQuery builds a removal policy from query parameters: repeated
// or comma-separated "keep" and "remove", "gps" for the redaction level,
// "preserve" for the legacy flags, and "inject_*" values.
func policyFromQuery(ctx *fasthttp.RequestCtx) (*policy.Policy, error) {
	args := ctx.QueryArgs()

	multi := func(key string) []string {
		var out []string
		for _, v := range args.PeekMulti(key) {
			for _, part := range strings.Split(string(v), ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
		return out
	}

	opts := policy.Options{
		Remove: multi("remove"),
		Keep:   multi("keep"),
		GPS:    string(args.Peek("gps")),
		Inject: policy.Injection{
			Copyright:   string(args.Peek("inject_copyright")),
			Software:    string(args.Peek("inject_software")),
			Artist:      string(args.Peek("inject_artist")),
			Description: string(args.Peek("inject_description")),
			DateTime:    string(args.Peek("inject_datetime")),
		},
	}
	for _, flag := range multi("preserve") {
		switch strings.ToLower(flag) {
		case "orientation":
			opts.KeepOrientation = true
		case "color-profile", "icc":
			opts.KeepColorProfile = true
		case "copyright":
			opts.KeepCopyright = true
		case "title":
			opts.KeepTitle = true
		case "description":
			opts.KeepDescription = true
		default:
			return nil, &scrub.InvalidInputError{Msg: "unknown preserve flag " + flag}
		}
	}
	return policy.Resolve(opts)
}

func (s *Server) handleStrip(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	data, err := requestBytes(ctx)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	p, err := policyFromQuery(ctx)
	if err != nil {
		s.fail(ctx, err)
		return
	}

	out, err := scrub.Strip(data, p)
	if err != nil {
		s.fail(ctx, err)
		return
	}

	rec := report.FromOutcome(string(ctx.QueryArgs().Peek("name")), data, out)
	audit, err := rec.JSON()
	if err != nil {
		s.fail(ctx, err)
		return
	}

	s.log.Info("stripped %d -> %d bytes (%s)", out.OriginalLen, out.CleanedLen, out.DetectedFormat)
	ctx.Response.Header.Set("X-Scrub-Report", string(audit))
	ctx.SetContentType("application/octet-stream")
	ctx.SetBody(out.Data)
}

func (s *Server) handleInspect(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	data, err := requestBytes(ctx)
	if err != nil {
		s.fail(ctx, err)
		return
	}

	fields, err := scrub.Inspect(data)
	if err != nil {
		s.fail(ctx, err)
		return
	}

	body, err := json.Marshal(struct {
		Fields []string `json:"fields"`
	}{Fields: policy.Strings(fields)})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// fail maps core errors onto HTTP statuses: invalid input and unsupported
// formats are client errors, everything else is a 500.
func (s *Server) fail(ctx *fasthttp.RequestCtx, err error) {
	status := fasthttp.StatusInternalServerError

	var invalid *scrub.InvalidInputError
	var unsupported *scrub.UnsupportedError
	var corrupt *walker.CorruptError
	switch {
	case errors.As(err, &invalid):
		status = fasthttp.StatusBadRequest
	case errors.As(err, &unsupported):
		status = fasthttp.StatusUnsupportedMediaType
	case errors.As(err, &corrupt):
		status = fasthttp.StatusUnprocessableEntity
	}

	s.log.Warn("request failed: %v", err)
	body, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
