// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package verify smoke-tests a kernel endpoint for protocol conformance.
//
// A run connects once, submits a task and a query in sequence and judges the single
// frame that follows each request. Every check appends a StepResult to a Report and
// the closing banner is derived from that report, so a run only claims full
// conformance when every check passed. Each wait for a frame is bounded; once the
// transport fails, later checks are recorded as failed without touching the socket.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"brio/devkit/internal/bridge"
	"brio/devkit/internal/bridge/model"
	"brio/devkit/internal/config"
	"brio/devkit/internal/errors"
	"brio/devkit/internal/httperrors"
	"brio/devkit/internal/logging"

	"github.com/pterm/pterm"
)

// Options configures a verification run.
type Options struct {
	URL         string
	Timeout     time.Duration
	TaskContent string
	QuerySQL    string
	// HealthAddr enables the gRPC health check when non-empty.
	HealthAddr string
	// Verbose adds failure reasons and round-trip times to the output.
	Verbose bool

	// Out receives progress lines. Nil discards them.
	Out io.Writer
	// OnAwait is called before each wait for a frame; the returned func is called
	// when the wait ends. The CLI uses it to run a spinner.
	OnAwait func(label string) (stop func())
}

// OptionsFromConfig builds run options from resolved configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		URL:         cfg.VerifyURL(),
		Timeout:     cfg.Verify.Timeout,
		TaskContent: cfg.Verify.TaskContent,
		QuerySQL:    cfg.Verify.QuerySQL,
		HealthAddr:  cfg.Verify.HealthAddr,
		Verbose:     cfg.Verbose,
	}
}

type check struct {
	name     string
	label    string
	msg      model.ClientMessage
	passLine string
	failLine string
	showData bool
}

type runner struct {
	br   bridge.Bridge
	opts Options
	out  io.Writer
	// broken holds the first transport error; later checks do not use the connection.
	broken error
}

// Run executes the checks against opts.URL through br.
//
// A connect failure is fatal and returned as an error of kind ConnectFailed after
// troubleshooting hints are printed. Otherwise the report is complete and the error
// is a *FailedError when any step failed.
func Run(ctx context.Context, br bridge.Bridge, opts Options) (Report, error) {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.OnAwait == nil {
		opts.OnAwait = func(string) func() { return func() {} }
	}
	r := &runner{br: br, opts: opts, out: opts.Out}

	var report Report
	if opts.HealthAddr != "" {
		report.add(r.health(ctx))
	}

	target := logging.Mask(opts.URL)
	pterm.Fprintln(r.out, "Connecting to "+target+"...")
	if err := br.Connect(ctx, opts.URL); err != nil {
		pterm.Fprintln(r.out, "❌ Connection Failed: "+logging.Mask(err.Error()))
		return report, httperrors.FormatNetworkError(r.out, err, target)
	}
	defer br.Close()
	pterm.Fprintln(r.out, "✅ Connected to Brio Kernel.")

	checks := []check{
		{
			name:     StepTask,
			label:    "Task",
			msg:      model.NewTask(opts.TaskContent),
			passLine: "✅ Task Handled Successfully.",
			failLine: "❌ Task Handling Failed.",
		},
		{
			name:     StepQuery,
			label:    "Query",
			msg:      model.NewQuery(opts.QuerySQL),
			passLine: "✅ Query Handled Successfully.",
			failLine: "❌ Query Handling Failed.",
			showData: true,
		},
	}
	for _, c := range checks {
		report.add(r.exchange(ctx, c))
	}

	pterm.Fprintln(r.out)
	pterm.Fprintln(r.out, report.Banner())

	if !report.Passed() {
		passed, total := report.Count()
		return report, &FailedError{Passed: passed, Total: total}
	}
	return report, nil
}

func (r *runner) exchange(ctx context.Context, c check) StepResult {
	res := StepResult{Name: c.name}

	if r.broken != nil {
		res.Kind = errors.KindOf(r.broken)
		if res.Kind == "" {
			res.Kind = errors.PeerClosed
		}
		res.Detail = "not sent: connection unusable after an earlier failure"
		pterm.Fprintln(r.out, "❌ "+c.label+" skipped: connection unusable.")
		return res
	}

	frame, err := json.Marshal(c.msg)
	if err != nil {
		return r.fail(res, c, "", err.Error())
	}
	pterm.Fprintln(r.out, "Sending "+c.label+": "+string(frame))

	started := time.Now()
	if err := r.br.Send(ctx, c.msg); err != nil {
		return r.transportFailure(res, c, err)
	}

	stop := r.opts.OnAwait("Awaiting " + c.label + " response...")
	raw, err := r.br.Receive(ctx, r.opts.Timeout)
	stop()
	if err != nil {
		return r.transportFailure(res, c, err)
	}

	pterm.Fprintln(r.out, "Received: "+string(raw))
	if r.opts.Verbose {
		pterm.Fprintln(r.out, pterm.Gray(fmt.Sprintf("   round trip %s", time.Since(started).Round(time.Millisecond))))
	}
	if json.Valid(raw) {
		res.Response = json.RawMessage(raw)
	}

	resp, err := model.DecodeResponse(raw)
	if err != nil {
		res.Kind = errors.DecodeFailed
		res.Detail = err.Error()
		pterm.Fprintln(r.out, "❌ Invalid JSON Response.")
		r.reason(res)
		return res
	}

	switch {
	case resp.Succeeded():
		res.Passed = true
		pterm.Fprintln(r.out, c.passLine)
		if c.showData {
			pterm.Fprintln(r.out, "Data: "+resp.PrettyData())
		}
		return res
	case resp.Status == "" && resp.Type != "":
		return r.fail(res, c, errors.UnexpectedShape,
			fmt.Sprintf("got a %q frame instead of a status response", resp.Type))
	case resp.Status == "":
		return r.fail(res, c, errors.UnexpectedShape, "response has no status field")
	default:
		detail := fmt.Sprintf("status %q", resp.Status)
		if resp.Message != "" {
			detail += ": " + resp.Message
		}
		return r.fail(res, c, "", detail)
	}
}

func (r *runner) fail(res StepResult, c check, kind errors.Kind, detail string) StepResult {
	res.Kind = kind
	res.Detail = detail
	pterm.Fprintln(r.out, c.failLine)
	r.reason(res)
	return res
}

func (r *runner) transportFailure(res StepResult, c check, err error) StepResult {
	r.broken = err
	res.Kind = errors.KindOf(err)
	res.Detail = logging.Mask(err.Error())

	if errors.IsKind(err, errors.ResponseTimeout) {
		pterm.Fprintln(r.out, fmt.Sprintf("⏱️  No %s response within %s.", c.label, r.opts.Timeout))
	}
	pterm.Fprintln(r.out, c.failLine)
	r.reason(res)
	return res
}

func (r *runner) reason(res StepResult) {
	if !r.opts.Verbose || res.Detail == "" {
		return
	}
	line := "   reason: " + res.Detail
	if res.Kind != "" {
		line += " (" + string(res.Kind) + ")"
	}
	pterm.Fprintln(r.out, pterm.Gray(line))
}
