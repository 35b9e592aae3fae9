// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package validation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/fatih/color"

	"github.com/algorand/go-algorand/tools/e2elive/capture"
	"github.com/algorand/go-algorand/tools/e2elive/client"
	"github.com/algorand/go-algorand/tools/e2elive/logging"
	"github.com/algorand/go-algorand/tools/e2elive/util"
)

// Target is what a run checks once provisioning has finished.
type Target struct {
	Importer  Importer
	Accounts  AccountSource
	Health    client.HealthSource
	LastRound uint64
	Excluded  util.Set[string]

	// Capture holds the indexer daemon output. It is dumped when the run fails.
	Capture *capture.Output

	// CrossValidators run after the indexer reports LastRound.
	CrossValidators []util.Command
}

// Provisioner brings up everything the run talks to. Each resource it
// acquires is registered on cleanup as soon as it exists. On error it
// returns whatever part of the Target it already has.
type Provisioner interface {
	Provision(ctx context.Context, cleanup *util.Cleanup) (Target, error)
}

// Outcome is the result of Execute.
type Outcome struct {
	OK      bool
	Elapsed time.Duration
	Forward PhaseResult
	Reverse PhaseResult
	Err     error
}

// Run sequences a whole validation: provision, forward phase, convergence
// wait, cross validators, reverse phase and the summary line.
type Run struct {
	Provisioner Provisioner
	Runner      util.Runner
	Log         logging.Logger
	Metrics     *Metrics
	Stdout      io.Writer
	Stderr      io.Writer

	PollAttempts int
	PollInterval time.Duration
	Verbose      bool
	ErrorLimit   int

	// MetricsOut, if set, receives the run counters in the prometheus text format.
	MetricsOut string
}

func (r *Run) init() {
	if r.Log == nil {
		r.Log = logging.Base()
	}
	if r.Metrics == nil {
		r.Metrics = NewMetrics()
	}
	if r.Stdout == nil {
		r.Stdout = os.Stdout
	}
	if r.Stderr == nil {
		r.Stderr = os.Stderr
	}
	if r.Runner.Log == nil {
		r.Runner.Log = r.Log
	}
	if r.Runner.FailureOutput == nil {
		r.Runner.FailureOutput = r.Stderr
	}
}

// Execute runs the validation and prints exactly one summary line to Stdout.
// Cleanup runs on every path, panics included.
func (r *Run) Execute(ctx context.Context) (out Outcome) {
	r.init()
	start := time.Now()
	cleanup := util.MakeCleanup(r.Log)
	var target Target

	defer func() {
		if p := recover(); p != nil {
			out.Err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
			out.OK = false
		}
		if out.Err != nil {
			r.Log.Errorf("error: %v", out.Err)
		}
		if !out.OK {
			r.dump(target.Capture)
		}
		if err := cleanup.Run(); err != nil {
			r.Log.Warnf("cleanup: %v", err)
		}
		if r.MetricsOut != "" {
			if err := r.Metrics.WriteTextfile(r.MetricsOut); err != nil {
				r.Log.Warnf("metrics: %v", err)
			}
		}
		out.Elapsed = time.Since(start)
		status := "OK"
		if !out.OK {
			status = "FAILED"
		}
		fmt.Fprintf(r.Stdout, "indexer e2etest %s (%.1fs)\n", status, out.Elapsed.Seconds())
	}()

	out.Err = r.execute(ctx, cleanup, &target, &out)
	out.OK = out.Err == nil && out.Forward.Mismatches == 0 && out.Reverse.Mismatches == 0
	return out
}

func (r *Run) execute(ctx context.Context, cleanup *util.Cleanup, target *Target, out *Outcome) error {
	var err error
	*target, err = r.Provisioner.Provision(ctx, cleanup)
	if err != nil {
		return classify("provision", err)
	}

	driver := &Driver{
		Importer:   target.Importer,
		Accounts:   target.Accounts,
		Log:        r.Log,
		Metrics:    r.Metrics,
		ErrorLimit: r.ErrorLimit,
	}
	snaps, fwd, err := driver.Forward(ctx, target.LastRound)
	out.Forward = fwd
	if err != nil {
		return err
	}

	poller := client.MakePoller(target.Health, r.Log)
	poller.Verbose = r.Verbose
	if r.PollAttempts > 0 {
		poller.Attempts = r.PollAttempts
	}
	if r.PollInterval > 0 {
		poller.Interval = r.PollInterval
	}
	if !poller.WaitFor(ctx, target.LastRound) {
		return makeError(Unavailable, "health", fmt.Errorf("could not get indexer health at round %d", target.LastRound))
	}

	for _, c := range target.CrossValidators {
		if _, err := r.Runner.Run(ctx, c); err != nil {
			return makeError(ExternalCommand, c.Name, err)
		}
	}

	rev, err := driver.Reverse(ctx, snaps, target.Excluded)
	out.Reverse = rev
	if err != nil {
		return err
	}
	if n := fwd.Mismatches + rev.Mismatches; n > 0 {
		r.Log.Errorf("%d mismatches (forward %d, reverse %d)", n, fwd.Mismatches, rev.Mismatches)
	}
	return nil
}

// dump writes the captured indexer output to Stderr.
func (r *Run) dump(out *capture.Output) {
	if out == nil {
		return
	}
	if err := out.Finalize(); err != nil {
		r.Log.Warnf("finalize indexer output: %v", err)
	}
	text, err := out.Dump()
	if err != nil {
		r.Log.Warnf("dump indexer output: %v", err)
		return
	}
	color.New(color.FgRed, color.Bold).Fprintln(r.Stderr, "==== indexer output ====")
	io.WriteString(r.Stderr, text)
	if len(text) > 0 && text[len(text)-1] != '\n' {
		io.WriteString(r.Stderr, "\n")
	}
}

// classify gives err a Kind if it does not have one yet.
func classify(op string, err error) error {
	if _, ok := KindOf(err); ok {
		return err
	}
	var cerr *util.CommandError
	if errors.As(err, &cerr) {
		return makeError(ExternalCommand, op, err)
	}
	return makeError(Setup, op, err)
}
