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

package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/algorand/go-algorand/tools/e2elive/logging"
)

// Command describes one external program invocation.
type Command struct {
	Name    string
	Args    []string
	Env     []string // appended to the current environment
	Dir     string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.Join(Map(append([]string{c.Name}, c.Args...), strconv.Quote), " ")
}

// CommandError is returned when a command could not be started, timed out,
// or exited with a nonzero status. Output holds its combined stdout/stderr.
type CommandError struct {
	Cmd      string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("cmd failed (%d) %s", e.ExitCode, e.Cmd)
	}
	return fmt.Sprintf("cmd failed %s: %v", e.Cmd, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Runner executes commands to completion, capturing their output.
type Runner struct {
	Log logging.Logger
	// FailureOutput receives the captured output of failed commands.
	FailureOutput io.Writer
}

// Run runs c and returns its combined stdout and stderr. On failure the
// output is also written to FailureOutput.
func (r Runner) Run(ctx context.Context, c Command) (string, error) {
	log := r.Log
	if log == nil {
		log = logging.Base()
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	cmdr := c.String()
	err := cmd.Run()
	if err == nil {
		if log.IsLevelEnabled(logging.Debug) {
			log.Debugf("cmd success: %s\n%s", cmdr, out.String())
		}
		return out.String(), nil
	}

	cerr := &CommandError{Cmd: cmdr, ExitCode: -1, Output: out.String(), Err: err}
	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		cerr.Err = fmt.Errorf("timed out after %s: %w", c.Timeout, context.DeadlineExceeded)
		log.Errorf("subprocess timed out %s", cmdr)
	case errors.As(err, &exitErr):
		cerr.ExitCode = exitErr.ExitCode()
		log.Errorf("cmd failed (%d) %s", cerr.ExitCode, cmdr)
	default:
		log.Errorf("subprocess failed %s: %v", cmdr, err)
	}
	if r.FailureOutput != nil && cerr.Output != "" {
		fmt.Fprintf(r.FailureOutput, "output from %s:\n%s\n\n", cmdr, cerr.Output)
	}
	return cerr.Output, cerr
}
