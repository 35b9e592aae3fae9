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

// Package nodecontrol locates the indexer binary and drives it: one-shot
// imports that stop after a given round, and the long-running query daemon.
package nodecontrol

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/algorand/go-algorand/tools/e2elive/capture"
	"github.com/algorand/go-algorand/tools/e2elive/logging"
	"github.com/algorand/go-algorand/tools/e2elive/util"
)

const (
	indexerBinaryName = "algorand-indexer"
	// localBuildDir is searched before PATH.
	localBuildDir = "cmd/algorand-indexer"
	// exitRoundEnvVar makes the indexer exit once it has imported that round.
	exitRoundEnvVar = "INDEXER_DEBUG_EXIT_ROUND"

	// DefaultSettle is how long StartDaemon waits before returning.
	DefaultSettle = 200 * time.Millisecond
	drainTimeout  = 5 * time.Second
)

// FindIndexer returns explicit if set, otherwise the first algorand-indexer
// found in the local build directory or on PATH.
func FindIndexer(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	dirs := append([]string{localBuildDir}, filepath.SplitList(os.Getenv("PATH"))...)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, indexerBinaryName)
		if util.FileExists(candidate) {
			return candidate, nil
		}
	}
	return "", errIndexerNotFound
}

// IndexerController runs the indexer against one database and one algod
// data directory.
type IndexerController struct {
	bin        string
	connection string
	algodDir   string
	runner     util.Runner
	log        logging.Logger

	// Settle is the pause after the daemon starts.
	Settle time.Duration
	// Echo, if set, also receives the daemon output, one prefixed line at a time.
	Echo   io.Writer

	daemon *exec.Cmd
	exited chan error
	stdout *os.File
	out    *capture.Output
}

// MakeIndexerController creates an IndexerController. algodDir is the
// Primary node directory the step imports read blocks from.
func MakeIndexerController(bin, connection, algodDir string, runner util.Runner, log logging.Logger) *IndexerController {
	if log == nil {
		log = logging.Base()
	}
	if runner.Log == nil {
		runner.Log = log
	}
	return &IndexerController{
		bin:        bin,
		connection: connection,
		algodDir:   algodDir,
		runner:     runner,
		log:        log,
		Settle:     DefaultSettle,
	}
}

// ImportCommand is the command that imports through round and then exits.
func (ic *IndexerController) ImportCommand(round uint64) util.Command {
	return util.Command{
		Name: ic.bin,
		Args: []string{"daemon", "-P", ic.connection, "--dev-mode", "--algod", ic.algodDir, "--server", ""},
		Env:  []string{exitRoundEnvVar + "=" + strconv.FormatUint(round, 10)},
	}
}

// ImportThrough runs a one-shot import that stops after round and waits for
// it to exit.
func (ic *IndexerController) ImportThrough(ctx context.Context, round uint64) error {
	if _, err := ic.runner.Run(ctx, ic.ImportCommand(round)); err != nil {
		return fmt.Errorf("import through round %d: %w", round, err)
	}
	return nil
}

// DaemonArgs are the arguments of the query daemon serving on port.
func (ic *IndexerController) DaemonArgs(port int) []string {
	return []string{"daemon", "-P", ic.connection, "--dev-mode", "--server", ":" + strconv.Itoa(port), "--no-algod"}
}

// StartDaemon starts the query daemon with its stdout and stderr drained into
// out. It returns after the settle period, failing if the daemon already exited.
func (ic *IndexerController) StartDaemon(ctx context.Context, port int, out *capture.Output) error {
	pr, pw, err := os.Pipe()
	if err != nil {
		return err
	}
	cmd := exec.Command(ic.bin, ic.DaemonArgs(port)...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	ic.log.Debugf("starting %s", util.Command{Name: ic.bin, Args: cmd.Args[1:]})
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("start indexer daemon: %w", err)
	}
	// the child holds its own copy of the write end
	pw.Close()

	var src io.Reader = pr
	if ic.Echo != nil {
		src = io.TeeReader(pr, NewPrefixWriter(ic.Echo, indexerBinaryName))
	}
	out.Start(src)

	ic.daemon = cmd
	ic.stdout = pr
	ic.out = out
	ic.exited = make(chan error, 1)
	go func() {
		ic.exited <- cmd.Wait()
	}()

	select {
	case err := <-ic.exited:
		ic.exited <- err
		return &errIndexerExitedEarly{innerError: err}
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(ic.Settle):
	}
	ic.log.Infof("indexer daemon pid %d serving on :%d", cmd.Process.Pid, port)
	return nil
}

// Started reports whether the query daemon process was launched and not yet stopped.
func (ic *IndexerController) Started() bool {
	return ic.daemon != nil
}

// StopDaemon kills the query daemon and waits for it and its output drain.
func (ic *IndexerController) StopDaemon() error {
	if ic.daemon == nil {
		return errDaemonNotStarted
	}
	select {
	case err := <-ic.exited:
		ic.log.Debugf("indexer daemon had already exited: %v", err)
	default:
		if err := ic.daemon.Process.Kill(); err != nil {
			return err
		}
		<-ic.exited
	}
	ic.daemon = nil

	select {
	case <-ic.out.Done():
	case <-time.After(drainTimeout):
		ic.log.Warnf("indexer output still open %s after kill", drainTimeout)
	}
	return ic.stdout.Close()
}
