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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/algorand/go-algorand/tools/e2elive/config"
	"github.com/algorand/go-algorand/tools/e2elive/logging"
	"github.com/algorand/go-algorand/tools/e2elive/validation"
)

var opts validation.Options

func init() {
	rootCmd.Flags().BoolVar(&opts.KeepTemps, "keep-temps", false, "leave the temp dir and scratch database behind")
	rootCmd.Flags().StringVar(&opts.IndexerBin, "indexer-bin", "", "path to algorand-indexer binary, otherwise search cmd/algorand-indexer and PATH")
	rootCmd.Flags().IntVar(&opts.IndexerPort, "indexer-port", 0, "port to run indexer on. defaults to random in [4000,30000]")
	rootCmd.Flags().StringVar(&opts.ConnectionString, "connection-string", "", "use this connection string instead of attempting to manage a local database")
	rootCmd.Flags().StringVar(&opts.SourceNet, "source-net", "", "path to test network directory containing Primary and other nodes. May be a tar file")
	rootCmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging, and mirror the indexer output to stderr")
	rootCmd.Flags().BoolVar(&opts.NoCrossValidate, "no-cross-validate", false, "skip validate_accounting.py and e2equeries")
	rootCmd.Flags().StringVar(&opts.MetricsOut, "metrics-out", "", "write run counters to this file in the prometheus text format")
}

var rootCmd = &cobra.Command{
	Use:   "e2elive",
	Short: "Step an indexer through a private network one round at a time and check what it serves",
	Long: `e2elive starts a private network fixture, imports it into a scratch indexer database
one round at a time, checks the accounts served after every round, waits for the indexer
to report the last round, runs the cross validators and finally compares the accounts
served as of every round against what was seen going forward.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runE2E(cmd.Context(), opts)
	},
}

type exitError struct {
	error

	exitCode     int
	errorMessage string
}

func makeExitError(exitCode int, errMsg string, errArgs ...interface{}) exitError {
	ee := exitError{
		exitCode:     exitCode,
		errorMessage: fmt.Sprintf(errMsg, errArgs...),
	}
	return ee
}

func (e exitError) Error() string {
	return e.errorMessage
}

func runE2E(ctx context.Context, o validation.Options) error {
	log := logging.Base()
	if o.Verbose {
		log.SetLevel(logging.Debug)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return makeExitError(1, "%v", err)
	}
	run := &validation.Run{
		Provisioner: &validation.LiveProvisioner{Options: o, Env: env, Log: log},
		Log:         log,
		Verbose:     o.Verbose,
		MetricsOut:  o.MetricsOut,
	}
	if out := run.Execute(ctx); !out.OK {
		return makeExitError(1, "")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	var exitErr exitError
	if errors.As(err, &exitErr) {
		if exitErr.errorMessage != "" {
			fmt.Fprintln(os.Stderr, exitErr.Error())
		}
		os.Exit(exitErr.exitCode)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
