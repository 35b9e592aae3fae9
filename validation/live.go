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
	"fmt"
	"io"
	"math/rand/v2"
	"net/url"
	"os"
	"time"

	"github.com/algorand/go-algorand/tools/e2elive/capture"
	"github.com/algorand/go-algorand/tools/e2elive/client"
	"github.com/algorand/go-algorand/tools/e2elive/config"
	"github.com/algorand/go-algorand/tools/e2elive/fixture"
	"github.com/algorand/go-algorand/tools/e2elive/logging"
	"github.com/algorand/go-algorand/tools/e2elive/nodecontrol"
	"github.com/algorand/go-algorand/tools/e2elive/scratchdb"
	"github.com/algorand/go-algorand/tools/e2elive/util"
)

const (
	minRandomPort = 4000
	maxRandomPort = 30000

	accountingTimeout = 20 * time.Second
	queriesTimeout    = 15 * time.Second
)

// Options are the command line settings of a run.
type Options struct {
	KeepTemps        bool
	IndexerBin       string
	IndexerPort      int
	ConnectionString string
	SourceNet        string
	Verbose          bool
	NoCrossValidate  bool
	MetricsOut       string
}

// RandomPort picks a port in [4000, 30000].
func RandomPort() int {
	return minRandomPort + rand.IntN(maxRandomPort-minRandomPort+1)
}

// CrossValidators are the independent checks run against the indexer once it
// has caught up: the accounting validator and the query exerciser.
func CrossValidators(algodDir, indexerURL, connection string) []util.Command {
	return []util.Command{
		{
			Name:    "python3",
			Args:    []string{"misc/validate_accounting.py", "--verbose", "--algod", algodDir, "--indexer", indexerURL},
			Timeout: accountingTimeout,
		},
		{
			Name:    "go",
			Args:    []string{"run", "cmd/e2equeries/main.go", "-pg", connection, "-q"},
			Timeout: queriesTimeout,
		},
	}
}

// LiveProvisioner brings up a real network fixture, database and indexer.
type LiveProvisioner struct {
	Options Options
	Env     config.Env
	Runner  util.Runner
	Log     logging.Logger
	Stdout  io.Writer

	// Stderr mirrors the indexer output when Options.Verbose is set.
	Stderr io.Writer
}

func (lp *LiveProvisioner) init() {
	if lp.Log == nil {
		lp.Log = logging.Base()
	}
	if lp.Runner.Log == nil {
		lp.Runner.Log = lp.Log
	}
	if lp.Stdout == nil {
		lp.Stdout = os.Stdout
	}
	if lp.Stderr == nil {
		lp.Stderr = os.Stderr
	}
}

// Provision implements Provisioner.
func (lp *LiveProvisioner) Provision(ctx context.Context, cleanup *util.Cleanup) (Target, error) {
	lp.init()
	fp := &fixture.Provider{
		SourceNet: lp.Options.SourceNet,
		KeepTemps: lp.Options.KeepTemps,
		Env:       lp.Env,
		Runner:    lp.Runner,
		Log:       lp.Log,
		Stdout:    lp.Stdout,
	}
	network, err := fp.Prepare(ctx, cleanup)
	if err != nil {
		return Target{}, classify("network fixture", err)
	}
	if err := fp.StartNetwork(ctx, cleanup, network); err != nil {
		return Target{}, classify("goal network start", err)
	}

	connection, err := lp.database(ctx, cleanup)
	if err != nil {
		return Target{}, makeError(Setup, "scratch database", err)
	}

	bin, err := nodecontrol.FindIndexer(lp.Options.IndexerBin)
	if err != nil {
		return Target{}, makeError(Setup, "indexer binary", err)
	}
	port := lp.Options.IndexerPort
	if port == 0 {
		port = RandomPort()
	}
	ic := nodecontrol.MakeIndexerController(bin, connection, network.PrimaryDir(), lp.Runner, lp.Log)
	if lp.Options.Verbose {
		ic.Echo = lp.Stderr
	}
	target := Target{Capture: capture.New(lp.Log)}
	err = ic.StartDaemon(ctx, port, target.Capture)
	if ic.Started() {
		cleanup.Add("indexer daemon", ic.StopDaemon)
	}
	if err != nil {
		return target, makeError(Setup, "indexer daemon", err)
	}

	indexerURL := url.URL{Scheme: "http", Host: fmt.Sprintf("localhost:%d", port), Path: "/"}
	rc := client.MakeRestClient(indexerURL, client.DefaultTimeout)
	target.Importer = ic
	target.Accounts = rc
	target.Health = rc
	target.LastRound = network.LastRound
	target.Excluded = network.Genesis.Excluded()
	if !lp.Options.NoCrossValidate {
		target.CrossValidators = CrossValidators(network.PrimaryDir(), indexerURL.String(), connection)
	}
	return target, nil
}

// database returns the connection string the indexer writes to, creating a
// scratch database unless one was given.
func (lp *LiveProvisioner) database(ctx context.Context, cleanup *util.Cleanup) (string, error) {
	if lp.Options.ConnectionString != "" {
		return lp.Options.ConnectionString, nil
	}
	prov, err := scratchdb.Connect(ctx, scratchdb.DefaultAdminConnection, lp.Log)
	if err != nil {
		return "", err
	}
	cleanup.Add("admin connection", prov.Close)

	name := scratchdb.MakeName(time.Now())
	db, err := prov.Create(ctx, name)
	if err != nil {
		return "", err
	}
	if lp.Options.KeepTemps {
		lp.Log.Infof("leaving db %q", name)
	} else {
		cleanup.Add("drop database "+name, func() error {
			return prov.Drop(context.Background(), name)
		})
	}
	return db.ConnectionString, nil
}
