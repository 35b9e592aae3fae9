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

// Package fixture provisions the private network the indexer imports from:
// a working copy of a prepared network directory, either extracted from an
// archive, copied from a directory, or fetched from S3.
package fixture

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/algorand/go-algorand/tools/e2elive/config"
	"github.com/algorand/go-algorand/tools/e2elive/logging"
	"github.com/algorand/go-algorand/tools/e2elive/util"
	"github.com/algorand/go-algorand/tools/e2elive/util/s3"
)

const (
	netDirName   = "net"
	primaryName  = "Primary"
	lockFileName = "e2elive.lock"
)

var tarSuffixes = []string{".tar", ".tar.gz", ".tar.bz2", ".tar.xz"}

// IsTarball reports whether path names a tar archive.
func IsTarball(path string) bool {
	return util.HasSuffix(path, tarSuffixes...)
}

// Network is a provisioned network fixture.
type Network struct {
	TempDir   string
	Dir       string
	LastRound uint64
	Genesis   Genesis
}

// PrimaryDir is the data directory of the node the indexer imports from.
func (n Network) PrimaryDir() string {
	return filepath.Join(n.Dir, primaryName)
}

// Downloader fetches the first object under prefix named filename.
type Downloader interface {
	DownloadFirst(prefix, filename, outPath string) (string, error)
}

func makeS3Downloader(bucket, region string) (Downloader, error) {
	helper, err := s3.MakeS3SessionForDownloadWithBucket(bucket, region)
	if err != nil {
		return nil, err
	}
	return &helper, nil
}

// Provider provisions a Network.
type Provider struct {
	// SourceNet is a network directory or tar archive. When empty the
	// environment's data dir is tried, then S3.
	SourceNet string
	KeepTemps bool
	Env       config.Env

	Runner util.Runner
	Log    logging.Logger

	// Stdout receives the cleanup hint when KeepTemps is set.
	Stdout io.Writer
	// Goal is the goal binary, "goal" if empty.
	Goal string

	// NewDownloader opens the object store, S3 if nil.
	NewDownloader func(bucket, region string) (Downloader, error)
}

func (p *Provider) init() {
	if p.Log == nil {
		p.Log = logging.Base()
	}
	if p.Runner.Log == nil {
		p.Runner.Log = p.Log
	}
	if p.Stdout == nil {
		p.Stdout = os.Stdout
	}
	if p.Goal == "" {
		p.Goal = "goal"
	}
	if p.NewDownloader == nil {
		p.NewDownloader = makeS3Downloader
	}
}

// Prepare makes a working copy of the network fixture and reads its last
// round and genesis. The temp dir is registered on cleanup. A reused
// E2ETEMPDIR that already holds a network is locked and used as is.
func (p *Provider) Prepare(ctx context.Context, cleanup *util.Cleanup) (Network, error) {
	p.init()
	tempDir, reused, err := p.tempDir(cleanup)
	if err != nil {
		return Network{}, err
	}
	netDir := filepath.Join(tempDir, netDirName)
	if reused && util.IsDir(filepath.Join(netDir, primaryName)) {
		p.Log.Infof("reusing network in %s", netDir)
	} else if err := p.provision(ctx, tempDir, netDir); err != nil {
		return Network{}, err
	}

	n := Network{TempDir: tempDir, Dir: netDir}
	blockFile, err := FindBlockFile(netDir)
	if err != nil {
		return n, err
	}
	if n.LastRound, err = CountRounds(blockFile); err != nil {
		return n, err
	}
	if n.Genesis, err = ReadGenesis(n.PrimaryDir()); err != nil {
		return n, err
	}
	p.Log.Debugf("network %s has %d rounds", netDir, n.LastRound)
	return n, nil
}

func (p *Provider) tempDir(cleanup *util.Cleanup) (string, bool, error) {
	if dir := p.Env.TempDir; dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", false, err
		}
		lock := flock.New(filepath.Join(dir, lockFileName))
		locked, err := lock.TryLock()
		if err != nil {
			return "", false, fmt.Errorf("lock %s: %w", dir, err)
		}
		if !locked {
			return "", false, fmt.Errorf("failed to lock %s; is another run using it?", dir)
		}
		cleanup.Add("unlock "+dir, lock.Unlock)
		return dir, true, nil
	}

	dir, err := os.MkdirTemp("", "e2elive")
	if err != nil {
		return "", false, err
	}
	p.Log.Debugf("created %s", dir)
	if p.KeepTemps {
		cleanup.Add("keep "+dir, func() error {
			_, err := fmt.Fprintf(p.Stdout, "CLEANUP TODO\nrm -rf %q\n", dir)
			return err
		})
	} else {
		cleanup.Add("remove "+dir, func() error { return os.RemoveAll(dir) })
	}
	return dir, false, nil
}

func (p *Provider) provision(ctx context.Context, tempDir, netDir string) error {
	source := p.SourceNet
	if source == "" {
		source = p.Env.SourceNet()
	}
	isTar := source != "" && IsTarball(source)
	if !isTar && !(source != "" && util.IsDir(source)) {
		fetched, err := p.fetch(tempDir)
		if err != nil {
			return err
		}
		source, isTar = fetched, true
	}

	if isTar {
		_, err := p.Runner.Run(ctx, util.Command{Name: "tar", Args: []string{"-C", tempDir, "-x", "-f", source}})
		return err
	}
	return util.CopyFolder(source, netDir)
}

func (p *Provider) fetch(tempDir string) (string, error) {
	dl, err := p.NewDownloader(p.Env.S3Bucket, p.Env.S3Region)
	if err != nil {
		return "", fmt.Errorf("object store: %w", err)
	}
	out := filepath.Join(tempDir, p.Env.S3File)
	key, err := dl.DownloadFirst(p.Env.S3Prefix, p.Env.S3File, out)
	if err != nil {
		return "", err
	}
	p.Log.Infof("fetched s3://%s/%s", p.Env.S3Bucket, key)
	return out, nil
}

// StartNetwork starts the network's nodes and registers their stop.
func (p *Provider) StartNetwork(ctx context.Context, cleanup *util.Cleanup, n Network) error {
	p.init()
	if _, err := p.Runner.Run(ctx, util.Command{Name: p.Goal, Args: []string{"network", "start", "-r", n.Dir}}); err != nil {
		return err
	}
	cleanup.Add("goal network stop", func() error {
		_, err := p.Runner.Run(context.Background(), util.Command{Name: p.Goal, Args: []string{"network", "stop", "-r", n.Dir}})
		return err
	})
	return nil
}
