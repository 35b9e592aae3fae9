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

package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Env holds the settings read from the environment.
type Env struct {
	// DataDir is a directory of provisioned fixtures. Its "net" subdirectory
	// is used as the source network when no --source-net is given.
	DataDir string `env:"E2EDATA"`
	// TempDir reuses an already provisioned temporary directory instead of
	// creating (and later removing) a fresh one.
	TempDir string `env:"E2ETEMPDIR"`

	S3Bucket string `env:"E2E_S3_BUCKET" envDefault:"algorand-testdata"`
	S3Prefix string `env:"E2E_S3_PREFIX" envDefault:"indexer/e2e2"`
	S3File   string `env:"E2E_S3_FILE" envDefault:"net_done.tar.bz2"`
	S3Region string `env:"S3_REGION" envDefault:"us-east-1"`
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SourceNet returns the fixture network directory under DataDir, or "" if
// DataDir is unset.
func (e Env) SourceNet() string {
	if e.DataDir == "" {
		return ""
	}
	return filepath.Join(e.DataDir, "net")
}
