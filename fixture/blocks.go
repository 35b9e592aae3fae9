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

package fixture

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/algorand/go-algorand/tools/e2elive/util"
	"github.com/algorand/go-algorand/tools/e2elive/util/db"
)

const genesisFileName = "genesis.json"

var errNoBlocks = errors.New("no blocks recorded")

// FindBlockFile returns the first Primary/*/*.block.sqlite under netDir.
func FindBlockFile(netDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(netDir, "Primary", "*", "*.block.sqlite"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no block database under %s", filepath.Join(netDir, "Primary"))
	}
	return matches[0], nil
}

// CountRounds returns the highest round stored in a block database.
func CountRounds(blockFile string) (uint64, error) {
	acc, err := db.MakeAccessor(blockFile, true)
	if err != nil {
		return 0, err
	}
	defer acc.Close()

	var rnd sql.NullInt64
	err = db.Retry(func() error {
		return acc.Handle.QueryRow("SELECT max(rnd) FROM blocks").Scan(&rnd)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", blockFile, err)
	}
	if !rnd.Valid || rnd.Int64 < 0 {
		return 0, fmt.Errorf("%s: %w", blockFile, errNoBlocks)
	}
	return uint64(rnd.Int64), nil
}

// Genesis holds the genesis fields the run needs.
type Genesis struct {
	FeeSink     string
	RewardsPool string
}

// Excluded is the set of addresses left out of reverse reconciliation.
func (g Genesis) Excluded() util.Set[string] {
	return util.MakeSet(g.FeeSink, g.RewardsPool)
}

// ReadGenesis reads genesis.json from an algod data directory.
func ReadGenesis(algodDir string) (Genesis, error) {
	path := filepath.Join(algodDir, genesisFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}
	if !gjson.ValidBytes(raw) {
		return Genesis{}, fmt.Errorf("%s: invalid json", path)
	}
	fields := gjson.GetManyBytes(raw, "fees", "rwd")
	g := Genesis{FeeSink: fields[0].String(), RewardsPool: fields[1].String()}
	if g.FeeSink == "" || g.RewardsPool == "" {
		return Genesis{}, fmt.Errorf("%s: missing fees or rwd address", path)
	}
	return g, nil
}
