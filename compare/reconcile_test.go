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

package compare

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-algorand/tools/e2elive/test/partitiontest"
	"github.com/algorand/go-algorand/tools/e2elive/util"
)

func mustAccounts(t *testing.T, s string) []Value {
	accts, err := Accounts(mustParse(t, s))
	require.NoError(t, err)
	return accts
}

func TestAccountsExtraction(t *testing.T) {
	partitiontest.PartitionTest(t)

	accts := mustAccounts(t, `{"accounts":[{"address":"A","round":3,"amount":5}],"current-round":3}`)
	require.Len(t, accts, 1)
	addr, ok := Address(accts[0])
	require.True(t, ok)
	require.Equal(t, "A", addr)
	rnd, ok := Round(accts[0])
	require.True(t, ok)
	require.Equal(t, uint64(3), rnd)
	require.False(t, IsZeroAmount(accts[0]))

	require.Empty(t, mustAccounts(t, `{"current-round":3}`))
	require.Empty(t, mustAccounts(t, `{"accounts":null}`))

	_, err := Accounts(mustParse(t, `[1]`))
	require.ErrorIs(t, err, ErrNoAccounts)
	_, err = Accounts(mustParse(t, `{"accounts":5}`))
	require.ErrorIs(t, err, ErrNoAccounts)
}

func TestReconcileIdentical(t *testing.T) {
	partitiontest.PartitionTest(t)

	payload := `{"accounts":[{"address":"A","round":2,"amount":5},{"address":"B","round":2,"amount":7}]}`
	divs := ReconcileByAddress(mustAccounts(t, payload), mustAccounts(t, payload), nil)
	require.Empty(t, divs)
}

func TestReconcileAmountMismatch(t *testing.T) {
	partitiontest.PartitionTest(t)

	forward := mustAccounts(t, `{"accounts":[{"address":"addrX","round":2,"amount":100}]}`)
	reverse := mustAccounts(t, `{"accounts":[{"address":"addrX","round":2,"amount":150}]}`)
	divs := ReconcileByAddress(forward, reverse, util.MakeSet("FEES", "RWD"))
	require.Len(t, divs, 1)
	require.Equal(t, Mismatch, divs[0].Kind)
	require.Equal(t, "addrX", divs[0].Address)
	require.Equal(t, []string{"amount: 100 != 150"}, divs[0].Report.Strings())
}

func TestReconcileExclusions(t *testing.T) {
	partitiontest.PartitionTest(t)

	reverse := mustAccounts(t, `{"accounts":[
		{"address":"ZERO","round":2,"amount":0},
		{"address":"NOAMOUNT","round":2},
		{"address":"FEES","round":2,"amount":1000},
		{"address":"RWD","round":2,"amount":2000}
	]}`)
	divs := ReconcileByAddress(nil, reverse, util.MakeSet("FEES", "RWD"))
	require.Empty(t, divs)

	// without the exclusions the system accounts are reported
	divs = ReconcileByAddress(nil, reverse, nil)
	require.Len(t, divs, 2)
	for _, d := range divs {
		require.Equal(t, MissingForward, d.Kind)
		require.True(t, d.Forward.IsNull())
	}
}

func TestReconcileIsAsymmetric(t *testing.T) {
	partitiontest.PartitionTest(t)

	forward := mustAccounts(t, `{"accounts":[{"address":"A","round":2,"amount":5},{"address":"GONE","round":2,"amount":9}]}`)
	reverse := mustAccounts(t, `{"accounts":[{"address":"A","round":2,"amount":5},{"address":"NEW","round":2,"amount":1}]}`)
	divs := ReconcileByAddress(forward, reverse, nil)
	require.Len(t, divs, 1)
	require.Equal(t, MissingForward, divs[0].Kind)
	require.Equal(t, "NEW", divs[0].Address)
	require.Equal(t, "reverse but not forward", divs[0].Kind.String())
}

func TestReconcileConsumesForward(t *testing.T) {
	partitiontest.PartitionTest(t)

	forward := mustAccounts(t, `{"accounts":[{"address":"A","round":2,"amount":5}]}`)
	reverse := mustAccounts(t, `{"accounts":[{"address":"A","round":2,"amount":5},{"address":"A","round":2,"amount":5}]}`)
	divs := ReconcileByAddress(forward, reverse, nil)
	require.Len(t, divs, 1)
	require.Equal(t, MissingForward, divs[0].Kind)
}
