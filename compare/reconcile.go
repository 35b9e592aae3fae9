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
	"errors"
	"fmt"

	"github.com/algorand/go-algorand/tools/e2elive/util"
)

// DivergenceKind says why an account failed reconciliation.
type DivergenceKind int

const (
	// MissingForward means the account appeared in the reverse set only.
	MissingForward DivergenceKind = iota
	// Mismatch means both sides have the account but the records differ.
	Mismatch
)

func (k DivergenceKind) String() string {
	switch k {
	case MissingForward:
		return "reverse but not forward"
	case Mismatch:
		return "neq"
	}
	return fmt.Sprintf("DivergenceKind(%d)", int(k))
}

// AccountDivergence is one account that did not reconcile.
type AccountDivergence struct {
	Kind    DivergenceKind
	Address string
	Forward Value // Null for MissingForward
	Reverse Value
	Report  Report
}

// ErrNoAccounts is returned when a payload has no accounts sequence.
var ErrNoAccounts = errors.New("compare: payload has no accounts sequence")

// Accounts extracts the accounts sequence from an account-state response.
// A null or absent field yields no accounts.
func Accounts(payload Value) ([]Value, error) {
	if payload.Kind() != Mapping {
		return nil, ErrNoAccounts
	}
	accts, ok := payload.Get("accounts")
	if !ok || accts.IsNull() {
		return nil, nil
	}
	items, ok := accts.Items()
	if !ok {
		return nil, ErrNoAccounts
	}
	return items, nil
}

// Address returns the address field of an account record.
func Address(record Value) (string, bool) {
	v, ok := record.Get("address")
	if !ok {
		return "", false
	}
	return v.Str()
}

// Round returns the round field of an account record.
func Round(record Value) (uint64, bool) {
	v, ok := record.Get("round")
	if !ok {
		return 0, false
	}
	return v.Uint()
}

// IsZeroAmount reports whether the record's amount is absent or zero.
func IsZeroAmount(record Value) bool {
	v, ok := record.Get("amount")
	if !ok {
		return true
	}
	return v.IsEmpty()
}

// ReconcileByAddress checks every reverse record against the forward record
// with the same address. Reverse records with a zero amount or an excluded
// address are skipped. Each forward record is matched at most once. Forward
// records with no reverse counterpart are not reported.
func ReconcileByAddress(forward, reverse []Value, excluded util.Set[string]) []AccountDivergence {
	byAddress := make(map[string]Value, len(forward))
	for _, fa := range forward {
		if addr, ok := Address(fa); ok {
			byAddress[addr] = fa
		}
	}

	var out []AccountDivergence
	for _, ra := range reverse {
		if IsZeroAmount(ra) {
			continue
		}
		addr, _ := Address(ra)
		if excluded.Contains(addr) {
			continue
		}
		fa, found := byAddress[addr]
		if !found {
			out = append(out, AccountDivergence{Kind: MissingForward, Address: addr, Reverse: ra})
			continue
		}
		delete(byAddress, addr)
		if eq, report := Equal(fa, ra); !eq {
			out = append(out, AccountDivergence{Kind: Mismatch, Address: addr, Forward: fa, Reverse: ra, Report: report})
		}
	}
	return out
}
