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
	"bytes"
	"context"
	"fmt"

	"github.com/algorand/go-algorand/tools/e2elive/compare"
	"github.com/algorand/go-algorand/tools/e2elive/logging"
	"github.com/algorand/go-algorand/tools/e2elive/util"
)

// Phase names, also used as metric labels.
const (
	PhaseForward = "forward"
	PhaseReverse = "reverse"
)

// Importer advances the indexer so that it has ingested exactly through round.
type Importer interface {
	ImportThrough(ctx context.Context, round uint64) error
}

// AccountSource returns the raw account-state payload, latest when round is
// nil and as of *round otherwise.
type AccountSource interface {
	Accounts(ctx context.Context, round *uint64) ([]byte, error)
}

// PhaseResult summarizes a phase that ran to completion.
type PhaseResult struct {
	Phase      string
	Rounds     int
	Mismatches int
}

// Driver steps the indexer one round at a time and checks what it serves.
type Driver struct {
	Importer   Importer
	Accounts   AccountSource
	Log        logging.Logger
	Metrics    *Metrics
	ErrorLimit int
}

func (d *Driver) logger() logging.Logger {
	if d.Log == nil {
		return logging.Base()
	}
	return d.Log
}

func (d *Driver) metrics() *Metrics {
	if d.Metrics == nil {
		d.Metrics = NewMetrics()
	}
	return d.Metrics
}

func (d *Driver) fetch(ctx context.Context, round *uint64) ([]byte, error) {
	raw, err := d.Accounts.Accounts(ctx, round)
	if err != nil {
		op := "accounts"
		if round != nil {
			op = fmt.Sprintf("accounts as of round %d", *round)
		}
		return nil, makeError(Unavailable, op, err)
	}
	return raw, nil
}

func parseAccounts(raw []byte, round uint64) ([]compare.Value, error) {
	v, err := compare.Parse(raw)
	if err != nil {
		return nil, makeError(Unavailable, fmt.Sprintf("round %d accounts", round), err)
	}
	accts, err := compare.Accounts(v)
	if err != nil {
		return nil, makeError(Unavailable, fmt.Sprintf("round %d accounts", round), err)
	}
	return accts, nil
}

// Forward imports rounds 1..lastRound one at a time. After each import every
// account served must carry the round just imported; each one that does not
// spends one unit of the phase's error budget. The raw payload of each round
// is kept for Reverse.
func (d *Driver) Forward(ctx context.Context, lastRound uint64) (*RoundSnapshots, PhaseResult, error) {
	log := d.logger()
	m := d.metrics()
	budget := MakeErrorBudget(PhaseForward, d.ErrorLimit)
	snaps := &RoundSnapshots{}
	result := PhaseResult{Phase: PhaseForward}

	for round := uint64(1); round <= lastRound; round++ {
		if err := ctx.Err(); err != nil {
			return snaps, result, makeError(Setup, "forward", err)
		}
		if err := d.Importer.ImportThrough(ctx, round); err != nil {
			return snaps, result, classify(fmt.Sprintf("import round %d", round), err)
		}
		log.Debugf("imported %d", round)

		raw, err := d.fetch(ctx, nil)
		if err != nil {
			return snaps, result, err
		}
		accts, err := parseAccounts(raw, round)
		if err != nil {
			return snaps, result, err
		}
		for _, acct := range accts {
			got, ok := compare.Round(acct)
			if ok && got == round {
				continue
			}
			addr, _ := compare.Address(acct)
			log.WithFields(logging.Fields{"round": round, "address": addr}).
				Errorf("expected round %d but account has %s", round, fieldText(acct, "round"))
			m.mismatch(PhaseForward)
			err := budget.Spend()
			result.Mismatches = budget.Count()
			if err != nil {
				return snaps, result, err
			}
		}
		if err := snaps.Put(round, raw); err != nil {
			return snaps, result, makeError(Setup, "forward", err)
		}
		result.Rounds++
		m.round(PhaseForward)
	}
	return snaps, result, nil
}

// Reverse queries every snapshotted round, newest first, as of that round and
// reconciles the answer against the forward snapshot. Accounts at an excluded
// address are not checked.
func (d *Driver) Reverse(ctx context.Context, snaps *RoundSnapshots, excluded util.Set[string]) (PhaseResult, error) {
	log := d.logger()
	m := d.metrics()
	budget := MakeErrorBudget(PhaseReverse, d.ErrorLimit)
	result := PhaseResult{Phase: PhaseReverse}

	for round := snaps.Len(); round >= 1; round-- {
		if err := ctx.Err(); err != nil {
			return result, makeError(Setup, "reverse", err)
		}
		asOf := round
		raw, err := d.fetch(ctx, &asOf)
		if err != nil {
			return result, err
		}
		log.Debugf("reverse %d", round)
		forwardRaw, _ := snaps.Get(round)
		result.Rounds++
		m.round(PhaseReverse)
		if bytes.Equal(raw, forwardRaw) {
			m.trivialRound()
			continue
		}

		forward, err := parseAccounts(forwardRaw, round)
		if err != nil {
			return result, err
		}
		reverse, err := parseAccounts(raw, round)
		if err != nil {
			return result, err
		}
		for _, div := range compare.ReconcileByAddress(forward, reverse, excluded) {
			entry := log.WithFields(logging.Fields{"round": round, "address": div.Address, "kind": div.Kind.String()})
			switch div.Kind {
			case compare.MissingForward:
				entry.Errorf("round=%d reverse but not forward: %s", round, div.Reverse)
			default:
				entry.Errorf("round=%d neq forward=%s reverse=%s err=%s", round, div.Forward, div.Reverse, div.Report)
			}
			m.mismatch(PhaseReverse)
			err := budget.Spend()
			result.Mismatches = budget.Count()
			if err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

func fieldText(record compare.Value, key string) string {
	v, ok := record.Get(key)
	if !ok {
		return "none"
	}
	return v.String()
}
