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

package client

import (
	"context"
	"time"

	"github.com/algorand/go-algorand/tools/e2elive/logging"
)

const (
	// DefaultPollAttempts is how many times WaitFor asks before giving up.
	DefaultPollAttempts = 20
	// DefaultPollInterval is the fixed pause between attempts.
	DefaultPollInterval = 500 * time.Millisecond
)

// HealthSource reports the round a service has progressed to.
type HealthSource interface {
	HealthRound(ctx context.Context) (uint64, error)
}

// Poller waits for a service to report a target round.
type Poller struct {
	Source   HealthSource
	Attempts int
	Interval time.Duration
	Log      logging.Logger

	// Verbose logs every failed attempt at warn instead of debug.
	Verbose bool
}

// MakePoller returns a Poller with the default attempt count and interval.
func MakePoller(source HealthSource, log logging.Logger) Poller {
	return Poller{
		Source:   source,
		Attempts: DefaultPollAttempts,
		Interval: DefaultPollInterval,
		Log:      log,
	}
}

// WaitFor polls until the reported round reaches target. Errors and
// unexpected responses count as not ready. It returns false once the
// attempts run out or ctx is done.
func (p Poller) WaitFor(ctx context.Context, target uint64) bool {
	log := p.Log
	if log == nil {
		log = logging.Base()
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		round, err := p.Source.HealthRound(ctx)
		switch {
		case err != nil:
			if p.Verbose {
				log.Warnf("health attempt %d/%d: %v", attempt, attempts, err)
			} else {
				log.Debugf("health attempt %d/%d: %v", attempt, attempts, err)
			}
		case round >= target:
			log.Debugf("health reports round %d, wanted %d", round, target)
			return true
		default:
			log.Debugf("health attempt %d/%d: at round %d, waiting for %d", attempt, attempts, round, target)
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.Interval):
		}
	}
	return false
}
