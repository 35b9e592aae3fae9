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
	"fmt"
)

// RoundSnapshots holds the raw account payload seen after each forward step.
// Rounds are recorded in order starting at 1, so the stored rounds are
// always exactly 1..Len().
type RoundSnapshots struct {
	payloads [][]byte
}

// Put records the payload for round. round must be Len()+1.
func (s *RoundSnapshots) Put(round uint64, payload []byte) error {
	if want := uint64(len(s.payloads)) + 1; round != want {
		return fmt.Errorf("snapshot for round %d out of order, next round is %d", round, want)
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

// Get returns the payload recorded for round.
func (s *RoundSnapshots) Get(round uint64) ([]byte, bool) {
	if round == 0 || round > uint64(len(s.payloads)) {
		return nil, false
	}
	return s.payloads[round-1], true
}

// Len is the last recorded round.
func (s *RoundSnapshots) Len() uint64 {
	return uint64(len(s.payloads))
}

// Rounds lists the recorded rounds in increasing order.
func (s *RoundSnapshots) Rounds() []uint64 {
	out := make([]uint64, len(s.payloads))
	for i := range s.payloads {
		out[i] = uint64(i + 1)
	}
	return out
}
