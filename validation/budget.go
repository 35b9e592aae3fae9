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

// DefaultErrorLimit is how many mismatches a phase tolerates.
const DefaultErrorLimit = 10

// ErrorBudget counts the mismatches found during one phase.
type ErrorBudget struct {
	phase string
	limit int
	count int
}

// MakeErrorBudget returns an empty budget for phase. A limit of zero or less
// means DefaultErrorLimit.
func MakeErrorBudget(phase string, limit int) *ErrorBudget {
	if limit <= 0 {
		limit = DefaultErrorLimit
	}
	return &ErrorBudget{phase: phase, limit: limit}
}

// Spend records one mismatch. It returns a ThresholdExceeded error once the
// count goes past the limit.
func (b *ErrorBudget) Spend() error {
	b.count++
	if b.count > b.limit {
		return makeError(ThresholdExceeded, b.phase, fmt.Errorf("too many errors: %d > %d", b.count, b.limit))
	}
	return nil
}

// Count is the number of mismatches recorded so far.
func (b *ErrorBudget) Count() int {
	return b.count
}

// Limit is the number of mismatches tolerated.
func (b *ErrorBudget) Limit() int {
	return b.limit
}
