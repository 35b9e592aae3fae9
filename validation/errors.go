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
	"errors"
	"fmt"
)

// Kind classifies the errors that end a run.
type Kind int

const (
	// Setup covers missing fixtures, processes that will not start and
	// databases that cannot be reached.
	Setup Kind = iota
	// ThresholdExceeded means a phase found more mismatches than its budget allows.
	ThresholdExceeded
	// Unavailable means the indexer could not be queried, or never reported
	// the expected round.
	Unavailable
	// ExternalCommand means a subprocess exited nonzero or timed out.
	ExternalCommand
)

func (k Kind) String() string {
	switch k {
	case Setup:
		return "setup"
	case ThresholdExceeded:
		return "threshold exceeded"
	case Unavailable:
		return "unavailable"
	case ExternalCommand:
		return "external command"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a fatal run error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func makeError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
