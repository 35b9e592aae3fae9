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

package nodecontrol

import (
	"errors"
	"fmt"
)

var errIndexerNotFound = errors.New("could not find algorand-indexer. use --indexer-bin or PATH environment variable")
var errDaemonNotStarted = errors.New("indexer daemon was not started")

// errIndexerExitedEarly is returned when the query daemon exits during its settle period.
type errIndexerExitedEarly struct {
	innerError error
}

func (e *errIndexerExitedEarly) Error() string {
	if e.innerError == nil {
		return "indexer daemon exited before we could contact it"
	}
	return fmt.Sprintf("indexer daemon exited with an error code, check its output for more details : %v", e.innerError)
}

func (e *errIndexerExitedEarly) Unwrap() error {
	return e.innerError
}
