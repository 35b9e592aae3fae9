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
	"io"
	"strings"
	"sync/atomic"
)

// PrefixWriter splits what it is given into lines and writes each one to the
// underlying writer behind a prefix. It is used to mirror the indexer output
// while it is also being captured.
type PrefixWriter struct {
	out        io.Writer
	LinePrefix atomic.Value // of datatype string
}

// NewPrefixWriter returns a PrefixWriter writing to out.
func NewPrefixWriter(out io.Writer, linePrefix string) *PrefixWriter {
	pw := &PrefixWriter{out: out}
	pw.LinePrefix.Store(linePrefix)
	return pw
}

// SetLinePrefix sets the line prefix used by later writes.
func (s *PrefixWriter) SetLinePrefix(linePrefix string) {
	s.LinePrefix.Store(linePrefix)
}

// Write implements io.Writer. On success it reports len(p) so the caller
// does not see the extra prefix bytes.
func (s *PrefixWriter) Write(p []byte) (n int, err error) {
	linePrefix := s.LinePrefix.Load().(string)
	if linePrefix == "" {
		return s.out.Write(p)
	}
	for _, outputLine := range strings.Split(string(p), "\n") {
		// avoid outputing empty lines.
		if len(outputLine) == 0 {
			continue
		}
		if _, err = io.WriteString(s.out, linePrefix+" : "+outputLine+"\n"); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
