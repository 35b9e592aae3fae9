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
	"fmt"
	"sort"
	"strings"

	"github.com/algorand/go-algorand/tools/e2elive/util"
)

// Divergence is one place where two values disagree.
type Divergence struct {
	Path    []string
	Message string
}

func (d Divergence) String() string {
	return fmt.Sprintf("%s: %s", formatPath(d.Path), d.Message)
}

func formatPath(path []string) string {
	if len(path) == 0 {
		return "."
	}
	return strings.Join(path, ".")
}

// Report accumulates divergences in the order they were found.
type Report []Divergence

func (r *Report) add(path []string, format string, args ...interface{}) {
	p := make([]string, len(path))
	copy(p, path)
	*r = append(*r, Divergence{Path: p, Message: fmt.Sprintf(format, args...)})
}

// Strings renders every divergence.
func (r Report) Strings() []string {
	return util.Map(r, Divergence.String)
}

func (r Report) String() string {
	return strings.Join(r.Strings(), "; ")
}

// Equal compares a and b structurally and returns every divergence found.
func Equal(a, b Value) (bool, Report) {
	var report Report
	ok := EqualAt(nil, a, b, &report)
	return ok, report
}

// EqualAt compares a and b, which live at path in some enclosing structure,
// appending divergences to report.
//
// Null on one side matches any empty value on the other. Mappings must have
// the same key set and equal values under every shared key. Sequences must
// have the same length and equal elements pairwise; element positions are
// not added to the path. Everything else compares as scalars.
func EqualAt(path []string, a, b Value, report *Report) bool {
	if a.IsNull() && b.IsEmpty() || b.IsNull() && a.IsEmpty() {
		return true
	}

	if a.kind == Mapping && b.kind == Mapping {
		return equalMappings(path, a, b, report)
	}
	if a.kind == Sequence && b.kind == Sequence {
		if len(a.seq) != len(b.seq) {
			report.add(path, "length %d != %d", len(a.seq), len(b.seq))
			return false
		}
		ok := true
		for i := range a.seq {
			if !EqualAt(path, a.seq[i], b.seq[i], report) {
				ok = false
			}
		}
		return ok
	}

	if !scalarEqual(a, b) {
		report.add(path, "%s != %s", a, b)
		return false
	}
	return true
}

func equalMappings(path []string, a, b Value, report *Report) bool {
	var onlyA, onlyB []string
	for _, k := range a.keys {
		if _, ok := b.m[k]; !ok {
			onlyA = append(onlyA, k)
		}
	}
	for _, k := range b.keys {
		if _, ok := a.m[k]; !ok {
			onlyB = append(onlyB, k)
		}
	}
	ok := true
	if len(onlyA) > 0 {
		sort.Strings(onlyA)
		report.add(path, "only in left: %v", onlyA)
		ok = false
	}
	if len(onlyB) > 0 {
		sort.Strings(onlyB)
		report.add(path, "only in right: %v", onlyB)
		ok = false
	}
	for _, k := range a.keys {
		bv, shared := b.m[k]
		if !shared {
			continue
		}
		if !EqualAt(append(path[:len(path):len(path)], k), a.m[k], bv, report) {
			ok = false
		}
	}
	return ok
}

func scalarEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case String:
		return a.s == b.s
	case Number:
		if a.s == b.s {
			return true
		}
		ra, okA := a.Rat()
		rb, okB := b.Rat()
		return okA && okB && ra.Cmp(rb) == 0
	}
	// containers of different kinds never get here
	return false
}
