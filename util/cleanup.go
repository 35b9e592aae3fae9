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

package util

import (
	"errors"
	"fmt"

	"github.com/algorand/go-algorand/tools/e2elive/logging"
)

type cleanupStep struct {
	name string
	fn   func() error
}

// Cleanup is a stack of release functions. Each resource registers its
// release right after it is acquired; Run releases them in reverse order.
type Cleanup struct {
	steps []cleanupStep
	ran   bool
	log   logging.Logger
}

// MakeCleanup returns an empty Cleanup.
func MakeCleanup(log logging.Logger) *Cleanup {
	if log == nil {
		log = logging.Base()
	}
	return &Cleanup{log: log}
}

// Add registers fn to run during Run.
func (c *Cleanup) Add(name string, fn func() error) {
	c.steps = append(c.steps, cleanupStep{name: name, fn: fn})
}

// Len is the number of registered steps.
func (c *Cleanup) Len() int {
	return len(c.steps)
}

// Run calls every registered function, last registered first. A failing or
// panicking step does not stop the ones after it. Only the first call does
// anything.
func (c *Cleanup) Run() error {
	if c.ran {
		return nil
	}
	c.ran = true
	var errs []error
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := runStep(step); err != nil {
			c.log.Warnf("cleanup %s: %v", step.name, err)
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		} else {
			c.log.Debugf("cleanup %s done", step.name)
		}
	}
	return errors.Join(errs...)
}

func runStep(step cleanupStep) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step.fn()
}
