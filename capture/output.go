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

// Package capture accumulates the output of a running subprocess in a
// compressed in-memory buffer so it can be dumped if something goes wrong.
package capture

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/algorand/go-deadlock"
	"github.com/klauspost/compress/gzip"

	"github.com/algorand/go-algorand/tools/e2elive/logging"
)

// ErrNotFinalized is returned by Dump when Finalize has not been called yet.
var ErrNotFinalized = errors.New("capture: output is still live, finalize before dumping")

const readChunkSize = 32 * 1024

// Output is an append-only, gzip-compressed byte accumulator. It starts live
// and may be finalized exactly once; writes after that are dropped.
type Output struct {
	mu        deadlock.Mutex
	buf       bytes.Buffer
	zw        *gzip.Writer
	finalized bool
	done      chan struct{}

	log logging.Logger
}

// New returns a live Output.
func New(log logging.Logger) *Output {
	if log == nil {
		log = logging.Base()
	}
	o := &Output{log: log}
	o.zw = gzip.NewWriter(&o.buf)
	return o
}

// Start drains r into the Output on a background goroutine until r is
// exhausted or the Output is finalized. The goroutine is never joined: if r
// never returns, neither does it.
func (o *Output) Start(r io.Reader) {
	o.mu.Lock()
	o.done = make(chan struct{})
	done := o.done
	o.mu.Unlock()
	go func() {
		defer close(done)
		o.drain(r)
	}()
}

// Done returns a channel closed when the goroutine started by Start returns.
// It is nil if Start was never called.
func (o *Output) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

func (o *Output) drain(r io.Reader) {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if !o.write(chunk[:n]) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				o.log.Warnf("capture: stopped reading output: %v", err)
			}
			return
		}
	}
}

// write appends p and reports whether the Output is still live.
func (o *Output) write(p []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finalized {
		return false
	}
	if _, err := o.zw.Write(p); err != nil {
		o.log.Warnf("capture: compress failed: %v", err)
	}
	return true
}

// Write implements io.Writer. Writes after Finalize are silently dropped.
func (o *Output) Write(p []byte) (int, error) {
	o.write(p)
	return len(p), nil
}

// Finalize closes the compressor and freezes the content. Only the first
// call has any effect.
func (o *Output) Finalize() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finalized {
		return nil
	}
	o.finalized = true
	return o.zw.Close()
}

// Finalized reports whether Finalize has run.
func (o *Output) Finalized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.finalized
}

// Dump returns everything written before Finalize, decompressed.
func (o *Output) Dump() (string, error) {
	o.mu.Lock()
	if !o.finalized {
		o.mu.Unlock()
		return "", ErrNotFinalized
	}
	compressed := o.buf.Bytes()
	o.mu.Unlock()

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
