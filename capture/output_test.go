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

package capture

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/algorand/go-algorand/tools/e2elive/logging"
	"github.com/algorand/go-algorand/tools/e2elive/test/partitiontest"
)

func waitDone(t *testing.T, o *Output) {
	select {
	case <-o.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("capture goroutine did not finish")
	}
}

func compressedLen(o *Output) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.Len()
}

func TestDumpRequiresFinalize(t *testing.T) {
	partitiontest.PartitionTest(t)

	o := New(logging.NewDiscardLogger())
	o.Write([]byte("hello"))
	_, err := o.Dump()
	require.ErrorIs(t, err, ErrNotFinalized)
	require.False(t, o.Finalized())

	require.NoError(t, o.Finalize())
	out, err := o.Dump()
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestWritesAfterFinalizeDropped(t *testing.T) {
	partitiontest.PartitionTest(t)

	o := New(logging.NewDiscardLogger())
	for _, s := range []string{"one\n", "two\n", "three\n"} {
		n, err := o.Write([]byte(s))
		require.NoError(t, err)
		require.Equal(t, len(s), n)
	}
	require.NoError(t, o.Finalize())
	require.NoError(t, o.Finalize())

	n, err := o.Write([]byte("late\n"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	out, err := o.Dump()
	require.NoError(t, err)
	require.Equal(t, "one\ntwo\nthree\n", out)

	// dumping twice returns the same content
	again, err := o.Dump()
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestStartDrainsUntilEOF(t *testing.T) {
	partitiontest.PartitionTest(t)
	defer goleak.VerifyNone(t)

	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		sb.WriteString("indexer log line\n")
	}
	o := New(logging.NewDiscardLogger())
	o.Start(strings.NewReader(sb.String()))
	waitDone(t, o)

	require.NoError(t, o.Finalize())
	out, err := o.Dump()
	require.NoError(t, err)
	require.Equal(t, sb.String(), out)
}

func TestFinalizeStopsDrain(t *testing.T) {
	partitiontest.PartitionTest(t)
	defer goleak.VerifyNone(t)

	pr, pw := io.Pipe()
	o := New(logging.NewDiscardLogger())
	o.Start(pr)

	_, err := pw.Write([]byte("before\n"))
	require.NoError(t, err)
	// the gzip header lands in the buffer on the first write
	require.Eventually(t, func() bool {
		return compressedLen(o) > 0
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, o.Finalize())

	_, err = pw.Write([]byte("after\n"))
	require.NoError(t, err)
	waitDone(t, o)
	pw.Close()

	out, err := o.Dump()
	require.NoError(t, err)
	require.Equal(t, "before\n", out)
}

type failingReader struct {
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("boom")
}

func TestReadErrorLoggedAndStops(t *testing.T) {
	partitiontest.PartitionTest(t)

	hook := new(test.Hook)
	log := logging.NewDiscardLogger()
	log.AddHook(hook)

	o := New(log)
	o.Start(&failingReader{})
	waitDone(t, o)

	require.Len(t, hook.AllEntries(), 1)
	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	require.Contains(t, hook.LastEntry().Message, "boom")

	require.NoError(t, o.Finalize())
	out, err := o.Dump()
	require.NoError(t, err)
	require.Equal(t, "partial", out)
}
