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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-algorand/tools/e2elive/capture"
	"github.com/algorand/go-algorand/tools/e2elive/logging"
	"github.com/algorand/go-algorand/tools/e2elive/test/partitiontest"
	"github.com/algorand/go-algorand/tools/e2elive/util"
)

// fakeIndexerScript records step imports next to itself and otherwise
// behaves like a daemon that prints a line and keeps running.
const fakeIndexerScript = `#!/bin/sh
if [ -n "$INDEXER_DEBUG_EXIT_ROUND" ]; then
	if [ "$INDEXER_DEBUG_EXIT_ROUND" = "$FAIL_ROUND" ]; then
		echo "import failed at $INDEXER_DEBUG_EXIT_ROUND"
		exit 1
	fi
	echo "$INDEXER_DEBUG_EXIT_ROUND $*" >> "$(dirname "$0")/imports"
	exit 0
fi
if [ -n "$DAEMON_EXIT" ]; then
	echo "cannot open database"
	exit "$DAEMON_EXIT"
fi
echo "serving $*"
exec sleep 30
`

func writeFakeIndexer(t *testing.T) (dir string, bin string) {
	dir = t.TempDir()
	bin = filepath.Join(dir, indexerBinaryName)
	require.NoError(t, os.WriteFile(bin, []byte(fakeIndexerScript), 0755))
	return dir, bin
}

func TestFindIndexer(t *testing.T) {
	partitiontest.PartitionTest(t)

	bin, err := FindIndexer("/opt/explicit/algorand-indexer")
	require.NoError(t, err)
	require.Equal(t, "/opt/explicit/algorand-indexer", bin)

	dir, want := writeFakeIndexer(t)
	t.Setenv("PATH", strings.Join([]string{t.TempDir(), dir}, string(os.PathListSeparator)))
	bin, err = FindIndexer("")
	require.NoError(t, err)
	require.Equal(t, want, bin)

	t.Setenv("PATH", t.TempDir())
	_, err = FindIndexer("")
	require.ErrorIs(t, err, errIndexerNotFound)
}

func TestImportThrough(t *testing.T) {
	partitiontest.PartitionTest(t)

	dir, bin := writeFakeIndexer(t)
	t.Setenv("FAIL_ROUND", "3")
	ic := MakeIndexerController(bin, "dbname=x sslmode=disable", "/net/Primary", util.Runner{}, logging.NewDiscardLogger())

	require.NoError(t, ic.ImportThrough(context.Background(), 1))
	require.NoError(t, ic.ImportThrough(context.Background(), 2))
	imports, err := os.ReadFile(filepath.Join(dir, "imports"))
	require.NoError(t, err)
	require.Equal(t,
		"1 daemon -P dbname=x sslmode=disable --dev-mode --algod /net/Primary --server \n"+
			"2 daemon -P dbname=x sslmode=disable --dev-mode --algod /net/Primary --server \n",
		string(imports))

	err = ic.ImportThrough(context.Background(), 3)
	var cerr *util.CommandError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, 1, cerr.ExitCode)
	require.Contains(t, cerr.Output, "import failed at 3")
}

func TestDaemonOutputCaptured(t *testing.T) {
	partitiontest.PartitionTest(t)

	_, bin := writeFakeIndexer(t)
	var echo bytes.Buffer
	ic := MakeIndexerController(bin, "dbname=x", "", util.Runner{}, logging.NewDiscardLogger())
	ic.Echo = &echo
	out := capture.New(logging.NewDiscardLogger())

	require.NoError(t, ic.StartDaemon(context.Background(), 4321, out))
	require.True(t, ic.Started())
	require.NoError(t, ic.StopDaemon())
	require.False(t, ic.Started())

	require.NoError(t, out.Finalize())
	text, err := out.Dump()
	require.NoError(t, err)
	require.Equal(t, "serving daemon -P dbname=x --dev-mode --server :4321 --no-algod\n", text)
	require.Equal(t, "algorand-indexer : serving daemon -P dbname=x --dev-mode --server :4321 --no-algod\n", echo.String())
}

func TestDaemonExitedEarly(t *testing.T) {
	partitiontest.PartitionTest(t)

	_, bin := writeFakeIndexer(t)
	t.Setenv("DAEMON_EXIT", "4")
	ic := MakeIndexerController(bin, "dbname=x", "", util.Runner{}, logging.NewDiscardLogger())
	ic.Settle = 5 * DefaultSettle
	out := capture.New(logging.NewDiscardLogger())

	err := ic.StartDaemon(context.Background(), 4321, out)
	var early *errIndexerExitedEarly
	require.ErrorAs(t, err, &early)
	require.True(t, ic.Started())
	require.NoError(t, ic.StopDaemon())

	require.NoError(t, out.Finalize())
	text, err := out.Dump()
	require.NoError(t, err)
	require.Contains(t, text, "cannot open database")
}

func TestStopWithoutStart(t *testing.T) {
	partitiontest.PartitionTest(t)

	ic := MakeIndexerController("algorand-indexer", "", "", util.Runner{}, nil)
	require.ErrorIs(t, ic.StopDaemon(), errDaemonNotStarted)
}

func TestPrefixWriter(t *testing.T) {
	partitiontest.PartitionTest(t)

	var buf bytes.Buffer
	w := NewPrefixWriter(&buf, "idx")
	n, err := w.Write([]byte("a\n\nb\n"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "idx : a\nidx : b\n", buf.String())

	buf.Reset()
	w.SetLinePrefix("")
	w.Write([]byte("raw"))
	require.Equal(t, "raw", buf.String())
}
