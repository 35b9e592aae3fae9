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

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/algorand/go-algorand/tools/e2elive/logging"
	"github.com/algorand/go-algorand/tools/e2elive/test/partitiontest"
)

func makeTestClient(t *testing.T, e *echo.Echo) RestClient {
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return MakeRestClient(*u, 5*time.Second)
}

func TestAccountsRoundParameter(t *testing.T) {
	partitiontest.PartitionTest(t)

	var seen []string
	e := echo.New()
	e.GET("/v2/accounts", func(c echo.Context) error {
		seen = append(seen, c.QueryParam("round"))
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`{"accounts":[]}`))
	})
	client := makeTestClient(t, e)

	raw, err := client.Accounts(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, `{"accounts":[]}`, string(raw))

	round := uint64(7)
	_, err = client.Accounts(context.Background(), &round)
	require.NoError(t, err)

	require.Equal(t, []string{"", "7"}, seen)
}

func TestAccountsHTTPError(t *testing.T) {
	partitiontest.PartitionTest(t)

	e := echo.New()
	e.GET("/v2/accounts", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "db is down\x07"})
	})
	client := makeTestClient(t, e)

	_, err := client.Accounts(context.Background(), nil)
	var httpErr HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	require.Equal(t, "db is down", httpErr.ErrorString)
}

func TestParseHealthRound(t *testing.T) {
	partitiontest.PartitionTest(t)

	cases := []struct {
		body  string
		round uint64
		ok    bool
	}{
		{`{"message":"12","round":12}`, 12, true},
		{`{"message":12}`, 12, true},
		{`{"round":12}`, 0, false},
		{`{"message":""}`, 0, false},
		{`{"message":"migrating"}`, 0, false},
		{`not json`, 0, false},
	}
	for _, c := range cases {
		round, err := parseHealthRound([]byte(c.body))
		if c.ok {
			require.NoError(t, err, c.body)
			require.Equal(t, c.round, round, c.body)
		} else {
			require.Error(t, err, c.body)
		}
	}
}

func TestHealth(t *testing.T) {
	partitiontest.PartitionTest(t)

	e := echo.New()
	e.GET("/health", func(c echo.Context) error {
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`{"db-available":true,"message":"5","round":5}`))
	})
	client := makeTestClient(t, e)

	h, err := client.Health(context.Background())
	require.NoError(t, err)
	require.True(t, h.DBAvailable)
	require.Equal(t, uint64(5), h.Round)

	round, err := client.HealthRound(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(5), round)
}

func TestPollerReachesTarget(t *testing.T) {
	partitiontest.PartitionTest(t)

	var calls atomic.Int32
	e := echo.New()
	e.GET("/health", func(c echo.Context) error {
		switch n := calls.Add(1); {
		case n == 1:
			return c.String(http.StatusServiceUnavailable, "starting")
		case n == 2:
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`garbage`))
		case n == 3:
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`{"round":1}`))
		case n == 4:
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`{"message":"2"}`))
		default:
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(`{"message":"3"}`))
		}
	})
	client := makeTestClient(t, e)

	p := MakePoller(client, logging.NewDiscardLogger())
	p.Interval = time.Millisecond
	require.True(t, p.WaitFor(context.Background(), 3))
	require.Equal(t, int32(5), calls.Load())
}

type stuckSource struct {
	calls int
}

func (s *stuckSource) HealthRound(ctx context.Context) (uint64, error) {
	s.calls++
	return 1, nil
}

func TestPollerExhaustsAttempts(t *testing.T) {
	partitiontest.PartitionTest(t)

	src := &stuckSource{}
	p := Poller{Source: src, Attempts: 4, Interval: time.Millisecond, Log: logging.NewDiscardLogger()}
	require.False(t, p.WaitFor(context.Background(), 3))
	require.Equal(t, 4, src.calls)
}

func TestPollerStopsOnCancel(t *testing.T) {
	partitiontest.PartitionTest(t)

	src := &stuckSource{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Poller{Source: src, Attempts: 20, Interval: time.Hour, Log: logging.NewDiscardLogger()}
	require.False(t, p.WaitFor(ctx, 3))
	require.Equal(t, 1, src.calls)
}
