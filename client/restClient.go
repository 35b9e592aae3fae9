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

// Package client talks to the indexer REST API: the account-state endpoint
// and the health endpoint used to wait for convergence.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/tidwall/gjson"
)

const (
	healthCheckEndpoint = "/health"
	accountsEndpoint    = "/v2/accounts"
	maxRawResponseBytes = 50e6

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
)

// ErrNotReady is returned by HealthRound when the health response carries no
// usable progress counter.
var ErrNotReady = errors.New("indexer health does not report a round yet")

// HTTPError is generated when we receive an unhandled error from the server. This error contains the error string.
type HTTPError struct {
	StatusCode  int
	Status      string
	URL         string
	ErrorString string
}

// Error formats an error string.
func (e HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %s: %s", e.URL, e.Status, e.ErrorString)
}

// RestClient manages the REST interface for a calling user.
type RestClient struct {
	serverURL  url.URL
	httpClient *http.Client
}

// MakeRestClient is the factory for constructing a RestClient for a given endpoint.
// A zero timeout selects DefaultTimeout.
func MakeRestClient(url url.URL, timeout time.Duration) RestClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return RestClient{
		serverURL:  url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ServerURL returns the base URL of the indexer.
func (client RestClient) ServerURL() url.URL {
	return client.serverURL
}

// filterASCII filter out the non-ascii printable characters out of the given input string.
// It's used as a security qualifier before adding network provided data into an error message.
func filterASCII(unfilteredString string) (filteredString string) {
	for i, r := range unfilteredString {
		if int(r) >= 0x20 && int(r) <= 0x7e {
			filteredString += string(unfilteredString[i])
		}
	}
	return
}

// extractError checks if the response signifies an error (for now, StatusCode != 200).
// If so, it returns the error.
// Otherwise, it returns nil.
func extractError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	errorBuf, _ := io.ReadAll(resp.Body) // ignore returned error
	var errorJSON struct {
		Message string `json:"message"`
	}
	errorString := string(errorBuf)
	if json.Unmarshal(errorBuf, &errorJSON) == nil && errorJSON.Message != "" {
		errorString = errorJSON.Message
	}
	return HTTPError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		URL:         resp.Request.URL.String(),
		ErrorString: filterASCII(errorString),
	}
}

// getRaw performs a GET request to the specific path against the server and
// returns the body bytes unmodified.
func (client RestClient) getRaw(ctx context.Context, path string, params interface{}) ([]byte, error) {
	queryURL := client.serverURL
	queryURL.Path = path

	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return nil, err
		}
		queryURL.RawQuery = v.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Ensure response isn't too large
	resp.Body = http.MaxBytesReader(nil, resp.Body, maxRawResponseBytes)
	defer resp.Body.Close()

	if err := extractError(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

type accountsParams struct {
	Round *uint64 `url:"round,omitempty"`
}

// Accounts fetches the raw account-state payload. With a nil round the
// latest state is returned, otherwise the state as of that round.
func (client RestClient) Accounts(ctx context.Context, round *uint64) ([]byte, error) {
	return client.getRaw(ctx, accountsEndpoint, accountsParams{Round: round})
}

// HealthResponse is the body of the indexer health endpoint.
type HealthResponse struct {
	Data        map[string]interface{} `json:"data,omitempty"`
	DBAvailable bool                   `json:"db-available"`
	IsMigrating bool                   `json:"is-migrating"`
	Message     string                 `json:"message"`
	Round       uint64                 `json:"round"`
	Errors      []string               `json:"errors,omitempty"`
}

// Health fetches and decodes the health endpoint.
func (client RestClient) Health(ctx context.Context) (response HealthResponse, err error) {
	raw, err := client.getRaw(ctx, healthCheckEndpoint, nil)
	if err != nil {
		return
	}
	err = json.Unmarshal(raw, &response)
	return
}

// HealthRound returns the progress counter reported in the message field of
// the health endpoint.
func (client RestClient) HealthRound(ctx context.Context) (uint64, error) {
	raw, err := client.getRaw(ctx, healthCheckEndpoint, nil)
	if err != nil {
		return 0, err
	}
	return parseHealthRound(raw)
}

func parseHealthRound(raw []byte) (uint64, error) {
	if !gjson.ValidBytes(raw) {
		return 0, fmt.Errorf("unparsable health response %q", filterASCII(string(raw)))
	}
	msg := gjson.GetBytes(raw, "message")
	if !msg.Exists() || msg.String() == "" {
		return 0, ErrNotReady
	}
	round, err := strconv.ParseUint(msg.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: message %q", ErrNotReady, filterASCII(msg.String()))
	}
	return round, nil
}
