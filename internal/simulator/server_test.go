// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package simulator

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/drone_dashboard/internal/metrics"
	"github.com/relabs-tech/drone_dashboard/internal/telemetry"
)

type fixedSource struct {
	sample telemetry.Sample
	ok     bool
}

func (f fixedSource) Sample() (telemetry.Sample, bool) { return f.sample, f.ok }

func newTestServer(t *testing.T, src Source) *httptest.Server {
	t.Helper()
	s, err := NewServer(&Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Source: src,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, method, url string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestSimulator_Config_Validate(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.Error(t, (&Config{Source: fixedSource{}}).Validate())
	require.Error(t, (&Config{Logger: log}).Validate())
	require.NoError(t, (&Config{Logger: log, Source: fixedSource{}}).Validate())
}

func TestSimulator_PingEchoesQueryAsStrings(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixedSource{})

	resp, body := getJSON(t, http.MethodGet, srv.URL+"/ping?calledAt=1733400000000&label=x")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"calledAt": "1733400000000", "label": "x"}, body)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET,POST", resp.Header.Get("Access-Control-Allow-Methods"))
	require.Equal(t, "x-prototype-version,x-requested-with", resp.Header.Get("Access-Control-Allow-Headers"))

	var ping telemetry.PingSample
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &ping))
	require.Equal(t, telemetry.Millis(1733400000000), ping.CalledAt)
}

func TestSimulator_PingWithoutCalledAtReturnsError(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixedSource{})

	resp, body := getJSON(t, http.MethodGet, srv.URL+"/ping")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body["error"], "did not have proper body")
	require.NotContains(t, body, "calledAt")
}

func TestSimulator_WrongMethod(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixedSource{})

	resp, body := getJSON(t, http.MethodPost, srv.URL+"/simulation-info")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, "Wrong request method: POST should be GET", body["error"])
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSimulator_Preflight(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixedSource{})

	resp, _ := getJSON(t, http.MethodOptions, srv.URL+"/ping")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSimulator_InfoServesSample(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixedSource{sample: telemetry.Sample{X: 5, Y: -5, Z: 2, A: 90}, ok: true})

	resp, body := getJSON(t, http.MethodGet, srv.URL+"/simulation-info")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Equal(t, map[string]any{"x": 5.0, "y": -5.0, "z": 2.0, "a": 90.0}, body)
}

func TestSimulator_InfoWithoutPosition(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, fixedSource{})

	resp, body := getJSON(t, http.MethodGet, srv.URL+"/simulation-info")
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.NotEmpty(t, body["error"])
}

// Not parallel: reads a shared counter.
func TestSimulator_CountsRequests(t *testing.T) {
	srv := newTestServer(t, fixedSource{})

	ok := metrics.SimulatorRequestsTotal.WithLabelValues(PingPath, "200")
	wrong := metrics.SimulatorRequestsTotal.WithLabelValues(PingPath, "405")
	okBefore, wrongBefore := testutil.ToFloat64(ok), testutil.ToFloat64(wrong)

	getJSON(t, http.MethodGet, srv.URL+"/ping?calledAt=1")
	getJSON(t, http.MethodGet, srv.URL+"/ping?calledAt=2")
	getJSON(t, http.MethodPost, srv.URL+"/ping")

	// Counted after the response is written.
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(ok) == okBefore+2 && testutil.ToFloat64(wrong) == wrongBefore+1
	}, time.Second, 5*time.Millisecond)
}
