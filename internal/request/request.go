// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/drone_dashboard/internal/metrics"
)

// ErrorHandler receives the failure of a request.
//
// A nil handler drops the error. LogErrors returns the logging default.
type ErrorHandler func(err error)

// LogErrors returns an ErrorHandler that logs failures at debug level.
func LogErrors(log *slog.Logger) ErrorHandler {
	return func(err error) {
		log.Debug("request: failed", "error", err)
	}
}

// Into adapts a typed success callback to the raw JSON callback taken by
// Request. A body that does not decode into T is reported to onError.
func Into[T any](onSuccess func(T), onError ErrorHandler) func(json.RawMessage) {
	return func(body json.RawMessage) {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			if onError != nil {
				onError(fmt.Errorf("decode %T: %w", v, err))
			}
			return
		}
		onSuccess(v)
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
}

var ErrNotJSON = errors.New("response body is not valid JSON")

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (cfg *Config) Validate() error {
	if cfg.BaseURL == "" {
		return errors.New("base url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("base url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("base url host is required")
	}
	return nil
}

// Client issues fire-and-forget JSON requests against one base URL.
type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client

	inflight sync.WaitGroup
}

func New(log *slog.Logger, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No timeout: a request lives until it answers or the process exits.
		httpClient = &http.Client{}
	}
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}, nil
}

// BaseURL returns the host the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request issues exactly one asynchronous HTTP request to endpoint and returns
// immediately. On a 2xx response with a valid JSON body onSuccess is called
// with that body; any other outcome goes to onError. Callbacks run on the
// request's own goroutine.
//
// For GET, HEAD and DELETE the body is sent as query parameters, otherwise as
// a JSON document. ctx bounds the life of the request; there is no
// per-request cancellation or retry.
func (c *Client) Request(ctx context.Context, endpoint, method string, body any, onSuccess func(json.RawMessage), onError ErrorHandler) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		res, err := c.do(ctx, endpoint, method, body)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(res)
		}
	}()
}

// Wait blocks until every request issued so far has finished.
func (c *Client) Wait() {
	c.inflight.Wait()
}

func (c *Client) do(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	startedAt := time.Now()
	res, err := c.roundTrip(ctx, endpoint, method, body)
	elapsed := time.Since(startedAt)
	metrics.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	if c.log != nil {
		c.log.Debug("request: done", "method", method, "endpoint", endpoint, "duration", elapsed, "ok", err == nil)
	}
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	metrics.RequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return res, nil
}

func (c *Client) roundTrip(ctx context.Context, endpoint, method string, body any) (json.RawMessage, error) {
	if method == "" {
		method = http.MethodGet
	}
	req, err := c.newRequest(ctx, endpoint, method, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrNotJSON)
	}
	return json.RawMessage(data), nil
}

func (c *Client) newRequest(ctx context.Context, endpoint, method string, body any) (*http.Request, error) {
	target := c.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		if sendsQuery(method) {
			query, err := EncodeQuery(body)
			if err != nil {
				return nil, fmt.Errorf("%s %s: encode query: %w", method, endpoint, err)
			}
			if query != "" {
				sep := "?"
				if strings.Contains(target, "?") {
					sep = "&"
				}
				target += sep + query
			}
		} else {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("%s %s: encode body: %w", method, endpoint, err)
			}
			reader = bytes.NewReader(payload)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func sendsQuery(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	}
	return false
}

// EncodeQuery flattens body into a URL query string. url.Values and
// map[string]string are used as-is; anything else is taken through its JSON
// form, so struct tags decide the parameter names. Nested values are sent as
// JSON text.
func EncodeQuery(body any) (string, error) {
	switch b := body.(type) {
	case url.Values:
		return b.Encode(), nil
	case map[string]string:
		v := url.Values{}
		for k, s := range b {
			v.Set(k, s)
		}
		return v.Encode(), nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return "", fmt.Errorf("query body must be a JSON object: %w", err)
	}

	v := url.Values{}
	for k, field := range fields {
		switch f := field.(type) {
		case nil:
			v.Set(k, "")
		case string:
			v.Set(k, f)
		case json.Number:
			v.Set(k, f.String())
		case bool:
			if f {
				v.Set(k, "true")
			} else {
				v.Set(k, "false")
			}
		default:
			nested, err := json.Marshal(f)
			if err != nil {
				return "", err
			}
			v.Set(k, string(nested))
		}
	}
	return v.Encode(), nil
}
