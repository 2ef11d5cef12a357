// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/jeranaias/genscene-tui/internal/logging"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL is the development address of the backend.
const DefaultBaseURL = "http://127.0.0.1:8000"

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend root, without the /api suffix.
	BaseURL string

	// Timeout for non-streaming requests (default: 30s). Chat streams are
	// bounded only by their context.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// Breaker configures fail-fast behavior while the backend is down.
	Breaker BreakerConfig

	// Logger receives breaker state changes. Defaults to the "api" component.
	Logger *zerolog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the genscene backend. It is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
	breaker      *gobreaker.CircuitBreaker[*http.Response]
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	c := &Client{config: config}
	if config.HTTPClient != nil {
		c.httpClient = config.HTTPClient
		c.streamClient = config.HTTPClient
	} else {
		c.httpClient = &http.Client{Timeout: config.Timeout}
		c.streamClient = &http.Client{}
	}

	logger := logging.Component("api")
	if config.Logger != nil {
		logger = *config.Logger
	}
	c.breaker = newBreaker(config.Breaker, logger)
	return c
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// CheckRunning verifies that the backend answers.
func (c *Client) CheckRunning(ctx context.Context) error {
	_, err := c.ListActors(ctx)
	return err
}

// =============================================================================
// ACTORS
// =============================================================================

// ListActors returns every configured actor.
func (c *Client) ListActors(ctx context.Context) ([]Actor, error) {
	var actors []Actor
	if err := c.getJSON(ctx, "/api/actors/", nil, &actors); err != nil {
		return nil, err
	}
	return actors, nil
}

// GetActor returns a single actor by name.
func (c *Client) GetActor(ctx context.Context, name string) (*Actor, error) {
	var actor Actor
	if err := c.getJSON(ctx, "/api/actors/"+url.PathEscape(name)+"/", nil, &actor); err != nil {
		return nil, err
	}
	return &actor, nil
}

// =============================================================================
// THREADS
// =============================================================================

// ListThreads returns the user's most recent threads, newest first.
func (c *Client) ListThreads(ctx context.Context, user string) ([]Thread, error) {
	if user == "" {
		return nil, &ClientError{Type: ErrTypeBadRequest, Message: "no user was provided"}
	}
	var threads []Thread
	if err := c.getJSON(ctx, "/api/threads/", url.Values{"user": {user}}, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// CreateThread starts an empty thread for user.
func (c *Client) CreateThread(ctx context.Context, user string) (*Thread, error) {
	if user == "" {
		return nil, &ClientError{Type: ErrTypeBadRequest, Message: "no user was provided"}
	}
	resp, err := c.send(ctx, c.httpClient, http.MethodPost, "/api/threads/", nil, createThreadRequest{User: user})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var thread Thread
	if err := decodeBody(resp, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// GetThread returns a thread including its messages.
func (c *Client) GetThread(ctx context.Context, id string) (*Thread, error) {
	var thread Thread
	if err := c.getJSON(ctx, "/api/threads/"+url.PathEscape(id)+"/", nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// DeleteThread removes a thread on the backend.
func (c *Client) DeleteThread(ctx context.Context, id string) error {
	resp, err := c.send(ctx, c.httpClient, http.MethodDelete, "/api/threads/"+url.PathEscape(id)+"/", nil, nil)
	if err != nil {
		return err
	}
	drainAndClose(resp.Body)
	return nil
}

// =============================================================================
// CHAT
// =============================================================================

// Chat posts one user turn and returns the open reply stream. The stream is
// not retried; cancel ctx to abort it.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ReplyStream, error) {
	if req.Actor == "" {
		return nil, &ClientError{Type: ErrTypeBadRequest, Message: "no actor was provided"}
	}
	resp, err := c.send(ctx, c.streamClient, http.MethodPost, "/api/chat/", nil, req)
	if err != nil {
		return nil, err
	}
	return &ReplyStream{
		Body:     resp.Body,
		ThreadID: resp.Header.Get("thread_id"),
		Actor:    resp.Header.Get("actor"),
	}, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.send(ctx, c.httpClient, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeBody(resp, out)
}

// send performs a request and returns the response only for 2xx statuses.
func (c *Client) send(ctx context.Context, hc *http.Client, method, path string, query url.Values, body any) (*http.Response, error) {
	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.execute(func() (*http.Response, error) {
		return do(hc, req, method, path)
	})
}

// do performs one request and maps transport and status failures to
// ClientErrors.
func do(hc *http.Client, req *http.Request, method, path string) (*http.Response, error) {
	resp, err := hc.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, err
		case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
			return nil, ErrTimeout
		default:
			return nil, &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer drainAndClose(resp.Body)
	return nil, statusError(method, path, resp)
}

func statusError(method, path string, resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return &ClientError{Type: ErrTypeNotFound, Message: fmt.Sprintf("%s %s: not found", method, path)}
	}

	msg := fmt.Sprintf("%s %s: %s", method, path, resp.Status)
	var eb errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb); err == nil && eb.Detail != "" {
		msg += ": " + eb.Detail
	}

	t := ErrTypeInvalidResponse
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		t = ErrTypeBadRequest
	}
	return &ClientError{Type: t, Message: msg}
}

func decodeBody(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
