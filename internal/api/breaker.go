// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultBreakerFailures uint32        = 3
	defaultBreakerTimeout  time.Duration = 15 * time.Second
	defaultBreakerInterval time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker in front of the backend.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive unreachable/timeout errors
	// before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
	// Interval clears failure counts while closed.
	Interval time.Duration
	// Disabled bypasses the breaker entirely.
	Disabled bool
}

// ErrCircuitOpen is returned while the breaker short-circuits requests.
// IsNotRunning reports true for it, so callers fall back to the cache.
var ErrCircuitOpen = &ClientError{Type: ErrTypeNotRunning, Message: "genscene backend is unavailable (circuit open)"}

func newBreaker(cfg BreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker[*http.Response] {
	if cfg.Disabled {
		return nil
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = defaultBreakerFailures
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultBreakerTimeout
	}
	if cfg.Interval == 0 {
		cfg.Interval = defaultBreakerInterval
	}

	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "genscene-backend",
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
		// Only an unreachable or slow backend trips the circuit; 4xx
		// answers and caller cancellation mean the backend is up.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				!(IsNotRunning(err) || IsTimeout(err))
		},
	})
}

// BreakerState reports the circuit state ("closed", "half-open", "open"),
// or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

// execute runs fn through the breaker when one is configured.
func (c *Client) execute(fn func() (*http.Response, error)) (*http.Response, error) {
	if c.breaker == nil {
		return fn()
	}
	resp, err := c.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &ClientError{Type: ErrTypeNotRunning, Message: ErrCircuitOpen.Message, Cause: err}
	}
	return resp, err
}
