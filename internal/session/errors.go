// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"

	"github.com/jeranaias/genscene-tui/internal/api"
)

var (
	// ErrStreamInFlight is returned by Send while a reply is still streaming.
	ErrStreamInFlight = errors.New("a reply is still streaming")

	// ErrEmptyPrompt is returned by Send for blank input.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrNoActor is returned by Send before an actor is selected.
	ErrNoActor = errors.New("no actor selected")

	// ErrSuperseded is returned by Send when the thread was switched while
	// the reply was streaming.
	ErrSuperseded = errors.New("thread changed while streaming")
)

// Unreachable reports whether err means the backend could not be reached,
// which is when the session falls back to the local cache.
func Unreachable(err error) bool {
	return api.IsNotRunning(err) || api.IsTimeout(err)
}
