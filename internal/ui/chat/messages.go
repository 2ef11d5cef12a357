// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/genscene-tui/internal/api"
	"github.com/jeranaias/genscene-tui/internal/config"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/stream"
	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// TRANSCRIPT MESSAGES
// =============================================================================

// TranscriptMsg carries the newest transcript snapshot into the Bubble Tea
// loop.
type TranscriptMsg struct {
	Messages []transcript.Message
	Version  uint64
	// Reset is set when the transcript was replaced since the previous
	// TranscriptMsg, so rendered messages cannot be reused.
	Reset bool
}

// StreamDoneMsg reports the end of a reply stream.
type StreamDoneMsg struct {
	Result stream.Result
	Err    error
}

// renderTickMsg fires when a throttled render is due.
type renderTickMsg struct{}

// =============================================================================
// THREAD AND ACTOR MESSAGES
// =============================================================================

// ThreadsLoadedMsg carries a thread listing.
type ThreadsLoadedMsg struct {
	Threads []session.ThreadInfo
	Offline bool
	Err     error
}

// ActorsLoadedMsg carries the backend's actors.
type ActorsLoadedMsg struct {
	Actors []api.Actor
	Err    error
}

// ThreadOpenedMsg reports an opened thread.
type ThreadOpenedMsg struct {
	Info *session.ThreadInfo
	Err  error
}

// ThreadDeletedMsg reports a deleted thread.
type ThreadDeletedMsg struct {
	ID  string
	Err error
}

// ActorSelectedMsg reports an actor switch.
type ActorSelectedMsg struct {
	Actor *api.Actor
	Err   error
}

// BackendStatusMsg reports whether the backend answered.
type BackendStatusMsg struct {
	Err     error
	Offline bool
	Actors  int
	Threads int
}

// =============================================================================
// MISC MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a config file reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// StatusMsg sets the status bar text.
type StatusMsg struct {
	Text  string
	Error bool
}
