// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// RELAY
// =============================================================================

// Relay coalesces transcript updates for the UI. Store observers run under
// the store's writer lock, so Observe only records the newest snapshot and
// Run delivers it from another goroutine.
//
// Thread-safety: Observe is called on the stream goroutine, Take and Run on
// others; all state is guarded by mu.
type Relay struct {
	mu        sync.Mutex
	pending   *TranscriptMsg
	coalesced int

	notify chan struct{}
}

// NewRelay creates an empty relay.
func NewRelay() *Relay {
	return &Relay{notify: make(chan struct{}, 1)}
}

// Observe is a transcript.Observer. It never blocks.
func (r *Relay) Observe(u transcript.Update) {
	r.mu.Lock()
	reset := u.Op.Type == transcript.OpReplace
	if r.pending != nil {
		reset = reset || r.pending.Reset
		r.coalesced++
	}
	r.pending = &TranscriptMsg{Messages: u.Messages, Version: u.Version, Reset: reset}
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Take returns the pending snapshot, if any, and clears it.
func (r *Relay) Take() (TranscriptMsg, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return TranscriptMsg{}, false
	}
	msg := *r.pending
	r.pending = nil
	return msg, true
}

// Coalesced returns how many updates were superseded before delivery.
func (r *Relay) Coalesced() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coalesced
}

// Run forwards snapshots to send until ctx is done. send may block; updates
// arriving meanwhile are coalesced.
func (r *Relay) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.notify:
			if msg, ok := r.Take(); ok {
				send(msg)
			}
		}
	}
}
