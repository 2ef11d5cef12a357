// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"io"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// ACTORS
// =============================================================================

// Actor describes an assistant configured on the backend.
type Actor struct {
	Name         string `json:"actor_name"`
	AssistantID  string `json:"assistant_id,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Description  string `json:"description,omitempty"`
}

// =============================================================================
// THREADS
// =============================================================================

// Thread is a stored conversation.
type Thread struct {
	Name     string `json:"name"`
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`

	// Messages is the backend's JSON-encoded message list, or nil when the
	// thread has none.
	Messages *string `json:"messages"`
}

// Transcript decodes the thread's messages.
func (t *Thread) Transcript() ([]transcript.Message, error) {
	if t.Messages == nil {
		return []transcript.Message{}, nil
	}
	return transcript.DecodeMessages([]byte(*t.Messages))
}

// DisplayName returns the thread name, falling back to its id.
func (t *Thread) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ThreadID
}

type createThreadRequest struct {
	User string `json:"user"`
}

// =============================================================================
// CHAT
// =============================================================================

// ChatRequest is the body of POST /api/chat/.
type ChatRequest struct {
	Actor      string `json:"actor"`
	Input      string `json:"input"`
	User       string `json:"user"`
	BufferSize int    `json:"buffer_size,omitempty"` // backend flushes every N deltas
	Thread     string `json:"thread,omitempty"`      // empty starts a new thread
}

// ReplyStream is an open reply. The caller must Close it.
type ReplyStream struct {
	Body io.ReadCloser

	// ThreadID is the thread the backend stored this turn in. It is set
	// even when the request started a new thread.
	ThreadID string

	// Actor echoes the actor that is replying.
	Actor string
}

// Close releases the underlying connection.
func (r *ReplyStream) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// errorBody is the shape of a DRF error response.
type errorBody struct {
	Detail string `json:"detail"`
}
