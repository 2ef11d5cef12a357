// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for the --json flag.

package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/stream"
	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// JSONResponse is the envelope every command prints in --json mode.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// ThreadData is one thread in `threads list` output.
type ThreadData struct {
	ID        string `json:"thread_id"`
	Name      string `json:"name,omitempty"`
	Messages  int    `json:"messages"`
	Preview   string `json:"preview,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
}

// ThreadsData is the `threads list` payload.
type ThreadsData struct {
	User    string       `json:"user"`
	Offline bool         `json:"offline"`
	Threads []ThreadData `json:"threads"`
}

// AskData is the `ask` payload.
type AskData struct {
	Thread   string    `json:"thread_id"`
	Actor    string    `json:"actor"`
	Messages []wireMsg `json:"messages"`
	Stats    StatsData `json:"stats"`
}

// StatsData summarizes one reply stream.
type StatsData struct {
	Bytes             int   `json:"bytes"`
	Chunks            int   `json:"chunks"`
	Images            int   `json:"images"`
	DroppedImageBytes int   `json:"dropped_image_bytes,omitempty"`
	DurationMs        int64 `json:"duration_ms"`
}

type wireMsg struct {
	Type  string `json:"type"`
	Role  string `json:"role"`
	Value string `json:"value"`
}

func threadData(t session.ThreadInfo) ThreadData {
	d := ThreadData{
		ID:       t.ID,
		Name:     t.Name,
		Messages: t.Messages,
		Preview:  t.Preview,
		Cached:   t.Cached,
	}
	if !t.UpdatedAt.IsZero() {
		d.UpdatedAt = t.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return d
}

func statsData(r stream.Result) StatsData {
	return StatsData{
		Bytes:             r.Bytes,
		Chunks:            r.Chunks,
		Images:            r.Images,
		DroppedImageBytes: r.DroppedImageBytes,
		DurationMs:        r.Duration.Milliseconds(),
	}
}

func wireMessages(msgs []transcript.Message) []wireMsg {
	out := make([]wireMsg, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, wireMsg{Type: m.Kind.String(), Role: m.Role.String(), Value: m.Value})
	}
	return out
}
