// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports threads to JSON. The messages array uses the
// backend's {type, role, value} shape so an export can be replayed into
// transcript.DecodeMessages. Images are always embedded.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonDocument struct {
	ThreadID  string          `json:"thread_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	User      string          `json:"user_id,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
	Messages  json.RawMessage `json:"messages"`
}

// Export converts a document to indented JSON.
func (e *JSONExporter) Export(doc *Document) ([]byte, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}
	msgs, err := transcript.EncodeMessages(doc.Messages)
	if err != nil {
		return nil, err
	}

	out := jsonDocument{Messages: msgs}
	if e.options.IncludeMetadata {
		out.ThreadID = doc.ThreadID
		out.Name = doc.Title
		out.Actor = doc.Actor
		out.User = doc.User
		if !doc.UpdatedAt.IsZero() {
			t := doc.UpdatedAt.UTC()
			out.UpdatedAt = &t
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
