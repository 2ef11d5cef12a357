// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports threads to YAML.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

type yamlMessage struct {
	Type  string `yaml:"type"`
	Role  string `yaml:"role"`
	Value string `yaml:"value"`
}

type yamlDocument struct {
	Thread   string        `yaml:"thread,omitempty"`
	Name     string        `yaml:"name,omitempty"`
	Actor    string        `yaml:"actor,omitempty"`
	User     string        `yaml:"user,omitempty"`
	Updated  string        `yaml:"updated,omitempty"`
	Messages []yamlMessage `yaml:"messages"`
}

// Export converts a document to YAML. Placeholder assistant messages are
// kept so the message count matches the transcript.
func (e *YAMLExporter) Export(doc *Document) ([]byte, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}

	out := yamlDocument{Messages: make([]yamlMessage, 0, len(doc.Messages))}
	if e.options.IncludeMetadata {
		out.Thread = doc.ThreadID
		out.Name = doc.Title
		out.Actor = doc.Actor
		out.User = doc.User
		if !doc.UpdatedAt.IsZero() {
			out.Updated = doc.UpdatedAt.UTC().Format(time.RFC3339)
		}
	}

	images := 0
	for _, m := range doc.Messages {
		value := m.Value
		if m.IsImage() {
			images++
			if !e.options.EmbedImages {
				value = imagePlaceholder(images, m.Value)
			}
		}
		out.Messages = append(out.Messages, yamlMessage{
			Type:  m.Kind.String(),
			Role:  m.Role.String(),
			Value: value,
		})
	}
	return yaml.Marshal(out)
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
