// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/genscene-tui/internal/storage"
	"github.com/jeranaias/genscene-tui/internal/transcript"
)

const testImage = transcript.ImageSentinel + ",QUJDRA=="

func sampleDoc() *Document {
	return &Document{
		ThreadID:  "thread_123",
		Title:     "Harbor: at dusk",
		Actor:     "home",
		User:      "user_id",
		UpdatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Messages: []transcript.Message{
			transcript.NewText(transcript.RoleUser, "Paint a <b>harbor</b>"),
			transcript.NewText(transcript.RoleAssistant, "Here it is:\n\n```\n<script>alert(1)</script>\n```"),
			transcript.NewImage(transcript.RoleAssistant, testImage),
			transcript.NewText(transcript.RoleAssistant, ""),
		},
	}
}

// =============================================================================
// FORMAT TESTS
// =============================================================================

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"md": FormatMarkdown, "Markdown": FormatMarkdown, ".json": FormatJSON,
		"yml": FormatYAML, "yaml": FormatYAML, "htm": FormatHTML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestExporters_RejectEmpty(t *testing.T) {
	for _, f := range Formats {
		exp, err := NewExporter(f, nil)
		require.NoError(t, err)
		_, err = exp.Export(&Document{ThreadID: "x"})
		assert.Error(t, err, f)
		_, err = exp.Export(nil)
		assert.Error(t, err, f)
	}
}

// =============================================================================
// MARKDOWN TESTS
// =============================================================================

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleDoc())
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "title: \"Harbor: at dusk\"\n")
	assert.Contains(t, s, "thread: thread_123\n")
	assert.Contains(t, s, "images: 1\n")
	assert.Contains(t, s, "# Harbor: at dusk\n")
	assert.Contains(t, s, "### You\n\nPaint a <b>harbor</b>")
	assert.Contains(t, s, "### home\n\n")
	assert.Contains(t, s, "![image 1]("+testImage+")")
	assert.Equal(t, 3, strings.Count(s, "### "))
}

func TestMarkdownExporter_PlaceholderImages(t *testing.T) {
	opts := DefaultOptions()
	opts.EmbedImages = false
	opts.IncludeMetadata = false

	out, err := NewMarkdownExporter(opts).Export(sampleDoc())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "base64,QUJD")
	assert.Contains(t, string(out), "[image 1: ")
	assert.False(t, strings.HasPrefix(string(out), "---"))
}

// =============================================================================
// JSON / YAML TESTS
// =============================================================================

func TestJSONExporter_RoundTripsMessages(t *testing.T) {
	doc := sampleDoc()
	out, err := NewJSONExporter(nil).Export(doc)
	require.NoError(t, err)

	var parsed struct {
		ThreadID string          `json:"thread_id"`
		Actor    string          `json:"actor"`
		Messages json.RawMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(out, &parsed))
	assert.Equal(t, "thread_123", parsed.ThreadID)
	assert.Equal(t, "home", parsed.Actor)

	msgs, err := transcript.DecodeMessages(parsed.Messages)
	require.NoError(t, err)
	assert.Equal(t, doc.Messages, msgs)
}

func TestYAMLExporter(t *testing.T) {
	out, err := NewYAMLExporter(nil).Export(sampleDoc())
	require.NoError(t, err)

	var parsed yamlDocument
	require.NoError(t, yaml.Unmarshal(out, &parsed))
	assert.Equal(t, "thread_123", parsed.Thread)
	assert.Equal(t, "2025-03-01T12:00:00Z", parsed.Updated)
	require.Len(t, parsed.Messages, 4)
	assert.Equal(t, "image", parsed.Messages[2].Type)
	assert.Equal(t, testImage, parsed.Messages[2].Value)
}

// =============================================================================
// HTML TESTS
// =============================================================================

func TestHTMLExporter_EscapesContent(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleDoc())
	require.NoError(t, err)
	s := string(out)

	assert.NotContains(t, s, "<script>alert(1)</script>")
	assert.Contains(t, s, "&lt;script&gt;")
	assert.Contains(t, s, "Paint a &lt;b&gt;harbor&lt;/b&gt;")
	assert.Contains(t, s, `<img alt="image 1" src="`+testImage+`">`)
	assert.Contains(t, s, `class="dark-theme"`)
	assert.Contains(t, s, "<title>Harbor: at dusk</title>")
}

func TestHTMLExporter_DropsRawHTML(t *testing.T) {
	doc := &Document{Messages: []transcript.Message{
		transcript.NewText(transcript.RoleAssistant, "hi <img src=x onerror=alert(1)>"),
	}}
	opts := DefaultOptions()
	opts.Theme = "light"

	out, err := NewHTMLExporter(opts).Export(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "onerror")
	assert.Contains(t, string(out), `class="light-theme"`)
}

// =============================================================================
// FILE TESTS
// =============================================================================

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = filepath.Join(dir, "out")

	path, err := ExportAs(sampleDoc(), FormatMarkdown, opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "thread_Harbor-_at_dusk_"))
	assert.Equal(t, ".md", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Harbor: at dusk")
}

func TestExportToFile_FixedName(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()
	opts.Filename = "scene.json"

	path, err := ExportAs(sampleDoc(), FormatJSON, opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(opts.OutputDir, "scene.json"), path)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "thread", sanitizeFilename(""))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("x", 80))), 50)
}

func TestFromCached(t *testing.T) {
	at := time.Now()
	doc := FromCached(&storage.CachedThread{
		ThreadID: "t", UserID: "u", Name: "n", Actor: "a", UpdatedAt: at,
		Messages: []transcript.Message{transcript.NewText(transcript.RoleUser, "x")},
	})
	assert.Equal(t, "t", doc.ThreadID)
	assert.Equal(t, "n", doc.Title)
	assert.Equal(t, "u", doc.User)
	assert.Len(t, doc.Messages, 1)
	assert.Nil(t, FromCached(nil))
}
