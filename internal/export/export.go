// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/genscene-tui/internal/transcript"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a thread prepared for export.
type Document struct {
	ThreadID  string
	Title     string
	Actor     string
	User      string
	UpdatedAt time.Time
	Messages  []transcript.Message
}

// ImageCount returns the number of image messages.
func (d *Document) ImageCount() int {
	n := 0
	for _, m := range d.Messages {
		if m.IsImage() {
			n++
		}
	}
	return n
}

// displayTitle returns the title, falling back to the thread id.
func (d *Document) displayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	if d.ThreadID != "" {
		return "Thread " + d.ThreadID
	}
	return "Untitled thread"
}

// visibleMessages drops empty assistant placeholders left behind by
// image completions.
func (d *Document) visibleMessages() []transcript.Message {
	out := make([]transcript.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		if m.IsText() && m.Value == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for thread exporters.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatYAML, FormatHTML}

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s (use md, json, yaml or html)", s)
	}
}

// NewExporter returns the exporter for format.
func NewExporter(format Format, opts *Options) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	case FormatYAML:
		return NewYAMLExporter(opts), nil
	case FormatHTML:
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	OutputDir string

	// Filename overrides the generated file name (extension included).
	Filename string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata includes the thread/actor header.
	IncludeMetadata bool

	// EmbedImages keeps image data URLs in the output. When false images
	// are replaced by a short placeholder.
	EmbedImages bool

	// Theme for HTML export ("light" or "dark").
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		EmbedImages:     true,
		Theme:           "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a document with exporter and writes it atomically.
// Returns the output file path.
func ExportToFile(doc *Document, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := opts.Filename
	if filename == "" {
		filename = fmt.Sprintf("thread_%s_%s%s",
			sanitizeFilename(doc.displayTitle()),
			time.Now().Format("20060102_150405"),
			exporter.FileExtension(),
		)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	outputPath := filepath.Join(util.ExpandHome(dir), filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		// Non-fatal: the file exists either way.
		_ = openFile(outputPath)
	}
	return outputPath, nil
}

// ExportAs builds the exporter for format and writes the document.
func ExportAs(doc *Document, format Format, opts *Options) (string, error) {
	exporter, err := NewExporter(format, opts)
	if err != nil {
		return "", err
	}
	return ExportToFile(doc, exporter, opts)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	if len(doc.Messages) == 0 {
		return fmt.Errorf("thread has no messages")
	}
	return nil
}

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	var b strings.Builder
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "thread"
	}
	return b.String()
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

// imagePlaceholder is written in place of an image when EmbedImages is off.
func imagePlaceholder(n int, value string) string {
	return fmt.Sprintf("[image %d: %s of base64]", n, util.FormatBytes(len(value)))
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
