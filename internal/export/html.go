// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports threads to a standalone HTML page. Assistant text is
// converted from markdown with raw HTML dropped; user text is escaped.
type HTMLExporter struct {
	options *Options
	md      goldmark.Markdown
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options: opts,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Export converts a document to HTML.
func (e *HTMLExporter) Export(doc *Document) ([]byte, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}
	title := html.EscapeString(doc.displayTitle())

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", title)
	sb.WriteString("    <meta name=\"generator\" content=\"genscene\">\n")
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n<div class=\"container\">\n", theme)

	if e.options.IncludeMetadata {
		sb.WriteString("<header class=\"header\">\n")
		fmt.Fprintf(&sb, "    <h1>%s</h1>\n    <div class=\"metadata\">\n", title)
		if doc.Actor != "" {
			fmt.Fprintf(&sb, "        <span class=\"meta-item\"><strong>Actor:</strong> %s</span>\n", html.EscapeString(doc.Actor))
		}
		if doc.ThreadID != "" {
			fmt.Fprintf(&sb, "        <span class=\"meta-item\"><strong>Thread:</strong> %s</span>\n", html.EscapeString(doc.ThreadID))
		}
		if !doc.UpdatedAt.IsZero() {
			fmt.Fprintf(&sb, "        <span class=\"meta-item\"><strong>Updated:</strong> %s</span>\n", formatTimestamp(doc.UpdatedAt))
		}
		sb.WriteString("    </div>\n</header>\n")
	}

	sb.WriteString("<main class=\"conversation\">\n")
	images := 0
	for _, m := range doc.visibleMessages() {
		if m.IsImage() {
			images++
		}
		body, err := e.renderBody(m, images)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "<div class=\"message %s-message\">\n", m.Role)
		fmt.Fprintf(&sb, "    <div class=\"role-label\">%s</div>\n", html.EscapeString(roleLabel(m.Role, doc.Actor)))
		fmt.Fprintf(&sb, "    <div class=\"message-content\">\n%s\n    </div>\n</div>\n", body)
	}
	sb.WriteString("</main>\n")

	fmt.Fprintf(&sb, "<footer class=\"footer\"><p>Exported from <strong>genscene</strong> on %s</p></footer>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM"))
	sb.WriteString("</div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

func (e *HTMLExporter) renderBody(m transcript.Message, n int) (string, error) {
	switch {
	case m.IsImage():
		if !e.options.EmbedImages {
			return "<p class=\"image-placeholder\">" + html.EscapeString(imagePlaceholder(n, m.Value)) + "</p>", nil
		}
		return fmt.Sprintf("<img alt=\"image %d\" src=\"%s\">", n, html.EscapeString(m.Value)), nil
	case m.Role == transcript.RoleUser:
		return "<p class=\"user-text\">" + html.EscapeString(m.Value) + "</p>", nil
	default:
		var buf bytes.Buffer
		if err := e.md.Convert([]byte(m.Value), &buf); err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		return buf.String(), nil
	}
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

const htmlCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Fira Code", "Source Code Pro", monospace;
        }
        .dark-theme {
            --bg-primary: #1a1b26; --bg-secondary: #24283b; --text-primary: #c0caf5;
            --text-muted: #565f89; --accent-user: #7dcfff; --accent-actor: #bb9af7;
        }
        .light-theme {
            --bg-primary: #f8f9fc; --bg-secondary: #ffffff; --text-primary: #1f2335;
            --text-muted: #8990b3; --accent-user: #0e7490; --accent-actor: #6d28d9;
        }
        body { background: var(--bg-primary); color: var(--text-primary); font-family: var(--font-sans); line-height: 1.6; }
        .container { max-width: 880px; margin: 0 auto; padding: 2rem 1rem; }
        .header h1 { font-size: 1.6rem; margin-bottom: .5rem; }
        .metadata { color: var(--text-muted); display: flex; gap: 1.5rem; flex-wrap: wrap; margin-bottom: 1.5rem; }
        .message { background: var(--bg-secondary); border-radius: 8px; padding: 1rem 1.25rem; margin-bottom: 1rem; }
        .user-message { border-left: 3px solid var(--accent-user); }
        .assistant-message { border-left: 3px solid var(--accent-actor); }
        .role-label { font-weight: 600; margin-bottom: .5rem; }
        .user-text { white-space: pre-wrap; }
        .message-content img { max-width: 100%; border-radius: 6px; }
        .message-content pre { font-family: var(--font-mono); overflow-x: auto; padding: .75rem; background: var(--bg-primary); border-radius: 6px; }
        .image-placeholder { color: var(--text-muted); font-style: italic; }
        .footer { color: var(--text-muted); font-size: .85rem; text-align: center; margin-top: 2rem; }
    </style>
`
