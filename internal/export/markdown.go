// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports threads to Markdown. Images are written as
// inline data-URL image links.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a document to Markdown.
func (e *MarkdownExporter) Export(doc *Document) ([]byte, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}

	var sb strings.Builder
	title := doc.displayTitle()

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(title))
		if doc.ThreadID != "" {
			fmt.Fprintf(&sb, "thread: %s\n", escapeYAML(doc.ThreadID))
		}
		if doc.Actor != "" {
			fmt.Fprintf(&sb, "actor: %s\n", escapeYAML(doc.Actor))
		}
		if !doc.UpdatedAt.IsZero() {
			fmt.Fprintf(&sb, "updated: %s\n", doc.UpdatedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(&sb, "messages: %d\n", len(doc.visibleMessages()))
		fmt.Fprintf(&sb, "images: %d\n", doc.ImageCount())
		sb.WriteString("generator: genscene\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))

	msgs := doc.visibleMessages()
	images := 0
	for i, m := range msgs {
		fmt.Fprintf(&sb, "### %s\n\n", roleLabel(m.Role, doc.Actor))
		if m.IsImage() {
			images++
			if e.options.EmbedImages {
				fmt.Fprintf(&sb, "![image %d](%s)", images, m.Value)
			} else {
				sb.WriteString(imagePlaceholder(images, m.Value))
			}
		} else {
			sb.WriteString(strings.TrimSpace(m.Value))
		}
		sb.WriteString("\n\n")
		if i < len(msgs)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exported from genscene on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// roleLabel names the speaker, using the actor name for assistant turns.
func roleLabel(role transcript.Role, actor string) string {
	if role == transcript.RoleAssistant && actor != "" {
		return actor
	}
	return role.DisplayName()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("#", `\#`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "\n", " ")
	return r.Replace(s)
}

// escapeYAML quotes a frontmatter value when it contains special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return "\"" + s + "\""
	}
	return s
}
