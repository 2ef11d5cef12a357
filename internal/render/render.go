// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Renderer.
type Options struct {
	// Theme is dark, light, auto or notty.
	Theme string
	// WordWrap is the markdown wrap width.
	WordWrap int
	// Markdown enables glamour rendering of assistant text.
	Markdown bool
	// Profile is the terminal color profile.
	Profile termenv.Profile
}

// DefaultOptions returns options detected from the current terminal.
func DefaultOptions() Options {
	return Options{
		Theme:    "auto",
		WordWrap: 80,
		Markdown: true,
		Profile:  termenv.ColorProfile(),
	}
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer turns transcript messages into terminal text. It never mutates
// the message values it is given.
type Renderer struct {
	opts   Options
	md     *glamour.TermRenderer
	styles Styles
}

// New creates a Renderer. If the markdown renderer cannot be built the
// Renderer falls back to plain text and the error is returned alongside it.
func New(opts Options) (*Renderer, error) {
	if opts.WordWrap <= 0 {
		opts.WordWrap = 80
	}
	if opts.Theme == "notty" {
		opts.Profile = termenv.Ascii
	}

	lr := lipgloss.NewRenderer(os.Stdout)
	lr.SetColorProfile(opts.Profile)
	r := &Renderer{
		opts:   opts,
		styles: NewStyles(lr, opts.Theme != "light"),
	}
	if !opts.Markdown {
		return r, nil
	}

	md, err := glamour.NewTermRenderer(
		styleOption(opts.Theme),
		glamour.WithColorProfile(opts.Profile),
		glamour.WithWordWrap(opts.WordWrap),
	)
	if err != nil {
		r.opts.Markdown = false
		return r, fmt.Errorf("markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

func styleOption(theme string) glamour.TermRendererOption {
	switch theme {
	case "dark", "light", "notty":
		return glamour.WithStandardStyle(theme)
	default:
		return glamour.WithAutoStyle()
	}
}

// Styles returns the renderer's lipgloss styles.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Message renders one message with its role label.
func (r *Renderer) Message(m transcript.Message) string {
	label := r.styles.Label(m.Role).Render(m.Role.DisplayName())
	return label + "\n" + r.Body(m)
}

// Body renders a message without its label. User text is shown verbatim,
// assistant text goes through markdown, images are described.
func (r *Renderer) Body(m transcript.Message) string {
	switch {
	case m.IsImage():
		return r.styles.Image.Render(DescribeImage(m.Value))
	case m.Role == transcript.RoleUser:
		return r.styles.User.Render(EscapeControl(m.Value))
	default:
		return r.Markdown(m.Value)
	}
}

// Markdown renders assistant text. Control sequences are escaped first,
// so only glamour's own styling reaches the terminal.
func (r *Renderer) Markdown(text string) string {
	safe := EscapeControl(text)
	if r.md == nil || strings.TrimSpace(safe) == "" {
		return r.styles.Assistant.Render(safe)
	}
	out, err := r.md.Render(safe)
	if err != nil {
		return r.styles.Assistant.Render(safe)
	}
	return strings.Trim(out, "\n")
}

// Transcript renders every message, separated by blank lines. Empty
// assistant placeholders are skipped.
func (r *Renderer) Transcript(msgs []transcript.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.IsText() && m.Role == transcript.RoleAssistant && m.Value == "" {
			continue
		}
		parts = append(parts, r.Message(m))
	}
	return strings.Join(parts, "\n\n")
}

// =============================================================================
// ESCAPING
// =============================================================================

// EscapeControl replaces terminal control characters with visible caret
// notation. Newlines and tabs are kept.
func EscapeControl(s string) string {
	if !hasControl(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r < 0x20:
			b.WriteByte('^')
			b.WriteRune(r + '@')
		case r == 0x7f:
			b.WriteString("^?")
		case r >= 0x80 && r <= 0x9f:
			fmt.Fprintf(&b, "<U+%04X>", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasControl(s string) bool {
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || (r >= 0x7f && r <= 0x9f) {
			return true
		}
	}
	return false
}
