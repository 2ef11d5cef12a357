// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// Color palette shared by the REPL and the TUI.
var (
	Cyan    = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	Purple  = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"}
	Emerald = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	Amber   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	Rose    = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FB7185"}
	Muted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// Styles holds the lipgloss styles used for transcript output.
type Styles struct {
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	User           lipgloss.Style
	Assistant      lipgloss.Style
	Image          lipgloss.Style
	Error          lipgloss.Style
	Success        lipgloss.Style
	Warning        lipgloss.Style
	Dim            lipgloss.Style
	Title          lipgloss.Style
}

// NewStyles builds the styles on lr.
func NewStyles(lr *lipgloss.Renderer, dark bool) Styles {
	lr.SetHasDarkBackground(dark)
	return Styles{
		UserLabel:      lr.NewStyle().Bold(true).Foreground(Cyan),
		AssistantLabel: lr.NewStyle().Bold(true).Foreground(Purple),
		User:           lr.NewStyle(),
		Assistant:      lr.NewStyle(),
		Image:          lr.NewStyle().Italic(true).Foreground(Emerald),
		Error:          lr.NewStyle().Foreground(Rose),
		Success:        lr.NewStyle().Foreground(Emerald),
		Warning:        lr.NewStyle().Foreground(Amber),
		Dim:            lr.NewStyle().Foreground(Muted),
		Title:          lr.NewStyle().Bold(true).Foreground(Cyan),
	}
}

// Label returns the label style for role.
func (s Styles) Label(role transcript.Role) lipgloss.Style {
	if role == transcript.RoleUser {
		return s.UserLabel
	}
	return s.AssistantLabel
}
