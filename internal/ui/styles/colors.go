// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/genscene-tui/internal/render"
)

// =============================================================================
// ACCENT COLORS
// =============================================================================

// The accents are shared with the transcript renderer so the TUI chrome and
// the rendered messages agree.
var (
	Purple  = render.Purple
	Cyan    = render.Cyan
	Emerald = render.Emerald
	Amber   = render.Amber
	Rose    = render.Rose
)

// =============================================================================
// SURFACE COLORS
// =============================================================================

// SurfaceDim - header and status bar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// SurfaceBright - selected rows
var SurfaceBright = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#313244"}

// Overlay - borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - labels
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - hints and timestamps
var TextMuted = render.Muted
