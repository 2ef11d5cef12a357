// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the TUI chrome. Message bodies are
// styled by the transcript renderer.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderActor lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusOnline  lipgloss.Style
	StatusOffline lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	Spinner       lipgloss.Style

	// ==========================================================================
	// PICKER STYLES
	// ==========================================================================

	PickerBox          lipgloss.Style
	PickerTitle        lipgloss.Style
	PickerItem         lipgloss.Style
	PickerItemSelected lipgloss.Style
	PickerMeta         lipgloss.Style

	// ==========================================================================
	// MISC
	// ==========================================================================

	Separator lipgloss.Style
	Empty     lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	return NewThemeWithProfile(termenv.ColorProfile(), termenv.HasDarkBackground())
}

// NewThemeWithProfile creates a theme for an explicit color profile and
// background.
func NewThemeWithProfile(profile termenv.Profile, dark bool) *Theme {
	t := &Theme{IsDark: dark, ColorProfile: profile}
	t.initStyles()
	return t
}

// ThemeFor maps a configured theme name to a Theme. "auto" and unknown
// names detect the background.
func ThemeFor(name string, profile termenv.Profile) *Theme {
	switch name {
	case "light":
		return NewThemeWithProfile(profile, false)
	case "dark":
		return NewThemeWithProfile(profile, true)
	case "notty":
		return NewThemeWithProfile(termenv.Ascii, true)
	default:
		return NewThemeWithProfile(profile, termenv.HasDarkBackground())
	}
}

func (t *Theme) initStyles() {
	lr := lipgloss.NewRenderer(os.Stdout)
	lr.SetColorProfile(t.ColorProfile)
	lr.SetHasDarkBackground(t.IsDark)
	s := lr.NewStyle

	// Header
	t.Header = s().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.HeaderBrand = s().Bold(true).Foreground(Cyan)
	t.HeaderActor = s().Bold(true).Foreground(Purple)
	t.HeaderMeta = s().Foreground(TextMuted)

	// Input area
	t.InputContainer = s().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = s().Foreground(Cyan).Bold(true)
	t.InputPlaceholder = s().Foreground(TextMuted).Italic(true)

	// Status bar
	t.StatusBar = s().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusOnline = s().Foreground(Emerald).Bold(true)
	t.StatusOffline = s().Foreground(Amber).Bold(true)
	t.StatusInfo = s().Foreground(TextSecondary)
	t.StatusError = s().Foreground(Rose)
	t.Spinner = s().Foreground(Purple)

	// Picker
	t.PickerBox = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.PickerTitle = s().Bold(true).Foreground(Cyan).MarginBottom(1)
	t.PickerItem = s().Foreground(TextPrimary).PaddingLeft(2)
	t.PickerItemSelected = s().
		Foreground(TextPrimary).
		Background(SurfaceBright).
		Bold(true).
		PaddingLeft(2)
	t.PickerMeta = s().Foreground(TextMuted)

	t.Separator = s().Foreground(Overlay)
	t.Empty = s().Foreground(TextMuted).Italic(true)
}
