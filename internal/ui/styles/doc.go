// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the lipgloss styling of the genscene TUI chrome:
header, input area, status bar and the thread/actor picker.

Accent colors are shared with internal/render, which styles the messages
themselves. All colors are lipgloss AdaptiveColor values, so a Theme built
for a light background picks the Light variants.

	theme := styles.ThemeFor(cfg.UI.Theme, termenv.ColorProfile())
	bar := theme.StatusBar.Width(width).Render(text)
*/
package styles
