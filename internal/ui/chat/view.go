// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/genscene-tui/internal/util"
)

// View renders the chat view: header, transcript (or an overlay), input
// and status bar.
func (m Model) View() string {
	var body string
	switch {
	case m.picker != nil:
		body = m.picker.view(m.theme, m.width, m.viewport.Height)
		body = lipgloss.PlaceVertical(m.viewport.Height, lipgloss.Top, body)
	case m.showHelp:
		body = lipgloss.PlaceVertical(m.viewport.Height, lipgloss.Top, m.helpView())
	default:
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		body,
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		m.statusView(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) headerView() string {
	parts := []string{m.theme.HeaderBrand.Render("genscene")}

	actor := m.sess.Actor()
	if actor == "" {
		actor = "no actor"
	}
	parts = append(parts, m.theme.HeaderActor.Render(actor))

	thread := "new thread"
	if id := m.sess.ThreadID(); id != "" {
		thread = id
		if name := m.sess.ThreadName(); name != "" {
			thread = name
		}
	}
	parts = append(parts, m.theme.HeaderMeta.Render(util.TruncateWidth(thread, 40)))

	if n := len(m.messages); n > 0 {
		parts = append(parts, m.theme.HeaderMeta.Render(fmt.Sprintf("%d msgs", n)))
	}

	return m.theme.Header.Width(m.width).Render(strings.Join(parts, " · "))
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) statusView() string {
	var left string
	switch {
	case m.streaming:
		elapsed := time.Since(m.streamStart).Truncate(100 * time.Millisecond)
		left = m.spinner.View() + " " + m.theme.StatusInfo.Render("streaming "+util.FormatDuration(elapsed)+" (Esc stops)")
	case m.status != "" && m.statusError:
		left = m.theme.StatusError.Render(m.status)
	case m.status != "":
		left = m.theme.StatusInfo.Render(m.status)
	default:
		left = m.help.ShortHelpView(m.keyMap.ShortHelp())
	}

	right := m.theme.StatusOnline.Render("online")
	if m.offline || m.sess.Offline() {
		right = m.theme.StatusOffline.Render("offline")
	}

	inner := m.width - 2
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		left = lipgloss.NewStyle().MaxWidth(inner - lipgloss.Width(right) - 1).Render(left)
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

func (m Model) helpView() string {
	var b strings.Builder
	b.WriteString(m.theme.PickerTitle.Render("Keys"))
	b.WriteString("\n")
	b.WriteString(m.help.FullHelpView(m.keyMap.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(m.theme.PickerTitle.Render("Commands"))
	b.WriteString("\n")

	names := make([]string, 0, len(slashCommands))
	for name := range slashCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := slashCommands[name]
		b.WriteString(util.PadRight(c.usage, 36))
		b.WriteString(m.theme.PickerMeta.Render(c.help))
		b.WriteString("\n")
	}
	if m.serverURL != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.PickerMeta.Render("server " + m.serverURL))
	}
	return m.theme.PickerBox.Width(m.width - 2).Render(strings.TrimRight(b.String(), "\n"))
}
