// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/genscene-tui/internal/api"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/stream"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		wrap := m.wrapWidth()
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		if m.wrapWidth() != wrap {
			m.applyTheme()
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TranscriptMsg:
		if msg.Reset {
			m.view.invalidate()
		}
		// A snapshot can arrive after the final one taken on completion.
		if msg.Version >= m.version {
			m.messages = msg.Messages
			m.version = msg.Version
		}
		return m.requestRender()

	case renderTickMsg:
		m.renderPending = false
		if m.dirty {
			m.refresh()
		}
		return m, nil

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case BackendStatusMsg:
		m.offline = msg.Offline || (msg.Err != nil && session.Unreachable(msg.Err))
		switch {
		case msg.Err != nil && !m.offline:
			m.setStatus("backend: "+msg.Err.Error(), true)
		case m.offline:
			m.setStatus(fmt.Sprintf("backend unreachable, %d cached threads", msg.Threads), true)
		case m.status == "":
			m.setStatus(fmt.Sprintf("%d actors, %d threads", msg.Actors, msg.Threads), false)
		}
		return m, nil

	case ThreadsLoadedMsg:
		if msg.Err != nil {
			m.setStatus("threads: "+msg.Err.Error(), true)
			return m, nil
		}
		m.offline = msg.Offline
		m.picker = newThreadPicker(msg.Threads, m.sess.ThreadID(), msg.Offline)
		m.setStatus("", false)
		return m, nil

	case ActorsLoadedMsg:
		if msg.Err != nil {
			m.setStatus("actors: "+msg.Err.Error(), true)
			return m, nil
		}
		m.picker = newActorPicker(msg.Actors, m.sess.Actor())
		m.setStatus("", false)
		return m, nil

	case ThreadOpenedMsg:
		if msg.Err != nil {
			if api.IsNotFound(msg.Err) {
				m.setStatus("no such thread", true)
			} else {
				m.setStatus("open: "+msg.Err.Error(), true)
			}
			return m, nil
		}
		m.picker = nil
		m.offline = msg.Info.Cached
		text := "opened " + msg.Info.Title()
		if msg.Info.Cached {
			text += " (from cache)"
		}
		m.setStatus(text, false)
		m.viewport.GotoBottom()
		return m, nil

	case ThreadDeletedMsg:
		if msg.Err != nil {
			m.setStatus("delete: "+msg.Err.Error(), true)
			return m, nil
		}
		if m.picker != nil {
			m.picker.remove(msg.ID)
		}
		m.setStatus("deleted "+msg.ID, false)
		return m, nil

	case ActorSelectedMsg:
		if msg.Err != nil {
			m.setStatus(msg.Err.Error(), true)
			return m, nil
		}
		m.picker = nil
		m.setStatus("now chatting with "+msg.Actor.Name, false)
		m.refresh()
		return m, nil

	case ConfigReloadedMsg:
		if msg.Err != nil {
			m.setStatus("config: "+msg.Err.Error(), true)
			return m, nil
		}
		m.ui = msg.Config.UI
		m.applyTheme()
		m.refresh()
		m.setStatus("config reloaded", false)
		return m, nil

	case StatusMsg:
		m.setStatus(msg.Text, msg.Error)
		return m, nil

	}

	// Mouse wheel and anything else the viewport understands.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		// Ctrl+C stops a reply first; a second press quits.
		if msg.String() == "ctrl+c" && m.streaming {
			m.sess.Cancel()
			m.setStatus("cancelling...", false)
			return m, nil
		}
		m.sess.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.picker != nil {
		return m.handlePickerKey(msg)
	}
	if m.showHelp && key.Matches(msg, m.keyMap.Cancel) {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		if m.streaming {
			if m.sess.Cancel() {
				m.setStatus("cancelling...", false)
			}
			return m, nil
		}
		m.input.Reset()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.Threads):
		return slashThreads(m, nil)
	case key.Matches(msg, m.keyMap.Actors):
		return slashActors(m, nil)
	case key.Matches(msg, m.keyMap.NewThread):
		return slashNew(m, nil)
	case key.Matches(msg, m.keyMap.Copy):
		return slashCopy(m, nil)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		m.picker = nil
	case key.Matches(msg, m.keyMap.Up):
		m.picker.move(-1)
	case key.Matches(msg, m.keyMap.Down):
		m.picker.move(1)
	case key.Matches(msg, m.keyMap.Select):
		item, ok := m.picker.selected()
		if !ok {
			m.picker = nil
			return m, nil
		}
		if m.picker.kind == pickActor {
			return m, selectActorCmd(m.ctx, m.sess, item.id)
		}
		m.setStatus("opening "+item.title+"...", false)
		return m, openThreadCmd(m.ctx, m.sess, item.id)
	case key.Matches(msg, m.keyMap.Delete):
		if m.picker.kind != pickThread {
			return m, nil
		}
		if item, ok := m.picker.selected(); ok {
			return m, deleteThreadCmd(m.ctx, m.sess, item.id)
		}
	}
	return m, nil
}

// submit sends the input, or runs it as a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.runSlash(text)
	}
	if m.streaming {
		m.setStatus("a reply is still streaming (Esc stops it)", true)
		return m, nil
	}

	m.input.Reset()
	m.streaming = true
	m.streamStart = time.Now()
	m.setStatus("", false)
	m.viewport.GotoBottom()
	m.logger.Debug().Str("actor", m.sess.Actor()).Int("len", len(text)).Msg("send")
	return m, tea.Batch(sendCmd(m.ctx, m.sess, text), m.spinner.Tick)
}

// =============================================================================
// STREAM COMPLETION
// =============================================================================

func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	m.streaming = false

	// The final frame is never throttled.
	m.version = m.sess.Store().Version()
	m.messages = m.sess.Store().Snapshot()
	m.refresh()

	switch err := msg.Err; {
	case err == nil:
		res := msg.Result
		m.lastResult = &res
		m.offline = false
		if m.ui.ShowStats {
			m.setStatus(statsLine(res), false)
		}
	case errors.Is(err, context.Canceled), errors.Is(err, session.ErrSuperseded):
		m.setStatus("reply cancelled, partial transcript kept", false)
	case stream.IsTransportError(err):
		m.setStatus("reply interrupted: "+err.Error(), true)
	case session.Unreachable(err):
		m.offline = true
		m.setStatus("backend unreachable", true)
	default:
		m.setStatus(err.Error(), true)
	}
	return m, nil
}

// statsLine summarizes a finished stream.
func statsLine(r stream.Result) string {
	parts := []string{
		util.FormatBytes(r.Bytes),
		fmt.Sprintf("%d chunks", r.Chunks),
		util.FormatDuration(r.Duration),
	}
	if r.Images > 0 {
		parts = append(parts, fmt.Sprintf("%d images", r.Images))
	}
	if r.DroppedImageBytes > 0 {
		parts = append(parts, "dropped "+util.FormatBytes(r.DroppedImageBytes)+" of a partial image")
	}
	return strings.Join(parts, " · ")
}
