// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jeranaias/genscene-tui/internal/api"
	"github.com/jeranaias/genscene-tui/internal/config"
	"github.com/jeranaias/genscene-tui/internal/render"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/stream"
	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeBackend is an in-memory session.Backend.
type fakeBackend struct {
	reply   string
	threads []api.Thread
	deleted []string
}

func (f *fakeBackend) ListActors(ctx context.Context) ([]api.Actor, error) {
	return []api.Actor{{Name: "home", Description: "Home\nsecond line"}, {Name: "painter"}}, nil
}

func (f *fakeBackend) GetActor(ctx context.Context, name string) (*api.Actor, error) {
	if name != "home" && name != "painter" {
		return nil, &api.ClientError{Type: api.ErrTypeNotFound, Message: "no such actor"}
	}
	return &api.Actor{Name: name}, nil
}

func (f *fakeBackend) ListThreads(ctx context.Context, user string) ([]api.Thread, error) {
	return f.threads, nil
}

func (f *fakeBackend) CreateThread(ctx context.Context, user string) (*api.Thread, error) {
	return &api.Thread{ThreadID: "t-created", UserID: user}, nil
}

func (f *fakeBackend) GetThread(ctx context.Context, id string) (*api.Thread, error) {
	for i := range f.threads {
		if f.threads[i].ThreadID == id {
			return &f.threads[i], nil
		}
	}
	return nil, &api.ClientError{Type: api.ErrTypeNotFound, Message: "no such thread"}
}

func (f *fakeBackend) DeleteThread(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) Chat(ctx context.Context, req api.ChatRequest) (*api.ReplyStream, error) {
	return &api.ReplyStream{
		Body:     io.NopCloser(strings.NewReader(f.reply)),
		ThreadID: "t-new",
		Actor:    req.Actor,
	}, nil
}

func storedMessages(t *testing.T, msgs ...transcript.Message) *string {
	t.Helper()
	data, err := transcript.EncodeMessages(msgs)
	require.NoError(t, err)
	s := string(data)
	return &s
}

func newTestModel(t *testing.T, fb *fakeBackend) Model {
	t.Helper()
	sess := session.New(fb, session.Options{User: "user_id", Actor: "home"})
	m := New(Options{
		Session:   sess,
		UI:        config.UIConfig{Theme: "notty", WordWrap: 60},
		Profile:   termenv.Ascii,
		ServerURL: "http://127.0.0.1:8000",
	})
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// runCmd executes cmd, flattening batches, and returns the produced messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findMsg[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T among %d messages", zero, len(msgs))
	return zero
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// VIEW TESTS
// =============================================================================

func TestModel_EmptyView(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	view := m.View()

	assert.Contains(t, view, "genscene")
	assert.Contains(t, view, "home")
	assert.Contains(t, view, "new thread")
	assert.Contains(t, view, "Start typing to chat with home")
	assert.Contains(t, view, "online")
}

func TestModel_HelpOverlay(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyF1})

	view := m.View()
	assert.Contains(t, view, "Commands")
	assert.Contains(t, view, "/export <md|json|yaml|html> [dir]")
	assert.Contains(t, view, "server http://127.0.0.1:8000")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotContains(t, m.View(), "Commands")
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestModel_TranscriptMsg(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m = update(t, m, TranscriptMsg{
		Messages: []transcript.Message{
			transcript.NewText(transcript.RoleUser, "paint a harbor"),
			transcript.NewText(transcript.RoleAssistant, "Boats at dusk."),
		},
		Version: 5,
	})

	view := m.View()
	assert.Contains(t, view, "paint a harbor")
	assert.Contains(t, view, "Boats at dusk.")
	assert.Contains(t, view, "2 msgs")
}

func TestModel_StaleTranscriptIgnored(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m = update(t, m, TranscriptMsg{
		Messages: []transcript.Message{transcript.NewText(transcript.RoleUser, "newest")},
		Version:  9,
	})
	m.limiter = rate.NewLimiter(rate.Inf, 1)
	m = update(t, m, TranscriptMsg{
		Messages: []transcript.Message{transcript.NewText(transcript.RoleUser, "older")},
		Version:  4,
	})

	assert.Contains(t, m.View(), "newest")
	assert.NotContains(t, m.View(), "older")
}

func TestModel_RenderThrottle(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	// One token, refilled once an hour.
	m.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	m, cmd := updateCmd(t, m, TranscriptMsg{
		Messages: []transcript.Message{transcript.NewText(transcript.RoleAssistant, "first")},
		Version:  1,
	})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "first")

	m, cmd = updateCmd(t, m, TranscriptMsg{
		Messages: []transcript.Message{transcript.NewText(transcript.RoleAssistant, "first second")},
		Version:  2,
	})
	require.NotNil(t, cmd, "a throttled frame schedules a tick")
	assert.NotContains(t, m.View(), "second")

	m, cmd = updateCmd(t, m, TranscriptMsg{
		Messages: []transcript.Message{transcript.NewText(transcript.RoleAssistant, "first second third")},
		Version:  3,
	})
	assert.Nil(t, cmd, "only one tick is pending at a time")

	m = update(t, m, renderTickMsg{})
	assert.Contains(t, m.View(), "first second third")
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestModel_SubmitStreamsReply(t *testing.T) {
	fb := &fakeBackend{reply: "Hello there."}
	m := newTestModel(t, fb)
	m.ui.ShowStats = true

	m.SetInput("paint a harbor")
	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.Streaming())
	assert.Empty(t, m.Input())
	assert.Contains(t, m.View(), "streaming")

	// A second prompt is refused while the first streams.
	m.SetInput("another")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.Contains(t, status, "still streaming")
	assert.Equal(t, "another", m.Input())

	done := findMsg[StreamDoneMsg](t, runCmd(cmd))
	require.NoError(t, done.Err)

	m = update(t, m, done)
	assert.False(t, m.Streaming())
	view := m.View()
	assert.Contains(t, view, "paint a harbor")
	assert.Contains(t, view, "Hello there.")
	assert.Contains(t, view, "t-new")

	status, isErr = m.Status()
	assert.False(t, isErr)
	assert.Contains(t, status, "12 B")
}

func TestModel_StreamDoneStatuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    string
		isError bool
	}{
		{"cancelled", context.Canceled, "reply cancelled, partial transcript kept", false},
		{"superseded", session.ErrSuperseded, "reply cancelled, partial transcript kept", false},
		{"transport", &stream.TransportError{Err: io.ErrUnexpectedEOF}, "reply interrupted", true},
		{"other", errors.New("boom"), "boom", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, &fakeBackend{})
			m.streaming = true
			m = update(t, m, StreamDoneMsg{Err: tt.err})

			status, isErr := m.Status()
			assert.False(t, m.Streaming())
			assert.Contains(t, status, tt.want)
			assert.Equal(t, tt.isError, isErr)
		})
	}
}

func TestModel_BackendStatus(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m = update(t, m, BackendStatusMsg{Actors: 2, Threads: 3})
	status, isErr := m.Status()
	assert.False(t, isErr)
	assert.Equal(t, "2 actors, 3 threads", status)
	assert.Contains(t, m.View(), "online")

	m = update(t, m, BackendStatusMsg{Offline: true, Threads: 1})
	status, isErr = m.Status()
	assert.True(t, isErr)
	assert.Equal(t, "backend unreachable, 1 cached threads", status)
	assert.Contains(t, m.View(), "offline")
}

func TestModel_PingRefreshes(t *testing.T) {
	fb := &fakeBackend{threads: []api.Thread{{Name: "Harbor", ThreadID: "t1", UserID: "user_id"}}}
	m := newTestModel(t, fb)

	msg := pingCmd(context.Background(), m.sess)()
	status := msg.(BackendStatusMsg)
	require.NoError(t, status.Err)
	assert.False(t, status.Offline)
	assert.Equal(t, 2, status.Actors)
	assert.Equal(t, 1, status.Threads)
}

func TestModel_EscClearsInput(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.SetInput("draft")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.Input())
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	_, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

// =============================================================================
// PICKER TESTS
// =============================================================================

func TestModel_ThreadPicker(t *testing.T) {
	fb := &fakeBackend{threads: []api.Thread{
		{Name: "Harbor", ThreadID: "t1", UserID: "user_id"},
		{Name: "Forest", ThreadID: "t2", UserID: "user_id"},
	}}
	fb.threads[1].Messages = storedMessages(t,
		transcript.NewText(transcript.RoleUser, "paint a forest"),
		transcript.NewText(transcript.RoleAssistant, "Pines in fog."),
	)
	m := newTestModel(t, fb)

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	loaded := findMsg[ThreadsLoadedMsg](t, runCmd(cmd))
	require.NoError(t, loaded.Err)
	m = update(t, m, loaded)

	view := m.View()
	assert.Contains(t, view, "Threads")
	assert.Contains(t, view, "Harbor")
	assert.Contains(t, view, "Forest")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	opened := findMsg[ThreadOpenedMsg](t, runCmd(cmd))
	require.NoError(t, opened.Err)
	assert.Equal(t, "t2", opened.Info.ID)

	// The session replaced its transcript; the relay would deliver it.
	m = update(t, m, TranscriptMsg{
		Messages: m.sess.Store().Snapshot(),
		Version:  m.sess.Store().Version(),
		Reset:    true,
	})
	m = update(t, m, opened)

	status, _ := m.Status()
	assert.Equal(t, "opened Forest", status)
	view = m.View()
	assert.NotContains(t, view, "Threads")
	assert.Contains(t, view, "Pines in fog.")
}

func TestModel_ThreadPickerDelete(t *testing.T) {
	fb := &fakeBackend{}
	m := newTestModel(t, fb)
	m = update(t, m, ThreadsLoadedMsg{Threads: []session.ThreadInfo{
		{ID: "t1", Name: "Harbor"},
		{ID: "t2", Name: "Forest"},
	}})

	m, cmd := updateCmd(t, m, keyRunes("x"))
	deleted := findMsg[ThreadDeletedMsg](t, runCmd(cmd))
	assert.Equal(t, "t1", deleted.ID)
	assert.Equal(t, []string{"t1"}, fb.deleted)

	m = update(t, m, deleted)
	view := m.View()
	assert.NotContains(t, view, "Harbor")
	assert.Contains(t, view, "Forest")
}

func TestModel_ActorPicker(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, cmd := updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	m = update(t, m, findMsg[ActorsLoadedMsg](t, runCmd(cmd)))
	view := m.View()
	assert.Contains(t, view, "Actors")
	assert.Contains(t, view, "painter")
	assert.NotContains(t, view, "second line", "only the first description line is listed")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, findMsg[ActorSelectedMsg](t, runCmd(cmd)))

	status, _ := m.Status()
	assert.Equal(t, "now chatting with painter", status)
	assert.Equal(t, "painter", m.sess.Actor())
}

func TestModel_PickerEscCloses(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m = update(t, m, ActorsLoadedMsg{Actors: []api.Actor{{Name: "home"}}})
	require.NotNil(t, m.picker)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.picker)
}

// =============================================================================
// SLASH COMMAND TESTS
// =============================================================================

func TestModel_UnknownSlash(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m.SetInput("/bogus now")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.Equal(t, "unknown command /bogus (try /help)", status)
	assert.False(t, m.Streaming())
}

func TestModel_SlashUsage(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, _ = m.runSlash("/open")
	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.Equal(t, "usage: /open <id>", status)

	m, _ = m.runSlash("/export pdf")
	status, isErr = m.Status()
	assert.True(t, isErr)
	assert.NotEmpty(t, status)

	m, _ = m.runSlash("/stats")
	status, _ = m.Status()
	assert.Equal(t, "no reply yet", status)

	m, _ = m.runSlash("/copy")
	status, _ = m.Status()
	assert.Equal(t, "no reply text to copy", status)
}

func TestModel_SlashNew(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	_, cmd := m.runSlash("/new")
	msg := findMsg[StatusMsg](t, runCmd(cmd))
	assert.Contains(t, msg.Text, "New thread")
}

func TestLastReplyText(t *testing.T) {
	msgs := []transcript.Message{
		transcript.NewText(transcript.RoleAssistant, "first"),
		transcript.NewText(transcript.RoleUser, "more"),
		transcript.NewImage(transcript.RoleAssistant, "data:image/png;base64,AAAA"),
		transcript.NewText(transcript.RoleAssistant, "  "),
	}
	text, ok := lastReplyText(msgs)
	assert.True(t, ok)
	assert.Equal(t, "first", text)

	_, ok = lastReplyText(nil)
	assert.False(t, ok)
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestModel_ConfigReload(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m = update(t, m, ConfigReloadedMsg{Err: errors.New("line 3: bad value")})
	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.Equal(t, "config: line 3: bad value", status)

	cfg := config.Default()
	cfg.UI.Theme = "notty"
	cfg.UI.WordWrap = 40
	m = update(t, m, ConfigReloadedMsg{Config: cfg})
	status, isErr = m.Status()
	assert.False(t, isErr)
	assert.Equal(t, "config reloaded", status)
	assert.Equal(t, 40, m.wrapWidth())
}

// =============================================================================
// RENDER CACHE TESTS
// =============================================================================

func TestRenderCache(t *testing.T) {
	r, err := render.New(render.Options{Theme: "notty", WordWrap: 60})
	require.NoError(t, err)

	c := &renderCache{}
	msgs := []transcript.Message{
		transcript.NewText(transcript.RoleUser, "hi"),
		transcript.NewText(transcript.RoleAssistant, ""),
	}
	out := c.render(r, msgs)
	assert.Contains(t, out, "hi")
	assert.Len(t, c.parts, 2)
	assert.Equal(t, 1, c.final)

	msgs[1] = msgs[1].Extend("streaming text")
	out = c.render(r, msgs)
	assert.Contains(t, out, "streaming text")
	assert.Len(t, c.parts, 2, "only the last message is re-rendered")

	// A shorter transcript means it was replaced.
	out = c.render(r, msgs[:1])
	assert.NotContains(t, out, "streaming text")
	assert.Len(t, c.parts, 1)
}

func TestStatsLine(t *testing.T) {
	line := statsLine(stream.Result{Bytes: 2048, Chunks: 3, Images: 1, Duration: 1500 * time.Millisecond})
	assert.Contains(t, line, "3 chunks")
	assert.Contains(t, line, "1 images")
	assert.NotContains(t, line, "dropped")
}
