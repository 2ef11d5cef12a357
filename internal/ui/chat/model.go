// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/genscene-tui/internal/config"
	"github.com/jeranaias/genscene-tui/internal/logging"
	"github.com/jeranaias/genscene-tui/internal/render"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/stream"
	"github.com/jeranaias/genscene-tui/internal/transcript"
	"github.com/jeranaias/genscene-tui/internal/ui/styles"
)

// maxFPS caps transcript re-renders while a reply streams.
const maxFPS = 30

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// Context bounds every backend call the view makes.
	Context context.Context
	Session *session.Session
	// UI is the [ui] config section: theme, wrap width, image dir, stats.
	UI config.UIConfig
	// Profile is the terminal color profile.
	Profile termenv.Profile
	// ServerURL is shown in the help overlay.
	ServerURL string
	// Thread is opened on start when set.
	Thread string
	Logger *zerolog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx    context.Context
	sess   *session.Session
	logger zerolog.Logger

	// Styling
	ui       config.UIConfig
	profile  termenv.Profile
	theme    *styles.Theme
	renderer *render.Renderer

	// Dimensions
	width  int
	height int

	// Transcript
	messages []transcript.Message
	version  uint64
	view     *renderCache

	// Render throttling
	limiter       *rate.Limiter
	dirty         bool
	renderPending bool

	// Streaming
	streaming   bool
	streamStart time.Time
	lastResult  *stream.Result

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keyMap   KeyMap
	picker   *picker

	// Status
	status      string
	statusError bool
	offline     bool
	showHelp    bool
	serverURL   string
	openThread  string
}

// New creates a chat model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.Component("ui")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe a scene..."
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII frames render everywhere
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	m := Model{
		ctx:        ctx,
		sess:       opts.Session,
		logger:     logger,
		ui:         opts.UI,
		profile:    opts.Profile,
		version:    opts.Session.Store().Version(),
		messages:   opts.Session.Store().Snapshot(),
		view:       &renderCache{},
		limiter:    rate.NewLimiter(rate.Limit(maxFPS), 1),
		viewport:   vp,
		input:      ti,
		spinner:    sp,
		help:       help.New(),
		keyMap:     DefaultKeyMap(),
		width:      80,
		height:     24,
		serverURL:  opts.ServerURL,
		openThread: opts.Thread,
	}
	m.applyTheme()
	m.layout()
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init checks the backend and opens the start thread.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, pingCmd(m.ctx, m.sess)}
	if m.openThread != "" {
		cmds = append(cmds, openThreadCmd(m.ctx, m.sess, m.openThread))
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Streaming reports whether a reply is in progress.
func (m Model) Streaming() bool {
	return m.streaming
}

// Status returns the status bar text and whether it is an error.
func (m Model) Status() (string, bool) {
	return m.status, m.statusError
}

// Input returns the current input text.
func (m Model) Input() string {
	return m.input.Value()
}

// SetInput replaces the input text.
func (m *Model) SetInput(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

// =============================================================================
// LAYOUT AND RENDERING
// =============================================================================

// applyTheme rebuilds the theme and the transcript renderer from m.ui.
func (m *Model) applyTheme() {
	m.theme = styles.ThemeFor(m.ui.Theme, m.profile)
	m.input.PromptStyle = m.theme.InputPrompt
	m.input.PlaceholderStyle = m.theme.InputPlaceholder
	m.spinner.Style = m.theme.Spinner

	r, err := render.New(render.Options{
		Theme:    m.ui.Theme,
		WordWrap: m.wrapWidth(),
		Markdown: true,
		Profile:  m.profile,
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("markdown rendering disabled")
	}
	m.renderer = r
	m.view.invalidate()
}

// wrapWidth is the configured wrap width, narrowed to the window.
func (m *Model) wrapWidth() int {
	w := m.ui.WordWrap
	if w <= 0 {
		w = 80
	}
	if avail := m.width - 2; avail > 20 && avail < w {
		w = avail
	}
	return w
}

// layout sizes the components for the window.
func (m *Model) layout() {
	const headerHeight, inputHeight, statusHeight = 1, 2, 1
	h := m.height - headerHeight - inputHeight - statusHeight
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.input.Width = m.width - 4
	m.help.Width = m.width
}

// requestRender re-renders now if the limiter allows, otherwise schedules
// one render for when it will.
func (m Model) requestRender() (Model, tea.Cmd) {
	m.dirty = true
	if m.limiter.Allow() {
		m.refresh()
		return m, nil
	}
	if m.renderPending {
		return m, nil
	}
	m.renderPending = true
	return m, tea.Tick(time.Second/maxFPS, func(time.Time) tea.Msg { return renderTickMsg{} })
}

// refresh re-renders the transcript into the viewport, following the bottom
// if the user has not scrolled up.
func (m *Model) refresh() {
	follow := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0
	m.viewport.SetContent(m.transcriptContent())
	if follow {
		m.viewport.GotoBottom()
	}
	m.dirty = false
}

func (m *Model) transcriptContent() string {
	if len(m.messages) == 0 {
		actor := m.sess.Actor()
		if actor == "" {
			actor = "an actor"
		}
		return m.theme.Empty.Render("Start typing to chat with " + actor + ". F1 shows the keys.")
	}
	return m.view.render(m.renderer, m.messages)
}

// setStatus sets the status bar text.
func (m *Model) setStatus(text string, isError bool) {
	m.status = text
	m.statusError = isError
}

// =============================================================================
// RENDER CACHE
// =============================================================================

// renderCache keeps rendered messages between frames. Every message but the
// last is final (the transcript only ever extends its last message), so only
// the tail is re-rendered while a reply streams.
type renderCache struct {
	parts []string
	final int
}

func (c *renderCache) invalidate() {
	c.parts = c.parts[:0]
	c.final = 0
}

func (c *renderCache) render(r *render.Renderer, msgs []transcript.Message) string {
	if c.final > len(msgs) {
		c.invalidate()
	}
	if len(c.parts) > c.final {
		c.parts = c.parts[:c.final]
	}
	for i := c.final; i < len(msgs); i++ {
		c.parts = append(c.parts, renderOne(r, msgs[i]))
	}
	c.final = len(msgs) - 1

	nonEmpty := make([]string, 0, len(c.parts))
	for _, p := range c.parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// renderOne renders a message, or "" for an empty reply placeholder.
func renderOne(r *render.Renderer, m transcript.Message) string {
	if m.IsText() && m.Role == transcript.RoleAssistant && m.Value == "" {
		return ""
	}
	return r.Message(m)
}
