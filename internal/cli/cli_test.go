// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/genscene-tui/internal/api"
	"github.com/jeranaias/genscene-tui/internal/config"
	"github.com/jeranaias/genscene-tui/internal/render"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/storage"
	"github.com/jeranaias/genscene-tui/internal/transcript"
)

func init() {
	ForceColorsEnabled(false)
}

const harborThread = `{"name":"Harbor","thread_id":"t1","user_id":"user_id","messages":"[{\"type\":\"text\",\"role\":\"user\",\"value\":\"paint a harbor\"},{\"type\":\"text\",\"role\":\"assistant\",\"value\":\"Done.\"}]"}`

// =============================================================================
// TEST BACKEND
// =============================================================================

type backend struct {
	chat    func(w http.ResponseWriter, req api.ChatRequest)
	deleted []string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/actors/":
		io.WriteString(w, `[{"actor_name":"home","description":"The default actor"},{"actor_name":"painter"}]`)
	case r.URL.Path == "/api/actors/home/":
		io.WriteString(w, `{"actor_name":"home","description":"The default actor","instructions":"Be **kind**."}`)
	case r.URL.Path == "/api/actors/painter/":
		io.WriteString(w, `{"actor_name":"painter"}`)
	case r.URL.Path == "/api/threads/" && r.Method == http.MethodGet:
		io.WriteString(w, `[`+harborThread+`]`)
	case r.URL.Path == "/api/threads/" && r.Method == http.MethodPost:
		io.WriteString(w, `{"name":"","thread_id":"t-created","user_id":"user_id","messages":null}`)
	case r.URL.Path == "/api/threads/t1/" && r.Method == http.MethodGet:
		io.WriteString(w, harborThread)
	case strings.HasPrefix(r.URL.Path, "/api/threads/") && r.Method == http.MethodDelete:
		b.deleted = append(b.deleted, strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/threads/"), "/"))
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/api/chat/":
		var req api.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("thread_id", "t-new")
		w.Header().Set("actor", req.Actor)
		if b.chat == nil {
			io.WriteString(w, "Hello there.")
			return
		}
		b.chat(w, req)
	default:
		http.NotFound(w, r)
	}
}

type testEnv struct {
	*Env
	backend *backend
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newTestEnv(t *testing.T, in string) *testEnv {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Server.URL = srv.URL
	cfg.Cache.Path = filepath.Join(dir, "threads.db")
	cfg.UI.Theme = "notty"

	var out, errOut bytes.Buffer
	env, err := NewEnv(cfg, strings.NewReader(in), &out, &errOut)
	require.NoError(t, err)
	env.ConfigPath = filepath.Join(dir, "config.toml")
	t.Cleanup(func() { env.Close() })
	return &testEnv{Env: env, backend: b, out: &out, errOut: &errOut}
}

func flushWrite(w http.ResponseWriter, s string) {
	io.WriteString(w, s)
	w.(http.Flusher).Flush()
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// scriptedInput replays lines, then reports EOF.
type scriptedInput struct {
	lines   []string
	prompts []string
}

func (s *scriptedInput) ReadInput(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedInput) Close() {}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		cmd   Command
		check func(t *testing.T, a Args)
	}{
		{name: "no args starts the TUI", argv: nil, cmd: CmdTUI},
		{
			name: "ask joins the prompt",
			argv: []string{"ask", "draw", "a", "boat"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "draw a boat", a.Query)
			},
		},
		{
			name: "bare text is a prompt",
			argv: []string{"Draw", "a", "Lighthouse"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "Draw a Lighthouse", a.Query)
			},
		},
		{
			name: "global flags anywhere",
			argv: []string{"threads", "--json", "list", "--user", "ann"},
			cmd:  CmdThreads,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.Equal(t, "ann", a.User)
				assert.Equal(t, []string{"list"}, a.Raw)
			},
		},
		{
			name: "equals form and ask flags",
			argv: []string{"--server=http://10.0.0.2:8000", "ask", "--save", "out", "--stats", "hi"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "http://10.0.0.2:8000", a.Server)
				assert.Equal(t, "out", a.SaveDir)
				assert.True(t, a.Stats)
				assert.Equal(t, "hi", a.Query)
			},
		},
		{
			name: "thread short flag",
			argv: []string{"-t", "t1", "chat"},
			cmd:  CmdChat,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "t1", a.Thread)
			},
		},
		{
			name: "double dash keeps flags in the prompt",
			argv: []string{"ask", "--", "--json", "is", "text"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.False(t, a.JSON)
				assert.Equal(t, "--json is text", a.Query)
			},
		},
		{name: "version", argv: []string{"--version"}, cmd: CmdVersion},
		{name: "help", argv: []string{"help"}, cmd: CmdHelp},
		{name: "export", argv: []string{"export", "t1", "--format", "html"}, cmd: CmdExport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			assert.Equal(t, tt.cmd, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"show", "--raw", "t1", "--format", "md", "--limit=5", "--", "--literal"}, "raw")

	assert.Equal(t, "show", p.Subcommand())
	assert.True(t, p.BoolFlag("raw"))
	assert.Equal(t, "t1", p.Positional(1))
	assert.Equal(t, "md", p.Flag("format", "f"))
	assert.Equal(t, 5, p.FlagIntOrDefault("limit", 0))
	assert.Equal(t, "--literal", p.Positional(2))
	assert.Equal(t, 3, p.PositionalCount())
	assert.True(t, p.HasFlag("--format"))
	assert.False(t, p.HasFlag("missing"))
	assert.Equal(t, "", p.Positional(9))
	assert.Nil(t, p.PositionalFrom(9))
}

func TestArgParser_GreedyWithoutBoolNames(t *testing.T) {
	p := NewArgParser([]string{"--raw", "t1"})
	assert.Equal(t, "t1", p.Flag("raw"))
	assert.Equal(t, 0, p.PositionalCount())
}

func TestParseIntInRange(t *testing.T) {
	n, err := ParseIntInRange("keep", " 12 ", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = ParseIntInRange("keep", "abc", 0, 100)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = ParseIntInRange("keep", "101", 0, 100)
	assert.Error(t, err)
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("x", "y", "bad"), ExitUsageError},
		{"empty prompt", session.ErrEmptyPrompt, ExitUsageError},
		{"not found", NewNotFoundError("thread", "t9"), ExitNotFoundError},
		{"backend not found", WrapError("threads", "show", api.ErrNotFound), ExitNotFoundError},
		{"cache not found", storage.ErrNotFound, ExitNotFoundError},
		{"unreachable", api.ErrNotRunning, ExitNetworkError},
		{"timeout", api.ErrTimeout, ExitTimeoutError},
		{"cancelled", context.Canceled, ExitInterrupted},
		{"config", config.ValidateErrors{{Field: "server.url", Message: "bad"}}, ExitConfigError},
		{"no terminal", &TTYRequiredError{Operation: "run the TUI"}, ExitUsageError},
		{"generic", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, api.ErrNotRunning, false)
	assert.Contains(t, buf.String(), "[ERROR]")
	assert.Contains(t, buf.String(), "--server")

	buf.Reset()
	DisplayError(&buf, NewNotFoundError("thread", "t9"), true)
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "not_found_error", out["error_type"])
	assert.Equal(t, "t9", out["id"])
	assert.Equal(t, float64(ExitNotFoundError), out["code"])
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestHandleAsk_StreamsTextAndImages(t *testing.T) {
	e := newTestEnv(t, "")
	img := pngDataURL(t)
	e.backend.chat = func(w http.ResponseWriter, req api.ChatRequest) {
		assert.Equal(t, "draw", req.Input)
		flushWrite(w, "Here ")
		assert.Eventually(t, func() bool {
			last, ok := e.Session.Store().Last()
			return ok && last.Value == "Here "
		}, 2*time.Second, 5*time.Millisecond)
		flushWrite(w, img+"|")
		assert.Eventually(t, func() bool { return e.Session.Store().Len() == 4 }, 2*time.Second, 5*time.Millisecond)
		flushWrite(w, "it is.")
	}

	saveDir := t.TempDir()
	err := HandleAsk(context.Background(), e.Env, Args{Query: "draw", SaveDir: saveDir})
	require.NoError(t, err)

	out := e.out.String()
	assert.Contains(t, out, "home: Here ")
	assert.Contains(t, out, "[image: PNG 3x2")
	assert.Contains(t, out, "it is.")
	assert.NotContains(t, out, "base64")
	assert.Contains(t, e.errOut.String(), "thread t-new")

	_, err = os.Stat(filepath.Join(saveDir, "image-001.png"))
	assert.NoError(t, err)
}

func TestHandleAsk_JSON(t *testing.T) {
	e := newTestEnv(t, "")
	e.JSON = true

	require.NoError(t, HandleAsk(context.Background(), e.Env, Args{Query: "hi"}))

	var resp struct {
		Success bool    `json:"success"`
		Data    AskData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "t-new", resp.Data.Thread)
	require.Len(t, resp.Data.Messages, 2)
	assert.Equal(t, "Hello there.", resp.Data.Messages[1].Value)
	assert.Equal(t, 12, resp.Data.Stats.Bytes)
}

func TestHandleAsk_PipedPrompt(t *testing.T) {
	e := newTestEnv(t, "  from a pipe\n")
	var got string
	e.backend.chat = func(w http.ResponseWriter, req api.ChatRequest) {
		got = req.Input
		io.WriteString(w, "ok")
	}
	require.NoError(t, HandleAsk(context.Background(), e.Env, Args{Quiet: true}))
	assert.Equal(t, "from a pipe", got)
}

func TestHandleAsk_MissingPrompt(t *testing.T) {
	e := newTestEnv(t, "")
	err := HandleAsk(context.Background(), e.Env, Args{})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleAsk_ContinuesThread(t *testing.T) {
	e := newTestEnv(t, "")
	var thread string
	e.backend.chat = func(w http.ResponseWriter, req api.ChatRequest) {
		thread = req.Thread
		io.WriteString(w, "again")
	}
	require.NoError(t, HandleAsk(context.Background(), e.Env, Args{Query: "more", Thread: "t1"}))
	assert.Equal(t, "t1", thread)
	assert.Equal(t, 4, e.Session.Store().Len())
}

// =============================================================================
// THREADS, ACTORS, EXPORT
// =============================================================================

func TestHandleThreads_List(t *testing.T) {
	e := newTestEnv(t, "")
	require.NoError(t, HandleThreads(context.Background(), e.Env, Args{}))
	assert.Contains(t, e.out.String(), "t1")
	assert.Contains(t, e.out.String(), "Harbor")

	e.out.Reset()
	e.JSON = true
	require.NoError(t, HandleThreads(context.Background(), e.Env, Args{Raw: []string{"list"}}))
	var resp struct {
		Data ThreadsData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &resp))
	require.Len(t, resp.Data.Threads, 1)
	assert.Equal(t, 2, resp.Data.Threads[0].Messages)
}

func TestHandleThreads_ShowSearchDelete(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()

	require.NoError(t, HandleThreads(ctx, e.Env, Args{Raw: []string{"show", "--raw", "t1"}}))
	assert.Contains(t, e.out.String(), "You: paint a harbor")
	assert.Contains(t, e.out.String(), "Actor: Done.")

	// show mirrored the thread into the cache
	e.out.Reset()
	require.NoError(t, HandleThreads(ctx, e.Env, Args{Raw: []string{"search", "HARBOR"}}))
	assert.Contains(t, e.out.String(), "t1")

	e.out.Reset()
	require.NoError(t, HandleThreads(ctx, e.Env, Args{Raw: []string{"delete", "t1"}}))
	assert.Equal(t, []string{"t1"}, e.backend.deleted)
	_, err := e.Cache.Get(ctx, "t1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHandleThreads_Errors(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()

	err := HandleThreads(ctx, e.Env, Args{Raw: []string{"show"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleThreads(ctx, e.Env, Args{Raw: []string{"show", "nope"}})
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	err = HandleThreads(ctx, e.Env, Args{Raw: []string{"frobnicate"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleThreads_NewAndPrune(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()

	require.NoError(t, HandleThreads(ctx, e.Env, Args{Raw: []string{"new"}}))
	assert.Equal(t, "t-created\n", e.out.String())

	require.NoError(t, e.Cache.Put(ctx, storage.CachedThread{ThreadID: "old", UserID: "user_id", UpdatedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, e.Cache.Put(ctx, storage.CachedThread{ThreadID: "new", UserID: "user_id"}))
	e.out.Reset()
	require.NoError(t, HandleThreads(ctx, e.Env, Args{Raw: []string{"prune", "--keep", "1"}}))
	assert.Contains(t, e.out.String(), "Removed 1")
}

func TestHandleActors(t *testing.T) {
	e := newTestEnv(t, "")
	ctx := context.Background()

	require.NoError(t, HandleActors(ctx, e.Env, Args{}))
	assert.Contains(t, e.out.String(), "* home")
	assert.Contains(t, e.out.String(), "painter")

	e.out.Reset()
	require.NoError(t, HandleActors(ctx, e.Env, Args{Raw: []string{"show", "home"}}))
	assert.Contains(t, e.out.String(), "The default actor")
	assert.Contains(t, e.out.String(), "kind")

	err := HandleActors(ctx, e.Env, Args{Raw: []string{"show", "ghost"}})
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestHandleExport(t *testing.T) {
	e := newTestEnv(t, "")
	dir := t.TempDir()

	err := HandleExport(context.Background(), e.Env, Args{Raw: []string{"t1", "--format", "json", "--output", dir, "--name", "harbor.json"}})
	require.NoError(t, err)
	assert.Contains(t, e.out.String(), "Exported")

	data, err := os.ReadFile(filepath.Join(dir, "harbor.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "paint a harbor")

	err = HandleExport(context.Background(), e.Env, Args{Raw: []string{"t1", "--format", "pdf"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleExport(context.Background(), e.Env, Args{})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestHandleConfig(t *testing.T) {
	e := newTestEnv(t, "")

	require.NoError(t, HandleConfig(e.Env, Args{Raw: []string{"get", "chat.actor"}}))
	assert.Equal(t, "home\n", e.out.String())

	require.NoError(t, HandleConfig(e.Env, Args{Raw: []string{"set", "chat.buffer_size", "25"}}))
	cfg := config.Default()
	require.NoError(t, config.LoadTOML(cfg, e.ConfigPath))
	assert.Equal(t, 25, cfg.Chat.BufferSize)

	err := HandleConfig(e.Env, Args{Raw: []string{"set", "chat.buffer_size", "0"}})
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	err = HandleConfig(e.Env, Args{Raw: []string{"get", "chat.nope"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleConfig(e.Env, Args{Raw: []string{"init"}})
	assert.Error(t, err, "init refuses to overwrite")
	require.NoError(t, HandleConfig(e.Env, Args{Raw: []string{"init", "--force"}}))
}

// =============================================================================
// REPL TESTS
// =============================================================================

func TestParseSlash(t *testing.T) {
	cmd, ok := parseSlash("  /Open  t1 extra ")
	require.True(t, ok)
	assert.Equal(t, "open", cmd.Name)
	assert.Equal(t, "t1", cmd.Arg(0))
	assert.Equal(t, "extra", cmd.Arg(1))
	assert.Equal(t, "", cmd.Arg(2))

	_, ok = parseSlash("/")
	assert.False(t, ok)
	_, ok = parseSlash("hello")
	assert.False(t, ok)
}

func TestCompleteSlash(t *testing.T) {
	assert.Equal(t, []string{"/threads"}, completeSlash("/th"))
	assert.Equal(t, []string{"/save", "/stats"}, completeSlash("/s"))
	assert.Nil(t, completeSlash("hello"))
	assert.Nil(t, completeSlash("/open t"))
}

func TestLastReplyText(t *testing.T) {
	msgs := []transcript.Message{
		transcript.NewText(transcript.RoleUser, "q"),
		transcript.NewText(transcript.RoleAssistant, "answer"),
		transcript.NewImage(transcript.RoleAssistant, "data:image/png;base64,AA=="),
		transcript.NewText(transcript.RoleAssistant, ""),
	}
	text, ok := lastReplyText(msgs)
	require.True(t, ok)
	assert.Equal(t, "answer", text)

	_, ok = lastReplyText(msgs[:1])
	assert.False(t, ok)
}

func TestREPL_Session(t *testing.T) {
	e := newTestEnv(t, "")
	in := &scriptedInput{lines: []string{
		"/actors",
		"",
		"hello",
		"/history",
		"/stats",
		"/bogus",
		"/actor painter",
		"/threads",
		"/quit",
		"never read",
	}}

	require.NoError(t, runREPL(context.Background(), e.Env, Args{}, in))

	out := e.out.String()
	assert.Contains(t, out, "genscene chat")
	assert.Contains(t, out, "home: Hello there.")
	assert.Contains(t, out, "You")
	assert.Contains(t, out, "12 B")
	assert.Contains(t, out, "Now chatting with painter")
	assert.Contains(t, out, "Harbor")
	assert.Contains(t, out, "Resume with: genscene chat -t t-new")
	assert.Contains(t, e.errOut.String(), "unknown command")

	assert.Equal(t, []string{"never read"}, in.lines)
	assert.Equal(t, "painter", e.Session.Actor())
	assert.Contains(t, in.prompts[len(in.prompts)-1], "painter>")
}

func TestREPL_OpenNewDeleteExport(t *testing.T) {
	e := newTestEnv(t, "")
	dir := t.TempDir()
	in := &scriptedInput{lines: []string{
		"/open t1",
		"/export md " + dir,
		"/delete",
		"/open",
		"/new",
	}}

	require.NoError(t, runREPL(context.Background(), e.Env, Args{}, in))

	out := e.out.String()
	assert.Contains(t, out, "Opened Harbor")
	assert.Contains(t, out, "Exported")
	assert.Contains(t, out, "Deleted t1")
	assert.Contains(t, out, "New thread")
	assert.Contains(t, e.errOut.String(), "thread id")

	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, "", e.Session.ThreadID())
}

func TestREPL_ResumesThread(t *testing.T) {
	e := newTestEnv(t, "")
	in := &scriptedInput{lines: []string{"exit"}}
	require.NoError(t, runREPL(context.Background(), e.Env, Args{Thread: "t1"}, in))
	assert.Contains(t, e.out.String(), "paint a harbor")
	assert.Equal(t, "t1", e.Session.ThreadID())
}

// =============================================================================
// STREAM PRINTER TESTS
// =============================================================================

func TestStreamPrinter(t *testing.T) {
	var buf bytes.Buffer
	r, err := render.New(render.Options{Theme: "notty"})
	require.NoError(t, err)
	p := newStreamPrinter(&buf, r.Styles(), "home")

	p.observe(transcript.Update{Op: transcript.Append(
		transcript.NewText(transcript.RoleUser, "hi"),
		transcript.NewText(transcript.RoleAssistant, ""),
	)})
	p.observe(transcript.Update{Op: transcript.UpdateLast("one\x1b[2J")})
	p.observe(transcript.Update{Op: transcript.Append(
		transcript.NewImage(transcript.RoleAssistant, "data:image/png;base64,!!"),
		transcript.NewText(transcript.RoleAssistant, ""),
	)})
	p.observe(transcript.Update{Op: transcript.UpdateLast("two")})
	p.observe(transcript.Update{Op: transcript.Replace(nil)})
	p.finish()
	p.finish()

	assert.Equal(t, "home: one^[[2J\n[image: undecodable payload]\ntwo\n", buf.String())
	assert.Equal(t, 1, p.imageCount())
}

func TestWrapWidth_RedirectedOutput(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 100, wrapWidth(100, &buf))
	assert.False(t, isTerminal(&buf))
	assert.Equal(t, "stdin is not a terminal; cannot run the TUI", (&TTYRequiredError{Operation: "run the TUI"}).Error())
}
