// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/genscene-tui/internal/export"
	"github.com/jeranaias/genscene-tui/internal/render"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/transcript"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// Every session call that can touch the transcript runs in a command, never
// in Update: the store notifies observers while holding its writer lock.

// sendCmd streams one reply into the session's transcript.
func sendCmd(ctx context.Context, sess *session.Session, prompt string) tea.Cmd {
	return func() tea.Msg {
		res, err := sess.Send(ctx, prompt)
		return StreamDoneMsg{Result: res, Err: err}
	}
}

// pingCmd checks that the backend answers and warms the thread cache.
func pingCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		actors, threads, err := sess.Refresh(ctx)
		return BackendStatusMsg{
			Err:     err,
			Offline: sess.Offline(),
			Actors:  len(actors),
			Threads: len(threads),
		}
	}
}

func loadThreadsCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		threads, err := sess.Threads(ctx)
		return ThreadsLoadedMsg{Threads: threads, Offline: sess.Offline(), Err: err}
	}
}

func loadActorsCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		actors, err := sess.Actors(ctx)
		return ActorsLoadedMsg{Actors: actors, Err: err}
	}
}

func openThreadCmd(ctx context.Context, sess *session.Session, id string) tea.Cmd {
	return func() tea.Msg {
		info, err := sess.OpenThread(ctx, id)
		return ThreadOpenedMsg{Info: info, Err: err}
	}
}

func deleteThreadCmd(ctx context.Context, sess *session.Session, id string) tea.Cmd {
	return func() tea.Msg {
		return ThreadDeletedMsg{ID: id, Err: sess.DeleteThread(ctx, id)}
	}
}

func selectActorCmd(ctx context.Context, sess *session.Session, name string) tea.Cmd {
	return func() tea.Msg {
		actor, err := sess.SelectActor(ctx, name)
		return ActorSelectedMsg{Actor: actor, Err: err}
	}
}

func newThreadCmd(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		sess.NewThread()
		return StatusMsg{Text: "New thread (created on first message)"}
	}
}

func saveImagesCmd(sess *session.Session, dir string) tea.Cmd {
	return func() tea.Msg {
		paths, err := render.SaveImages(dir, sess.Store().Snapshot())
		if err != nil {
			return StatusMsg{Text: fmt.Sprintf("saved %d images, then: %v", len(paths), err), Error: true}
		}
		if len(paths) == 0 {
			return StatusMsg{Text: "no images in this thread"}
		}
		return StatusMsg{Text: fmt.Sprintf("saved %d images to %s", len(paths), util.ExpandHome(dir))}
	}
}

func exportCmd(sess *session.Session, format export.Format, dir, theme string) tea.Cmd {
	return func() tea.Msg {
		opts := export.DefaultOptions()
		if dir != "" {
			opts.OutputDir = dir
		}
		if theme == "light" {
			opts.Theme = "light"
		}
		path, err := export.ExportAs(sess.Document(), format, opts)
		if err != nil {
			return StatusMsg{Text: "export failed: " + err.Error(), Error: true}
		}
		return StatusMsg{Text: "exported " + path}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return StatusMsg{Text: "clipboard unavailable: " + err.Error(), Error: true}
		}
		return StatusMsg{Text: fmt.Sprintf("copied %d characters", len([]rune(text)))}
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

type slashFunc func(m Model, args []string) (Model, tea.Cmd)

type slashCommand struct {
	usage string
	help  string
	run   slashFunc
}

var slashCommands map[string]slashCommand

func init() {
	slashCommands = map[string]slashCommand{
		"new":     {"/new", "start a new thread", slashNew},
		"open":    {"/open <id>", "open a thread", slashOpen},
		"threads": {"/threads", "pick a thread", slashThreads},
		"actors":  {"/actors", "pick an actor", slashActors},
		"actor":   {"/actor <name>", "switch actor", slashActor},
		"delete":  {"/delete [id]", "delete a thread", slashDelete},
		"save":    {"/save [dir]", "write the thread's images as PNG", slashSave},
		"export":  {"/export <md|json|yaml|html> [dir]", "export the thread", slashExport},
		"copy":    {"/copy", "copy the last reply", slashCopy},
		"stats":   {"/stats", "show the last reply's statistics", slashStats},
		"help":    {"/help", "list commands", slashHelp},
		"quit":    {"/quit", "leave", slashQuit},
	}
}

// runSlash executes a "/name args" line.
func (m Model) runSlash(line string) (Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 {
		m.setStatus("type /help for commands", false)
		return m, nil
	}
	name := strings.ToLower(fields[0])
	cmd, ok := slashCommands[name]
	if !ok {
		m.setStatus("unknown command /"+name+" (try /help)", true)
		return m, nil
	}
	return cmd.run(m, fields[1:])
}

func slashNew(m Model, _ []string) (Model, tea.Cmd) {
	if m.streaming {
		m.sess.Cancel()
	}
	return m, newThreadCmd(m.sess)
}

func slashOpen(m Model, args []string) (Model, tea.Cmd) {
	if len(args) == 0 {
		m.setStatus("usage: /open <id>", true)
		return m, nil
	}
	m.setStatus("opening "+args[0]+"...", false)
	return m, openThreadCmd(m.ctx, m.sess, args[0])
}

func slashThreads(m Model, _ []string) (Model, tea.Cmd) {
	m.setStatus("loading threads...", false)
	return m, loadThreadsCmd(m.ctx, m.sess)
}

func slashActors(m Model, _ []string) (Model, tea.Cmd) {
	m.setStatus("loading actors...", false)
	return m, loadActorsCmd(m.ctx, m.sess)
}

func slashActor(m Model, args []string) (Model, tea.Cmd) {
	if len(args) == 0 {
		m.setStatus("actor: "+m.sess.Actor(), false)
		return m, nil
	}
	return m, selectActorCmd(m.ctx, m.sess, strings.Join(args, " "))
}

func slashDelete(m Model, args []string) (Model, tea.Cmd) {
	id := m.sess.ThreadID()
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		m.setStatus("usage: /delete <id>", true)
		return m, nil
	}
	return m, deleteThreadCmd(m.ctx, m.sess, id)
}

func slashSave(m Model, args []string) (Model, tea.Cmd) {
	dir := m.ui.ImageDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		dir = "."
	}
	return m, saveImagesCmd(m.sess, dir)
}

func slashExport(m Model, args []string) (Model, tea.Cmd) {
	if len(args) == 0 {
		m.setStatus("usage: /export <md|json|yaml|html> [dir]", true)
		return m, nil
	}
	format, err := export.ParseFormat(args[0])
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	dir := ""
	if len(args) > 1 {
		dir = args[1]
	}
	return m, exportCmd(m.sess, format, dir, m.ui.Theme)
}

func slashCopy(m Model, _ []string) (Model, tea.Cmd) {
	text, ok := lastReplyText(m.messages)
	if !ok {
		m.setStatus("no reply text to copy", true)
		return m, nil
	}
	return m, copyCmd(text)
}

func slashStats(m Model, _ []string) (Model, tea.Cmd) {
	if m.lastResult == nil {
		m.setStatus("no reply yet", false)
		return m, nil
	}
	m.setStatus(statsLine(*m.lastResult), false)
	return m, nil
}

func slashHelp(m Model, _ []string) (Model, tea.Cmd) {
	names := make([]string, 0, len(slashCommands))
	for name := range slashCommands {
		names = append(names, "/"+name)
	}
	sort.Strings(names)
	m.setStatus(strings.Join(names, " "), false)
	return m, nil
}

func slashQuit(m Model, _ []string) (Model, tea.Cmd) {
	m.sess.Cancel()
	return m, tea.Quit
}

// lastReplyText returns the newest non-empty assistant text.
func lastReplyText(msgs []transcript.Message) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role == transcript.RoleAssistant && m.IsText() && strings.TrimSpace(m.Value) != "" {
			return m.Value, true
		}
	}
	return "", false
}
