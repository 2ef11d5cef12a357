// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/jeranaias/genscene-tui/internal/export"
	"github.com/jeranaias/genscene-tui/internal/render"
	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// slashCommand is a parsed "/name arg..." line.
type slashCommand struct {
	Name string
	Args []string
}

// Arg returns the i'th argument or "".
func (c slashCommand) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// parseSlash splits a slash command line. Names are case-insensitive.
func parseSlash(line string) (slashCommand, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") || len(line) < 2 {
		return slashCommand{}, false
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return slashCommand{}, false
	}
	return slashCommand{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

type slashHandler struct {
	usage string
	help  string
	run   func(ctx context.Context, env *Env, cmd slashCommand) (quit bool, err error)
}

var slashCommands map[string]slashHandler

func init() {
	slashCommands = map[string]slashHandler{
		"help":    {"/help", "Show this help", slashHelp},
		"actor":   {"/actor [name]", "Show or switch the actor", slashActor},
		"actors":  {"/actors", "List actors", slashActors},
		"threads": {"/threads", "List your threads", slashThreads},
		"open":    {"/open <id>", "Open a thread", slashOpen},
		"new":     {"/new", "Start a new thread", slashNew},
		"delete":  {"/delete [id]", "Delete a thread (default: the open one)", slashDelete},
		"history": {"/history", "Print the open transcript", slashHistory},
		"save":    {"/save [dir]", "Write the transcript's images as PNG files", slashSave},
		"export":  {"/export <md|json|yaml|html> [dir]", "Export the open thread", slashExport},
		"copy":    {"/copy", "Copy the last reply text to the clipboard", slashCopy},
		"stats":   {"/stats", "Show statistics for the last reply", slashStats},
		"quit":    {"/quit", "Leave the chat", slashQuit},
		"exit":    {"/exit", "Leave the chat", slashQuit},
	}
}

// handleSlashCommand runs one slash command line. quit is true when the
// REPL should end.
func handleSlashCommand(ctx context.Context, env *Env, line string) (bool, error) {
	cmd, ok := parseSlash(line)
	if !ok {
		return false, NewValidationError("command", line, "not a slash command")
	}
	h, ok := slashCommands[cmd.Name]
	if !ok {
		return false, NewValidationErrorWithExample("command", "/"+cmd.Name, "unknown command", "/help")
	}
	return h.run(ctx, env, cmd)
}

// completeSlash completes slash command names for liner.
func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for name := range slashCommands {
		if strings.HasPrefix("/"+name, strings.ToLower(line)) {
			out = append(out, "/"+name)
		}
	}
	sort.Strings(out)
	return out
}

func slashHelp(_ context.Context, env *Env, _ slashCommand) (bool, error) {
	names := make([]string, 0, len(slashCommands))
	for name := range slashCommands {
		if name != "exit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		h := slashCommands[name]
		fmt.Fprintf(env.Out, "  %s %s\n", PromptStyle.Render(fmt.Sprintf("%-36s", h.usage)), h.help)
	}
	return false, nil
}

func slashActor(ctx context.Context, env *Env, cmd slashCommand) (bool, error) {
	name := strings.Join(cmd.Args, " ")
	if name == "" {
		fmt.Fprintln(env.Out, RenderField("Actor", ActorStyle.Render(env.Session.Actor())))
		return false, nil
	}
	actor, err := env.Session.SelectActor(ctx, name)
	if err != nil {
		return false, err
	}
	fmt.Fprintln(env.Out, SuccessStyle.Render("Now chatting with ")+ActorStyle.Render(actor.Name))
	return false, nil
}

func slashActors(ctx context.Context, env *Env, _ slashCommand) (bool, error) {
	actors, err := env.Session.Actors(ctx)
	if err != nil {
		return false, err
	}
	printActors(env, actors, env.Session.Actor())
	return false, nil
}

func slashThreads(ctx context.Context, env *Env, _ slashCommand) (bool, error) {
	threads, err := env.Session.Threads(ctx)
	if err != nil {
		return false, err
	}
	printThreads(env, threads, env.Session.ThreadID(), env.Session.Offline())
	return false, nil
}

func slashOpen(ctx context.Context, env *Env, cmd slashCommand) (bool, error) {
	id := cmd.Arg(0)
	if id == "" {
		return false, ErrMissingArgument("/open", "thread id", "/open 3f2c...")
	}
	info, err := env.Session.OpenThread(ctx, id)
	if err != nil {
		return false, err
	}
	note := ""
	if info.Cached {
		note = DimStyle.Render(" (from cache, read-only until the backend is back)")
	}
	fmt.Fprintln(env.Out, SuccessStyle.Render("Opened ")+info.Title()+note)
	fmt.Fprintln(env.Out, env.Renderer.Transcript(env.Session.Store().Snapshot()))
	return false, nil
}

func slashNew(_ context.Context, env *Env, _ slashCommand) (bool, error) {
	env.Session.NewThread()
	fmt.Fprintln(env.Out, SuccessStyle.Render("New thread")+DimStyle.Render(" (created on first message)"))
	return false, nil
}

func slashDelete(ctx context.Context, env *Env, cmd slashCommand) (bool, error) {
	id := cmd.Arg(0)
	if id == "" {
		id = env.Session.ThreadID()
	}
	if id == "" {
		return false, ErrMissingArgument("/delete", "thread id", "/delete 3f2c...")
	}
	if err := env.Session.DeleteThread(ctx, id); err != nil {
		return false, err
	}
	fmt.Fprintln(env.Out, SuccessStyle.Render("Deleted ")+id)
	return false, nil
}

func slashHistory(_ context.Context, env *Env, _ slashCommand) (bool, error) {
	msgs := env.Session.Store().Snapshot()
	if len(msgs) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("(empty transcript)"))
		return false, nil
	}
	fmt.Fprintln(env.Out, env.Renderer.Transcript(msgs))
	return false, nil
}

func slashSave(_ context.Context, env *Env, cmd slashCommand) (bool, error) {
	dir := cmd.Arg(0)
	if dir == "" {
		dir = env.Config.UI.ImageDir
	}
	if dir == "" {
		dir = "."
	}
	paths, err := render.SaveImages(dir, env.Session.Store().Snapshot())
	for _, p := range paths {
		fmt.Fprintln(env.Out, DimStyle.Render("saved "+p))
	}
	if err != nil {
		return false, err
	}
	if len(paths) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("no images in this thread"))
	}
	return false, nil
}

func slashExport(_ context.Context, env *Env, cmd slashCommand) (bool, error) {
	format, err := export.ParseFormat(cmd.Arg(0))
	if err != nil {
		return false, NewValidationErrorWithExample("format", cmd.Arg(0), err.Error(), "/export md")
	}
	opts := export.DefaultOptions()
	if dir := cmd.Arg(1); dir != "" {
		opts.OutputDir = dir
	}
	path, err := export.ExportAs(env.Session.Document(), format, opts)
	if err != nil {
		return false, err
	}
	fmt.Fprintln(env.Out, SuccessStyle.Render("Exported ")+path)
	return false, nil
}

func slashCopy(_ context.Context, env *Env, _ slashCommand) (bool, error) {
	text, ok := lastReplyText(env.Session.Store().Snapshot())
	if !ok {
		return false, errors.New("no reply text to copy")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return false, NewCommandError("/copy", "write", "clipboard unavailable", err)
	}
	fmt.Fprintln(env.Out, DimStyle.Render(fmt.Sprintf("copied %d characters", len([]rune(text)))))
	return false, nil
}

func slashStats(_ context.Context, env *Env, _ slashCommand) (bool, error) {
	res, ok := env.Session.LastResult()
	if !ok {
		fmt.Fprintln(env.Out, DimStyle.Render("no reply yet"))
		return false, nil
	}
	printStats(env.Out, env.Renderer.Styles(), res)
	return false, nil
}

func slashQuit(context.Context, *Env, slashCommand) (bool, error) {
	return true, nil
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
