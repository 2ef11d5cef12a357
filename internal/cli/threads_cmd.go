// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// threads_cmd.go - Thread management.
//
// Usage:
//
//	genscene threads [list] [--limit N]
//	genscene threads new
//	genscene threads show <id> [--raw]
//	genscene threads delete <id>
//	genscene threads search <query>      (local cache)
//	genscene threads prune [--keep N]    (local cache)

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/genscene-tui/internal/api"
	"github.com/jeranaias/genscene-tui/internal/render"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/storage"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// HandleThreads handles "genscene threads ...".
func HandleThreads(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "raw")
	switch p.Subcommand() {
	case "", "list", "ls":
		return threadsList(ctx, env, p)
	case "new", "create":
		return threadsNew(ctx, env)
	case "show", "open", "cat":
		return threadsShow(ctx, env, p)
	case "delete", "rm":
		return threadsDelete(ctx, env, p)
	case "search", "find":
		return threadsSearch(ctx, env, p)
	case "prune":
		return threadsPrune(ctx, env, p)
	default:
		return NewValidationErrorWithExample("subcommand", p.Subcommand(), "unknown threads subcommand", "genscene threads list")
	}
}

func threadsList(ctx context.Context, env *Env, p *ArgParser) error {
	threads, err := env.Session.Threads(ctx)
	if err != nil {
		return WrapError("threads", "list", err)
	}
	if limit := p.FlagIntOrDefault("limit", 0); limit > 0 && len(threads) > limit {
		threads = threads[:limit]
	}
	if env.JSON {
		data := ThreadsData{User: env.Session.User(), Offline: env.Session.Offline(), Threads: make([]ThreadData, 0, len(threads))}
		for _, t := range threads {
			data.Threads = append(data.Threads, threadData(t))
		}
		return NewJSONResponse("threads list", data).Print(env.Out)
	}
	printThreads(env, threads, "", env.Session.Offline())
	return nil
}

func threadsNew(ctx context.Context, env *Env) error {
	info, err := env.Session.CreateThread(ctx)
	if err != nil {
		return WrapError("threads", "new", err)
	}
	if env.JSON {
		return NewJSONResponse("threads new", threadData(*info)).Print(env.Out)
	}
	fmt.Fprintln(env.Out, info.ID)
	return nil
}

func threadsShow(ctx context.Context, env *Env, p *ArgParser) error {
	id := p.Positional(1)
	if id == "" {
		return ErrMissingArgument("threads show", "thread id", "genscene threads show 3f2c...")
	}
	info, err := openThread(ctx, env, id)
	if err != nil {
		return err
	}
	msgs := env.Session.Store().Snapshot()

	if env.JSON {
		return NewJSONResponse("threads show", map[string]any{
			"thread":   threadData(*info),
			"messages": wireMessages(msgs),
		}).Print(env.Out)
	}

	if !env.Quiet {
		title := info.Title()
		if info.Cached {
			title += DimStyle.Render(" (cached)")
		}
		fmt.Fprintln(env.Out, TitleStyle.Render(title))
		fmt.Fprintln(env.Out, RenderSeparator(min(wrapWidth(env.Config.UI.WordWrap, env.Out), 60)))
	}
	if p.BoolFlag("raw") {
		for _, m := range msgs {
			body := m.Value
			if m.IsImage() {
				body = render.DescribeImage(m.Value)
			}
			fmt.Fprintf(env.Out, "%s: %s\n", m.Role.DisplayName(), render.EscapeControl(body))
		}
		return nil
	}
	fmt.Fprintln(env.Out, env.Renderer.Transcript(msgs))
	return nil
}

func threadsDelete(ctx context.Context, env *Env, p *ArgParser) error {
	id := p.Positional(1)
	if id == "" {
		return ErrMissingArgument("threads delete", "thread id", "genscene threads delete 3f2c...")
	}
	if err := env.Session.DeleteThread(ctx, id); err != nil {
		return WrapError("threads", "delete", err)
	}
	if env.JSON {
		return NewJSONResponse("threads delete", map[string]string{"thread_id": id}).Print(env.Out)
	}
	fmt.Fprintln(env.Out, SuccessStyle.Render("Deleted ")+id)
	return nil
}

func threadsSearch(ctx context.Context, env *Env, p *ArgParser) error {
	query := JoinPositionalArgs(p.PositionalFrom(1))
	if query == "" {
		return ErrMissingArgument("threads search", "query", "genscene threads search lighthouse")
	}
	if env.Cache == nil {
		return NewCommandError("threads", "search", "the local cache is disabled", nil)
	}
	metas, err := env.Cache.Search(ctx, env.Session.User(), query)
	if err != nil {
		return WrapError("threads", "search", err)
	}
	threads := make([]session.ThreadInfo, 0, len(metas))
	for _, m := range metas {
		threads = append(threads, session.ThreadInfo{
			ID:        m.ThreadID,
			Name:      m.Name,
			Messages:  m.MessageCount,
			Preview:   m.Preview,
			UpdatedAt: m.UpdatedAt,
			Cached:    true,
		})
	}
	if env.JSON {
		data := ThreadsData{User: env.Session.User(), Threads: make([]ThreadData, 0, len(threads))}
		for _, t := range threads {
			data.Threads = append(data.Threads, threadData(t))
		}
		return NewJSONResponse("threads search", data).Print(env.Out)
	}
	printThreads(env, threads, "", false)
	return nil
}

func threadsPrune(ctx context.Context, env *Env, p *ArgParser) error {
	if env.Cache == nil {
		return NewCommandError("threads", "prune", "the local cache is disabled", nil)
	}
	keep := env.Config.Cache.MaxThreads
	if v := p.Flag("keep"); v != "" {
		n, err := ParseIntInRange("keep", v, 0, 1_000_000)
		if err != nil {
			return err
		}
		keep = n
	}
	removed, err := env.Cache.Prune(ctx, env.Session.User(), keep)
	if err != nil {
		return WrapError("threads", "prune", err)
	}
	if env.JSON {
		return NewJSONResponse("threads prune", map[string]int{"removed": removed, "kept": keep}).Print(env.Out)
	}
	fmt.Fprintf(env.Out, "Removed %d cached threads, kept the newest %d.\n", removed, keep)
	return nil
}

// openThread opens id, turning "not found" from either source into a
// NotFoundError.
func openThread(ctx context.Context, env *Env, id string) (*session.ThreadInfo, error) {
	info, err := env.Session.OpenThread(ctx, id)
	if err != nil {
		if api.IsNotFound(err) || errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError("thread", id)
		}
		return nil, err
	}
	return info, nil
}

// printThreads writes one thread per line, marking current.
func printThreads(env *Env, threads []session.ThreadInfo, current string, offline bool) {
	if offline {
		fmt.Fprintln(env.Out, WarningStyle.Render("backend unreachable, showing cached threads"))
	}
	if len(threads) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("no threads yet"))
		return
	}
	for _, t := range threads {
		marker := "  "
		if t.ID == current && current != "" {
			marker = "* "
		}
		meta := fmt.Sprintf("%d msgs", t.Messages)
		if !t.UpdatedAt.IsZero() {
			meta += ", " + humanizeAge(time.Since(t.UpdatedAt))
		}
		fmt.Fprintf(env.Out, "%s%s  %s %s\n",
			marker,
			t.ID,
			util.TruncateWidth(t.Title(), 48),
			DimStyle.Render("("+meta+")"))
	}
}

// humanizeAge renders d as "just now", "5m ago", "3h ago" or "2d ago".
func humanizeAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
