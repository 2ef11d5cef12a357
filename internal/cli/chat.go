// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-based chat with a genscene actor.
//
// Features:
//   - Streaming replies with images described as they complete
//   - Ctrl+C cancels the reply in flight; Ctrl+C at the prompt exits
//   - Input history persisted to ~/.genscene/chat_history
//   - Slash commands for actors, threads, export and images (see /help)

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/genscene-tui/internal/config"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/stream"
)

// =============================================================================
// INPUT HANDLING WITH HISTORY
// =============================================================================

// lineReader reads one line of input per call.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI reads input with line editing and a persistent history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor with history loaded from the config
// directory.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlash)

	historyFile := ""
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, "chat_history")
	}

	cli := &ChatCLI{line: line, historyFile: historyFile}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history, owner read/write only.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the REPL until /quit, EOF or Ctrl+C at the prompt.
func HandleChat(ctx context.Context, env *Env, args Args) error {
	input := NewChatCLI()
	defer input.Close()

	// Ctrl+C while a reply streams reaches us as SIGINT because liner only
	// owns the terminal during Prompt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			if env.Session.Cancel() {
				fmt.Fprintln(env.Err, "\n"+WarningStyle.Render("[cancelled]"))
			}
		}
	}()

	return runREPL(ctx, env, args, input)
}

// runREPL is the loop behind HandleChat, reading from in.
func runREPL(ctx context.Context, env *Env, args Args, in lineReader) error {
	sess := env.Session

	if args.Thread != "" {
		if _, err := sess.OpenThread(ctx, args.Thread); err != nil {
			return err
		}
	}
	if !env.Quiet {
		printWelcome(ctx, env)
		if sess.Store().Len() > 0 {
			fmt.Fprintln(env.Out, env.Renderer.Transcript(sess.Store().Snapshot()))
		}
	}

	for {
		line, err := in.ReadInput(chatPrompt(sess))
		if err != nil {
			// Ctrl+C at the prompt or Ctrl+D both end the session.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				env.Logger.Debug().Err(err).Msg("input ended")
			}
			fmt.Fprintln(env.Out)
			printExitSummary(env)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := handleSlashCommand(ctx, env, line)
			if err != nil {
				DisplayError(env.Err, err, false)
			}
			if quit {
				printExitSummary(env)
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			printExitSummary(env)
			return nil
		}

		if err := processMessage(ctx, env, line); err != nil {
			DisplayError(env.Err, err, false)
		}
	}
}

// processMessage sends one prompt and streams the reply.
func processMessage(ctx context.Context, env *Env, prompt string) error {
	sess := env.Session
	printer := newStreamPrinter(env.Out, env.Renderer.Styles(), sess.Actor())
	unsubscribe := sess.Store().Subscribe(printer.observe)
	res, err := sess.Send(ctx, prompt)
	unsubscribe()
	printer.finish()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		// Partial reply stays in the transcript.
		return nil
	case stream.IsTransportError(err):
		fmt.Fprintln(env.Err, WarningStyle.Render("[reply interrupted, partial transcript kept]"))
		return err
	default:
		return err
	}

	if env.Config.UI.ShowStats {
		printStats(env.Err, env.Renderer.Styles(), res)
	}
	return nil
}

// chatPrompt shows the actor and whether the backend is reachable.
func chatPrompt(sess *session.Session) string {
	actor := sess.Actor()
	if actor == "" {
		actor = "no actor"
	}
	prompt := actor
	if sess.Offline() {
		prompt += " (offline)"
	}
	return PromptStyle.Render(prompt + "> ")
}

// =============================================================================
// BANNERS
// =============================================================================

func printWelcome(ctx context.Context, env *Env) {
	sess := env.Session
	fmt.Fprintln(env.Out, TitleStyle.Render("genscene chat"))
	fmt.Fprintln(env.Out, RenderField("Server", env.Client.BaseURL()))
	fmt.Fprintln(env.Out, RenderField("User", sess.User()))
	fmt.Fprintln(env.Out, RenderField("Actor", ActorStyle.Render(sess.Actor())))
	if id := sess.ThreadID(); id != "" {
		fmt.Fprintln(env.Out, RenderField("Thread", id))
	} else {
		fmt.Fprintln(env.Out, RenderField("Thread", DimStyle.Render("new (created on first message)")))
	}
	if err := env.Client.CheckRunning(ctx); err != nil {
		fmt.Fprintln(env.Out, WarningStyle.Render("Backend unreachable; cached threads are still readable."))
	}
	fmt.Fprintln(env.Out, DimStyle.Render("Type /help for commands, Ctrl+C cancels a reply, Ctrl+D exits."))
	fmt.Fprintln(env.Out)
}

func printExitSummary(env *Env) {
	if env.Quiet {
		return
	}
	sess := env.Session
	if id := sess.ThreadID(); id != "" {
		fmt.Fprintln(env.Out, DimStyle.Render(fmt.Sprintf("Thread %s, %d messages. Resume with: genscene chat -t %s",
			id, sess.Store().Len(), id)))
	}
}
