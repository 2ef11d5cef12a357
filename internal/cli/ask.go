// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One prompt, one streamed reply.
//
// Usage:
//
//	genscene ask "draw a lighthouse at dusk"
//	echo "describe the scene" | genscene ask --actor home
//	genscene ask -t <thread> --save ./out "and now at night"

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/genscene-tui/internal/render"
)

// maxStdinPrompt bounds a prompt read from a pipe.
const maxStdinPrompt = 1 << 20

// HandleAsk sends args.Query (or piped stdin) and streams the reply to
// env.Out. A reply cut short by a transport error keeps what was printed
// and returns the error.
func HandleAsk(ctx context.Context, env *Env, args Args) error {
	prompt := args.Query
	if prompt == "" {
		piped, err := readPipedPrompt(env.In)
		if err != nil {
			return NewCommandError("ask", "read", "could not read stdin", err)
		}
		prompt = piped
	}
	if strings.TrimSpace(prompt) == "" {
		return ErrMissingArgument("ask", "prompt", `genscene ask "draw a lighthouse"`)
	}

	sess := env.Session
	if args.Thread != "" {
		if _, err := sess.OpenThread(ctx, args.Thread); err != nil {
			return err
		}
	}
	start := sess.Store().Len()

	var printer *streamPrinter
	if !env.JSON {
		actor := sess.Actor()
		if env.Quiet {
			actor = ""
		}
		printer = newStreamPrinter(env.Out, env.Renderer.Styles(), actor)
		defer sess.Store().Subscribe(printer.observe)()
	}

	env.Logger.Debug().Str("actor", sess.Actor()).Str("thread", sess.ThreadID()).Msg("ask")
	res, err := sess.Send(ctx, prompt)
	if printer != nil {
		printer.finish()
	}

	reply := sess.Store().Snapshot()
	if start < len(reply) {
		reply = reply[start:]
	}

	if args.SaveDir != "" {
		paths, saveErr := render.SaveImages(args.SaveDir, reply)
		for _, p := range paths {
			if !env.JSON {
				fmt.Fprintln(env.Err, DimStyle.Render("saved "+p))
			}
		}
		if saveErr != nil && err == nil {
			err = NewCommandError("ask", "save", "could not write images", saveErr)
		}
	}

	if err != nil {
		return err
	}

	if env.JSON {
		return NewJSONResponse("ask", AskData{
			Thread:   sess.ThreadID(),
			Actor:    sess.Actor(),
			Messages: wireMessages(reply),
			Stats:    statsData(res),
		}).Print(env.Out)
	}

	if args.Stats || env.Config.UI.ShowStats {
		printStats(env.Err, env.Renderer.Styles(), res)
	}
	if !env.Quiet && args.Thread == "" {
		fmt.Fprintln(env.Err, DimStyle.Render("thread "+sess.ThreadID()+" (continue with -t)"))
	}
	return nil
}

// readPipedPrompt reads r when it is not an interactive terminal.
func readPipedPrompt(r io.Reader) (string, error) {
	if isTerminal(r) {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(bufio.NewReader(r), maxStdinPrompt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
