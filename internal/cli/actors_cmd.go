// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// actors_cmd.go - List and inspect the backend's actors.
//
// Usage:
//
//	genscene actors
//	genscene actors show <name>

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/genscene-tui/internal/api"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// HandleActors handles "genscene actors [list|show <name>]".
func HandleActors(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	switch p.Subcommand() {
	case "", "list", "ls":
		actors, err := env.Session.Actors(ctx)
		if err != nil {
			return WrapError("actors", "list", err)
		}
		if env.JSON {
			return NewJSONResponse("actors list", actors).Print(env.Out)
		}
		printActors(env, actors, env.Session.Actor())
		return nil

	case "show", "get":
		name := JoinPositionalArgs(p.PositionalFrom(1))
		if name == "" {
			return ErrMissingArgument("actors show", "name", "genscene actors show home")
		}
		actor, err := env.Client.GetActor(ctx, name)
		if err != nil {
			if api.IsNotFound(err) {
				return NewNotFoundError("actor", name)
			}
			return WrapError("actors", "show", err)
		}
		if env.JSON {
			return NewJSONResponse("actors show", actor).Print(env.Out)
		}
		fmt.Fprintln(env.Out, TitleStyle.Render(actor.Name))
		if actor.Description != "" {
			fmt.Fprintln(env.Out, RenderField("Description", actor.Description))
		}
		if actor.AssistantID != "" {
			fmt.Fprintln(env.Out, RenderField("Assistant", actor.AssistantID))
		}
		if actor.Instructions != "" {
			fmt.Fprintln(env.Out, RenderLabel("Instructions"))
			fmt.Fprintln(env.Out, env.Renderer.Markdown(actor.Instructions))
		}
		return nil

	default:
		return NewValidationErrorWithExample("subcommand", p.Subcommand(), "unknown actors subcommand", "genscene actors show home")
	}
}

// printActors writes one actor per line, marking the selected one.
func printActors(env *Env, actors []api.Actor, selected string) {
	if len(actors) == 0 {
		fmt.Fprintln(env.Out, DimStyle.Render("no actors configured on the backend"))
		return
	}
	for _, a := range actors {
		marker := "  "
		name := util.PadRight(a.Name, 16)
		if a.Name == selected {
			marker = "* "
			name = ActorStyle.Render(name)
		}
		line := marker + name
		if a.Description != "" {
			line += " " + DimStyle.Render(util.TruncateWidth(util.FirstLine(a.Description), 60))
		}
		fmt.Fprintln(env.Out, line)
	}
}
