// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - Export a thread to a file.
//
// Usage:
//
//	genscene export <thread> [--format md|json|yaml|html] [--output DIR]
//	                         [--name FILE] [--no-images] [--no-metadata] [--open]

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/genscene-tui/internal/export"
)

// HandleExport handles "genscene export <thread>". The thread is read from
// the backend, or from the cache when the backend is unreachable.
func HandleExport(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "no-images", "no-metadata", "open")

	id := p.Positional(0)
	if id == "" {
		id = args.Thread
	}
	if id == "" {
		return ErrMissingArgument("export", "thread id", "genscene export 3f2c... --format html")
	}

	format, err := export.ParseFormat(p.FlagOrDefault("format", "md"))
	if err != nil {
		return NewValidationErrorWithExample("format", p.Flag("format"), err.Error(), "--format html")
	}

	opts := export.DefaultOptions()
	opts.OutputDir = p.FlagOrDefault("output", opts.OutputDir)
	opts.Filename = p.Flag("name")
	opts.EmbedImages = !p.BoolFlag("no-images")
	opts.IncludeMetadata = !p.BoolFlag("no-metadata")
	opts.OpenAfterExport = p.BoolFlag("open")
	if env.Config.UI.Theme == "light" {
		opts.Theme = "light"
	}

	if _, err := openThread(ctx, env, id); err != nil {
		return err
	}
	doc := env.Session.Document()

	path, err := export.ExportAs(doc, format, opts)
	if err != nil {
		return NewCommandError("export", string(format), "could not write file", err)
	}

	if env.JSON {
		return NewJSONResponse("export", map[string]any{
			"thread_id": id,
			"format":    string(format),
			"path":      path,
			"messages":  len(doc.Messages),
			"images":    doc.ImageCount(),
		}).Print(env.Out)
	}
	if env.Quiet {
		fmt.Fprintln(env.Out, path)
		return nil
	}
	fmt.Fprintf(env.Out, "%s %s (%d messages, %d images)\n",
		SuccessStyle.Render("Exported"), path, len(doc.Messages), doc.ImageCount())
	return nil
}
