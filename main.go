// genscene TUI - chat with genscene actors from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/genscene-tui/internal/cli"
	"github.com/jeranaias/genscene-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	if cmd != cli.CmdTUI {
		os.Exit(cli.Run(cmd, args))
	}
	os.Exit(runTUI(args))
}

// runTUI starts the interactive UI and returns the exit code.
func runTUI(args cli.Args) int {
	if err := cli.RequiresTTY("run the TUI"); err != nil {
		cli.DisplayError(os.Stderr, err, false)
		return cli.GetExitCode(err)
	}

	env, err := cli.Setup(args)
	if err != nil {
		cli.DisplayError(os.Stderr, err, false)
		return cli.GetExitCode(err)
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	err = ui.Run(ctx, ui.Options{
		Session:    env.Session,
		Config:     env.Config,
		ConfigPath: env.ConfigPath,
		Thread:     args.Thread,
		ServerURL:  env.Config.Server.URL,
		Profile:    cli.GetColorProfile(),
		Logger:     env.Logger,
	})
	if err != nil {
		env.Logger.Error().Err(err).Msg("tui failed")
		cli.DisplayError(os.Stderr, err, false)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
