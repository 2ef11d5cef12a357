// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the genscene command line: argument parsing, the
// one-shot commands and the line-based chat REPL.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: parsed global flags plus the command's raw arguments
//   - Env: config, logger, cache, backend client, session and renderer
//     shared by every command
//   - ArgParser: flag and positional parsing for subcommands
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	if cmd == cli.CmdTUI {
//	    // start the TUI with cli.Setup(args)
//	}
//	os.Exit(cli.Run(cmd, args))
//
// Every command supports --json for machine-readable output. Errors map to
// the exit codes in errors.go.
package cli
