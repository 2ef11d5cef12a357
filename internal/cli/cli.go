// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
)

// Version information (set at build time via main)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command represents a CLI command.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdActors
	CmdThreads
	CmdExport
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdActors:
		return "actors"
	case CmdThreads:
		return "threads"
	case CmdExport:
		return "export"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// =============================================================================
// ARGS
// =============================================================================

// Args holds the parsed command line.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	NoCache    bool
	ConfigPath string
	Server     string
	User       string
	Actor      string
	Thread     string

	// Query is the ask prompt.
	Query string
	// SaveDir receives images from an ask reply.
	SaveDir string
	// Stats prints stream statistics after the reply.
	Stats bool

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `genscene - chat with genscene actors from the terminal

Usage:
  genscene [flags]                      Start the interactive TUI
  genscene ask [flags] <prompt...>      Send one prompt and stream the reply
  genscene chat [flags]                 Line-based chat (REPL)
  genscene actors [list|show <name>]    List or inspect actors
  genscene threads [list|new|show <id>|delete <id>|search <q>|prune]
  genscene export <thread> [--format md|json|yaml|html] [--output DIR]
  genscene config [show|path|init|get <key>|set <key> <value>|validate]
  genscene version
  genscene help

Global flags:
  --server URL      Backend address (default http://127.0.0.1:8000)
  --user ID         User that owns threads
  --actor NAME      Actor to chat with
  -t, --thread ID   Continue an existing thread
  --config PATH     Use this config file
  --no-cache        Do not read or write the local thread cache
  --json            Machine-readable output
  -q, --quiet       Only print the reply
  -v, --verbose     Debug logging

Ask flags:
  --save DIR        Write received images to DIR
  --stats           Print stream statistics

Environment:
  GENSCENE_SERVER_URL, GENSCENE_USER, GENSCENE_ACTOR, GENSCENE_BUFFER_SIZE,
  GENSCENE_LOG_LEVEL, GENSCENE_CACHE, NO_COLOR
`

// =============================================================================
// PARSING
// =============================================================================

// Parse parses argv (without the program name) into a command and its args.
func Parse(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	first := remaining[0]
	cmd := strings.ToLower(first)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs
	case "ask", "a":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs
	case "chat", "c":
		return CmdChat, parsedArgs
	case "actors", "actor":
		return CmdActors, parsedArgs
	case "threads", "thread":
		return CmdThreads, parsedArgs
	case "export":
		return CmdExport, parsedArgs
	case "config":
		return CmdConfig, parsedArgs
	case "version", "--version", "-V":
		return CmdVersion, parsedArgs
	case "help", "--help", "-h":
		return CmdHelp, parsedArgs
	default:
		// Bare text is a prompt: `genscene "draw a lighthouse"`.
		parseAskArgs(&parsedArgs, append([]string{first}, remaining...))
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts the global flags wherever they appear.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	takeValue := func(i *int, dst *string) {
		if *i+1 < len(args) {
			*i++
			*dst = args[*i]
		}
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			remaining = append(remaining, args[i:]...)
			break
		}
		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--no-cache":
			parsedArgs.NoCache = true
		case "--config":
			takeValue(&i, &parsedArgs.ConfigPath)
		case "--server":
			takeValue(&i, &parsedArgs.Server)
		case "--user":
			takeValue(&i, &parsedArgs.User)
		case "--actor":
			takeValue(&i, &parsedArgs.Actor)
		case "-t", "--thread":
			takeValue(&i, &parsedArgs.Thread)
		default:
			name, value, ok := strings.Cut(arg, "=")
			if !ok {
				remaining = append(remaining, arg)
				continue
			}
			switch name {
			case "--config":
				parsedArgs.ConfigPath = value
			case "--server":
				parsedArgs.Server = value
			case "--user":
				parsedArgs.User = value
			case "--actor":
				parsedArgs.Actor = value
			case "--thread":
				parsedArgs.Thread = value
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// parseAskArgs parses the ask flags; every other word joins the prompt.
func parseAskArgs(args *Args, remaining []string) {
	var query []string
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch {
		case arg == "--":
			query = append(query, remaining[i+1:]...)
			i = len(remaining)
		case arg == "--save":
			if i+1 < len(remaining) {
				i++
				args.SaveDir = remaining[i]
			}
		case strings.HasPrefix(arg, "--save="):
			args.SaveDir = strings.TrimPrefix(arg, "--save=")
		case arg == "--stats":
			args.Stats = true
		default:
			query = append(query, arg)
		}
	}
	args.Query = JoinPositionalArgs(query)
}

// =============================================================================
// EXECUTION
// =============================================================================

// Run executes a non-TUI command with the process's standard streams and
// returns the exit code.
func Run(cmd Command, args Args) int {
	switch cmd {
	case CmdVersion:
		HandleVersion(os.Stdout, args.JSON)
		return ExitSuccess
	case CmdHelp:
		HandleHelp(os.Stdout)
		return ExitSuccess
	}

	env, err := Setup(args)
	if err != nil {
		DisplayError(errorWriter(args.JSON), err, args.JSON)
		return GetExitCode(err)
	}
	defer env.Close()

	// The REPL handles SIGINT itself so it can cancel a reply without
	// leaving the loop.
	ctx := context.Background()
	if cmd != CmdChat {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	err = Dispatch(ctx, cmd, env, args)
	if err != nil {
		DisplayError(errorWriter(args.JSON), err, args.JSON)
	}
	return GetExitCode(err)
}

// Dispatch runs one command against env.
func Dispatch(ctx context.Context, cmd Command, env *Env, args Args) error {
	switch cmd {
	case CmdAsk:
		return HandleAsk(ctx, env, args)
	case CmdChat:
		return HandleChat(ctx, env, args)
	case CmdActors:
		return HandleActors(ctx, env, args)
	case CmdThreads:
		return HandleThreads(ctx, env, args)
	case CmdExport:
		return HandleExport(ctx, env, args)
	case CmdConfig:
		return HandleConfig(env, args)
	case CmdVersion:
		HandleVersion(env.Out, args.JSON)
		return nil
	case CmdHelp:
		HandleHelp(env.Out)
		return nil
	default:
		return fmt.Errorf("command %s is not available here", cmd)
	}
}

func errorWriter(jsonMode bool) io.Writer {
	if jsonMode {
		return os.Stdout
	}
	return os.Stderr
}

// =============================================================================
// VERSION AND HELP
// =============================================================================

// HandleVersion prints version information.
func HandleVersion(w io.Writer, jsonMode bool) {
	if jsonMode {
		info := map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
			"go_version": runtime.Version(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(info)
		return
	}
	fmt.Fprintf(w, "genscene %s\n", Version)
	fmt.Fprintf(w, "  Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// HandleHelp prints usage.
func HandleHelp(w io.Writer) {
	fmt.Fprint(w, usageText)
}
