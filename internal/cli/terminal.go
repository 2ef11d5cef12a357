// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the genscene CLI.
//
// Replies stream to stdout and prompts may arrive on a pipe, so each stream
// is checked on its own. Colors follow stdout unless NO_COLOR or FORCE_COLOR
// is set.

package cli

import (
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// isTerminal reports whether v is a file attached to a terminal. Buffers
// and pipes are not.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return isTerminal(os.Stdin)
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return isTerminal(os.Stdout)
}

// =============================================================================
// OUTPUT WIDTH
// =============================================================================

// minWrapWidth keeps replies readable in very narrow windows.
const minWrapWidth = 40

// terminalWidth returns the column count of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	if !isTerminal(w) {
		return 0, false
	}
	width, _, err := term.GetSize(int(w.(*os.File).Fd()))
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}

// wrapWidth narrows the configured markdown wrap width to the terminal
// behind w. Redirected output keeps the configured width.
func wrapWidth(configured int, w io.Writer) int {
	width, ok := terminalWidth(w)
	if !ok || width-2 >= configured {
		return configured
	}
	return max(width-2, minWrapWidth)
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var colorState struct {
	once    sync.Once
	enabled bool
}

// ColorsEnabled returns true if colored output should be used.
// See https://no-color.org/.
func ColorsEnabled() bool {
	colorState.once.Do(func() {
		switch {
		case os.Getenv("NO_COLOR") != "":
			colorState.enabled = false
		case os.Getenv("FORCE_COLOR") != "":
			colorState.enabled = true
		default:
			colorState.enabled = IsStdoutTTY()
		}
	})
	return colorState.enabled
}

// ForceColorsEnabled overrides color detection. Tests only.
func ForceColorsEnabled(enabled bool) {
	colorState.once = sync.Once{}
	colorState.once.Do(func() {
		colorState.enabled = enabled
	})
}

// GetColorProfile returns Ascii when colors are off, otherwise the profile
// termenv detects.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// INTERACTIVE COMMANDS
// =============================================================================

// RequiresTTY returns a *TTYRequiredError if stdin is not a terminal.
func RequiresTTY(operation string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}

// TTYRequiredError is returned when an interactive command is started
// without a terminal on stdin.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	if e.Operation != "" {
		return "stdin is not a terminal; cannot " + e.Operation
	}
	return "stdin is not a terminal"
}
