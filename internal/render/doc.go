// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns transcript messages into terminal output.
//
// User text is printed verbatim, assistant text is rendered as markdown with
// glamour, and image messages are shown as a short description of the PNG
// payload. Control characters in message text are escaped before anything
// reaches the terminal; stored values are never changed.
//
// # Key Types
//
//   - Renderer: Message, Body, Markdown and Transcript rendering
//   - Styles: lipgloss styles shared with the REPL and the TUI
//   - ImageInfo: PNG dimensions and payload size
package render
