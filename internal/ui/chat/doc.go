// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat view of the genscene TUI.

The view is a Bubble Tea model over a session.Session. It shows the open
thread's transcript, reads prompts, streams replies and offers pickers for
threads and actors.

# Data Flow

The transcript store notifies observers while it holds its writer lock, so
the view never subscribes directly. A Relay observes the store, keeps only
the newest snapshot and forwards it as a TranscriptMsg from its own
goroutine. Every session call that can write the transcript runs inside a
tea.Cmd; Update only reads from the session and cancels streams.

# Rendering

Transcript frames are throttled to 30 per second with a token bucket. A
frame that arrives too early schedules one tick; the final frame of a reply
is always rendered. Rendered messages are cached, and only the last message
is re-rendered while a reply streams.

# Key Bindings

  - Enter: send the input (lines starting with "/" are commands)
  - Esc: stop the reply in flight, or clear the input
  - Ctrl+T / Ctrl+O: pick a thread / an actor
  - Ctrl+N: start a new thread
  - Ctrl+Y: copy the last reply
  - PgUp / PgDown, Ctrl+Home / Ctrl+End: scroll
  - F1: key and command help
  - Ctrl+C: stop a reply, or quit when idle

# Slash Commands

/new, /open, /threads, /actors, /actor, /delete, /save, /export, /copy,
/stats, /help and /quit. /help lists them with their arguments.
*/
package chat
