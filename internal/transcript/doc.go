// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the ordered message log of one chat thread.
//
// A transcript only changes through three operations: replace-all, append and
// update-last. Every message except the last one is immutable once a newer
// message has been appended, and the last message may only grow by
// concatenation while a reply is streaming in.
//
// # Key Types
//
//   - Message: one turn (or partial turn) with role, kind and value
//   - Op: a transcript operation produced by the stream decoder
//   - Store: the authoritative transcript, applying ops under a single writer
//
// # Usage
//
//	store := transcript.NewStore()
//	store.Subscribe(func(msgs []transcript.Message) { redraw(msgs) })
//	store.Append(transcript.NewText(transcript.RoleUser, "hi"),
//	    transcript.NewText(transcript.RoleAssistant, ""))
//	_ = store.UpdateLast("Hello")
package transcript
