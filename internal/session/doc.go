// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session is the chat controller shared by the REPL and the TUI.
//
// A Session owns the transcript of the open thread. Send appends the
// user's prompt and an empty assistant placeholder, opens the reply stream
// and feeds it through stream.Consume into the transcript store. Only one
// reply streams at a time; switching threads cancels it and no operation
// from the old stream reaches the new transcript.
//
// # Key Types
//
//   - Session: Actor selection, thread navigation and Send/Cancel
//   - Backend: The API surface the session needs (*api.Client)
//   - ThreadInfo: Thread listing entry, from the backend or the cache
//
// # Usage
//
//	s := session.New(client, session.Options{User: "user_id", Actor: "home", Cache: cache})
//	cancel := s.Store().Subscribe(func(u transcript.Update) { redraw(u.Messages) })
//	defer cancel()
//	res, err := s.Send(ctx, "describe a lighthouse")
//
// When the backend is unreachable, Threads and OpenThread read the local
// cache and Offline reports true.
package session
