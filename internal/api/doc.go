// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the genscene actor backend.
//
// The backend exposes actors (configured assistants), per-user threads and a
// chat endpoint that streams the actor's reply as raw bytes. This package
// only opens that stream; decoding it is the job of package stream.
//
// # Key Types
//
//   - Client: HTTP client for the backend API
//   - Actor: an assistant the user can talk to
//   - Thread: a stored conversation, messages kept as backend JSON
//   - ChatRequest: body of a chat turn
//   - ReplyStream: an open reply body plus the thread and actor headers
//
// # Usage
//
//	client := api.NewClient()
//	actors, err := client.ListActors(ctx)
//
//	reply, err := client.Chat(ctx, api.ChatRequest{
//	    Actor: "home",
//	    Input: "Describe the kitchen",
//	    User:  "jesse",
//	})
//	if err != nil {
//	    return err
//	}
//	defer reply.Close()
//	res, err := stream.Consume(ctx, reply.Body, store, stream.DefaultOptions())
package api
