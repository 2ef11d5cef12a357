// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes an actor reply stream into transcript operations.
//
// A reply arrives as raw byte chunks with no framing. Plain text is streamed
// token by token; an image is streamed as a base64 data URL that starts with
// the "data:image/png;base64" sentinel and ends at the first '|' character.
// Chunk boundaries may fall anywhere, including inside a multi-byte
// character, the sentinel or the delimiter.
//
// # Key Types
//
//   - Decoder: per-stream state machine, Feed(chunk) returns transcript ops
//   - Summary: what Finish reports at end of stream
//   - Applier: the sink for ops, normally a *transcript.Store
//   - Result: statistics for one consumed stream
//   - TransportError: the stream broke before it ended
//
// # Usage
//
//	store := transcript.NewStore()
//	store.Append(transcript.NewText(transcript.RoleAssistant, ""))
//
//	res, err := stream.Consume(ctx, reply.Body, store, stream.DefaultOptions())
//	if err != nil {
//	    var te *stream.TransportError
//	    if errors.As(err, &te) {
//	        // partial reply is kept in the store
//	    }
//	}
//	fmt.Printf("%d images, %d bytes\n", res.Images, res.Bytes)
//
// A truncated image (stream ends before '|') is never emitted; its size is
// reported as DroppedImageBytes. Text that could start the sentinel is held
// until the next chunk, the end of the stream or a read error settles it.
package stream
