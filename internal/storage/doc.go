// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local thread cache for genscene.
//
// Transcripts are mirrored into SQLite after every completed reply, so that
// a thread can still be read (and exported) when the backend is down.
//
// # Key Types
//
//   - ThreadCache: SQLite-backed cache of threads
//   - CachedThread: A thread with its decoded messages
//   - ThreadMeta: Lightweight metadata for listing
//
// # Usage
//
//	cache, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//
//	err = cache.Put(ctx, storage.CachedThread{ThreadID: id, UserID: user, Messages: msgs})
//	metas, err := cache.List(ctx, user, 20)
//
// # Storage Location
//
// The cache lives in ~/.genscene/threads.db unless cache.path is set.
package storage
