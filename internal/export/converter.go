// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"github.com/jeranaias/genscene-tui/internal/storage"
	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// =============================================================================
// CONVERSION UTILITIES
// =============================================================================

// FromCached converts a cached thread into an export document.
func FromCached(t *storage.CachedThread) *Document {
	if t == nil {
		return nil
	}
	return &Document{
		ThreadID:  t.ThreadID,
		Title:     t.Name,
		Actor:     t.Actor,
		User:      t.UserID,
		UpdatedAt: t.UpdatedAt,
		Messages:  t.Messages,
	}
}

// FromSnapshot builds a document from a live transcript snapshot.
func FromSnapshot(threadID, title, actor, user string, msgs []transcript.Message) *Document {
	return &Document{
		ThreadID: threadID,
		Title:    title,
		Actor:    actor,
		User:     user,
		Messages: msgs,
	}
}
