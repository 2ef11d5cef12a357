// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging sets up zerolog for genscene.
//
// The terminal belongs to the chat, so the logger normally writes to
// ~/.genscene/genscene.log. Packages take a zerolog.Logger through their
// options and fall back to Component(name) when none is given.
package logging
