// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, validates and persists genscene settings.
//
// Settings live in ~/.genscene/config.toml. A config.json in the same
// directory is read only when no TOML file exists. Missing keys take the
// values from Default, and GENSCENE_* environment variables win over the
// file (GENSCENE_SERVER_URL, GENSCENE_USER, GENSCENE_ACTOR and friends).
//
// Sections:
//
//	[server]  backend URL and request timeout
//	[chat]    user id, startup actor, stream buffer and read sizes
//	[cache]   SQLite thread cache switch, location and listing cap
//	[ui]      markdown theme, word wrap, image directory, stream stats
//	[log]     level and log file
//
// Keys are addressed as "section.field" by Get and Set, which is what
// `genscene config get|set` uses:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	_ = cfg.Set("ui.word_wrap", 100)
//	err = config.Save(cfg)
//
// A Watcher reloads the file on change so the TUI can pick up edits
// without restarting.
package config
