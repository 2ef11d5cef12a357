// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across genscene.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes, TruncateWidth: UTF-8 and display-width safe truncation
//   - StringWidth, PadRight: terminal column arithmetic
//   - FirstLine: first non-blank line, for titles and previews
//
// Formatting:
//   - FormatBytes, FormatDuration: human readable sizes and times
//
// File Operations:
//   - WriteFileAtomic: streams into a temp file, fsyncs, renames
//   - AtomicWriteFile: WriteFileAtomic for an in-memory buffer
//   - ExpandHome: "~/x" to an absolute path
//
// # Usage
//
//	title := util.TruncateWidth(util.FirstLine(msg.Value), 40)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
