// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes genscene threads to files.
//
// # Key Types
//
//   - Document: A thread prepared for export
//   - Exporter: Format interface (Export, FileExtension, MimeType)
//   - Options: Output directory, metadata and image embedding
//
// # Supported Formats
//
//   - Markdown: Images as inline data-URL links
//   - JSON: The backend's {type, role, value} message shape
//   - YAML: Same fields as JSON
//   - HTML: Standalone page with images inline
//
// # Usage
//
//	doc := export.FromCached(thread)
//	path, err := export.ExportAs(doc, export.FormatMarkdown, export.DefaultOptions())
//
// Files are written atomically.
package export
