// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import "strings"

// ImageSentinel is the data-URL prefix that marks image payloads, both in a
// reply stream and in stored message values.
const ImageSentinel = "data:image/png;base64"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Actor"
	default:
		return string(r)
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind determines how a message value is interpreted.
type Kind string

const (
	// KindText values are raw strings, possibly markdown.
	KindText Kind = "text"
	// KindImage values are complete data-URL strings.
	KindImage Kind = "image"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one entry of a transcript.
type Message struct {
	Role  Role   `json:"role" yaml:"role"`
	Kind  Kind   `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// NewText creates a text message.
func NewText(role Role, value string) Message {
	return Message{Role: role, Kind: KindText, Value: value}
}

// NewImage creates an image message from a complete data URL.
func NewImage(role Role, dataURL string) Message {
	return Message{Role: role, Kind: KindImage, Value: dataURL}
}

// IsText reports whether the message is a text message.
func (m Message) IsText() bool {
	return m.Kind == KindText
}

// IsImage reports whether the message is an image message.
func (m Message) IsImage() bool {
	return m.Kind == KindImage
}

// IsEmpty returns true if the message has no content yet.
func (m Message) IsEmpty() bool {
	return m.Value == ""
}

// Extend returns a copy of m with delta appended to its value.
func (m Message) Extend(delta string) Message {
	m.Value += delta
	return m
}

// looksLikeImage reports whether a stored value is an image data URL.
func looksLikeImage(value string) bool {
	return strings.HasPrefix(value, ImageSentinel)
}
