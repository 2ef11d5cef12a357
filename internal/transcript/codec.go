// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireMessage is the backend's item shape. Value stays raw so that
// non-string payloads can be rejected instead of coerced.
type wireMessage struct {
	Type  string          `json:"type"`
	Role  string          `json:"role"`
	Value json.RawMessage `json:"value"`
}

// DecodeMessages parses a JSON array of {type, role, value} items as served
// by the backend for a thread. JSON null or empty input yields an empty
// transcript. Items whose value is not a JSON string are rejected.
func DecodeMessages(data []byte) ([]Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Message{}, nil
	}

	var items []wireMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	msgs := make([]Message, 0, len(items))
	for i, item := range items {
		msg, err := item.toMessage()
		if err != nil {
			return nil, decodeError(i, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// EncodeMessages serializes msgs in the same wire shape DecodeMessages reads.
func EncodeMessages(msgs []Message) ([]byte, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(msgs)
}

func (w wireMessage) toMessage() (Message, error) {
	raw := bytes.TrimSpace(w.Value)
	if len(raw) == 0 || raw[0] != '"' {
		return Message{}, ErrNonStringValue
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrNonStringValue, err)
	}

	role := Role(w.Role)
	if !role.Valid() {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownRole, w.Role)
	}

	kind, err := kindFor(w.Type, value)
	if err != nil {
		return Message{}, err
	}
	return Message{Role: role, Kind: kind, Value: value}, nil
}

// kindFor maps a backend item type to a Kind. The backend labels stored
// images "image_file"; older threads only carry the data-URL prefix.
func kindFor(typ, value string) (Kind, error) {
	switch typ {
	case "image", "image_file":
		return KindImage, nil
	case "text", "":
		if looksLikeImage(value) {
			return KindImage, nil
		}
		return KindText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, typ)
	}
}
