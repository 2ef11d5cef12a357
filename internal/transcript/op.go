// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import "fmt"

// OpType enumerates the transcript operations.
type OpType int

const (
	OpReplace OpType = iota
	OpAppend
	OpUpdateLast
)

// String returns the operation name.
func (t OpType) String() string {
	switch t {
	case OpReplace:
		return "replace"
	case OpAppend:
		return "append"
	case OpUpdateLast:
		return "update-last"
	default:
		return fmt.Sprintf("op(%d)", int(t))
	}
}

// Op is a single transcript mutation. Messages is used by replace and
// append, Delta by update-last.
type Op struct {
	Type     OpType
	Messages []Message
	Delta    string
}

// Replace builds a replace-all operation.
func Replace(msgs []Message) Op {
	return Op{Type: OpReplace, Messages: msgs}
}

// Append builds an append operation.
func Append(msgs ...Message) Op {
	return Op{Type: OpAppend, Messages: msgs}
}

// UpdateLast builds an update-last operation.
func UpdateLast(delta string) Op {
	return Op{Type: OpUpdateLast, Delta: delta}
}

// String returns a short description suitable for logs.
func (o Op) String() string {
	switch o.Type {
	case OpUpdateLast:
		return fmt.Sprintf("%s(+%d bytes)", o.Type, len(o.Delta))
	default:
		return fmt.Sprintf("%s(%d messages)", o.Type, len(o.Messages))
	}
}
