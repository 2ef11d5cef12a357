// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"errors"
	"fmt"
)

// InvariantError reports an update-last issued against a transcript that
// cannot receive it. It always indicates broken integration code.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "transcript invariant violated: " + e.Message
}

// Is implements errors.Is support for comparing invariant errors.
func (e *InvariantError) Is(target error) bool {
	t, ok := target.(*InvariantError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrEmptyTranscript is returned by UpdateLast on an empty transcript.
	ErrEmptyTranscript = &InvariantError{Message: "update-last on empty transcript"}

	// ErrLastNotText is returned by UpdateLast when the last message is not text.
	ErrLastNotText = &InvariantError{Message: "update-last on non-text message"}

	// ErrNonStringValue is returned when a loaded message value is not a string.
	ErrNonStringValue = errors.New("message value is not a string")

	// ErrUnknownKind is returned when a loaded message has an unknown type.
	ErrUnknownKind = errors.New("unknown message type")

	// ErrUnknownRole is returned when a loaded message has an unknown role.
	ErrUnknownRole = errors.New("unknown message role")

	// ErrUnknownOp is returned by Apply for an unrecognised operation.
	ErrUnknownOp = errors.New("unknown transcript operation")
)

// IsInvariantViolation reports whether err is an InvariantError.
func IsInvariantViolation(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// decodeError annotates a load failure with the offending message index.
func decodeError(index int, err error) error {
	return fmt.Errorf("message %d: %w", index, err)
}
