// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// =============================================================================
// OBSERVERS
// =============================================================================

// Update is delivered to observers after every applied operation.
type Update struct {
	Op       Op
	Messages []Message // immutable snapshot, safe to retain
	Version  uint64
}

// Observer receives transcript updates. Observers run synchronously on the
// writer's goroutine and must not mutate the store they observe.
type Observer func(Update)

// =============================================================================
// STORE
// =============================================================================

// Store is the authoritative in-memory transcript of one thread.
//
// Writers are serialized: an operation and the notification of all observers
// complete before the next operation starts, so no observer ever sees a
// half-applied operation. Snapshots are capped views of the backing array:
// Append writes past them in place, and UpdateLast copies the array before
// rewriting a slot a snapshot can see.
type Store struct {
	writeMu sync.Mutex // serializes apply + notify

	mu       sync.RWMutex
	messages []Message
	version  uint64
	shared   atomic.Bool // a snapshot aliases messages

	observers  map[int]Observer
	nextObsID  int
	observerMu sync.Mutex
}

// NewStore creates an empty transcript.
func NewStore() *Store {
	return &Store{
		messages:  make([]Message, 0),
		observers: make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.observerMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.observerMu.Unlock()

	return func() {
		s.observerMu.Lock()
		delete(s.observers, id)
		s.observerMu.Unlock()
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Replace discards the current transcript and sets it to msgs verbatim.
// A nil slice yields an empty transcript.
func (s *Store) Replace(msgs []Message) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.messages = slices.Clone(msgs)
	if s.messages == nil {
		s.messages = make([]Message, 0)
	}
	s.shared.Store(false)
	update := s.commitLocked(Replace(msgs))
	s.mu.Unlock()

	s.notify(update)
}

// Append adds msgs to the end of the transcript.
func (s *Store) Append(msgs ...Message) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	// Snapshots are capped at their length, so writing past it never
	// reaches one.
	s.messages = append(s.messages, msgs...)
	update := s.commitLocked(Append(msgs...))
	s.mu.Unlock()

	s.notify(update)
}

// UpdateLast appends delta to the value of the last message, which must be a
// text message.
func (s *Store) UpdateLast(delta string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	n := len(s.messages)
	if n == 0 {
		s.mu.Unlock()
		return ErrEmptyTranscript
	}
	if !s.messages[n-1].IsText() {
		s.mu.Unlock()
		return fmt.Errorf("%w (last is %s)", ErrLastNotText, s.messages[n-1].Kind)
	}
	s.ownLocked()
	s.messages[n-1] = s.messages[n-1].Extend(delta)
	update := s.commitLocked(UpdateLast(delta))
	s.mu.Unlock()

	s.notify(update)
	return nil
}

// Apply dispatches op to the matching operation.
func (s *Store) Apply(op Op) error {
	switch op.Type {
	case OpReplace:
		s.Replace(op.Messages)
		return nil
	case OpAppend:
		s.Append(op.Messages...)
		return nil
	case OpUpdateLast:
		return s.UpdateLast(op.Delta)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOp, op.Type)
	}
}

// =============================================================================
// READERS
// =============================================================================

// Snapshot returns the current transcript. The returned slice is never
// modified by the store and must not be modified by the caller.
func (s *Store) Snapshot() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Last returns the most recent message.
func (s *Store) Last() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Version returns the number of operations applied so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// =============================================================================
// INTERNALS
// =============================================================================

// ownLocked copies the backing array before an in-place write if a snapshot
// may alias it. Only message headers are copied; values are shared strings.
// The spare capacity is kept so the next Append does not reallocate.
func (s *Store) ownLocked() {
	if !s.shared.Load() {
		return
	}
	owned := make([]Message, len(s.messages), cap(s.messages))
	copy(owned, s.messages)
	s.messages = owned
	s.shared.Store(false)
}

func (s *Store) snapshotLocked() []Message {
	s.shared.Store(true)
	return s.messages[:len(s.messages):len(s.messages)]
}

func (s *Store) commitLocked(op Op) Update {
	s.version++
	return Update{Op: op, Messages: s.snapshotLocked(), Version: s.version}
}

func (s *Store) notify(update Update) {
	s.observerMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for id := 0; id < s.nextObsID; id++ {
		if fn, ok := s.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	s.observerMu.Unlock()

	for _, fn := range observers {
		fn(update)
	}
}
