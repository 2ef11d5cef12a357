// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/genscene-tui/internal/api"
	"github.com/jeranaias/genscene-tui/internal/export"
	"github.com/jeranaias/genscene-tui/internal/logging"
	"github.com/jeranaias/genscene-tui/internal/storage"
	"github.com/jeranaias/genscene-tui/internal/stream"
	"github.com/jeranaias/genscene-tui/internal/transcript"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the part of the genscene API a session uses. *api.Client
// implements it.
type Backend interface {
	ListActors(ctx context.Context) ([]api.Actor, error)
	GetActor(ctx context.Context, name string) (*api.Actor, error)
	ListThreads(ctx context.Context, user string) ([]api.Thread, error)
	CreateThread(ctx context.Context, user string) (*api.Thread, error)
	GetThread(ctx context.Context, id string) (*api.Thread, error)
	DeleteThread(ctx context.Context, id string) error
	Chat(ctx context.Context, req api.ChatRequest) (*api.ReplyStream, error)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Session.
type Options struct {
	// User owns the threads.
	User string
	// Actor is the initially selected actor.
	Actor string
	// BufferSize is forwarded to the backend with every chat request.
	BufferSize int
	// ReadSize bounds a single read from the reply stream.
	ReadSize int
	// Cache mirrors transcripts locally. Nil disables caching.
	Cache *storage.ThreadCache
	// Logger defaults to the "session" component logger.
	Logger *zerolog.Logger
}

// ThreadInfo describes a thread in a listing.
type ThreadInfo struct {
	ID        string
	Name      string
	Messages  int
	Preview   string
	UpdatedAt time.Time
	// Cached is set when the entry came from the local cache.
	Cached bool
}

// Title returns the name, the preview, or the id.
func (t ThreadInfo) Title() string {
	switch {
	case t.Name != "":
		return t.Name
	case t.Preview != "":
		return t.Preview
	default:
		return t.ID
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session drives one user's chat: the selected actor, the open thread and
// its transcript, and at most one reply stream at a time.
type Session struct {
	backend Backend
	store   *transcript.Store
	cache   *storage.ThreadCache
	logger  zerolog.Logger

	user       string
	bufferSize int
	readSize   int

	mu         sync.Mutex
	actor      string
	threadID   string
	threadName string
	actors     []api.Actor
	offline    bool
	flight     *flight
	last       *stream.Result

	// applyMu serializes transcript writes with thread switches; gen
	// changes on every switch so a stale stream cannot write.
	applyMu sync.Mutex
	gen     atomic.Uint64
}

type flight struct {
	cancel context.CancelFunc
	gen    uint64
}

// New creates a session with an empty transcript.
func New(backend Backend, opts Options) *Session {
	logger := logging.Component("session")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.ReadSize <= 0 {
		opts.ReadSize = stream.DefaultReadSize
	}
	return &Session{
		backend:    backend,
		store:      transcript.NewStore(),
		cache:      opts.Cache,
		logger:     logger,
		user:       opts.User,
		actor:      opts.Actor,
		bufferSize: opts.BufferSize,
		readSize:   opts.ReadSize,
	}
}

// Store returns the transcript store. Subscribe to it to render updates.
func (s *Session) Store() *transcript.Store { return s.store }

// User returns the user the session acts for.
func (s *Session) User() string { return s.user }

// Actor returns the selected actor name.
func (s *Session) Actor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actor
}

// ThreadID returns the open thread id, empty for a thread not yet created.
func (s *Session) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// ThreadName returns the open thread's name, if the backend gave it one.
func (s *Session) ThreadName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadName
}

// Streaming reports whether a reply is in flight.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flight != nil
}

// Offline reports whether the last backend call fell back to the cache.
func (s *Session) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// LastResult returns the summary of the most recent completed stream.
func (s *Session) LastResult() (stream.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return stream.Result{}, false
	}
	return *s.last, true
}

func (s *Session) setOffline(v bool) {
	s.mu.Lock()
	s.offline = v
	s.mu.Unlock()
}

// =============================================================================
// ACTORS
// =============================================================================

// Actors returns the backend's actors.
func (s *Session) Actors(ctx context.Context) ([]api.Actor, error) {
	actors, err := s.backend.ListActors(ctx)
	if err != nil {
		s.setOffline(Unreachable(err))
		return nil, err
	}
	s.mu.Lock()
	s.actors = actors
	s.offline = false
	s.mu.Unlock()
	return actors, nil
}

// SelectActor checks that name exists and makes it the actor for the next
// prompt. The transcript is left alone.
func (s *Session) SelectActor(ctx context.Context, name string) (*api.Actor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNoActor
	}
	if s.Streaming() {
		return nil, ErrStreamInFlight
	}
	actor, err := s.backend.GetActor(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("select actor %q: %w", name, err)
	}
	s.mu.Lock()
	s.actor = actor.Name
	s.mu.Unlock()
	s.logger.Info().Str("actor", actor.Name).Msg("actor selected")
	return actor, nil
}

// =============================================================================
// THREADS
// =============================================================================

// Threads lists the user's threads from the backend, or from the cache
// when the backend is unreachable.
func (s *Session) Threads(ctx context.Context) ([]ThreadInfo, error) {
	threads, err := s.backend.ListThreads(ctx, s.user)
	if err == nil {
		s.setOffline(false)
		infos := make([]ThreadInfo, 0, len(threads))
		for i := range threads {
			infos = append(infos, infoFromAPI(&threads[i]))
		}
		return infos, nil
	}
	if !Unreachable(err) || s.cache == nil {
		return nil, err
	}

	s.setOffline(true)
	s.logger.Warn().Err(err).Msg("backend unreachable, listing cached threads")
	metas, cerr := s.cache.List(ctx, s.user, 0)
	if cerr != nil {
		return nil, errors.Join(err, cerr)
	}
	infos := make([]ThreadInfo, 0, len(metas))
	for _, m := range metas {
		infos = append(infos, ThreadInfo{
			ID:        m.ThreadID,
			Name:      m.Name,
			Messages:  m.MessageCount,
			Preview:   m.Preview,
			UpdatedAt: m.UpdatedAt,
			Cached:    true,
		})
	}
	return infos, nil
}

// Refresh loads actors and threads in parallel.
func (s *Session) Refresh(ctx context.Context) ([]api.Actor, []ThreadInfo, error) {
	var (
		actors  []api.Actor
		threads []ThreadInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		actors, err = s.Actors(gctx)
		// Actors are not cached; an offline session still lists threads.
		if Unreachable(err) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		threads, err = s.Threads(gctx)
		return err
	})
	err := g.Wait()
	return actors, threads, err
}

// NewThread clears the transcript. The backend creates the thread on the
// first prompt.
func (s *Session) NewThread() {
	s.Cancel()
	s.switchTo("", "", nil)
}

// CreateThread creates an empty thread on the backend and opens it.
func (s *Session) CreateThread(ctx context.Context) (*ThreadInfo, error) {
	t, err := s.backend.CreateThread(ctx, s.user)
	if err != nil {
		return nil, err
	}
	s.Cancel()
	s.switchTo(t.ThreadID, t.Name, nil)
	info := infoFromAPI(t)
	return &info, nil
}

// OpenThread replaces the transcript with the thread's messages. Any reply
// still streaming is cancelled first. When the backend is unreachable the
// cached copy is used and the returned info has Cached set.
func (s *Session) OpenThread(ctx context.Context, id string) (*ThreadInfo, error) {
	if id == "" {
		return nil, fmt.Errorf("open thread: empty id")
	}

	t, err := s.backend.GetThread(ctx, id)
	if err != nil {
		if !Unreachable(err) || s.cache == nil {
			return nil, err
		}
		return s.openCached(ctx, id, err)
	}
	s.setOffline(false)

	msgs, err := t.Transcript()
	if err != nil {
		return nil, fmt.Errorf("open thread %s: %w", id, err)
	}

	s.Cancel()
	s.switchTo(t.ThreadID, t.Name, msgs)
	s.persist(ctx, t.ThreadID, t.Name, msgs)
	s.logger.Info().Str("thread_id", id).Int("messages", len(msgs)).Msg("thread opened")

	info := infoFromAPI(t)
	info.Messages = len(msgs)
	return &info, nil
}

func (s *Session) openCached(ctx context.Context, id string, cause error) (*ThreadInfo, error) {
	s.setOffline(true)
	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("thread %s is not cached: %w", id, cause)
		}
		return nil, errors.Join(cause, err)
	}

	s.Cancel()
	s.switchTo(cached.ThreadID, cached.Name, cached.Messages)
	s.logger.Warn().Err(cause).Str("thread_id", id).Msg("backend unreachable, opened cached thread")
	return &ThreadInfo{
		ID:        cached.ThreadID,
		Name:      cached.Name,
		Messages:  len(cached.Messages),
		UpdatedAt: cached.UpdatedAt,
		Cached:    true,
	}, nil
}

// DeleteThread deletes a thread on the backend and from the cache. The
// transcript is cleared when the open thread is deleted.
func (s *Session) DeleteThread(ctx context.Context, id string) error {
	if err := s.backend.DeleteThread(ctx, id); err != nil && !api.IsNotFound(err) {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Str("thread_id", id).Msg("cache delete failed")
		}
	}
	if s.ThreadID() == id {
		s.NewThread()
	}
	return nil
}

// switchTo installs a new thread and transcript, invalidating any stream
// that was writing to the previous one.
func (s *Session) switchTo(id, name string, msgs []transcript.Message) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.gen.Add(1)
	s.mu.Lock()
	s.threadID = id
	s.threadName = name
	s.mu.Unlock()
	s.store.Replace(msgs)
}

// =============================================================================
// SEND
// =============================================================================

// Send posts prompt to the selected actor and streams the reply into the
// transcript. It blocks until the stream ends, fails or is cancelled.
func (s *Session) Send(ctx context.Context, prompt string) (stream.Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return stream.Result{}, ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.flight != nil {
		s.mu.Unlock()
		return stream.Result{}, ErrStreamInFlight
	}
	if s.actor == "" {
		s.mu.Unlock()
		return stream.Result{}, ErrNoActor
	}
	streamCtx, cancel := context.WithCancel(ctx)
	f := &flight{cancel: cancel, gen: s.gen.Load()}
	s.flight = f
	req := api.ChatRequest{
		Actor:      s.actor,
		Input:      prompt,
		User:       s.user,
		BufferSize: s.bufferSize,
		Thread:     s.threadID,
	}
	s.mu.Unlock()
	defer s.land(f)

	dst := &guardedApplier{s: s, gen: f.gen}
	if err := dst.Apply(transcript.Append(
		transcript.NewText(transcript.RoleUser, prompt),
		transcript.NewText(transcript.RoleAssistant, ""),
	)); err != nil {
		return stream.Result{}, err
	}

	reply, err := s.backend.Chat(streamCtx, req)
	if err != nil {
		s.setOffline(Unreachable(err))
		return stream.Result{}, err
	}
	defer reply.Close()
	s.setOffline(false)
	s.adoptThread(f.gen, reply.ThreadID)

	res, err := stream.Consume(streamCtx, reply.Body, dst, stream.Options{
		ReadSize: s.readSize,
		Logger:   &s.logger,
	})
	if errors.Is(err, errStale) {
		err = ErrSuperseded
	}

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()

	// Partial transcripts are cached too; they are what the user saw.
	if s.gen.Load() == f.gen {
		s.persist(context.WithoutCancel(ctx), s.ThreadID(), s.ThreadName(), s.store.Snapshot())
	}
	return res, err
}

// Cancel aborts the reply in flight. It reports whether there was one.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flight == nil {
		return false
	}
	s.flight.cancel()
	return true
}

// Close cancels any stream in flight.
func (s *Session) Close() {
	s.Cancel()
}

func (s *Session) land(f *flight) {
	f.cancel()
	s.mu.Lock()
	if s.flight == f {
		s.flight = nil
	}
	s.mu.Unlock()
}

// adoptThread records the id the backend assigned to a new thread.
func (s *Session) adoptThread(gen uint64, id string) {
	if id == "" {
		return
	}
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	if s.gen.Load() != gen {
		return
	}
	s.mu.Lock()
	if s.threadID == "" {
		s.threadID = id
		s.logger.Info().Str("thread_id", id).Msg("thread created")
	}
	s.mu.Unlock()
}

func (s *Session) persist(ctx context.Context, id, name string, msgs []transcript.Message) {
	if s.cache == nil || id == "" {
		return
	}
	err := s.cache.Put(ctx, storage.CachedThread{
		ThreadID: id,
		UserID:   s.user,
		Name:     name,
		Actor:    s.Actor(),
		Messages: msgs,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("thread_id", id).Msg("cache write failed")
	}
}

// Document returns the open thread as an export document.
func (s *Session) Document() *export.Document {
	s.mu.Lock()
	id, name, actor := s.threadID, s.threadName, s.actor
	s.mu.Unlock()
	return export.FromSnapshot(id, name, actor, s.user, s.store.Snapshot())
}

// =============================================================================
// HELPERS
// =============================================================================

var errStale = errors.New("stale stream")

// guardedApplier drops writes from a stream whose thread was switched away.
type guardedApplier struct {
	s   *Session
	gen uint64
}

func (a *guardedApplier) Apply(op transcript.Op) error {
	a.s.applyMu.Lock()
	defer a.s.applyMu.Unlock()
	if a.s.gen.Load() != a.gen {
		return errStale
	}
	return a.s.store.Apply(op)
}

func infoFromAPI(t *api.Thread) ThreadInfo {
	info := ThreadInfo{ID: t.ThreadID, Name: t.Name}
	if msgs, err := t.Transcript(); err == nil {
		info.Messages = len(msgs)
		for _, m := range msgs {
			if m.Role == transcript.RoleUser && m.IsText() {
				info.Preview = util.TruncateRunes(util.FirstLine(m.Value), 50)
				break
			}
		}
	}
	return info
}
