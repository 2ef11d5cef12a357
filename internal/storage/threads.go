// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/jeranaias/genscene-tui/internal/transcript"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// Schema is the thread cache layout. messages holds the backend JSON shape;
// body holds only the text message values, one per line, for Search.
const Schema = `
CREATE TABLE IF NOT EXISTS threads (
	thread_id  TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	actor      TEXT NOT NULL DEFAULT '',
	messages   TEXT NOT NULL DEFAULT '[]',
	body       TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_threads_user ON threads(user_id, updated_at DESC);
`

// =============================================================================
// CACHED THREAD TYPE
// =============================================================================

// CachedThread is a locally stored copy of a backend thread.
type CachedThread struct {
	ThreadID  string
	UserID    string
	Name      string
	Actor     string
	Messages  []transcript.Message
	UpdatedAt time.Time
}

// ThreadMeta contains metadata for listing threads.
type ThreadMeta struct {
	ThreadID     string
	Name         string
	Actor        string
	UpdatedAt    time.Time
	MessageCount int
	Preview      string // first user message, truncated
}

// Title returns the thread name, or its preview when unnamed.
func (m ThreadMeta) Title() string {
	if m.Name != "" {
		return m.Name
	}
	if m.Preview != "" {
		return m.Preview
	}
	return m.ThreadID
}

// ErrNotFound is returned when a thread is not in the cache.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &CacheError{Message: "thread not in cache"}

// CacheError represents a cache lookup error.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing cache errors.
func (e *CacheError) Is(target error) bool {
	t, ok := target.(*CacheError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// THREAD CACHE
// =============================================================================

// ThreadCache persists transcripts in SQLite so threads stay readable when
// the backend is unreachable. It is safe for concurrent use.
type ThreadCache struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache at path. Use ":memory:" for a throwaway
// cache.
func Open(path string) (*ThreadCache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, errors.Wrap(err, "create cache directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// SQLite has a single writer; one connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "set %q", pragma)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize schema")
	}
	if err := addBodyColumn(db); err != nil {
		db.Close()
		return nil, err
	}

	return &ThreadCache{db: db, path: path}, nil
}

// Path returns the database path.
func (c *ThreadCache) Path() string {
	return c.path
}

// Close closes the database.
func (c *ThreadCache) Close() error {
	return errors.Wrap(c.db.Close(), "close sqlite")
}

// Put inserts or replaces a thread. A zero UpdatedAt is set to now.
func (c *ThreadCache) Put(ctx context.Context, t CachedThread) error {
	if t.ThreadID == "" {
		return errors.New("cache put: empty thread id")
	}
	data, err := transcript.EncodeMessages(t.Messages)
	if err != nil {
		return errors.Wrapf(err, "encode thread %s", t.ThreadID)
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now()
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO threads (thread_id, user_id, name, actor, messages, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			user_id = excluded.user_id,
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE threads.name END,
			actor = CASE WHEN excluded.actor != '' THEN excluded.actor ELSE threads.actor END,
			messages = excluded.messages,
			body = excluded.body,
			updated_at = excluded.updated_at`,
		t.ThreadID, t.UserID, t.Name, t.Actor, string(data), searchBody(t.Messages), t.UpdatedAt.UnixMilli())
	return errors.Wrapf(err, "put thread %s", t.ThreadID)
}

// Get loads a thread with its messages.
func (c *ThreadCache) Get(ctx context.Context, threadID string) (*CachedThread, error) {
	var (
		t       CachedThread
		raw     string
		updated int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT thread_id, user_id, name, actor, messages, updated_at FROM threads WHERE thread_id = ?`,
		threadID,
	).Scan(&t.ThreadID, &t.UserID, &t.Name, &t.Actor, &raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get thread %s", threadID)
	}

	msgs, err := transcript.DecodeMessages([]byte(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "decode thread %s", threadID)
	}
	t.Messages = msgs
	t.UpdatedAt = time.UnixMilli(updated)
	return &t, nil
}

// List returns up to limit threads of user, most recently updated first.
// A limit of zero or less means no limit.
func (c *ThreadCache) List(ctx context.Context, user string, limit int) ([]ThreadMeta, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT thread_id, name, actor, messages, updated_at
		FROM threads WHERE user_id = ?
		ORDER BY updated_at DESC LIMIT ?`, user, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list threads")
	}
	defer rows.Close()
	return scanMetas(rows)
}

// Search returns threads of user whose name or text messages contain query,
// case-insensitively. Image payloads and the JSON encoding are not searched.
func (c *ThreadCache) Search(ctx context.Context, user, query string) ([]ThreadMeta, error) {
	if query == "" {
		return c.List(ctx, user, 0)
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := c.db.QueryContext(ctx, `
		SELECT thread_id, name, actor, messages, updated_at
		FROM threads
		WHERE user_id = ? AND (lower(name) LIKE ? ESCAPE '\' OR lower(body) LIKE ? ESCAPE '\')
		ORDER BY updated_at DESC`, user, pattern, pattern)
	if err != nil {
		return nil, errors.Wrap(err, "search threads")
	}
	defer rows.Close()
	return scanMetas(rows)
}

// Delete removes a thread. Deleting a missing thread returns ErrNotFound.
func (c *ThreadCache) Delete(ctx context.Context, threadID string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM threads WHERE thread_id = ?`, threadID)
	if err != nil {
		return errors.Wrapf(err, "delete thread %s", threadID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune keeps the keep most recent threads of user and deletes the rest.
func (c *ThreadCache) Prune(ctx context.Context, user string, keep int) (int, error) {
	res, err := c.db.ExecContext(ctx, `
		DELETE FROM threads WHERE user_id = ? AND thread_id NOT IN (
			SELECT thread_id FROM threads WHERE user_id = ?
			ORDER BY updated_at DESC LIMIT ?
		)`, user, user, keep)
	if err != nil {
		return 0, errors.Wrap(err, "prune threads")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanMetas(rows *sql.Rows) ([]ThreadMeta, error) {
	var metas []ThreadMeta
	for rows.Next() {
		var (
			m       ThreadMeta
			raw     string
			updated int64
		)
		if err := rows.Scan(&m.ThreadID, &m.Name, &m.Actor, &raw, &updated); err != nil {
			return nil, errors.Wrap(err, "scan thread")
		}
		m.UpdatedAt = time.UnixMilli(updated)

		// A row that no longer decodes is still listed, without a preview.
		if msgs, err := transcript.DecodeMessages([]byte(raw)); err == nil {
			m.MessageCount = len(msgs)
			m.Preview = preview(msgs)
		}
		metas = append(metas, m)
	}
	return metas, errors.Wrap(rows.Err(), "iterate threads")
}

func preview(msgs []transcript.Message) string {
	for _, m := range msgs {
		if m.Role == transcript.RoleUser && m.IsText() {
			return util.TruncateRunes(util.FirstLine(m.Value), 50)
		}
	}
	return ""
}

// searchBody joins the text message values that Search matches against.
func searchBody(msgs []transcript.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if !m.IsText() || m.Value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Value)
	}
	return b.String()
}

// addBodyColumn upgrades a cache created before threads had a body column
// and fills it from the stored messages.
func addBodyColumn(db *sql.DB) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('threads') WHERE name = 'body'`).Scan(&n)
	if err != nil {
		return errors.Wrap(err, "inspect schema")
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE threads ADD COLUMN body TEXT NOT NULL DEFAULT ''`); err != nil {
		return errors.Wrap(err, "add body column")
	}

	rows, err := db.Query(`SELECT thread_id, messages FROM threads`)
	if err != nil {
		return errors.Wrap(err, "read threads for body backfill")
	}
	bodies := make(map[string]string)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan thread")
		}
		if msgs, err := transcript.DecodeMessages([]byte(raw)); err == nil {
			bodies[id] = searchBody(msgs)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate threads")
	}

	for id, body := range bodies {
		if _, err := db.Exec(`UPDATE threads SET body = ? WHERE thread_id = ?`, body, id); err != nil {
			return errors.Wrapf(err, "backfill thread %s", id)
		}
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
