// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/"})
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, 30*time.Second, c.config.Timeout)

	c = NewClientWithConfig(nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

// =============================================================================
// ACTOR TESTS
// =============================================================================

func TestListActors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/actors/", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		io.WriteString(w, `[{"actor_name":"home","assistant_id":"asst_1","instructions":"be nice","description":"Home helper"}]`)
	}))

	actors, err := c.ListActors(context.Background())
	require.NoError(t, err)
	require.Len(t, actors, 1)
	assert.Equal(t, Actor{Name: "home", AssistantID: "asst_1", Instructions: "be nice", Description: "Home helper"}, actors[0])
}

func TestGetActor_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/actors/ghost/", r.URL.Path)
		http.NotFound(w, r)
	}))

	_, err := c.GetActor(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

// =============================================================================
// THREAD TESTS
// =============================================================================

func TestListThreads(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/threads/", r.URL.Path)
		assert.Equal(t, "jesse", r.URL.Query().Get("user"))
		io.WriteString(w, `[{"name":"Kitchen","thread_id":"thread_1","user_id":"jesse","messages":null}]`)
	}))

	threads, err := c.ListThreads(context.Background(), "jesse")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "thread_1", threads[0].ThreadID)
	assert.Equal(t, "Kitchen", threads[0].DisplayName())

	msgs, err := threads[0].Transcript()
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestListThreads_RequiresUser(t *testing.T) {
	_, err := NewClient().ListThreads(context.Background(), "")
	require.Error(t, err)
	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrTypeBadRequest, ce.Type)
}

func TestCreateThread(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "jesse", body["user"])
		io.WriteString(w, `{"name":"","thread_id":"thread_new","user_id":"jesse","messages":"[]"}`)
	}))

	thread, err := c.CreateThread(context.Background(), "jesse")
	require.NoError(t, err)
	assert.Equal(t, "thread_new", thread.ThreadID)
	assert.Equal(t, "thread_new", thread.DisplayName())
}

func TestGetThread_Transcript(t *testing.T) {
	stored := `[{"type":"text","role":"user","value":"hi"},{"type":"image_file","role":"assistant","value":"data:image/png;base64,AA"}]`
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/threads/thread_1/", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"name": "t", "thread_id": "thread_1", "user_id": "jesse", "messages": stored,
		})
	}))

	thread, err := c.GetThread(context.Background(), "thread_1")
	require.NoError(t, err)

	msgs, err := thread.Transcript()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, transcript.NewText(transcript.RoleUser, "hi"), msgs[0])
	assert.True(t, msgs[1].IsImage())
}

func TestGetThread_NonStringMessages(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"thread_id":"t","messages":"[{\"type\":\"text\",\"role\":\"user\",\"value\":7}]"}`)
	}))

	thread, err := c.GetThread(context.Background(), "t")
	require.NoError(t, err)
	_, err = thread.Transcript()
	assert.ErrorIs(t, err, transcript.ErrNonStringValue)
}

func TestDeleteThread(t *testing.T) {
	var called atomic.Bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/threads/thread_1/", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DeleteThread(context.Background(), "thread_1"))
	assert.True(t, called.Load())
}

func TestServerErrorDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"thread matching query does not exist"}`)
	}))

	_, err := c.GetThread(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.False(t, IsNotFound(err))
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_StreamAndHeaders(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/", r.URL.Path)
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, ChatRequest{Actor: "home", Input: "hello", User: "jesse", BufferSize: 5}, req)

		w.Header().Set("thread_id", "thread_9")
		w.Header().Set("actor", "home")
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"Hel", "lo"} {
			io.WriteString(w, chunk)
			flusher.Flush()
		}
	}))

	reply, err := c.Chat(context.Background(), ChatRequest{Actor: "home", Input: "hello", User: "jesse", BufferSize: 5})
	require.NoError(t, err)
	defer reply.Close()

	assert.Equal(t, "thread_9", reply.ThreadID)
	assert.Equal(t, "home", reply.Actor)

	body, err := io.ReadAll(reply.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(body))
}

func TestChat_RequiresActor(t *testing.T) {
	_, err := NewClient().Chat(context.Background(), ChatRequest{Input: "x"})
	require.Error(t, err)
}

func TestChat_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := c.Chat(context.Background(), ChatRequest{Actor: "home"})
	require.Error(t, err)
	assert.True(t, IsNotRunning(err))
}

func TestChat_Cancelled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Chat(ctx, ChatRequest{Actor: "home"})
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// CIRCUIT BREAKER TESTS
// =============================================================================

func TestBreaker_OpensWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClientWithConfig(&ClientConfig{
		BaseURL: url,
		Breaker: BreakerConfig{MaxFailures: 2, Timeout: time.Minute},
	})
	for i := 0; i < 2; i++ {
		_, err := c.ListActors(context.Background())
		require.Error(t, err)
		assert.True(t, IsNotRunning(err))
	}
	assert.Equal(t, "open", c.BreakerState())

	_, err := c.ListActors(context.Background())
	require.Error(t, err)
	assert.True(t, IsNotRunning(err))
	assert.Contains(t, err.Error(), "circuit open")
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := NewClientWithConfig(&ClientConfig{Breaker: BreakerConfig{MaxFailures: 1}})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	c.config.BaseURL = srv.URL

	for i := 0; i < 3; i++ {
		_, err := c.GetActor(context.Background(), "ghost")
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "closed", c.BreakerState())
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	var up atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			// Drop the connection without answering.
			if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
				conn.Close()
			}
			return
		}
		io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	c := NewClientWithConfig(&ClientConfig{
		BaseURL: srv.URL,
		Breaker: BreakerConfig{MaxFailures: 1, Timeout: 50 * time.Millisecond},
	})
	_, err := c.ListActors(context.Background())
	require.Error(t, err)
	assert.Equal(t, "open", c.BreakerState())

	up.Store(true)
	time.Sleep(100 * time.Millisecond)
	_, err = c.ListActors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "closed", c.BreakerState())
}

func TestBreaker_Disabled(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{Breaker: BreakerConfig{Disabled: true}})
	assert.Equal(t, "disabled", c.BreakerState())
}
