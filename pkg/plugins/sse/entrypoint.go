// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package sse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

const (
	DefaultSendBuffer = 64
	keepAlivePeriod   = 25 * time.Second

	// ThreadParam names a thread room to join; it may repeat.
	ThreadParam = "thread"
	// AdminKeyHeader carries the shared secret for the admin room.
	AdminKeyHeader = "X-Admin-Key"
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrConnClosed     = errors.New("connection closed")
)

// Rooms is the membership surface needed by a downstream-only stream.
type Rooms interface {
	Join(connID, room string)
	JoinAdmin(connID, supplied, expected string)
}

// Entrypoint streams frames as server-sent events. Clients cannot send
// frames back, so room membership is fixed when the stream opens.
type Entrypoint struct {
	name       string
	path       string
	sendBuffer int
	manager    core.SessionManager
	rooms      Rooms
	secret     *core.Secret
	logger     *slog.Logger
	sessions   sync.Map
	stopping   atomic.Bool
}

func New(name, path string, sendBuffer int, manager core.SessionManager, rooms Rooms, secret *core.Secret, logger *slog.Logger) *Entrypoint {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Entrypoint{
		name:       name,
		path:       path,
		sendBuffer: sendBuffer,
		manager:    manager,
		rooms:      rooms,
		secret:     secret,
		logger:     logger,
	}
}

func (e *Entrypoint) Name() string { return e.name }
func (e *Entrypoint) Type() string { return "sse" }
func (e *Entrypoint) Path() string { return e.path }

func (e *Entrypoint) Stop(ctx context.Context) error {
	e.stopping.Store(true)
	e.sessions.Range(func(key, _ any) bool {
		if ctx.Err() != nil {
			return false
		}
		_ = e.manager.DestroySession(key.(string))
		return true
	})
	return ctx.Err()
}

func (e *Entrypoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e.stopping.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientID := core.GenerateClientID(r)
	conn := newConn(uuid.New().String(), e.sendBuffer)

	sess, err := e.manager.CreateSession(r.Context(), e.name, clientID, conn)
	if err != nil {
		e.logger.Error("sse session creation failed", "error", err)
		http.Error(w, "session creation failed", http.StatusInternalServerError)
		return
	}

	e.sessions.Store(sess.ID, struct{}{})
	defer func() {
		e.sessions.Delete(sess.ID)
		_ = e.manager.DestroySession(sess.ID)
		e.logger.Info("sse client disconnected", "client_id", clientID, "conn_id", conn.ID())
	}()

	for _, id := range r.URL.Query()[ThreadParam] {
		e.rooms.Join(conn.ID(), core.ThreadRoom(id))
	}
	if key := r.Header.Get(AdminKeyHeader); key != "" {
		e.rooms.JoinAdmin(conn.ID(), key, e.secret.Get())
	}

	e.logger.Info("sse client connected", "client_id", clientID, "conn_id", conn.ID(), "session_id", sess.ID)

	fmt.Fprintf(w, "retry: 3000\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAlivePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-conn.done:
			return
		case frame := <-conn.send:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Conn is the downstream half of an event stream.
type Conn struct {
	id        string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, buffer int) *Conn {
	return &Conn{id: id, send: make(chan []byte, buffer), done: make(chan struct{})}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}
