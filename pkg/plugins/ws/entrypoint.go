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

package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	DefaultSendBuffer = 64
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrConnClosed     = errors.New("connection closed")
)

// MessageHandler receives every text frame read from a client.
type MessageHandler interface {
	Handle(conn core.Connection, data []byte)
}

type Entrypoint struct {
	name       string
	path       string
	sendBuffer int
	upgrader   websocket.Upgrader
	manager    core.SessionManager
	handler    MessageHandler
	logger     *slog.Logger
	sessions   sync.Map
	stopping   atomic.Bool
}

func New(name, path string, sendBuffer int, manager core.SessionManager, handler MessageHandler, logger *slog.Logger) *Entrypoint {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Entrypoint{
		name:       name,
		path:       path,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		manager: manager,
		handler: handler,
		logger:  logger,
	}
}

func (e *Entrypoint) Name() string { return e.name }
func (e *Entrypoint) Type() string { return "websocket" }
func (e *Entrypoint) Path() string { return e.path }

// Stop refuses new upgrades and closes every open connection.
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

	ws, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Error("ws upgrade failed", "error", err)
		return
	}

	clientID := core.GenerateClientID(r)
	conn := newConn(uuid.New().String(), ws, e.sendBuffer)

	sess, err := e.manager.CreateSession(r.Context(), e.name, clientID, conn)
	if err != nil {
		e.logger.Error("session creation failed", "client_id", clientID, "error", err)
		conn.Close()
		return
	}
	e.sessions.Store(sess.ID, struct{}{})

	defer func() {
		e.sessions.Delete(sess.ID)
		_ = e.manager.DestroySession(sess.ID)
		e.logger.Info("ws client disconnected", "client_id", clientID, "conn_id", conn.ID())
	}()

	e.logger.Info("ws client connected", "client_id", clientID, "conn_id", conn.ID())

	go conn.writePump(e.logger)
	conn.readPump(e.handler, e.logger)
}

// Conn is one WebSocket client. Frames queue in a bounded buffer drained by
// a single writer goroutine; a full buffer drops the frame.
type Conn struct {
	id        string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, ws *websocket.Conn, buffer int) *Conn {
	return &Conn{
		id:   id,
		ws:   ws,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
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
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) readPump(handler MessageHandler, logger *slog.Logger) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("ws read error", "conn_id", c.id, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handler.Handle(c, data)
	}
}

func (c *Conn) writePump(logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("ws write failed", "conn_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
