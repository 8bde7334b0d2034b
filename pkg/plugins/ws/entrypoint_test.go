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
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/api-platform/gateway/community-board/internal/fanout"
	"github.com/wso2/api-platform/gateway/community-board/internal/presence"
	"github.com/wso2/api-platform/gateway/community-board/internal/protocol"
	"github.com/wso2/api-platform/gateway/community-board/internal/rooms"
	"github.com/wso2/api-platform/gateway/community-board/internal/session"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

type harness struct {
	registry *rooms.Registry
	engine   *fanout.Engine
	manager  *session.Manager
	ep       *Entrypoint
	url      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := rooms.NewRegistry(logger)
	engine := fanout.NewEngine(reg, logger)
	mgr := session.NewManager(reg, logger)
	handler := protocol.NewHandler(reg, presence.NewRelay(engine, logger), core.NewSecret("admin"), logger)
	ep := New("websocket", "/ws", 8, mgr, handler, logger)

	srv := httptest.NewServer(ep)
	t.Cleanup(srv.Close)

	return &harness{
		registry: reg,
		engine:   engine,
		manager:  mgr,
		ep:       ep,
		url:      "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func readFrame(t *testing.T, c *websocket.Conn) string {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func TestEntrypoint_GlobalBroadcast(t *testing.T) {
	h := newHarness(t)
	a, b := h.dial(t), h.dial(t)

	require.Eventually(t, func() bool { return h.manager.ActiveCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.engine.EmitGlobal(core.EventNoticeDeleted, core.DeletedRef{ID: "n1"}))

	want := `{"event":"notice:deleted","data":{"id":"n1"}}`
	assert.JSONEq(t, want, readFrame(t, a))
	assert.JSONEq(t, want, readFrame(t, b))
}

func TestEntrypoint_ThreadJoinAndTyping(t *testing.T) {
	h := newHarness(t)
	a, b := h.dial(t), h.dial(t)

	for _, c := range []*websocket.Conn{a, b} {
		require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"event":"forum:join","data":"p1"}`)))
	}
	require.Eventually(t, func() bool {
		return len(h.registry.Members(core.ThreadRoom("p1"))) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"event":"forum:typing","data":{"postId":"p1","name":"Ann"}}`)))
	assert.JSONEq(t, `{"event":"forum:typing","data":{"name":"Ann"}}`, readFrame(t, b))

	require.NoError(t, h.engine.EmitToRoom(core.ThreadRoom("p1"), core.EventReplyNew, map[string]string{"id": "r1"}, ""))
	assert.JSONEq(t, `{"event":"reply:new","data":{"id":"r1"}}`, readFrame(t, a))
}

func TestEntrypoint_DisconnectDropsMembership(t *testing.T) {
	h := newHarness(t)
	a := h.dial(t)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"event":"admin:join","data":"admin"}`)))
	require.Eventually(t, func() bool { return h.registry.HasRoom(core.AdminRoom) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool {
		return !h.registry.HasRoom(core.AdminRoom) && h.manager.ActiveCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEntrypoint_Stop(t *testing.T) {
	h := newHarness(t)
	a := h.dial(t)
	require.Eventually(t, func() bool { return h.manager.ActiveCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.ep.Stop(context.Background()))

	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := a.ReadMessage()
	assert.Error(t, err)

	_, _, err = websocket.DefaultDialer.Dial(h.url, nil)
	assert.Error(t, err)
}

func TestConn_SendAfterClose(t *testing.T) {
	h := newHarness(t)
	h.dial(t)
	require.Eventually(t, func() bool { return len(h.registry.Connections()) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn := h.registry.Connections()[0]
	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Send([]byte("x")), ErrConnClosed)
}
