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

package protocol

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/api-platform/gateway/community-board/internal/fanout"
	"github.com/wso2/api-platform/gateway/community-board/internal/presence"
	"github.com/wso2/api-platform/gateway/community-board/internal/rooms"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

type mockConn struct {
	id     string
	mu     sync.Mutex
	frames []string
}

func (c *mockConn) ID() string { return c.id }
func (c *mockConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, string(frame))
	return nil
}
func (c *mockConn) Close() error { return nil }

func setup(secret string) (*Handler, *rooms.Registry) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := rooms.NewRegistry(logger)
	relay := presence.NewRelay(fanout.NewEngine(reg, logger), logger)
	return NewHandler(reg, relay, core.NewSecret(secret), logger), reg
}

func TestHandle_JoinAndLeave(t *testing.T) {
	h, reg := setup("k")
	conn := &mockConn{id: "a"}
	reg.Register(conn)

	h.Handle(conn, []byte(`{"event":"forum:join","data":"abc"}`))
	h.Handle(conn, []byte(`{"event":"forum:join","data":42}`))
	assert.ElementsMatch(t, []string{"forum:abc", "forum:42"}, reg.RoomsOf("a"))

	h.Handle(conn, []byte(`{"event":"forum:leave","data":"abc"}`))
	assert.Equal(t, []string{"forum:42"}, reg.RoomsOf("a"))
}

func TestHandle_AdminJoin(t *testing.T) {
	h, reg := setup("s3cret")
	conn := &mockConn{id: "a"}
	reg.Register(conn)

	h.Handle(conn, []byte(`{"event":"admin:join","data":"wrong"}`))
	assert.False(t, reg.IsAdmin("a"))

	h.Handle(conn, []byte(`{"event":"admin:join","data":"s3cret"}`))
	assert.True(t, reg.IsAdmin("a"))
}

func TestHandle_AdminJoinWithUnsetSecret(t *testing.T) {
	h, reg := setup("")
	conn := &mockConn{id: "a"}
	reg.Register(conn)

	h.Handle(conn, []byte(`{"event":"admin:join","data":""}`))
	assert.False(t, reg.IsAdmin("a"))
}

func TestHandle_TypingRelayed(t *testing.T) {
	h, reg := setup("k")
	sender, peer := &mockConn{id: "a"}, &mockConn{id: "b"}
	reg.Register(sender)
	reg.Register(peer)
	reg.Join("a", "forum:7")
	reg.Join("b", "forum:7")

	h.Handle(sender, []byte(`{"event":"forum:typing","data":{"postId":7,"name":"Ann"}}`))

	assert.Empty(t, sender.frames)
	require.Len(t, peer.frames, 1)
	assert.JSONEq(t, `{"event":"forum:typing","data":{"name":"Ann"}}`, peer.frames[0])
}

func TestHandle_MalformedFramesIgnored(t *testing.T) {
	h, reg := setup("k")
	conn := &mockConn{id: "a"}
	reg.Register(conn)

	for _, raw := range []string{
		`not json`,
		`{"event":"forum:join"}`,
		`{"event":"forum:join","data":{"id":1}}`,
		`{"event":"forum:typing","data":"x"}`,
		`{"event":"playback:seek","data":1}`,
	} {
		h.Handle(conn, []byte(raw))
	}
	assert.Empty(t, reg.RoomsOf("a"))
}

func TestDecodeID(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: `"12"`, want: "12"},
		{raw: `12`, want: "12"},
		{raw: `1.5`, want: "1.5"},
		{raw: `"<x>"`, want: "<x>"},
		{raw: `null`, wantErr: true},
		{raw: `[1]`, wantErr: true},
		{raw: ``, wantErr: true},
	}
	for _, tt := range tests {
		got, err := decodeID([]byte(tt.raw))
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}
}
