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

package presence

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/api-platform/gateway/community-board/internal/fanout"
	"github.com/wso2/api-platform/gateway/community-board/internal/rooms"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

type captureConn struct {
	id     string
	mu     sync.Mutex
	frames []core.Frame
}

func (c *captureConn) ID() string { return c.id }

func (c *captureConn) Send(frame []byte) error {
	var f core.Frame
	if err := json.Unmarshal(frame, &f); err != nil {
		return err
	}
	c.mu.Lock()
	c.frames = append(c.frames, f)
	c.mu.Unlock()
	return nil
}

func (c *captureConn) Close() error { return nil }

func TestRelay_TypingSkipsSenderAndOtherRooms(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := rooms.NewRegistry(logger)

	var mirrored int
	engine := fanout.NewEngine(reg, logger, fanout.ObserverFunc(func(core.DomainEvent) { mirrored++ }))
	relay := NewRelay(engine, logger)

	sender := &captureConn{id: "sender"}
	peer := &captureConn{id: "peer"}
	outsider := &captureConn{id: "outsider"}
	for _, c := range []*captureConn{sender, peer, outsider} {
		reg.Register(c)
	}
	room := core.ThreadRoom("12")
	reg.Join("sender", room)
	reg.Join("peer", room)
	reg.Join("outsider", core.ThreadRoom("13"))

	relay.Typing("sender", room, "Nimal")

	assert.Empty(t, sender.frames)
	assert.Empty(t, outsider.frames)
	require.Len(t, peer.frames, 1)
	assert.Equal(t, core.EventTyping, peer.frames[0].Event)
	assert.JSONEq(t, `{"name":"Nimal"}`, string(peer.frames[0].Data))
	assert.Zero(t, mirrored, "typing signals are never mirrored")
}
