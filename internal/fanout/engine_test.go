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

package fanout

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/api-platform/gateway/community-board/internal/rooms"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

type recordingConn struct {
	id      string
	mu      sync.Mutex
	frames  [][]byte
	sendErr error
}

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Send(frame []byte) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T, ids ...string) (*rooms.Registry, map[string]*recordingConn) {
	t.Helper()
	reg := rooms.NewRegistry(discardLogger())
	conns := make(map[string]*recordingConn, len(ids))
	for _, id := range ids {
		c := &recordingConn{id: id}
		conns[id] = c
		reg.Register(c)
	}
	return reg, conns
}

func TestEngine_GlobalReachesEveryConnection(t *testing.T) {
	reg, conns := setup(t, "a", "b", "c")
	reg.Join("a", core.ThreadRoom("1"))
	engine := NewEngine(reg, discardLogger())

	require.NoError(t, engine.EmitGlobal(core.EventNoticeDeleted, core.DeletedRef{ID: "n1"}))

	for id, c := range conns {
		assert.Len(t, c.received(), 1, id)
	}
}

func TestEngine_RoomDeliveryExcludesSender(t *testing.T) {
	reg, conns := setup(t, "a", "b", "c")
	room := core.ThreadRoom("7")
	reg.Join("a", room)
	reg.Join("b", room)
	engine := NewEngine(reg, discardLogger())

	require.NoError(t, engine.EmitToRoom(room, core.EventTyping, core.TypingSignal{Name: "Ann"}, "a"))

	assert.Empty(t, conns["a"].received())
	assert.Len(t, conns["b"].received(), 1)
	assert.Empty(t, conns["c"].received())
}

func TestEngine_FailedSendDoesNotAffectOthers(t *testing.T) {
	reg, conns := setup(t, "a", "b")
	conns["a"].sendErr = errors.New("closed")
	engine := NewEngine(reg, discardLogger())

	require.NoError(t, engine.EmitGlobal(core.EventForumDeleted, core.DeletedRef{ID: "p1"}))

	assert.Len(t, conns["b"].received(), 1)
}

func TestEngine_ObserversSkipTransientEvents(t *testing.T) {
	reg, _ := setup(t, "a")
	var seen []string
	engine := NewEngine(reg, discardLogger(), ObserverFunc(func(evt core.DomainEvent) {
		seen = append(seen, evt.Name)
	}))

	durable, err := core.NewEvent(core.EventNoticeNew, map[string]string{"id": "n1"}, core.GlobalScope())
	require.NoError(t, err)
	engine.Emit(durable)

	typing, err := core.NewEvent(core.EventTyping, core.TypingSignal{Name: "x"}, core.RoomScope(core.ThreadRoom("1")))
	require.NoError(t, err)
	typing.Transient = true
	engine.Emit(typing)

	assert.Equal(t, []string{core.EventNoticeNew}, seen)
}

func TestEngine_FrameGolden(t *testing.T) {
	reg, conns := setup(t, "a")
	engine := NewEngine(reg, discardLogger())

	response := "Fixed the lights."
	require.NoError(t, engine.EmitGlobal(core.EventComplaintUpdated, core.ComplaintUpdate{
		RefID:         "C-LX2A9",
		Status:        core.ComplaintResolved,
		AdminResponse: &response,
	}))

	frames := conns["a"].received()
	require.Len(t, frames, 1)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "complaint_updated_frame", frames[0])
}
