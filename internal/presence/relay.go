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

// Package presence relays ephemeral typing indicators inside a room.
package presence

import (
	"log/slog"

	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

type Relay struct {
	emitter core.Emitter
	logger  *slog.Logger
}

func NewRelay(emitter core.Emitter, logger *slog.Logger) *Relay {
	return &Relay{emitter: emitter, logger: logger}
}

// Typing tells every other member of room that displayName is typing. The
// signal is not stored, deduplicated or mirrored.
func (r *Relay) Typing(connID, room, displayName string) {
	evt, err := core.NewEvent(core.EventTyping, core.TypingSignal{Name: displayName}, core.RoomScope(room).Excluding(connID))
	if err != nil {
		r.logger.Warn("typing signal dropped", "conn_id", connID, "room", room, "error", err)
		return
	}
	evt.Transient = true
	r.emitter.Emit(evt)
}
