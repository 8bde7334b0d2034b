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

// Package protocol decodes client frames and applies them to the room
// registry and the typing relay.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/wso2/api-platform/gateway/community-board/internal/presence"
	"github.com/wso2/api-platform/gateway/community-board/internal/rooms"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

var errBadID = errors.New("post id must be a string or a number")

type Handler struct {
	registry *rooms.Registry
	relay    *presence.Relay
	secret   *core.Secret
	logger   *slog.Logger
}

func NewHandler(registry *rooms.Registry, relay *presence.Relay, secret *core.Secret, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		relay:    relay,
		secret:   secret,
		logger:   logger,
	}
}

type typingData struct {
	PostID json.RawMessage `json:"postId"`
	Name   string          `json:"name"`
}

// Handle applies one inbound frame. Malformed or unknown frames are logged
// and ignored; the connection stays open.
func (h *Handler) Handle(conn core.Connection, data []byte) {
	var frame core.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.logger.Warn("invalid frame", "conn_id", conn.ID(), "error", err)
		return
	}

	switch frame.Event {
	case core.EventJoinThread, core.EventLeaveThread:
		id, err := decodeID(frame.Data)
		if err != nil {
			h.logger.Warn("invalid thread id", "conn_id", conn.ID(), "event", frame.Event, "error", err)
			return
		}
		if frame.Event == core.EventJoinThread {
			h.registry.Join(conn.ID(), core.ThreadRoom(id))
		} else {
			h.registry.Leave(conn.ID(), core.ThreadRoom(id))
		}

	case core.EventJoinAdmin:
		var key string
		if err := json.Unmarshal(frame.Data, &key); err != nil {
			return
		}
		h.registry.JoinAdmin(conn.ID(), key, h.secret.Get())

	case core.EventTyping:
		var t typingData
		if err := json.Unmarshal(frame.Data, &t); err != nil {
			h.logger.Warn("invalid typing signal", "conn_id", conn.ID(), "error", err)
			return
		}
		id, err := decodeID(t.PostID)
		if err != nil {
			h.logger.Warn("invalid typing signal", "conn_id", conn.ID(), "error", err)
			return
		}
		h.relay.Typing(conn.ID(), core.ThreadRoom(id), t.Name)

	default:
		h.logger.Debug("unknown event ignored", "conn_id", conn.ID(), "event", frame.Event)
	}
}

// decodeID accepts a JSON string or number and returns its text form.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errBadID
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", errBadID
	}
	return n.String(), nil
}
