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

package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Server to client event names.
const (
	EventNoticeNew        = "notice:new"
	EventNoticeUpdated    = "notice:updated"
	EventNoticeDeleted    = "notice:deleted"
	EventCalendarNew      = "calendar:new"
	EventCalendarUpdated  = "calendar:updated"
	EventCalendarDeleted  = "calendar:deleted"
	EventForumNew         = "forum:new"
	EventForumDeleted     = "forum:deleted"
	EventReplyNew         = "reply:new"
	EventReplyCount       = "forum:replyCount"
	EventComplaintNew     = "complaint:new"
	EventComplaintUpdated = "complaint:updated"
	EventTyping           = "forum:typing"
)

// Client to server event names.
const (
	EventJoinThread  = "forum:join"
	EventLeaveThread = "forum:leave"
	EventJoinAdmin   = "admin:join"
)

// AdminRoom is the singleton room gated by the shared admin secret.
const AdminRoom = "admins"

const threadRoomPrefix = "forum:"

// ThreadRoom returns the broadcast room of a forum thread.
func ThreadRoom(postID string) string {
	return threadRoomPrefix + postID
}

type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeRoom
)

func (k ScopeKind) String() string {
	if k == ScopeRoom {
		return "room"
	}
	return "global"
}

// Scope names the recipients of a DomainEvent. Exclude is a connection ID
// skipped during room delivery; it is ignored for global scope.
type Scope struct {
	Kind    ScopeKind `json:"kind"`
	Room    string    `json:"room,omitempty"`
	Exclude string    `json:"exclude,omitempty"`
}

func GlobalScope() Scope { return Scope{Kind: ScopeGlobal} }

func RoomScope(room string) Scope { return Scope{Kind: ScopeRoom, Room: room} }

// Excluding returns a copy of the scope that skips connID.
func (s Scope) Excluding(connID string) Scope {
	s.Exclude = connID
	return s
}

// DomainEvent is produced once per committed mutation and delivered at most
// once to each eligible connection. Transient events (typing signals) are
// delivered to connections only and never mirrored.
type DomainEvent struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	Scope      Scope           `json:"scope"`
	OccurredAt time.Time       `json:"occurred_at"`
	Transient  bool            `json:"-"`
}

// NewEvent encodes payload and stamps the event.
func NewEvent(name string, payload any, scope Scope) (DomainEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return DomainEvent{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return DomainEvent{
		ID:         uuid.New().String(),
		Name:       name,
		Payload:    data,
		Scope:      scope,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// Frame is the wire shape of every realtime message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame renders the client-facing frame of an event.
func (e DomainEvent) EncodeFrame() ([]byte, error) {
	return json.Marshal(Frame{Event: e.Name, Data: e.Payload})
}
