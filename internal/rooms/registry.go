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

// Package rooms tracks which live connections belong to which broadcast
// rooms. Membership is in-memory only and is never restored on reconnect.
package rooms

import (
	"log/slog"
	"sync"

	"github.com/samber/lo"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

type set map[string]struct{}

// Registry indexes connections by room and rooms by connection. A single
// mutex guards both indexes so a join, leave or disconnect is never observed
// half applied.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]core.Connection
	rooms       map[string]set
	memberships map[string]set
	logger      *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:       make(map[string]core.Connection),
		rooms:       make(map[string]set),
		memberships: make(map[string]set),
		logger:      logger,
	}
}

// Register makes conn eligible for global delivery. It starts with no rooms.
func (r *Registry) Register(conn core.Connection) {
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	if _, ok := r.memberships[conn.ID()]; !ok {
		r.memberships[conn.ID()] = make(set)
	}
	count := len(r.conns)
	r.mu.Unlock()

	r.logger.Debug("connection registered", "conn_id", conn.ID(), "connections", count)
}

// Join adds the connection to room. Joining twice is a no-op, as is joining
// with an unregistered connection.
func (r *Registry) Join(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joinLocked(connID, room)
}

func (r *Registry) joinLocked(connID, room string) {
	rooms, ok := r.memberships[connID]
	if !ok {
		return
	}
	if _, member := rooms[room]; member {
		return
	}
	rooms[room] = struct{}{}

	members, exists := r.rooms[room]
	if !exists {
		members = make(set)
		r.rooms[room] = members
	}
	members[connID] = struct{}{}

	r.logger.Debug("room joined", "conn_id", connID, "room", room, "members", len(members))
}

// Leave removes the connection from room and drops the room once empty.
func (r *Registry) Leave(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, room)
}

func (r *Registry) leaveLocked(connID, room string) {
	if rooms, ok := r.memberships[connID]; ok {
		delete(rooms, room)
	}

	members, exists := r.rooms[room]
	if !exists {
		return
	}
	if _, member := members[connID]; !member {
		return
	}
	delete(members, connID)

	if len(members) == 0 {
		delete(r.rooms, room)
		r.logger.Debug("room removed", "room", room)
	}
}

// JoinAdmin joins the admin room only when supplied equals expected. A
// mismatch is silent so a failed attempt looks exactly like a no-op.
func (r *Registry) JoinAdmin(connID, supplied, expected string) {
	if !core.SecretsEqual(supplied, expected) {
		return
	}
	r.Join(connID, core.AdminRoom)
}

// Disconnect drops every membership of the connection and forgets it.
// Calling it again for the same connection does nothing.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.memberships[connID]
	if !ok {
		return
	}
	for room := range rooms {
		r.leaveLocked(connID, room)
	}
	delete(r.memberships, connID)
	delete(r.conns, connID)

	r.logger.Debug("connection removed", "conn_id", connID, "connections", len(r.conns))
}

// Members returns a snapshot of the connections currently in room.
func (r *Registry) Members(room string) []core.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]core.Connection, 0, len(members))
	for id := range members {
		if conn, ok := r.conns[id]; ok {
			out = append(out, conn)
		}
	}
	return out
}

// Connections returns a snapshot of every registered connection.
func (r *Registry) Connections() []core.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.conns)
}

func (r *Registry) RoomsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.memberships[connID])
}

func (r *Registry) IsMember(connID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][connID]
	return ok
}

func (r *Registry) IsAdmin(connID string) bool {
	return r.IsMember(connID, core.AdminRoom)
}

// HasRoom reports whether any connection references room.
func (r *Registry) HasRoom(room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room]
	return ok
}

func (r *Registry) Stats() (rooms, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.conns)
}
