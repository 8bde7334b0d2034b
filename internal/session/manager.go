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

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wso2/api-platform/gateway/community-board/internal/rooms"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

// Manager owns the lifecycle of realtime connections from every transport.
// Creating a session registers its connection with the room registry;
// destroying it drops every membership exactly once.
type Manager struct {
	sessions sync.Map
	registry *rooms.Registry
	logger   *slog.Logger
}

func NewManager(registry *rooms.Registry, logger *slog.Logger) *Manager {
	return &Manager{
		registry: registry,
		logger:   logger,
	}
}

func (m *Manager) CreateSession(
	ctx context.Context,
	entrypointName string,
	clientID string,
	conn core.Connection,
) (*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sess := &core.Session{
		ID:             uuid.New().String(),
		ClientID:       clientID,
		EntrypointName: entrypointName,
		Conn:           conn,
		CreatedAt:      time.Now().UTC(),
	}

	m.registry.Register(conn)
	m.sessions.Store(sess.ID, sess)

	m.logger.Info("session created",
		"session_id", sess.ID,
		"conn_id", conn.ID(),
		"client_id", clientID,
		"entrypoint", entrypointName,
	)

	return sess, nil
}

func (m *Manager) DestroySession(sessionID string) error {
	val, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return fmt.Errorf("%w: id=%s", core.ErrSessionNotFound, sessionID)
	}

	sess := val.(*core.Session)
	m.registry.Disconnect(sess.Conn.ID())

	if err := sess.Conn.Close(); err != nil {
		m.logger.Debug("connection close error", "session_id", sessionID, "error", err)
	}

	m.logger.Info("session destroyed",
		"session_id", sessionID,
		"client_id", sess.ClientID,
		"duration", time.Since(sess.CreatedAt).String(),
	)

	return nil
}

func (m *Manager) DestroyAll() {
	m.sessions.Range(func(key, _ any) bool {
		_ = m.DestroySession(key.(string))
		return true
	})
}

func (m *Manager) ActiveCount() int {
	count := 0
	m.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
