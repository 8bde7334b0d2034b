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

// Package fanout delivers domain events to the connections selected by
// their scope.
package fanout

import (
	"log/slog"

	"github.com/wso2/api-platform/gateway/community-board/internal/rooms"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

// Observer sees every durable event after connection delivery. Observers
// must not block.
type Observer interface {
	Observe(evt core.DomainEvent)
}

type ObserverFunc func(evt core.DomainEvent)

func (f ObserverFunc) Observe(evt core.DomainEvent) { f(evt) }

type Engine struct {
	registry  *rooms.Registry
	observers []Observer
	logger    *slog.Logger
}

func NewEngine(registry *rooms.Registry, logger *slog.Logger, observers ...Observer) *Engine {
	return &Engine{
		registry:  registry,
		observers: observers,
		logger:    logger,
	}
}

// Emit encodes evt once and sends it to each recipient. Recipients are
// snapshotted before sending so no registry lock is held during I/O. A
// failed send affects only that connection.
func (e *Engine) Emit(evt core.DomainEvent) {
	frame, err := evt.EncodeFrame()
	if err != nil {
		e.logger.Error("encode frame failed", "event", evt.Name, "error", err)
		return
	}

	var recipients []core.Connection
	switch evt.Scope.Kind {
	case core.ScopeRoom:
		recipients = e.registry.Members(evt.Scope.Room)
	default:
		recipients = e.registry.Connections()
	}

	delivered := 0
	for _, conn := range recipients {
		if evt.Scope.Kind == core.ScopeRoom && conn.ID() == evt.Scope.Exclude {
			continue
		}
		if err := conn.Send(frame); err != nil {
			e.logger.Debug("send dropped", "conn_id", conn.ID(), "event", evt.Name, "error", err)
			continue
		}
		delivered++
	}

	e.logger.Debug("event delivered",
		"event", evt.Name,
		"scope", evt.Scope.Kind.String(),
		"room", evt.Scope.Room,
		"recipients", delivered,
	)

	if evt.Transient {
		return
	}
	for _, o := range e.observers {
		o.Observe(evt)
	}
}

// EmitGlobal builds and emits an event for every connection.
func (e *Engine) EmitGlobal(name string, payload any) error {
	evt, err := core.NewEvent(name, payload, core.GlobalScope())
	if err != nil {
		return err
	}
	e.Emit(evt)
	return nil
}

// EmitToRoom builds and emits an event for the members of room, skipping
// exclude when it is not empty.
func (e *Engine) EmitToRoom(room, name string, payload any, exclude string) error {
	evt, err := core.NewEvent(name, payload, core.RoomScope(room).Excluding(exclude))
	if err != nil {
		return err
	}
	e.Emit(evt)
	return nil
}
