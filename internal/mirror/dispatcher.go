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

// Package mirror forwards committed board events to external brokers.
//
// Delivery is best effort: there is no retry, ordering across sinks or
// durability. A full queue drops the event. Local delivery to connected
// clients never waits on the mirror.
package mirror

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

const (
	DefaultBuffer         = 256
	DefaultPublishTimeout = 5 * time.Second
)

// SinkSource yields the sinks an event should be published to.
type SinkSource interface {
	HealthySinks() []core.EventSink
}

type Dispatcher struct {
	sinks   SinkSource
	queue   chan core.DomainEvent
	timeout time.Duration
	logger  *slog.Logger
	dropped atomic.Int64
}

func NewDispatcher(sinks SinkSource, buffer int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan core.DomainEvent, buffer),
		timeout: timeout,
		logger:  logger,
	}
}

// Observe enqueues evt without blocking.
func (d *Dispatcher) Observe(evt core.DomainEvent) {
	if evt.Transient {
		return
	}
	select {
	case d.queue <- evt:
	default:
		d.dropped.Add(1)
		d.logger.Warn("mirror queue full, dropping event", "event", evt.Name, "event_id", evt.ID)
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Run publishes queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("mirror stopped", "pending", len(d.queue))
			return nil
		case evt := <-d.queue:
			d.publish(ctx, evt)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, evt core.DomainEvent) {
	for _, sink := range d.sinks.HealthySinks() {
		pubCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := sink.Publish(pubCtx, evt)
		cancel()
		if err != nil {
			d.logger.Warn("mirror publish failed", "sink", sink.Name(), "event", evt.Name, "error", err)
		}
	}
}
