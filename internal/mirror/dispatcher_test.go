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

package mirror

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

type recordingSink struct {
	name string
	err  error
	mu   sync.Mutex
	got  []string
}

func (s *recordingSink) Name() string                     { return s.name }
func (s *recordingSink) Type() string                     { return "recording" }
func (s *recordingSink) Connect(context.Context) error    { return nil }
func (s *recordingSink) Disconnect(context.Context) error { return nil }

func (s *recordingSink) Publish(_ context.Context, evt core.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, evt.Name)
	return s.err
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.got...)
}

type staticSinks []core.EventSink

func (s staticSinks) HealthySinks() []core.EventSink { return s }

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func mustEvent(t *testing.T, name string) core.DomainEvent {
	t.Helper()
	evt, err := core.NewEvent(name, core.DeletedRef{ID: "x"}, core.GlobalScope())
	require.NoError(t, err)
	return evt
}

func TestDispatcher_PublishesToEverySink(t *testing.T) {
	req := require.New(t)
	failing := &recordingSink{name: "failing", err: errors.New("broker down")}
	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(staticSinks{failing, ok}, 4, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Observe(mustEvent(t, core.EventNoticeNew))
	d.Observe(mustEvent(t, core.EventNoticeDeleted))

	req.Eventually(func() bool { return len(ok.names()) == 2 }, time.Second, 5*time.Millisecond)
	req.Equal([]string{core.EventNoticeNew, core.EventNoticeDeleted}, ok.names())
	req.Len(failing.names(), 2)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(staticSinks{}, 1, time.Second, discardLogger())

	d.Observe(mustEvent(t, core.EventNoticeNew))
	d.Observe(mustEvent(t, core.EventNoticeNew))

	req.EqualValues(1, d.Dropped())
}

func TestDispatcher_SkipsTransient(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(staticSinks{}, 1, time.Second, discardLogger())

	evt := mustEvent(t, core.EventTyping)
	evt.Transient = true
	d.Observe(evt)
	d.Observe(mustEvent(t, core.EventNoticeNew))

	req.Zero(d.Dropped())
}
