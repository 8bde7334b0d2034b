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

package plugins

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

type stubEntrypoint struct {
	name, path string
	stopped    bool
}

func (s *stubEntrypoint) Name() string { return s.name }
func (s *stubEntrypoint) Type() string { return "stub" }
func (s *stubEntrypoint) Path() string { return s.path }
func (s *stubEntrypoint) Stop(context.Context) error {
	s.stopped = true
	return nil
}
func (s *stubEntrypoint) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

type stubSink struct {
	name         string
	connectErr   error
	disconnected bool
}

func (s *stubSink) Name() string                  { return s.name }
func (s *stubSink) Type() string                  { return "stub" }
func (s *stubSink) Connect(context.Context) error { return s.connectErr }
func (s *stubSink) Disconnect(context.Context) error {
	s.disconnected = true
	return nil
}
func (s *stubSink) Publish(context.Context, core.DomainEvent) error { return nil }

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistry_MountRoutesByPath(t *testing.T) {
	r := newTestRegistry()
	r.RegisterEntrypoint(&stubEntrypoint{name: "a", path: "/ws"})

	mux := http.NewServeMux()
	require.NoError(t, r.Mount(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRegistry_MountRejectsSharedPath(t *testing.T) {
	r := newTestRegistry()
	r.RegisterEntrypoint(&stubEntrypoint{name: "a", path: "/ws"})
	r.RegisterEntrypoint(&stubEntrypoint{name: "b", path: "/ws"})

	assert.Error(t, r.Mount(http.NewServeMux()))
}

func TestRegistry_SinkHealth(t *testing.T) {
	r := newTestRegistry()
	good := &stubSink{name: "good"}
	bad := &stubSink{name: "bad", connectErr: errors.New("refused")}
	r.RegisterSink(good)
	r.RegisterSink(bad)

	assert.Equal(t, 1, r.ConnectSinks(context.Background()))
	assert.True(t, r.IsSinkHealthy("good"))
	assert.False(t, r.IsSinkHealthy("bad"))
	require.Len(t, r.HealthySinks(), 1)

	ep := &stubEntrypoint{name: "a", path: "/ws"}
	r.RegisterEntrypoint(ep)
	r.StopAll(context.Background())
	assert.True(t, ep.stopped)
	assert.True(t, good.disconnected)
	assert.False(t, bad.disconnected)
}
