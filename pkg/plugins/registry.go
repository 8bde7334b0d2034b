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
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

// Registry holds the realtime entrypoints mounted on the HTTP server and the
// broker sinks fed by the event mirror.
type Registry struct {
	entrypoints map[string]core.Entrypoint
	sinks       map[string]core.EventSink
	healthy     map[string]bool
	logger      *slog.Logger
	mu          sync.RWMutex
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		entrypoints: make(map[string]core.Entrypoint),
		sinks:       make(map[string]core.EventSink),
		healthy:     make(map[string]bool),
		logger:      logger,
	}
}

func (r *Registry) RegisterEntrypoint(e core.Entrypoint) {
	r.mu.Lock()
	r.entrypoints[e.Name()] = e
	r.mu.Unlock()
	r.logger.Info("registered entrypoint", "name", e.Name(), "type", e.Type(), "path", e.Path())
}

func (r *Registry) RegisterSink(s core.EventSink) {
	r.mu.Lock()
	r.sinks[s.Name()] = s
	r.mu.Unlock()
	r.logger.Info("registered sink", "name", s.Name(), "type", s.Type())
}

func (r *Registry) Entrypoints() map[string]core.Entrypoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]core.Entrypoint, len(r.entrypoints))
	for k, v := range r.entrypoints {
		cp[k] = v
	}
	return cp
}

func (r *Registry) Sinks() map[string]core.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]core.EventSink, len(r.sinks))
	for k, v := range r.sinks {
		cp[k] = v
	}
	return cp
}

// Mount registers every entrypoint on mux at its path. Two entrypoints on
// the same path is a configuration error.
func (r *Registry) Mount(mux *http.ServeMux) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]string, len(r.entrypoints))
	for name, ep := range r.entrypoints {
		if other, dup := seen[ep.Path()]; dup {
			return fmt.Errorf("entrypoints %s and %s share path %s", other, name, ep.Path())
		}
		seen[ep.Path()] = name
		mux.Handle("GET "+ep.Path(), ep)
	}
	return nil
}

// ConnectSinks connects every sink and records its health. A sink that
// fails to connect is skipped by the mirror; the board keeps running.
func (r *Registry) ConnectSinks(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	connected := 0
	for name, s := range r.sinks {
		if err := s.Connect(ctx); err != nil {
			r.logger.Error("sink connect failed", "name", name, "error", err)
			r.healthy[name] = false
		} else {
			r.healthy[name] = true
			connected++
		}
	}
	return connected
}

func (r *Registry) IsSinkHealthy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.healthy[name]
}

// HealthySinks returns the sinks that connected successfully.
func (r *Registry) HealthySinks() []core.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.EventSink, 0, len(r.sinks))
	for name, s := range r.sinks {
		if r.healthy[name] {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) StopAll(ctx context.Context) {
	for name, ep := range r.Entrypoints() {
		r.logger.Info("stopping entrypoint", "name", name)
		if err := ep.Stop(ctx); err != nil {
			r.logger.Warn("entrypoint stop error", "name", name, "error", err)
		}
	}
	for name, s := range r.Sinks() {
		if !r.IsSinkHealthy(name) {
			continue
		}
		r.logger.Info("stopping sink", "name", name)
		if err := s.Disconnect(ctx); err != nil {
			r.logger.Warn("sink disconnect error", "name", name, "error", err)
		}
	}
}
