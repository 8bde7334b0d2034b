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

package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Entry is one stored response. Body holds the fully read payload so that
// every caller gets an independent reader.
type Entry struct {
	StatusCode int         `json:"status"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   time.Time   `json:"stored_at"`
}

func newEntry(resp *http.Response, body []byte) Entry {
	return Entry{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		StoredAt:   time.Now().UTC(),
	}
}

// Response builds a fresh *http.Response for req from the entry.
func (e Entry) Response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode)),
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// Storage holds named cache generations, each a set of entries keyed by
// request identity.
type Storage interface {
	Get(ctx context.Context, generation, key string) (Entry, bool, error)
	Put(ctx context.Context, generation, key string, e Entry) error
	// PutAll stores every entry or none of them.
	PutAll(ctx context.Context, generation string, entries map[string]Entry) error
	Keys(ctx context.Context, generation string) ([]string, error)
	Generations(ctx context.Context) ([]string, error)
	DeleteGeneration(ctx context.Context, generation string) error
	Close() error
}

type MemoryStorage struct {
	mu   sync.RWMutex
	gens map[string]map[string]Entry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{gens: make(map[string]map[string]Entry)}
}

func (m *MemoryStorage) Get(_ context.Context, generation, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.gens[generation][key]
	return e, ok, nil
}

func (m *MemoryStorage) Put(_ context.Context, generation, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation(generation)[key] = e
	return nil
}

func (m *MemoryStorage) PutAll(_ context.Context, generation string, entries map[string]Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.generation(generation)
	for k, e := range entries {
		g[k] = e
	}
	return nil
}

func (m *MemoryStorage) Keys(_ context.Context, generation string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := lo.Keys(m.gens[generation])
	slices.Sort(keys)
	return keys, nil
}

func (m *MemoryStorage) Generations(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := lo.Keys(m.gens)
	slices.Sort(names)
	return names, nil
}

func (m *MemoryStorage) DeleteGeneration(_ context.Context, generation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gens, generation)
	return nil
}

func (m *MemoryStorage) Close() error { return nil }

// generation must be called with mu held.
func (m *MemoryStorage) generation(name string) map[string]Entry {
	g, ok := m.gens[name]
	if !ok {
		g = make(map[string]Entry)
		m.gens[name] = g
	}
	return g
}

var _ Storage = (*MemoryStorage)(nil)
