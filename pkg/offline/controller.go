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
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/wso2/api-platform/gateway/community-board/internal/routing"
)

const DefaultBuildID = "uomconnect-v1"

// FallbackHeader marks the synthetic offline response. API handlers never
// set it.
const FallbackHeader = "X-Offline-Fallback"

var DefaultManifest = []string{"/", "/index.html", "/manifest.json", "/icons/icon-192.svg", "/icons/icon-512.svg"}

var offlineBody = []byte(`{"error":"offline"}`)

// Options configures a Controller. BuildID names the current cache
// generation and Origin is the base URL manifest paths resolve against.
type Options struct {
	BuildID   string
	Manifest  []string
	Origin    *url.URL
	Transport http.RoundTripper
	Routes    *routing.Table
}

// Controller is a caching http.RoundTripper for a browsing client. Until
// OnActivate has run every request goes straight to the network.
type Controller struct {
	buildID   string
	manifest  []string
	origin    *url.URL
	next      http.RoundTripper
	routes    *routing.Table
	storage   Storage
	logger    *slog.Logger
	installed atomic.Bool
	active    atomic.Bool
	wg        sync.WaitGroup
}

func NewController(storage Storage, opts Options, logger *slog.Logger) *Controller {
	c := &Controller{
		buildID:  lo.Ternary(opts.BuildID == "", DefaultBuildID, opts.BuildID),
		manifest: opts.Manifest,
		origin:   opts.Origin,
		next:     opts.Transport,
		routes:   opts.Routes,
		storage:  storage,
	}
	c.logger = logger.With("component", "offline", "build", c.buildID)
	if c.manifest == nil {
		c.manifest = DefaultManifest
	}
	if c.next == nil {
		c.next = http.DefaultTransport
	}
	if c.routes == nil {
		c.routes = routing.NewDefaultTable("/api", "/ws", "/events", "/socket.io")
	}
	return c
}

func (c *Controller) BuildID() string { return c.buildID }

// OnInstall fetches the manifest into the current generation. Any failed
// fetch or non-2xx status stores nothing.
func (c *Controller) OnInstall(ctx context.Context) error {
	if c.origin == nil {
		return fmt.Errorf("install: no origin configured")
	}
	entries := make(map[string]Entry, len(c.manifest))
	for _, p := range c.manifest {
		ref, err := url.Parse(p)
		if err != nil {
			return fmt.Errorf("install: manifest path %q: %w", p, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin.ResolveReference(ref).String(), nil)
		if err != nil {
			return fmt.Errorf("install: %w", err)
		}
		resp, err := c.next.RoundTrip(req)
		if err != nil {
			return fmt.Errorf("install: fetch %s: %w", p, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("install: read %s: %w", p, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("install: fetch %s: status %d", p, resp.StatusCode)
		}
		entries[CacheKey(req)] = newEntry(resp, body)
	}
	if err := c.storage.PutAll(ctx, c.buildID, entries); err != nil {
		return fmt.Errorf("install: store manifest: %w", err)
	}
	c.installed.Store(true)
	c.logger.Info("cache installed", "entries", len(entries))
	return nil
}

// OnActivate sweeps every generation except the current one and then
// starts intercepting.
func (c *Controller) OnActivate(ctx context.Context) error {
	gens, err := c.storage.Generations(ctx)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	stale := lo.Reject(gens, func(g string, _ int) bool { return g == c.buildID })
	for _, g := range stale {
		if err := c.storage.DeleteGeneration(ctx, g); err != nil {
			return fmt.Errorf("activate: %w", err)
		}
	}
	c.active.Store(true)
	c.logger.Info("cache activated", "swept", len(stale))
	return nil
}

func (c *Controller) Start(ctx context.Context) error {
	if err := c.OnInstall(ctx); err != nil {
		return err
	}
	return c.OnActivate(ctx)
}

func (c *Controller) Active() bool    { return c.active.Load() }
func (c *Controller) Installed() bool { return c.installed.Load() }

// Wait blocks until every background revalidation has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) RoundTrip(req *http.Request) (*http.Response, error) {
	if !c.active.Load() {
		return c.next.RoundTrip(req)
	}
	switch c.routes.Lookup(req.Method, req.URL.Path) {
	case routing.PassThrough:
		return c.next.RoundTrip(req)
	case routing.NetworkFirst:
		return c.networkFirst(req)
	default:
		return c.staleWhileRevalidate(req)
	}
}

func (c *Controller) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := c.next.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	c.logger.Debug("network unavailable, serving offline fallback", "url", req.URL.String(), "error", err)
	return offlineResponse(req), nil
}

type fetchResult struct {
	entry Entry
	err   error
}

func (c *Controller) staleWhileRevalidate(req *http.Request) (*http.Response, error) {
	key := CacheKey(req)
	cached, ok, err := c.storage.Get(req.Context(), c.buildID, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		ok = false
	}

	// The network leg outlives the caller and is never cancelled.
	bg := req.Clone(context.WithoutCancel(req.Context()))
	result := make(chan fetchResult, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		e, err := c.revalidate(bg, key)
		result <- fetchResult{entry: e, err: err}
	}()

	if ok {
		return cached.Response(req), nil
	}

	select {
	case r := <-result:
		if r.err != nil {
			return nil, r.err
		}
		return r.entry.Response(req), nil
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
}

func (c *Controller) revalidate(req *http.Request, key string) (Entry, error) {
	resp, err := c.next.RoundTrip(req)
	if err != nil {
		return Entry{}, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", key, err)
	}
	e := newEntry(resp, body)
	if resp.StatusCode == http.StatusPartialContent {
		return e, nil
	}
	if err := c.storage.Put(req.Context(), c.buildID, key, e); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return e, nil
}

// CacheKey is the request identity entries are stored under.
func CacheKey(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

// ParseCacheKey splits a key produced by CacheKey.
func ParseCacheKey(key string) (method, rawURL string) {
	method, rawURL, _ = strings.Cut(key, " ")
	return method, rawURL
}

func offlineResponse(req *http.Request) *http.Response {
	e := Entry{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"Content-Type": []string{"application/json"},
			FallbackHeader: []string{"1"},
		},
		Body: offlineBody,
	}
	return e.Response(req)
}

// IsOfflineFallback reports whether resp is the synthetic offline answer.
func IsOfflineFallback(resp *http.Response) bool {
	return resp != nil && resp.Header.Get(FallbackHeader) == "1"
}
