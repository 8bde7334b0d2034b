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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/api-platform/gateway/community-board/pkg/offline"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "boardclient", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"proxy"}, {"routes"}, {"cache"}, {"cache", "list"}, {"cache", "sweep"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	build := cmd.PersistentFlags().Lookup("build")
	require.NotNil(t, build)
	assert.Equal(t, offline.DefaultBuildID, build.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	proxy, _, err := cmd.Find([]string{"proxy"})
	require.NoError(t, err)
	assert.NotNil(t, proxy.Flags().Lookup("upstream"))
	assert.Equal(t, "127.0.0.1:8080", proxy.Flags().Lookup("listen").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "xml", "--cache-dir", t.TempDir(), "cache", "list"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func seedCache(t *testing.T, dir string) {
	t.Helper()
	storage, err := offline.OpenBadger(dir)
	require.NoError(t, err)
	defer storage.Close()

	ctx := context.Background()
	e := offline.Entry{StatusCode: http.StatusOK, Body: []byte("x")}
	require.NoError(t, storage.PutAll(ctx, "v1", map[string]offline.Entry{"GET http://board.test/": e}))
	require.NoError(t, storage.PutAll(ctx, "v2", map[string]offline.Entry{
		"GET http://board.test/":           e,
		"GET http://board.test/index.html": e,
	}))
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestCacheListAndSweep(t *testing.T) {
	dir := t.TempDir()
	seedCache(t, dir)

	var listing []GenerationListing
	require.NoError(t, json.Unmarshal([]byte(run(t, "--cache-dir", dir, "--build", "v2", "--format", "json", "cache", "list")), &listing))
	require.Len(t, listing, 2)
	assert.Equal(t, "v1", listing[0].Name)
	assert.False(t, listing[0].Current)
	assert.True(t, listing[1].Current)
	assert.Len(t, listing[1].Keys, 2)

	var result SweepResult
	require.NoError(t, json.Unmarshal([]byte(run(t, "--cache-dir", dir, "--build", "v2", "--format", "json", "cache", "sweep")), &result))
	assert.Equal(t, "v2", result.Kept)
	assert.Equal(t, []string{"v1"}, result.Removed)

	text := run(t, "--cache-dir", dir, "--build", "v2", "cache", "list")
	assert.Contains(t, text, "v2 (current): 2 entries")
	assert.NotContains(t, text, "v1")
	assert.Contains(t, text, "GET http://board.test/index.html")
}

func TestSweepKeepsCurrentWhenNamesSharePrefix(t *testing.T) {
	dir := t.TempDir()
	storage, err := offline.OpenBadger(dir)
	require.NoError(t, err)
	e := offline.Entry{StatusCode: http.StatusOK, Body: []byte("x")}
	for _, g := range []string{"v2", "v2-current"} {
		require.NoError(t, storage.Put(context.Background(), g, "GET http://board.test/", e))
	}
	require.NoError(t, storage.Close())

	run(t, "--cache-dir", dir, "--build", "v2-current", "cache", "sweep")

	var listing []GenerationListing
	require.NoError(t, json.Unmarshal([]byte(run(t, "--cache-dir", dir, "--build", "v2-current", "--format", "json", "cache", "list")), &listing))
	require.Len(t, listing, 1)
	assert.Equal(t, "v2-current", listing[0].Name)
	assert.True(t, listing[0].Current)
	assert.Len(t, listing[0].Keys, 1)
}

func TestRoutes(t *testing.T) {
	var routes []RouteListing
	out := run(t, "--format", "json", "routes", "--api-prefix", "/v1", "--rule", "/socket.io=stale-while-revalidate", "--rule", "/feed=network-first")
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	assert.Equal(t, []RouteListing{
		{Prefix: "/events", Strategy: "pass-through"},
		{Prefix: "/feed", Strategy: "network-first"},
		{Prefix: "/socket.io", Strategy: "stale-while-revalidate"},
		{Prefix: "/v1", Strategy: "network-first"},
		{Prefix: "/ws", Strategy: "pass-through"},
	}, routes)

	text := run(t, "routes")
	assert.Contains(t, text, "/api")
	assert.Contains(t, text, "network-first")
}

func TestRoutesRejectsBadRule(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"routes", "--rule", "/feed=cache-only"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, cmd.Execute(), "unknown strategy")
}
