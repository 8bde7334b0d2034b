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

package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
server:
  port: 8080
realtime:
  ws_path: /socket
  send_buffer: 16
store:
  driver: sqlite3
  dsn: /tmp/board.db
admin:
  key: s3cret
sinks:
  - name: audit
    type: kafka
    config:
      brokers: "localhost:9092"
      topic: board.events
mirror:
  timeout: 2s
`
	path := writeConfig(t, t.TempDir(), content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Realtime.WSPath != "/socket" {
		t.Fatalf("expected /socket, got %s", cfg.Realtime.WSPath)
	}
	if cfg.Realtime.SSEPath != "/events" {
		t.Fatalf("expected default sse path, got %s", cfg.Realtime.SSEPath)
	}
	if cfg.Store.Driver != StoreSQLite {
		t.Fatalf("expected sqlite3, got %s", cfg.Store.Driver)
	}
	if len(cfg.Sinks) != 1 || cfg.Sinks[0].Config["topic"] != "board.events" {
		t.Fatalf("unexpected sinks: %+v", cfg.Sinks)
	}
	if cfg.Mirror.Timeout != 2*time.Second {
		t.Fatalf("expected 2s timeout, got %s", cfg.Mirror.Timeout)
	}
	if cfg.Mirror.Buffer != 256 {
		t.Fatalf("expected default buffer 256, got %d", cfg.Mirror.Buffer)
	}
}

func TestLoadFileNotFoundUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 3001 {
		t.Fatalf("expected default port, got %d", cfg.Server.Port)
	}
	if cfg.Store.Driver != StoreMemory {
		t.Fatalf("expected memory store, got %s", cfg.Store.Driver)
	}
	if cfg.Offline.BuildID != "uomconnect-v1" {
		t.Fatalf("unexpected build id %s", cfg.Offline.BuildID)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_KEY", "from-env")
	t.Setenv("DATABASE_URL", "postgres://board@localhost/board")

	path := writeConfig(t, t.TempDir(), "admin:\n  key: from-file\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Admin.Key != "from-env" {
		t.Fatalf("expected env admin key, got %s", cfg.Admin.Key)
	}
	if cfg.Store.Driver != StorePostgres {
		t.Fatalf("expected DATABASE_URL to select postgres, got %s", cfg.Store.Driver)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: [1, 2"},
		{"unknown driver", "store:\n  driver: oracle\n"},
		{"sqlite without dsn", "store:\n  driver: sqlite3\n"},
		{"same realtime paths", "realtime:\n  ws_path: /rt\n  sse_path: /rt\n"},
		{"duplicate sink", "sinks:\n  - {name: a, type: kafka}\n  - {name: a, type: redis}\n"},
	}
	for _, tt := range tests {
		path := writeConfig(t, t.TempDir(), tt.content)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestWatcherReloadsAdminKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := writeConfig(t, t.TempDir(), "admin:\n  key: first\n")

	secret := core.NewSecret("first")
	w := NewWatcher(path, secret, logger)

	if w.Check() {
		t.Fatal("expected no reload for an unchanged file")
	}

	if err := os.WriteFile(path, []byte("admin:\n  key: second\n"), 0644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if !w.Check() {
		t.Fatal("expected the admin key to be reloaded")
	}
	if secret.Get() != "second" {
		t.Fatalf("expected second, got %s", secret.Get())
	}
	if !secret.Matches("second") || secret.Matches("first") {
		t.Fatal("secret should match only the reloaded key")
	}
}
