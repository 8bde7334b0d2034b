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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "/etc/community-board/config.yaml"

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite3"
	StorePostgres = "postgres"
)

type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Store    StoreConfig    `yaml:"store"`
	Admin    AdminConfig    `yaml:"admin"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	Sinks    []SinkConfig   `yaml:"sinks"`
	Offline  OfflineConfig  `yaml:"offline"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type RealtimeConfig struct {
	WSPath     string `yaml:"ws_path"`
	SSEPath    string `yaml:"sse_path"`
	SendBuffer int    `yaml:"send_buffer"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type AdminConfig struct {
	Key string `yaml:"key"`
}

type MirrorConfig struct {
	Buffer  int           `yaml:"buffer"`
	Timeout time.Duration `yaml:"timeout"`
}

type SinkConfig struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

type OfflineConfig struct {
	APIPrefix        string   `yaml:"api_prefix"`
	RealtimePrefixes []string `yaml:"realtime_prefixes"`
	BuildID          string   `yaml:"build_id"`
}

// Overrides are read from the process environment and win over the file.
type Overrides struct {
	Port        *int    `env:"PORT"`
	DatabaseURL *string `env:"DATABASE_URL"`
	StoreDriver *string `env:"STORE_DRIVER"`
	AdminKey    *string `env:"ADMIN_KEY"`
	LogLevel    *string `env:"LOG_LEVEL"`
	StaticDir   *string `env:"STATIC_DIR"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:      3001,
			StaticDir: "public",
		},
		Realtime: RealtimeConfig{
			WSPath:     "/ws",
			SSEPath:    "/events",
			SendBuffer: 64,
		},
		Store: StoreConfig{Driver: StoreMemory},
		Mirror: MirrorConfig{
			Buffer:  256,
			Timeout: 5 * time.Second,
		},
		Offline: OfflineConfig{
			APIPrefix:        "/api",
			RealtimePrefixes: []string{"/ws", "/events", "/socket.io"},
			BuildID:          "uomconnect-v1",
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	var o Overrides
	if _, err := env.UnmarshalFromEnviron(&o); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	cfg.Apply(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Apply(o Overrides) {
	if o.Port != nil {
		c.Server.Port = *o.Port
	}
	if o.StaticDir != nil {
		c.Server.StaticDir = *o.StaticDir
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.AdminKey != nil {
		c.Admin.Key = *o.AdminKey
	}
	if o.DatabaseURL != nil {
		c.Store.DSN = *o.DatabaseURL
		if o.StoreDriver == nil && c.Store.Driver == StoreMemory {
			c.Store.Driver = StorePostgres
		}
	}
	if o.StoreDriver != nil {
		c.Store.Driver = *o.StoreDriver
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Driver) {
	case StoreMemory:
	case StoreSQLite, "sqlite", StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %s requires a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Realtime.WSPath == c.Realtime.SSEPath {
		return fmt.Errorf("ws_path and sse_path must differ")
	}
	seen := make(map[string]struct{}, len(c.Sinks))
	for _, s := range c.Sinks {
		if s.Name == "" || s.Type == "" {
			return fmt.Errorf("sink entries need a name and a type")
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate sink name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
