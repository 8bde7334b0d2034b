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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/wso2/api-platform/gateway/community-board/internal/api"
	"github.com/wso2/api-platform/gateway/community-board/internal/board"
	"github.com/wso2/api-platform/gateway/community-board/internal/fanout"
	"github.com/wso2/api-platform/gateway/community-board/internal/logging"
	"github.com/wso2/api-platform/gateway/community-board/internal/mirror"
	"github.com/wso2/api-platform/gateway/community-board/internal/presence"
	"github.com/wso2/api-platform/gateway/community-board/internal/protocol"
	"github.com/wso2/api-platform/gateway/community-board/internal/rooms"
	"github.com/wso2/api-platform/gateway/community-board/internal/session"
	"github.com/wso2/api-platform/gateway/community-board/internal/store"
	"github.com/wso2/api-platform/gateway/community-board/internal/store/memstore"
	"github.com/wso2/api-platform/gateway/community-board/pkg/config"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
	"github.com/wso2/api-platform/gateway/community-board/pkg/plugins"
	"github.com/wso2/api-platform/gateway/community-board/pkg/plugins/jms"
	"github.com/wso2/api-platform/gateway/community-board/pkg/plugins/kafka"
	"github.com/wso2/api-platform/gateway/community-board/pkg/plugins/mqtt5"
	"github.com/wso2/api-platform/gateway/community-board/pkg/plugins/rabbitmq"
	"github.com/wso2/api-platform/gateway/community-board/pkg/plugins/redis"
	"github.com/wso2/api-platform/gateway/community-board/pkg/plugins/solace"
	"github.com/wso2/api-platform/gateway/community-board/pkg/plugins/sse"
	"github.com/wso2/api-platform/gateway/community-board/pkg/plugins/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openStore(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	secret := core.NewSecret(cfg.Admin.Key)
	if cfg.Admin.Key == "" {
		logger.Warn("no admin key configured, admin routes and the admin room are closed")
	}

	registry := plugins.NewRegistry(logger)
	registerSinks(cfg, registry, logger)

	roomRegistry := rooms.NewRegistry(logger.With("component", "rooms"))
	dispatcher := mirror.NewDispatcher(registry, cfg.Mirror.Buffer, cfg.Mirror.Timeout, logger.With("component", "mirror"))
	eventLog := logging.NewEventLogger(logger.With("component", "event"))
	engine := fanout.NewEngine(roomRegistry, logger.With("component", "fanout"), eventLog, dispatcher)

	relay := presence.NewRelay(engine, logger.With("component", "presence"))
	handler := protocol.NewHandler(roomRegistry, relay, secret, logger.With("component", "protocol"))
	mgr := session.NewManager(roomRegistry, logger)

	registry.RegisterEntrypoint(ws.New("websocket", cfg.Realtime.WSPath, cfg.Realtime.SendBuffer, mgr, handler, logger))
	registry.RegisterEntrypoint(sse.New("sse", cfg.Realtime.SSEPath, cfg.Realtime.SendBuffer, mgr, roomRegistry, secret, logger))

	connected := registry.ConnectSinks(ctx)
	go func() {
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event mirror stopped", "error", err)
		}
	}()

	svc := board.NewService(db, engine, logger.With("component", "board"))

	mux := http.NewServeMux()
	if err := registry.Mount(mux); err != nil {
		logger.Error("failed to mount entrypoints", "error", err)
		os.Exit(1)
	}
	stats := func() api.Stats {
		roomCount, conns := roomRegistry.Stats()
		return api.Stats{
			Rooms:         roomCount,
			Connections:   conns,
			Sessions:      mgr.ActiveCount(),
			MirrorDropped: dispatcher.Dropped(),
		}
	}
	mux.Handle("/", api.New(svc, secret, cfg.Server.StaticDir, logger).WithStats(stats).Handler())

	watcher := config.NewWatcher(configPath, secret, logger)
	go watcher.Watch(ctx)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("community board started",
			"port", cfg.Server.Port,
			"config", configPath,
			"store", cfg.Store.Driver,
			"sinks", connected,
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down community board")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	registry.StopAll(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	cancel()

	logger.Info("community board stopped")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (core.Store, error) {
	if strings.ToLower(cfg.Driver) == config.StoreMemory {
		return memstore.New(), nil
	}
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	s, err := store.Open(openCtx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func registerSinks(cfg *config.Config, reg *plugins.Registry, logger *slog.Logger) {
	for _, s := range cfg.Sinks {
		switch s.Type {
		case "kafka":
			brokers := strings.Split(s.Config["brokers"], ",")
			reg.RegisterSink(kafka.New(s.Name, brokers, s.Config["topic"], logger))
		case "rabbitmq":
			reg.RegisterSink(rabbitmq.New(s.Name, s.Config["url"], s.Config["queue"], logger))
		case "mqtt5":
			reg.RegisterSink(mqtt5.New(s.Name, s.Config["url"], s.Config["topic"], logger))
		case "jms":
			reg.RegisterSink(jms.New(s.Name, s.Config["url"], s.Config["queue"], logger))
		case "solace":
			reg.RegisterSink(solace.New(
				s.Name,
				s.Config["host"],
				s.Config["vpn"],
				s.Config["username"],
				s.Config["password"],
				s.Config["topic"],
				logger,
			))
		case "redis":
			opts, err := redisOptions(s.Config)
			if err != nil {
				logger.Warn("invalid redis sink config", "name", s.Name, "error", err)
				continue
			}
			reg.RegisterSink(redis.New(s.Name, opts, s.Config["channel"], logger))
		default:
			logger.Warn("unknown sink type", "name", s.Name, "type", s.Type)
		}
	}
}

func redisOptions(c map[string]string) (*goredis.Options, error) {
	opts := &goredis.Options{
		Addr:     c["addr"],
		Password: c["password"],
	}
	if v := c["db"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("db %q: %w", v, err)
		}
		opts.DB = n
	}
	return opts, nil
}
