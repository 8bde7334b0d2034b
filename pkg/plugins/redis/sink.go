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

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

// Sink publishes mirrored events on a Redis pub/sub channel.
type Sink struct {
	name    string
	opts    *redis.Options
	channel string
	client  *redis.Client
	logger  *slog.Logger
}

func New(name string, opts *redis.Options, channel string, logger *slog.Logger) *Sink {
	return &Sink{
		name:    name,
		opts:    opts,
		channel: channel,
		logger:  logger,
	}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Type() string { return "redis" }

func (s *Sink) Connect(ctx context.Context) error {
	client := redis.NewClient(s.opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("redis connection failed: %w", err)
	}
	s.client = client
	s.logger.Info("redis sink connected", "name", s.name, "addr", s.opts.Addr, "channel", s.channel)
	return nil
}

func (s *Sink) Disconnect(ctx context.Context) error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Sink) Publish(ctx context.Context, evt core.DomainEvent) error {
	if s.client == nil {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return s.client.Publish(ctx, s.channel, data).Err()
}
