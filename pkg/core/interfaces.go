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

package core

import (
	"context"
	"net/http"
	"time"
)

// Connection is one open realtime channel to a client.
type Connection interface {
	ID() string
	Send(frame []byte) error
	Close() error
}

// Entrypoint is a realtime transport mounted on the board's HTTP server.
type Entrypoint interface {
	http.Handler
	Name() string
	Type() string
	Path() string
	Stop(ctx context.Context) error
}

// EventSink mirrors committed events to an external broker.
type EventSink interface {
	Name() string
	Type() string
	Connect(ctx context.Context) error
	Publish(ctx context.Context, evt DomainEvent) error
	Disconnect(ctx context.Context) error
}

// Emitter delivers domain events to connected clients.
type Emitter interface {
	Emit(evt DomainEvent)
}

type SessionManager interface {
	CreateSession(ctx context.Context, entrypointName string, clientID string, conn Connection) (*Session, error)
	DestroySession(sessionID string) error
}

// Session tracks one live connection from connect to disconnect.
type Session struct {
	ID             string
	ClientID       string
	EntrypointName string
	Conn           Connection
	CreatedAt      time.Time
}

// Store is the durable record storage. Write methods return only after the
// row is committed.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	ListNotices(ctx context.Context, f NoticeFilter) (NoticePage, error)
	GetNotice(ctx context.Context, id string) (Notice, error)
	CreateNotice(ctx context.Context, in NoticeInput) (Notice, error)
	UpdateNotice(ctx context.Context, id string, p NoticePatch) (Notice, error)
	DeleteNotice(ctx context.Context, id string) error

	ListCalendarEvents(ctx context.Context, f CalendarFilter) ([]CalendarEvent, error)
	CreateCalendarEvent(ctx context.Context, in CalendarEventInput) (CalendarEvent, error)
	UpdateCalendarEvent(ctx context.Context, id string, p CalendarEventPatch) (CalendarEvent, error)
	DeleteCalendarEvent(ctx context.Context, id string) error

	ListPosts(ctx context.Context, f PostFilter) ([]ForumPost, error)
	GetPost(ctx context.Context, id string) (ForumPost, error)
	CreatePost(ctx context.Context, in PostInput) (ForumPost, error)
	DeletePost(ctx context.Context, id string) error

	ListReplies(ctx context.Context, postID string) ([]Reply, error)
	CreateReply(ctx context.Context, postID string, in ReplyInput) (Reply, error)
	DeleteReply(ctx context.Context, postID, id string) error

	CreateComplaint(ctx context.Context, in ComplaintInput) (ComplaintReceipt, error)
	GetComplaint(ctx context.Context, refID string) (ComplaintStatus, error)
	ListComplaints(ctx context.Context, status string) ([]ComplaintSummary, error)
	UpdateComplaint(ctx context.Context, refID string, p ComplaintPatch) (ComplaintUpdate, error)
}
