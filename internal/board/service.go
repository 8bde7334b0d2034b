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

// Package board is the write path of the community board. Every mutation is
// committed to the store first; only then is the matching realtime event
// emitted, so a client that receives an event can always refetch the row.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

const (
	DefaultTag               = "General"
	DefaultAuthorName        = "Anonymous"
	DefaultAuthorRole        = "Student"
	DefaultComplaintCategory = "General"

	maxAuthorNameLength = 80
)

type Service struct {
	store     core.Store
	emitter   core.Emitter
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(store core.Store, emitter core.Emitter, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		emitter:   emitter,
		validator: newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// SanitizeName escapes angle brackets and truncates to 80 characters.
func SanitizeName(name string) string {
	name = strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(name)
	if r := []rune(name); len(r) > maxAuthorNameLength {
		name = string(r[:maxAuthorNameLength])
	}
	return name
}

// NewRefID returns the public complaint reference for t, C- followed by the
// upper-case base-36 unix milliseconds.
func NewRefID(t time.Time) string {
	return "C-" + strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (s *Service) notify(name string, payload any, scope core.Scope) {
	evt, err := core.NewEvent(name, payload, scope)
	if err != nil {
		s.logger.Error("event not emitted", "event", name, "error", err)
		return
	}
	s.emitter.Emit(evt)
}

func (s *Service) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Notices

func (s *Service) ListNotices(ctx context.Context, f core.NoticeFilter) (core.NoticePage, error) {
	return s.store.ListNotices(ctx, f)
}

func (s *Service) GetNotice(ctx context.Context, id string) (core.Notice, error) {
	return s.store.GetNotice(ctx, id)
}

func (s *Service) CreateNotice(ctx context.Context, in core.NoticeInput) (core.Notice, error) {
	if err := s.validate(in); err != nil {
		return core.Notice{}, err
	}
	n, err := s.store.CreateNotice(ctx, in)
	if err != nil {
		return core.Notice{}, err
	}
	s.notify(core.EventNoticeNew, n, core.GlobalScope())
	return n, nil
}

func (s *Service) UpdateNotice(ctx context.Context, id string, p core.NoticePatch) (core.Notice, error) {
	if err := s.validate(p); err != nil {
		return core.Notice{}, err
	}
	n, err := s.store.UpdateNotice(ctx, id, p)
	if err != nil {
		return core.Notice{}, err
	}
	s.notify(core.EventNoticeUpdated, n, core.GlobalScope())
	return n, nil
}

func (s *Service) DeleteNotice(ctx context.Context, id string) error {
	if err := s.store.DeleteNotice(ctx, id); err != nil {
		return err
	}
	s.notify(core.EventNoticeDeleted, core.DeletedRef{ID: id}, core.GlobalScope())
	return nil
}

// Calendar

func (s *Service) ListCalendarEvents(ctx context.Context, f core.CalendarFilter) ([]core.CalendarEvent, error) {
	if err := s.validate(f); err != nil {
		return nil, err
	}
	return s.store.ListCalendarEvents(ctx, f)
}

func (s *Service) CreateCalendarEvent(ctx context.Context, in core.CalendarEventInput) (core.CalendarEvent, error) {
	if err := s.validate(in); err != nil {
		return core.CalendarEvent{}, err
	}
	if in.Description != nil && *in.Description == "" {
		in.Description = nil
	}
	e, err := s.store.CreateCalendarEvent(ctx, in)
	if err != nil {
		return core.CalendarEvent{}, err
	}
	s.notify(core.EventCalendarNew, e, core.GlobalScope())
	return e, nil
}

func (s *Service) UpdateCalendarEvent(ctx context.Context, id string, p core.CalendarEventPatch) (core.CalendarEvent, error) {
	if err := s.validate(p); err != nil {
		return core.CalendarEvent{}, err
	}
	e, err := s.store.UpdateCalendarEvent(ctx, id, p)
	if err != nil {
		return core.CalendarEvent{}, err
	}
	s.notify(core.EventCalendarUpdated, e, core.GlobalScope())
	return e, nil
}

func (s *Service) DeleteCalendarEvent(ctx context.Context, id string) error {
	if err := s.store.DeleteCalendarEvent(ctx, id); err != nil {
		return err
	}
	s.notify(core.EventCalendarDeleted, core.DeletedRef{ID: id}, core.GlobalScope())
	return nil
}

// Forums

func (s *Service) ListPosts(ctx context.Context, f core.PostFilter) ([]core.ForumPost, error) {
	return s.store.ListPosts(ctx, f)
}

func (s *Service) GetPost(ctx context.Context, id string) (core.ForumPost, error) {
	return s.store.GetPost(ctx, id)
}

func (s *Service) CreatePost(ctx context.Context, in core.PostInput) (core.ForumPost, error) {
	if err := s.validate(in); err != nil {
		return core.ForumPost{}, err
	}
	in.Tag = orDefault(in.Tag, DefaultTag)
	in.AuthorName = orDefault(SanitizeName(in.AuthorName), DefaultAuthorName)
	in.AuthorRole = orDefault(in.AuthorRole, DefaultAuthorRole)

	p, err := s.store.CreatePost(ctx, in)
	if err != nil {
		return core.ForumPost{}, err
	}
	p.ReplyCount = 0
	s.notify(core.EventForumNew, p, core.GlobalScope())
	return p, nil
}

func (s *Service) DeletePost(ctx context.Context, id string) error {
	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}
	s.notify(core.EventForumDeleted, core.DeletedRef{ID: id}, core.GlobalScope())
	return nil
}

func (s *Service) ListReplies(ctx context.Context, postID string) ([]core.Reply, error) {
	return s.store.ListReplies(ctx, postID)
}

// CreateReply pushes the reply to the thread room, its author included, and
// tells every client that the post's reply count changed.
func (s *Service) CreateReply(ctx context.Context, postID string, in core.ReplyInput) (core.Reply, error) {
	if err := s.validate(in); err != nil {
		return core.Reply{}, err
	}
	in.AuthorName = orDefault(SanitizeName(in.AuthorName), DefaultAuthorName)
	in.AuthorRole = orDefault(in.AuthorRole, DefaultAuthorRole)

	r, err := s.store.CreateReply(ctx, postID, in)
	if err != nil {
		return core.Reply{}, err
	}
	s.notify(core.EventReplyNew, r, core.RoomScope(core.ThreadRoom(postID)))
	s.notify(core.EventReplyCount, core.ReplyCountChanged{PostID: postID}, core.GlobalScope())
	return r, nil
}

// DeleteReply emits nothing; open threads keep showing the reply until
// refetched.
func (s *Service) DeleteReply(ctx context.Context, postID, id string) error {
	return s.store.DeleteReply(ctx, postID, id)
}

// Complaints

// SubmitComplaint stores an anonymous complaint. Admins are sent only the
// receipt, never the content.
func (s *Service) SubmitComplaint(ctx context.Context, in core.ComplaintInput) (core.ComplaintReceipt, error) {
	if err := s.validate(in); err != nil {
		return core.ComplaintReceipt{}, err
	}
	in.RefID = NewRefID(s.now())
	in.Category = orDefault(in.Category, DefaultComplaintCategory)

	receipt, err := s.store.CreateComplaint(ctx, in)
	if err != nil {
		return core.ComplaintReceipt{}, fmt.Errorf("submit complaint: %w", err)
	}
	s.notify(core.EventComplaintNew, receipt, core.RoomScope(core.AdminRoom))
	return receipt, nil
}

func (s *Service) GetComplaint(ctx context.Context, refID string) (core.ComplaintStatus, error) {
	return s.store.GetComplaint(ctx, strings.ToUpper(refID))
}

func (s *Service) ListComplaints(ctx context.Context, status string) ([]core.ComplaintSummary, error) {
	return s.store.ListComplaints(ctx, status)
}

func (s *Service) UpdateComplaint(ctx context.Context, refID string, p core.ComplaintPatch) (core.ComplaintUpdate, error) {
	if err := s.validate(p); err != nil {
		return core.ComplaintUpdate{}, err
	}
	u, err := s.store.UpdateComplaint(ctx, strings.ToUpper(refID), p)
	if err != nil {
		return core.ComplaintUpdate{}, err
	}
	s.notify(core.EventComplaintUpdated, u, core.GlobalScope())
	return u, nil
}
