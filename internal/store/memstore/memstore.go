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

// Package memstore is an in-memory core.Store used by tests and by the
// "memory" store driver. Data does not survive a restart.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

const previewLength = 80

type complaint struct {
	core.ComplaintStatus
	Content string
}

type Store struct {
	mu         sync.RWMutex
	notices    map[string]core.Notice
	events     map[string]core.CalendarEvent
	posts      map[string]core.ForumPost
	replies    map[string]core.Reply
	complaints map[string]*complaint
	closed     bool
	now        func() time.Time
}

func New() *Store {
	return &Store{
		notices:    make(map[string]core.Notice),
		events:     make(map[string]core.CalendarEvent),
		posts:      make(map[string]core.ForumPost),
		replies:    make(map[string]core.Reply),
		complaints: make(map[string]*complaint),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return core.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func page[T any](items []T, pageNo, limit int) []T {
	offset := core.Offset(pageNo, limit)
	_, limit = core.Normalize(pageNo, limit)
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func newestFirst(a, b time.Time) int { return b.Compare(a) }

// Notices

func (s *Store) ListNotices(_ context.Context, f core.NoticeFilter) (core.NoticePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := lo.Filter(lo.Values(s.notices), func(n core.Notice, _ int) bool {
		return f.Category == "" || n.Category == f.Category
	})
	slices.SortFunc(matched, func(a, b core.Notice) int { return newestFirst(a.CreatedAt, b.CreatedAt) })

	pageNo, limit := core.Normalize(f.Page, f.Limit)
	return core.NoticePage{Data: page(matched, pageNo, limit), Total: len(matched), Page: pageNo}, nil
}

func (s *Store) GetNotice(_ context.Context, id string) (core.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notices[id]
	if !ok {
		return core.Notice{}, notFound("notice", id)
	}
	return n, nil
}

func (s *Store) CreateNotice(_ context.Context, in core.NoticeInput) (core.Notice, error) {
	now := s.now()
	n := core.Notice{ID: uuid.New().String(), Title: in.Title, Body: in.Body, Category: in.Category, CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.notices[n.ID] = n
	s.mu.Unlock()
	return n, nil
}

func (s *Store) UpdateNotice(_ context.Context, id string, p core.NoticePatch) (core.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[id]
	if !ok {
		return core.Notice{}, notFound("notice", id)
	}
	n.Title = lo.FromPtrOr(p.Title, n.Title)
	n.Body = lo.FromPtrOr(p.Body, n.Body)
	n.Category = lo.FromPtrOr(p.Category, n.Category)
	n.UpdatedAt = s.now()
	s.notices[id] = n
	return n, nil
}

func (s *Store) DeleteNotice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notices[id]; !ok {
		return notFound("notice", id)
	}
	delete(s.notices, id)
	return nil
}

// Calendar

func (s *Store) ListCalendarEvents(_ context.Context, f core.CalendarFilter) ([]core.CalendarEvent, error) {
	start := fmt.Sprintf("%04d-%02d-01", f.Year, f.Month)
	end := fmt.Sprintf("%04d-%02d-31", f.Year, f.Month)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := lo.Filter(lo.Values(s.events), func(e core.CalendarEvent, _ int) bool {
		return e.EventDate >= start && e.EventDate <= end && (f.Category == "" || e.Category == f.Category)
	})
	slices.SortFunc(matched, func(a, b core.CalendarEvent) int { return cmp.Compare(a.EventDate, b.EventDate) })
	return matched, nil
}

func (s *Store) CreateCalendarEvent(_ context.Context, in core.CalendarEventInput) (core.CalendarEvent, error) {
	now := s.now()
	e := core.CalendarEvent{
		ID:          uuid.New().String(),
		Title:       in.Title,
		EventDate:   in.EventDate,
		Category:    in.Category,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.events[e.ID] = e
	s.mu.Unlock()
	return e, nil
}

func (s *Store) UpdateCalendarEvent(_ context.Context, id string, p core.CalendarEventPatch) (core.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return core.CalendarEvent{}, notFound("calendar event", id)
	}
	e.Title = lo.FromPtrOr(p.Title, e.Title)
	e.EventDate = lo.FromPtrOr(p.EventDate, e.EventDate)
	e.Category = lo.FromPtrOr(p.Category, e.Category)
	if p.Description != nil {
		e.Description = p.Description
	}
	e.UpdatedAt = s.now()
	s.events[id] = e
	return e, nil
}

func (s *Store) DeleteCalendarEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return notFound("calendar event", id)
	}
	delete(s.events, id)
	return nil
}

// Forums

func (s *Store) replyCountLocked(postID string) int {
	return lo.CountBy(lo.Values(s.replies), func(r core.Reply) bool { return r.PostID == postID })
}

func (s *Store) ListPosts(_ context.Context, f core.PostFilter) ([]core.ForumPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := lo.FilterMap(lo.Values(s.posts), func(p core.ForumPost, _ int) (core.ForumPost, bool) {
		p.ReplyCount = s.replyCountLocked(p.ID)
		return p, f.Tag == "" || p.Tag == f.Tag
	})
	slices.SortFunc(matched, func(a, b core.ForumPost) int { return newestFirst(a.CreatedAt, b.CreatedAt) })
	return page(matched, f.Page, f.Limit), nil
}

func (s *Store) GetPost(_ context.Context, id string) (core.ForumPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return core.ForumPost{}, notFound("post", id)
	}
	p.ReplyCount = s.replyCountLocked(id)
	return p, nil
}

func (s *Store) CreatePost(_ context.Context, in core.PostInput) (core.ForumPost, error) {
	p := core.ForumPost{
		ID:         uuid.New().String(),
		Title:      in.Title,
		Body:       in.Body,
		Tag:        in.Tag,
		AuthorName: in.AuthorName,
		AuthorRole: in.AuthorRole,
		CreatedAt:  s.now(),
	}

	s.mu.Lock()
	s.posts[p.ID] = p
	s.mu.Unlock()
	return p, nil
}

func (s *Store) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return notFound("post", id)
	}
	delete(s.posts, id)
	for rid, r := range s.replies {
		if r.PostID == id {
			delete(s.replies, rid)
		}
	}
	return nil
}

func (s *Store) ListReplies(_ context.Context, postID string) ([]core.Reply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := lo.Filter(lo.Values(s.replies), func(r core.Reply, _ int) bool { return r.PostID == postID })
	slices.SortFunc(out, func(a, b core.Reply) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *Store) CreateReply(_ context.Context, postID string, in core.ReplyInput) (core.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return core.Reply{}, notFound("post", postID)
	}
	r := core.Reply{
		ID:         uuid.New().String(),
		PostID:     postID,
		Content:    in.Content,
		AuthorName: in.AuthorName,
		AuthorRole: in.AuthorRole,
		CreatedAt:  s.now(),
	}
	s.replies[r.ID] = r
	return r, nil
}

func (s *Store) DeleteReply(_ context.Context, postID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replies[id]
	if !ok || r.PostID != postID {
		return notFound("reply", id)
	}
	delete(s.replies, id)
	return nil
}

// Complaints

func (s *Store) CreateComplaint(_ context.Context, in core.ComplaintInput) (core.ComplaintReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.complaints[in.RefID]; exists {
		return core.ComplaintReceipt{}, fmt.Errorf("complaint %s already exists", in.RefID)
	}
	c := &complaint{
		ComplaintStatus: core.ComplaintStatus{
			RefID:     in.RefID,
			Category:  in.Category,
			Status:    core.ComplaintSubmitted,
			CreatedAt: s.now(),
		},
		Content: in.Content,
	}
	s.complaints[in.RefID] = c
	return core.ComplaintReceipt{RefID: c.RefID, Status: c.Status, CreatedAt: c.CreatedAt}, nil
}

func (s *Store) GetComplaint(_ context.Context, refID string) (core.ComplaintStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.complaints[refID]
	if !ok {
		return core.ComplaintStatus{}, notFound("complaint", refID)
	}
	return c.ComplaintStatus, nil
}

func (s *Store) ListComplaints(_ context.Context, status string) ([]core.ComplaintSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := lo.FilterMap(lo.Values(s.complaints), func(c *complaint, _ int) (core.ComplaintSummary, bool) {
		return core.ComplaintSummary{
			RefID:         c.RefID,
			Category:      c.Category,
			Status:        c.Status,
			Preview:       string(lo.Subset([]rune(c.Content), 0, previewLength)),
			AdminResponse: c.AdminResponse,
			CreatedAt:     c.CreatedAt,
			ResolvedAt:    c.ResolvedAt,
		}, status == "" || c.Status == status
	})
	slices.SortFunc(out, func(a, b core.ComplaintSummary) int { return newestFirst(a.CreatedAt, b.CreatedAt) })
	return out, nil
}

func (s *Store) UpdateComplaint(_ context.Context, refID string, p core.ComplaintPatch) (core.ComplaintUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[refID]
	if !ok {
		return core.ComplaintUpdate{}, notFound("complaint", refID)
	}
	if p.Status != nil {
		c.Status = *p.Status
		if c.Status == core.ComplaintResolved {
			now := s.now()
			c.ResolvedAt = &now
		}
	}
	if p.AdminResponse != nil {
		c.AdminResponse = lo.ToPtr(*p.AdminResponse)
	}
	return core.ComplaintUpdate{RefID: c.RefID, Status: c.Status, AdminResponse: c.AdminResponse}, nil
}

var _ core.Store = (*Store)(nil)
