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

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.db")
	s, err := Open(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	require.Error(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), DriverSQLite, path)
		require.NoError(t, err)
		require.NoError(t, s.Ping(context.Background()))
		require.NoError(t, s.Close())
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", pg.rebind("SELECT 1 WHERE a = ? AND b = ?"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "SELECT 1 WHERE a = ?", lite.rebind("SELECT 1 WHERE a = ?"))
}

func TestNotices_CRUD(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	created, err := s.CreateNotice(ctx, core.NoticeInput{Title: "Exam timetable", Body: "Posted", Category: "Academic"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = s.CreateNotice(ctx, core.NoticeInput{Title: "Sports day", Body: "Friday", Category: "Events"})
	require.NoError(t, err)

	page, err := s.ListNotices(ctx, core.NoticeFilter{Category: "Academic"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ID)

	all, err := s.ListNotices(ctx, core.NoticeFilter{Limit: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)
	assert.Len(t, all.Data, 1)

	updated, err := s.UpdateNotice(ctx, created.ID, core.NoticePatch{Title: strPtr("Exam timetable v2")})
	require.NoError(t, err)
	assert.Equal(t, "Exam timetable v2", updated.Title)
	assert.Equal(t, "Posted", updated.Body)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	require.NoError(t, s.DeleteNotice(ctx, created.ID))
	_, err = s.GetNotice(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteNotice(ctx, created.ID), core.ErrNotFound)

	_, err = s.UpdateNotice(ctx, "missing", core.NoticePatch{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCalendar_MonthWindow(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	for _, d := range []string{"2025-03-01", "2025-03-31", "2025-04-01", "2025-02-28"} {
		_, err := s.CreateCalendarEvent(ctx, core.CalendarEventInput{Title: d, EventDate: d, Category: "Exams"})
		require.NoError(t, err)
	}
	_, err := s.CreateCalendarEvent(ctx, core.CalendarEventInput{
		Title: "Holiday", EventDate: "2025-03-15", Category: "Holiday", Description: strPtr("Campus closed"),
	})
	require.NoError(t, err)

	events, err := s.ListCalendarEvents(ctx, core.CalendarFilter{Month: 3, Year: 2025})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "2025-03-01", events[0].EventDate)
	assert.Equal(t, "2025-03-15", events[1].EventDate)
	assert.Equal(t, "2025-03-31", events[2].EventDate)
	require.NotNil(t, events[1].Description)
	assert.Equal(t, "Campus closed", *events[1].Description)

	exams, err := s.ListCalendarEvents(ctx, core.CalendarFilter{Month: 3, Year: 2025, Category: "Exams"})
	require.NoError(t, err)
	assert.Len(t, exams, 2)

	moved, err := s.UpdateCalendarEvent(ctx, events[0].ID, core.CalendarEventPatch{EventDate: strPtr("2025-04-02")})
	require.NoError(t, err)
	assert.Equal(t, "2025-04-02", moved.EventDate)

	require.NoError(t, s.DeleteCalendarEvent(ctx, moved.ID))
	assert.ErrorIs(t, s.DeleteCalendarEvent(ctx, moved.ID), core.ErrNotFound)
}

func TestForums_RepliesAndCounts(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	post, err := s.CreatePost(ctx, core.PostInput{Title: "Lab hours?", Body: "When?", Tag: "General", AuthorName: "Anonymous", AuthorRole: "Student"})
	require.NoError(t, err)
	assert.Zero(t, post.ReplyCount)

	for _, content := range []string{"9 to 5", "Closed Sunday"} {
		_, err := s.CreateReply(ctx, post.ID, core.ReplyInput{Content: content, AuthorName: "TA", AuthorRole: "Staff"})
		require.NoError(t, err)
	}

	_, err = s.CreateReply(ctx, "missing", core.ReplyInput{Content: "x"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReplyCount)

	list, err := s.ListPosts(ctx, core.PostFilter{Tag: "General"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ReplyCount)

	replies, err := s.ListReplies(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "9 to 5", replies[0].Content)

	assert.ErrorIs(t, s.DeleteReply(ctx, "other-post", replies[0].ID), core.ErrNotFound)
	require.NoError(t, s.DeleteReply(ctx, post.ID, replies[0].ID))

	require.NoError(t, s.DeletePost(ctx, post.ID))
	replies, err = s.ListReplies(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, replies, "replies are removed with their post")
}

func TestComplaints_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	receipt, err := s.CreateComplaint(ctx, core.ComplaintInput{RefID: "C-ABC123", Content: string(long), Category: "Facilities"})
	require.NoError(t, err)
	assert.Equal(t, core.ComplaintSubmitted, receipt.Status)

	_, err = s.CreateComplaint(ctx, core.ComplaintInput{RefID: "C-ABC123", Content: "dup", Category: "General"})
	require.Error(t, err, "ref ids are unique")

	status, err := s.GetComplaint(ctx, "C-ABC123")
	require.NoError(t, err)
	assert.Nil(t, status.ResolvedAt)
	assert.Nil(t, status.AdminResponse)

	list, err := s.ListComplaints(ctx, core.ComplaintSubmitted)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Preview, PreviewLength)

	update, err := s.UpdateComplaint(ctx, "C-ABC123", core.ComplaintPatch{
		Status:        strPtr(core.ComplaintResolved),
		AdminResponse: strPtr("Repaired"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.ComplaintResolved, update.Status)
	require.NotNil(t, update.AdminResponse)
	assert.Equal(t, "Repaired", *update.AdminResponse)

	status, err = s.GetComplaint(ctx, "C-ABC123")
	require.NoError(t, err)
	require.NotNil(t, status.ResolvedAt)
	assert.WithinDuration(t, time.Now(), *status.ResolvedAt, time.Minute)

	open, err := s.ListComplaints(ctx, core.ComplaintSubmitted)
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = s.UpdateComplaint(ctx, "C-NOPE", core.ComplaintPatch{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPingAfterClose(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(context.Background()), core.ErrStoreClosed)
}
