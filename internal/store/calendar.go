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
	"fmt"

	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

const calendarColumns = "id, title, event_date, category, description, created_at, updated_at"

func scanCalendarEvent(row rowScanner) (core.CalendarEvent, error) {
	var e core.CalendarEvent
	err := row.Scan(&e.ID, &e.Title, &e.EventDate, &e.Category, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// MonthRange returns the inclusive YYYY-MM-01..YYYY-MM-31 bounds used to
// select a month. Dates are stored as YYYY-MM-DD text so the comparison is
// lexical.
func MonthRange(year, month int) (string, string) {
	return fmt.Sprintf("%04d-%02d-01", year, month), fmt.Sprintf("%04d-%02d-31", year, month)
}

func (s *Store) ListCalendarEvents(ctx context.Context, f core.CalendarFilter) ([]core.CalendarEvent, error) {
	start, end := MonthRange(f.Year, f.Month)

	w := where{
		clauses: []string{"event_date >= ?", "event_date <= ?"},
		args:    []any{start, end},
	}
	w.eq("category", f.Category)

	rows, err := s.query(ctx, "SELECT "+calendarColumns+" FROM calendar_events"+w.String()+" ORDER BY event_date ASC", w.args...)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	out := []core.CalendarEvent{}
	for rows.Next() {
		e, err := scanCalendarEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) getCalendarEvent(ctx context.Context, id string) (core.CalendarEvent, error) {
	e, err := scanCalendarEvent(s.queryRow(ctx, "SELECT "+calendarColumns+" FROM calendar_events WHERE id = ?", id))
	if err != nil {
		return core.CalendarEvent{}, scanErr(err, "calendar event", id)
	}
	return e, nil
}

func (s *Store) CreateCalendarEvent(ctx context.Context, in core.CalendarEventInput) (core.CalendarEvent, error) {
	now := s.now()
	e := core.CalendarEvent{
		ID:          s.newID(),
		Title:       in.Title,
		EventDate:   in.EventDate,
		Category:    in.Category,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.exec(ctx,
		"INSERT INTO calendar_events ("+calendarColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Title, e.EventDate, e.Category, e.Description, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return core.CalendarEvent{}, fmt.Errorf("insert calendar event: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateCalendarEvent(ctx context.Context, id string, p core.CalendarEventPatch) (core.CalendarEvent, error) {
	res, err := s.exec(ctx,
		`UPDATE calendar_events SET title = COALESCE(?, title), event_date = COALESCE(?, event_date),
		 category = COALESCE(?, category), description = COALESCE(?, description), updated_at = ?
		 WHERE id = ?`,
		p.Title, p.EventDate, p.Category, p.Description, s.now(), id,
	)
	if err != nil {
		return core.CalendarEvent{}, fmt.Errorf("update calendar event: %w", err)
	}
	if err := mustAffect(res, "calendar event", id); err != nil {
		return core.CalendarEvent{}, err
	}
	return s.getCalendarEvent(ctx, id)
}

func (s *Store) DeleteCalendarEvent(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM calendar_events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return mustAffect(res, "calendar event", id)
}
