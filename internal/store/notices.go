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

const noticeColumns = "id, title, body, category, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row rowScanner) (core.Notice, error) {
	var n core.Notice
	err := row.Scan(&n.ID, &n.Title, &n.Body, &n.Category, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (s *Store) ListNotices(ctx context.Context, f core.NoticeFilter) (core.NoticePage, error) {
	page, limit := core.Normalize(f.Page, f.Limit)

	var w where
	w.eq("category", f.Category)

	var total int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM notices"+w.String(), w.args...).Scan(&total); err != nil {
		return core.NoticePage{}, fmt.Errorf("count notices: %w", err)
	}

	args := append(append([]any{}, w.args...), limit, core.Offset(page, limit))
	rows, err := s.query(ctx,
		"SELECT "+noticeColumns+" FROM notices"+w.String()+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return core.NoticePage{}, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	out := core.NoticePage{Data: []core.Notice{}, Total: total, Page: page}
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return core.NoticePage{}, fmt.Errorf("scan notice: %w", err)
		}
		out.Data = append(out.Data, n)
	}
	return out, rows.Err()
}

func (s *Store) GetNotice(ctx context.Context, id string) (core.Notice, error) {
	n, err := scanNotice(s.queryRow(ctx, "SELECT "+noticeColumns+" FROM notices WHERE id = ?", id))
	if err != nil {
		return core.Notice{}, scanErr(err, "notice", id)
	}
	return n, nil
}

func (s *Store) CreateNotice(ctx context.Context, in core.NoticeInput) (core.Notice, error) {
	now := s.now()
	n := core.Notice{
		ID:        s.newID(),
		Title:     in.Title,
		Body:      in.Body,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.exec(ctx,
		"INSERT INTO notices ("+noticeColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		n.ID, n.Title, n.Body, n.Category, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return core.Notice{}, fmt.Errorf("insert notice: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateNotice(ctx context.Context, id string, p core.NoticePatch) (core.Notice, error) {
	res, err := s.exec(ctx,
		`UPDATE notices SET title = COALESCE(?, title), body = COALESCE(?, body),
		 category = COALESCE(?, category), updated_at = ? WHERE id = ?`,
		p.Title, p.Body, p.Category, s.now(), id,
	)
	if err != nil {
		return core.Notice{}, fmt.Errorf("update notice: %w", err)
	}
	if err := mustAffect(res, "notice", id); err != nil {
		return core.Notice{}, err
	}
	return s.GetNotice(ctx, id)
}

func (s *Store) DeleteNotice(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM notices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return mustAffect(res, "notice", id)
}
