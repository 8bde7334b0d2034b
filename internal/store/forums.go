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
	"database/sql"
	"errors"
	"fmt"

	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

const postSelect = `SELECT p.id, p.title, p.body, p.tag, p.author_name, p.author_role, p.created_at,
	(SELECT COUNT(*) FROM forum_replies r WHERE r.post_id = p.id) AS reply_count
	FROM forum_posts p`

const replyColumns = "id, post_id, content, author_name, author_role, created_at"

func scanPost(row rowScanner) (core.ForumPost, error) {
	var p core.ForumPost
	err := row.Scan(&p.ID, &p.Title, &p.Body, &p.Tag, &p.AuthorName, &p.AuthorRole, &p.CreatedAt, &p.ReplyCount)
	return p, err
}

func scanReply(row rowScanner) (core.Reply, error) {
	var r core.Reply
	err := row.Scan(&r.ID, &r.PostID, &r.Content, &r.AuthorName, &r.AuthorRole, &r.CreatedAt)
	return r, err
}

func (s *Store) ListPosts(ctx context.Context, f core.PostFilter) ([]core.ForumPost, error) {
	page, limit := core.Normalize(f.Page, f.Limit)

	var w where
	w.eq("p.tag", f.Tag)
	args := append(append([]any{}, w.args...), limit, core.Offset(page, limit))

	rows, err := s.query(ctx, postSelect+w.String()+" ORDER BY p.created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	out := []core.ForumPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPost(ctx context.Context, id string) (core.ForumPost, error) {
	p, err := scanPost(s.queryRow(ctx, postSelect+" WHERE p.id = ?", id))
	if err != nil {
		return core.ForumPost{}, scanErr(err, "post", id)
	}
	return p, nil
}

func (s *Store) CreatePost(ctx context.Context, in core.PostInput) (core.ForumPost, error) {
	p := core.ForumPost{
		ID:         s.newID(),
		Title:      in.Title,
		Body:       in.Body,
		Tag:        in.Tag,
		AuthorName: in.AuthorName,
		AuthorRole: in.AuthorRole,
		CreatedAt:  s.now(),
	}
	_, err := s.exec(ctx,
		`INSERT INTO forum_posts (id, title, body, tag, author_name, author_role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Body, p.Tag, p.AuthorName, p.AuthorRole, p.CreatedAt,
	)
	if err != nil {
		return core.ForumPost{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// DeletePost removes the post together with its replies.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete post: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM forum_replies WHERE post_id = ?"), id); err != nil {
		return fmt.Errorf("delete replies of post %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM forum_posts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if err := mustAffect(res, "post", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListReplies(ctx context.Context, postID string) ([]core.Reply, error) {
	rows, err := s.query(ctx, "SELECT "+replyColumns+" FROM forum_replies WHERE post_id = ? ORDER BY created_at ASC", postID)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	out := []core.Reply{}
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reply: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateReply fails with core.ErrNotFound when the post does not exist.
func (s *Store) CreateReply(ctx context.Context, postID string, in core.ReplyInput) (core.Reply, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Reply{}, fmt.Errorf("begin reply: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.rebind("SELECT 1 FROM forum_posts WHERE id = ?"), postID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reply{}, notFound("post", postID)
	}
	if err != nil {
		return core.Reply{}, fmt.Errorf("check post %s: %w", postID, err)
	}

	r := core.Reply{
		ID:         s.newID(),
		PostID:     postID,
		Content:    in.Content,
		AuthorName: in.AuthorName,
		AuthorRole: in.AuthorRole,
		CreatedAt:  s.now(),
	}
	_, err = tx.ExecContext(ctx,
		s.rebind("INSERT INTO forum_replies ("+replyColumns+") VALUES (?, ?, ?, ?, ?, ?)"),
		r.ID, r.PostID, r.Content, r.AuthorName, r.AuthorRole, r.CreatedAt,
	)
	if err != nil {
		return core.Reply{}, fmt.Errorf("insert reply: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Reply{}, fmt.Errorf("commit reply: %w", err)
	}
	return r, nil
}

func (s *Store) DeleteReply(ctx context.Context, postID, id string) error {
	res, err := s.exec(ctx, "DELETE FROM forum_replies WHERE id = ? AND post_id = ?", id, postID)
	if err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}
	return mustAffect(res, "reply", id)
}
