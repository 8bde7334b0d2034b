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

// PreviewLength is the number of leading characters of a complaint shown in
// the admin listing.
const PreviewLength = 80

func (s *Store) CreateComplaint(ctx context.Context, in core.ComplaintInput) (core.ComplaintReceipt, error) {
	now := s.now()
	_, err := s.exec(ctx,
		`INSERT INTO complaints (ref_id, content, category, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.RefID, in.Content, in.Category, core.ComplaintSubmitted, now, now,
	)
	if err != nil {
		return core.ComplaintReceipt{}, fmt.Errorf("insert complaint: %w", err)
	}
	return core.ComplaintReceipt{RefID: in.RefID, Status: core.ComplaintSubmitted, CreatedAt: now}, nil
}

func (s *Store) GetComplaint(ctx context.Context, refID string) (core.ComplaintStatus, error) {
	var c core.ComplaintStatus
	err := s.queryRow(ctx,
		`SELECT ref_id, category, status, admin_response, created_at, resolved_at
		 FROM complaints WHERE ref_id = ?`, refID,
	).Scan(&c.RefID, &c.Category, &c.Status, &c.AdminResponse, &c.CreatedAt, &c.ResolvedAt)
	if err != nil {
		return core.ComplaintStatus{}, scanErr(err, "complaint", refID)
	}
	return c, nil
}

func (s *Store) ListComplaints(ctx context.Context, status string) ([]core.ComplaintSummary, error) {
	var w where
	w.eq("status", status)

	rows, err := s.query(ctx,
		fmt.Sprintf(`SELECT ref_id, category, status, substr(content, 1, %d), admin_response, created_at, resolved_at
		 FROM complaints%s ORDER BY created_at DESC`, PreviewLength, w.String()),
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	out := []core.ComplaintSummary{}
	for rows.Next() {
		var c core.ComplaintSummary
		if err := rows.Scan(&c.RefID, &c.Category, &c.Status, &c.Preview, &c.AdminResponse, &c.CreatedAt, &c.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateComplaint stamps resolved_at when the new status is RESOLVED.
func (s *Store) UpdateComplaint(ctx context.Context, refID string, p core.ComplaintPatch) (core.ComplaintUpdate, error) {
	now := s.now()
	var resolvedAt any
	if p.Status != nil && *p.Status == core.ComplaintResolved {
		resolvedAt = now
	}

	res, err := s.exec(ctx,
		`UPDATE complaints SET status = COALESCE(?, status), admin_response = COALESCE(?, admin_response),
		 resolved_at = COALESCE(?, resolved_at), updated_at = ? WHERE ref_id = ?`,
		p.Status, p.AdminResponse, resolvedAt, now, refID,
	)
	if err != nil {
		return core.ComplaintUpdate{}, fmt.Errorf("update complaint: %w", err)
	}
	if err := mustAffect(res, "complaint", refID); err != nil {
		return core.ComplaintUpdate{}, err
	}

	var u core.ComplaintUpdate
	err = s.queryRow(ctx, "SELECT ref_id, status, admin_response FROM complaints WHERE ref_id = ?", refID).
		Scan(&u.RefID, &u.Status, &u.AdminResponse)
	if err != nil {
		return core.ComplaintUpdate{}, scanErr(err, "complaint", refID)
	}
	return u, nil
}
