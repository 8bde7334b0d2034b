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

import "time"

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

const (
	ComplaintSubmitted = "SUBMITTED"
	ComplaintResolved  = "RESOLVED"
)

type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NoticeInput struct {
	Title    string `json:"title" validate:"required"`
	Body     string `json:"body" validate:"required"`
	Category string `json:"category" validate:"required"`
}

type NoticePatch struct {
	Title    *string `json:"title"`
	Body     *string `json:"body"`
	Category *string `json:"category"`
}

type NoticeFilter struct {
	Category string
	Page     int
	Limit    int
}

type NoticePage struct {
	Data  []Notice `json:"data"`
	Total int      `json:"total"`
	Page  int      `json:"page"`
}

type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	EventDate   string    `json:"event_date"`
	Category    string    `json:"category"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CalendarEventInput struct {
	Title       string  `json:"title" validate:"required"`
	EventDate   string  `json:"event_date" validate:"required,datetime=2006-01-02"`
	Category    string  `json:"category" validate:"required"`
	Description *string `json:"description"`
}

type CalendarEventPatch struct {
	Title       *string `json:"title"`
	EventDate   *string `json:"event_date" validate:"omitempty,datetime=2006-01-02"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
}

type CalendarFilter struct {
	Month    int `validate:"required,min=1,max=12"`
	Year     int `validate:"required,min=1"`
	Category string
}

type ForumPost struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Tag        string    `json:"tag"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"`
	CreatedAt  time.Time `json:"created_at"`
	ReplyCount int       `json:"reply_count"`
}

type PostInput struct {
	Title      string `json:"title" validate:"required,max=200"`
	Body       string `json:"body" validate:"required,max=5000"`
	Tag        string `json:"tag"`
	AuthorName string `json:"author_name"`
	AuthorRole string `json:"author_role"`
}

type PostFilter struct {
	Tag   string
	Page  int
	Limit int
}

type Reply struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReplyInput struct {
	Content    string `json:"content" validate:"required,max=2000"`
	AuthorName string `json:"author_name"`
	AuthorRole string `json:"author_role"`
}

type ComplaintInput struct {
	RefID    string `json:"-"`
	Content  string `json:"content" validate:"required,max=3000"`
	Category string `json:"category"`
}

// ComplaintReceipt is the redacted view returned to the submitter and
// pushed to admins. It never carries the complaint content.
type ComplaintReceipt struct {
	RefID     string    `json:"ref_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ComplaintStatus struct {
	RefID         string     `json:"ref_id"`
	Category      string     `json:"category"`
	Status        string     `json:"status"`
	AdminResponse *string    `json:"admin_response"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at"`
}

type ComplaintSummary struct {
	RefID         string     `json:"ref_id"`
	Category      string     `json:"category"`
	Status        string     `json:"status"`
	Preview       string     `json:"preview"`
	AdminResponse *string    `json:"admin_response"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at"`
}

type ComplaintPatch struct {
	Status        *string `json:"status" validate:"omitempty,max=32"`
	AdminResponse *string `json:"admin_response"`
}

type ComplaintUpdate struct {
	RefID         string  `json:"ref_id"`
	Status        string  `json:"status"`
	AdminResponse *string `json:"admin_response"`
}

// DeletedRef is the payload of every *:deleted event.
type DeletedRef struct {
	ID string `json:"id"`
}

// ReplyCountChanged tells post-list viewers to refetch a post's count.
type ReplyCountChanged struct {
	PostID string `json:"post_id"`
}

type TypingSignal struct {
	Name string `json:"name"`
}

// Normalize applies the default page and limit.
func Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

// Offset returns the row offset of a normalized page.
func Offset(page, limit int) int {
	page, limit = Normalize(page, limit)
	return (page - 1) * limit
}
