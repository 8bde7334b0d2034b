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

package api

import (
	"net/http"

	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

// Notices

func (s *Server) listNotices(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.ListNotices(r.Context(), core.NoticeFilter{
		Category: r.URL.Query().Get("category"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getNotice(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.GetNotice(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) createNotice(w http.ResponseWriter, r *http.Request) {
	var in core.NoticeInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.CreateNotice(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) updateNotice(w http.ResponseWriter, r *http.Request) {
	var p core.NoticePatch
	if err := decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.UpdateNotice(r.Context(), r.PathValue("id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNotice(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteNotice(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

// Calendar

func (s *Server) listCalendar(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.ListCalendarEvents(r.Context(), core.CalendarFilter{
		Month:    queryInt(r, "month"),
		Year:     queryInt(r, "year"),
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) createCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var in core.CalendarEventInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.CreateCalendarEvent(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) updateCalendarEvent(w http.ResponseWriter, r *http.Request) {
	var p core.CalendarEventPatch
	if err := decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.UpdateCalendarEvent(r.Context(), r.PathValue("id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteCalendarEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCalendarEvent(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

// Forums

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.svc.ListPosts(r.Context(), core.PostFilter{
		Tag:   r.URL.Query().Get("tag"),
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var in core.PostInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.CreatePost(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePost(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func (s *Server) listReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := s.svc.ListReplies(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

func (s *Server) createReply(w http.ResponseWriter, r *http.Request) {
	var in core.ReplyInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	reply, err := s.svc.CreateReply(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (s *Server) deleteReply(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteReply(r.Context(), r.PathValue("postId"), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

// Complaints

func (s *Server) submitComplaint(w http.ResponseWriter, r *http.Request) {
	var in core.ComplaintInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	receipt, err := s.svc.SubmitComplaint(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (s *Server) getComplaint(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetComplaint(r.Context(), r.PathValue("refId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listComplaints(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListComplaints(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) updateComplaint(w http.ResponseWriter, r *http.Request) {
	var p core.ComplaintPatch
	if err := decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.svc.UpdateComplaint(r.Context(), r.PathValue("refId"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
