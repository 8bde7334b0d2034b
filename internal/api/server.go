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
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/wso2/api-platform/gateway/community-board/internal/board"
	"github.com/wso2/api-platform/gateway/community-board/pkg/core"
)

// AdminKeyHeader carries the shared admin secret. The admin_key query
// parameter is accepted as well.
const AdminKeyHeader = "X-Admin-Key"

// Server is the board's HTTP surface: the JSON API under /api and the
// static app shell for everything else.
type Server struct {
	svc       *board.Service
	secret    *core.Secret
	staticDir string
	stats     func() Stats
	logger    *slog.Logger
}

// Stats is the admin view of live connection and mirror counters.
type Stats struct {
	Rooms         int   `json:"rooms"`
	Connections   int   `json:"connections"`
	Sessions      int   `json:"sessions"`
	MirrorDropped int64 `json:"mirror_dropped"`
}

func New(svc *board.Service, secret *core.Secret, staticDir string, logger *slog.Logger) *Server {
	return &Server{
		svc:       svc,
		secret:    secret,
		staticDir: staticDir,
		logger:    logger.With("component", "api"),
	}
}

// WithStats serves fn at GET /api/stats for admins.
func (s *Server) WithStats(fn func() Stats) *Server {
	s.stats = fn
	return s
}

// Register mounts every route on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.health)
	if s.stats != nil {
		mux.HandleFunc("GET /api/stats", s.admin(s.serveStats))
	}

	mux.HandleFunc("GET /api/notices", s.listNotices)
	mux.HandleFunc("POST /api/notices", s.admin(s.createNotice))
	mux.HandleFunc("GET /api/notices/{id}", s.getNotice)
	mux.HandleFunc("PATCH /api/notices/{id}", s.admin(s.updateNotice))
	mux.HandleFunc("DELETE /api/notices/{id}", s.admin(s.deleteNotice))

	mux.HandleFunc("GET /api/calendar", s.listCalendar)
	mux.HandleFunc("POST /api/calendar", s.admin(s.createCalendarEvent))
	mux.HandleFunc("PATCH /api/calendar/{id}", s.admin(s.updateCalendarEvent))
	mux.HandleFunc("DELETE /api/calendar/{id}", s.admin(s.deleteCalendarEvent))

	mux.HandleFunc("GET /api/forums", s.listPosts)
	mux.HandleFunc("POST /api/forums", s.createPost)
	mux.HandleFunc("GET /api/forums/{id}", s.getPost)
	mux.HandleFunc("DELETE /api/forums/{id}", s.admin(s.deletePost))
	mux.HandleFunc("GET /api/forums/{id}/replies", s.listReplies)
	mux.HandleFunc("POST /api/forums/{id}/replies", s.createReply)
	mux.HandleFunc("DELETE /api/forums/{postId}/replies/{id}", s.admin(s.deleteReply))

	mux.HandleFunc("POST /api/complaints", s.submitComplaint)
	mux.HandleFunc("GET /api/complaints", s.admin(s.listComplaints))
	mux.HandleFunc("GET /api/complaints/{refId}", s.getComplaint)
	mux.HandleFunc("PATCH /api/complaints/{refId}", s.admin(s.updateComplaint))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	mux.Handle("/", s.static())
}

// Handler returns the routes wrapped in CORS and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return AccessLog(s.logger, CORS(mux))
}

// admin rejects requests that do not carry the shared secret.
func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(AdminKeyHeader)
		if key == "" {
			key = r.URL.Query().Get("admin_key")
		}
		if !s.secret.Matches(key) {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "Forbidden: invalid admin key"})
			return
		}
		next(w, r)
	}
}

type healthBody struct {
	Status  string `json:"status"`
	DB      string `json:"db,omitempty"`
	TS      string `json:"ts,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, healthBody{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthBody{
		Status: "ok",
		DB:     "connected",
		TS:     time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats())
}

// static serves the app shell and falls back to index.html for client-side
// routes.
func (s *Server) static() http.Handler {
	files := http.FileServer(http.Dir(s.staticDir))
	index := filepath.Join(s.staticDir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		clean := path.Clean("/" + r.URL.Path)
		if clean != "/" {
			info, err := os.Stat(filepath.Join(s.staticDir, filepath.FromSlash(clean)))
			if err != nil || info.IsDir() {
				http.ServeFile(w, r, index)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}
