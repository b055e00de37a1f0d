package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/parallel-boggle/internal/game/session"
	"github.com/palemoky/parallel-boggle/internal/records"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// StatusReport /status 响应
type StatusReport struct {
	Online      int              `json:"online"`
	Maintenance bool             `json:"maintenance"`
	Sessions    []session.Status `json:"sessions"`
}

// routes 注册 HTTP 路由
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/leaderboard", s.handleLeaderboard)
	})

	// 管理接口，只允许配置的网段访问
	guard := NewAdminGuard(s.config.Security.AdminAllow)
	r.Group(func(r chi.Router) {
		r.Use(guard.Middleware)
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/status", s.handleStatus)
		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.handleRecords)
			r.Post("/save", s.handleSaveRecords)
			r.Post("/load", s.handleLoadRecords)
			r.Post("/clear", s.handleClearRecords)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
	})
	return r
}

// jsonContentType 默认返回 JSON
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// StatusReport 当前服务器状态
func (s *Server) StatusReport() StatusReport {
	return StatusReport{
		Online:      s.GetOnlineCount(),
		Maintenance: s.IsMaintenanceMode(),
		Sessions:    s.manager.ActiveSessions(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.StatusReport())
}

func (s *Server) handleRecords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.records.Snapshot())
}

func (s *Server) handleSaveRecords(w http.ResponseWriter, r *http.Request) {
	if err := s.records.Save(r.Context()); err != nil {
		s.recordsError(w, "保存", err)
		return
	}
	writeJSON(w, http.StatusOK, s.records.Snapshot())
}

func (s *Server) handleLoadRecords(w http.ResponseWriter, r *http.Request) {
	if err := s.records.Load(r.Context()); err != nil {
		s.recordsError(w, "加载", err)
		return
	}
	writeJSON(w, http.StatusOK, s.records.Snapshot())
}

func (s *Server) handleClearRecords(w http.ResponseWriter, _ *http.Request) {
	s.records.Clear()
	writeJSON(w, http.StatusOK, s.records.Snapshot())
}

func (s *Server) recordsError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, records.ErrNoRepository):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, records.ErrNoSnapshot):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Msgf("%s服务器记录失败", action)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleLeaderboard ?limit=N&daily=true
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.leaderboard == nil {
		writeError(w, http.StatusNotImplemented, "leaderboard requires redis")
		return
	}

	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	get := s.leaderboard.GetLeaderboard
	if r.URL.Query().Get("daily") == "true" {
		get = s.leaderboard.GetDailyLeaderboard
	}
	entries, err := get(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("读取排行榜失败")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("写入响应失败")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
