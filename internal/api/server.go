// Package api exposes the HTTP interface for the crawler service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
	"github.com/JakeFAU/flat-crawler/internal/metrics"
	"github.com/JakeFAU/flat-crawler/internal/round"
)

// RoundStatus reports the rounds the service has finished.
type RoundStatus interface {
	Last() (round.Report, string, bool)
	Rounds() int
}

// Server wires HTTP handlers to the round status and target source.
type Server struct {
	router  chi.Router
	status  RoundStatus
	targets crawler.TargetSource
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(status RoundStatus, targets crawler.TargetSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		status:  status,
		targets: targets,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/rounds/last", s.lastRound)
		r.Get("/targets", s.listTargets)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz turns ready once the first round has finished.
func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil || s.status.Rounds() == 0 {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "waiting for first round"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type lastRoundResponse struct {
	Outcome string       `json:"outcome"`
	Rounds  int          `json:"rounds"`
	Report  round.Report `json:"report"`
}

func (s *Server) lastRound(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		s.writeError(w, http.StatusNotFound, "no round finished yet")
		return
	}
	report, outcome, ok := s.status.Last()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no round finished yet")
		return
	}
	s.writeJSON(w, http.StatusOK, lastRoundResponse{
		Outcome: outcome,
		Rounds:  s.status.Rounds(),
		Report:  report,
	})
}

func (s *Server) listTargets(w http.ResponseWriter, r *http.Request) {
	if s.targets == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"targets": []crawler.Target{}})
		return
	}
	targets, err := s.targets.Targets(r.Context())
	if err != nil {
		s.logger.Error("list targets failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load targets")
		return
	}
	if targets == nil {
		targets = []crawler.Target{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"targets": targets})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			reqID, _ := r.Context().Value(requestIDKey{}).(string)
			logger.Debug("request completed",
				zap.String("request_id", reqID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"internal server error"}` + "\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
