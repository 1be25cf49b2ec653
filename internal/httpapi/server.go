package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/routerwatch/internal/domain"
	apimw "github.com/hamed0406/routerwatch/internal/httpapi/middleware"
	"github.com/hamed0406/routerwatch/internal/repo"
)

const (
	defaultOutageLimit = 50
	maxOutageLimit     = 500
)

// StatusSource yields the live watchdog status.
type StatusSource interface {
	Snapshot() domain.Status
}

type Server struct {
	Logger  *zap.Logger
	Status  StatusSource
	Outages repo.OutageStore
	Metrics http.Handler
}

// Options configure the /api group.
type Options struct {
	Keys            []string
	RateLimitPerMin int
	RateBurst       int
}

func NewServer(l *zap.Logger, st StatusSource, outages repo.OutageStore, metrics http.Handler) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Status: st, Outages: outages, Metrics: metrics}
}

func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(opts.RateLimitPerMin, opts.RateBurst))
		r.Use(apimw.RequireKey(opts.Keys))
		r.Get("/status", s.handleStatus)
		r.Get("/outages", s.handleOutages)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Status.Snapshot())
}

func (s *Server) handleOutages(w http.ResponseWriter, r *http.Request) {
	limit := defaultOutageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxOutageLimit)
	}

	list, err := s.Outages.List(r.Context(), limit)
	if err != nil {
		s.Logger.Error("list_outages_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list error"})
		return
	}
	if list == nil {
		list = []domain.Outage{}
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
