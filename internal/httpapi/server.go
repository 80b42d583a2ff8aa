package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/benjoco/sitescope/internal/domain"
	"github.com/benjoco/sitescope/internal/httpapi/middleware"
	"github.com/benjoco/sitescope/internal/monitor"
	"github.com/benjoco/sitescope/internal/repo"
)

type Server struct {
	Logger  *zap.Logger
	Sites   repo.SiteStore
	Logs    repo.LogStore
	Tokens  repo.TokenStore
	Monitor *monitor.Monitor

	APIKeys    map[string]domain.UserID
	RatePerMin int
	RateBurst  int
}

func NewServer(
	l *zap.Logger,
	sites repo.SiteStore,
	logs repo.LogStore,
	tokens repo.TokenStore,
	m *monitor.Monitor,
) *Server {
	return &Server{Logger: l, Sites: sites, Logs: logs, Tokens: tokens, Monitor: m}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.RatePerMin, s.RateBurst))
		r.Use(middleware.RequireUser(s.APIKeys))

		r.Get("/sites", s.handleListSites)
		r.Post("/sites", s.handleAddSite)
		r.Delete("/sites/{id}", s.handleDeleteSite)
		r.Get("/sites/{id}/logs", s.handleSiteLogs)

		r.Post("/check-now", s.handleCheckNow)
		r.Post("/test-alert", s.handleTestAlert)
		r.Post("/save-token", s.handleSaveToken)
	})

	return r
}
