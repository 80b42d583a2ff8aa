package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/benjoco/sitescope/internal/domain"
	"github.com/benjoco/sitescope/internal/httpapi/middleware"
	"github.com/benjoco/sitescope/internal/monitor"
	"github.com/benjoco/sitescope/internal/urlutil"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

type addSitePayload struct {
	URL         string   `json:"url"`
	AlertEmails []string `json:"alert_emails"`
}

func (s *Server) handleAddSite(w http.ResponseWriter, r *http.Request) {
	var p addSitePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.URL == "" {
		writeErr(w, http.StatusBadRequest, "bad payload")
		return
	}
	norm, err := urlutil.Normalize(p.URL)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid url")
		return
	}

	user := middleware.UserFrom(r)
	site := &domain.Site{
		UserID:      user,
		URL:         norm,
		Status:      domain.StatusUnknown,
		AlertEmails: cleanEmails(p.AlertEmails),
	}
	if err := s.Sites.Add(r.Context(), site); err != nil {
		s.Logger.Error("add_site_error", zap.String("url", norm), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "could not add")
		return
	}

	// One check synchronously for immediate feedback.
	res, err := s.Monitor.CheckNow(r.Context(), site.ID)
	if err != nil {
		s.Logger.Warn("first_check_failed", zap.String("site_id", string(site.ID)), zap.Error(err))
	} else {
		site.Status = res.Status
		site.LastChecked = res.CheckedAt
	}

	s.Logger.Info("site_added",
		zap.String("site_id", string(site.ID)),
		zap.String("user_id", string(user)),
		zap.String("url", norm),
	)
	writeJSON(w, http.StatusCreated, map[string]any{"site": site, "result": res})
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Sites.ListByUser(r.Context(), middleware.UserFrom(r))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "list error")
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r)
	id := domain.SiteID(chi.URLParam(r, "id"))

	deleted, err := s.Sites.Delete(r.Context(), id, user)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "delete error")
		return
	}
	if !deleted {
		writeErr(w, http.StatusNotFound, "site not found")
		return
	}
	s.Monitor.ForgetSite(user, id)
	s.Logger.Info("site_deleted", zap.String("site_id", string(id)), zap.String("user_id", string(user)))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleSiteLogs(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r)
	id := domain.SiteID(chi.URLParam(r, "id"))

	site, err := s.Sites.Get(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "read error")
		return
	}
	if site == nil || site.UserID != user {
		writeErr(w, http.StatusNotFound, "site not found")
		return
	}

	limit := defaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	entries, err := s.Logs.ListBySite(r.Context(), id, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "logs error")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type checkNowPayload struct {
	SiteID string `json:"site_id"`
	URL    string `json:"url"`
}

func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	var p checkNowPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || (p.SiteID == "" && p.URL == "") {
		writeErr(w, http.StatusBadRequest, "bad payload")
		return
	}

	user := middleware.UserFrom(r)
	id := domain.SiteID(p.SiteID)
	if id == "" {
		norm, err := urlutil.Normalize(p.URL)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid url")
			return
		}
		site, err := s.Sites.GetByURL(r.Context(), user, norm)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "read error")
			return
		}
		if site == nil {
			writeErr(w, http.StatusNotFound, "site not found")
			return
		}
		id = site.ID
	} else {
		site, err := s.Sites.Get(r.Context(), id)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "read error")
			return
		}
		if site == nil || site.UserID != user {
			writeErr(w, http.StatusNotFound, "site not found")
			return
		}
	}

	res, err := s.Monitor.CheckNow(r.Context(), id)
	if err != nil {
		if errors.Is(err, monitor.ErrSiteNotFound) {
			writeErr(w, http.StatusNotFound, "site not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "check error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type testAlertPayload struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

func (s *Server) handleTestAlert(w http.ResponseWriter, r *http.Request) {
	var p testAlertPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.URL == "" {
		writeErr(w, http.StatusBadRequest, "bad payload")
		return
	}
	norm, err := urlutil.Normalize(p.URL)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid url")
		return
	}

	status := domain.StatusDown
	if strings.EqualFold(p.Status, string(domain.StatusUp)) {
		status = domain.StatusUp
	}

	out := s.Monitor.TestAlert(r.Context(), middleware.UserFrom(r), norm, status)
	writeJSON(w, http.StatusOK, map[string]any{
		"emails_sent":    out.EmailsSent,
		"emails_failed":  out.EmailsFailed,
		"push_sent":      out.PushSent,
		"push_failed":    out.PushFailed,
		"tokens_deleted": out.TokensDeleted,
	})
}

type saveTokenPayload struct {
	Token string `json:"token"`
}

func (s *Server) handleSaveToken(w http.ResponseWriter, r *http.Request) {
	var p saveTokenPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || strings.TrimSpace(p.Token) == "" {
		writeErr(w, http.StatusBadRequest, "bad payload")
		return
	}
	user := middleware.UserFrom(r)
	if err := s.Tokens.SaveToken(r.Context(), user, strings.TrimSpace(p.Token)); err != nil {
		writeErr(w, http.StatusInternalServerError, "could not save token")
		return
	}
	s.Logger.Info("token_saved", zap.String("user_id", string(user)))
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

// cleanEmails drops blank and obviously malformed entries and caps the
// stored extras so the dispatch fan-out stays bounded.
func cleanEmails(in []string) []string {
	var out []string
	for _, e := range in {
		e = strings.TrimSpace(e)
		if e == "" || !strings.Contains(e, "@") {
			continue
		}
		out = append(out, e)
		if len(out) == domain.MaxAlertEmails {
			break
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
