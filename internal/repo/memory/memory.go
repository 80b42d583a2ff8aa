package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benjoco/sitescope/internal/domain"
	"github.com/benjoco/sitescope/internal/repo"
)

var _ repo.SiteStore = (*Store)(nil)
var _ repo.LogStore = (*Store)(nil)
var _ repo.TokenStore = (*Store)(nil)
var _ repo.UserStore = (*Store)(nil)

// Store is an in-memory adapter for every repo port. Used in tests and
// when DATABASE_URL is unset.
type Store struct {
	mu       sync.RWMutex
	sites    map[domain.SiteID]*domain.Site
	logs     []domain.StatusLogEntry
	nextLog  int64
	tokens   map[string]domain.UserID // token -> owner
	profiles map[domain.UserID]*domain.AlertProfile
}

func New() *Store {
	return &Store{
		sites:    make(map[domain.SiteID]*domain.Site),
		logs:     make([]domain.StatusLogEntry, 0, 128),
		tokens:   make(map[string]domain.UserID),
		profiles: make(map[domain.UserID]*domain.AlertProfile),
	}
}

// ---- SiteStore ----

func (m *Store) Add(ctx context.Context, s *domain.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sites {
		if existing.UserID == s.UserID && existing.URL == s.URL {
			existing.AlertEmails = s.AlertEmails
			*s = *existing
			return nil
		}
	}
	if s.ID == "" {
		s.ID = domain.SiteID(time.Now().UTC().Format("20060102T150405.000000000"))
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = domain.StatusUnknown
	}
	cp := *s
	m.sites[s.ID] = &cp
	return nil
}

func (m *Store) Get(ctx context.Context, id domain.SiteID) (*domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sites[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *Store) GetByURL(ctx context.Context, user domain.UserID, url string) (*domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sites {
		if s.UserID == user && s.URL == url {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) ListAll(ctx context.Context) ([]domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Site, 0, len(m.sites))
	for _, s := range m.sites {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) ListByUser(ctx context.Context, user domain.UserID) ([]domain.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Site
	for _, s := range m.sites {
		if s.UserID == user {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) SetStatus(ctx context.Context, id domain.SiteID, st domain.Status, checkedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return nil // deleted mid-cycle
	}
	s.Status = st
	s.LastChecked = checkedAt
	return nil
}

func (m *Store) Delete(ctx context.Context, id domain.SiteID, user domain.UserID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok || s.UserID != user {
		return false, nil
	}
	delete(m.sites, id)
	kept := m.logs[:0]
	for _, e := range m.logs {
		if e.SiteID != id {
			kept = append(kept, e)
		}
	}
	m.logs = kept
	return true, nil
}

// ---- LogStore ----

func (m *Store) Append(ctx context.Context, e *domain.StatusLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[e.SiteID]; !ok {
		return nil // deleted mid-cycle
	}
	m.nextLog++
	e.ID = m.nextLog
	m.logs = append(m.logs, *e)
	return nil
}

func (m *Store) ListBySite(ctx context.Context, id domain.SiteID, limit int) ([]domain.StatusLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.StatusLogEntry
	for _, e := range m.logs {
		if e.SiteID == id {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckedAt.After(out[j].CheckedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- TokenStore ----

func (m *Store) SaveToken(ctx context.Context, user domain.UserID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = user
	return nil
}

func (m *Store) TokensByUser(ctx context.Context, user domain.UserID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for tok, u := range m.tokens {
		if u == user {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Store) DeleteToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

// ---- UserStore ----

func (m *Store) AlertProfile(ctx context.Context, user domain.UserID) (*domain.AlertProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[user]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// SetAlertProfile seeds account data; the account CRUD surface lives
// outside this module.
func (m *Store) SetAlertProfile(p domain.AlertProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := p
	m.profiles[p.UserID] = &cp
}
