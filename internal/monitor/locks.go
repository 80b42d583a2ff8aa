package monitor

import (
	"sync"

	"github.com/benjoco/sitescope/internal/domain"
)

// siteLocks hands out one mutex per site so the
// read-classify-notify-persist sequence is serialized per site while
// different sites proceed in parallel. Entries are a few words each
// and are dropped when a site is removed.
type siteLocks struct {
	mu sync.Mutex
	m  map[domain.SiteID]*sync.Mutex
}

func newSiteLocks() *siteLocks {
	return &siteLocks{m: make(map[domain.SiteID]*sync.Mutex)}
}

func (s *siteLocks) get(id domain.SiteID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.m[id]
	if !ok {
		l = &sync.Mutex{}
		s.m[id] = l
	}
	return l
}

func (s *siteLocks) drop(id domain.SiteID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}
