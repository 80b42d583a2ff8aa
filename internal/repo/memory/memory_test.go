package memory

import (
	"context"
	"testing"
	"time"

	"github.com/benjoco/sitescope/internal/domain"
)

func TestMemoryStore_AddIsUpsertByUserAndURL(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &domain.Site{UserID: "U1", URL: "https://example.com"}
	if err := s.Add(ctx, a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.ID == "" {
		t.Fatalf("expected site ID to be set")
	}
	if a.Status != domain.StatusUnknown {
		t.Fatalf("new site must start UNKNOWN, got %s", a.Status)
	}

	// same user + url: updates alert emails, keeps identity
	b := &domain.Site{UserID: "U1", URL: "https://example.com", AlertEmails: []string{"x@example.com"}}
	if err := s.Add(ctx, b); err != nil {
		t.Fatalf("re-Add: %v", err)
	}
	if b.ID != a.ID {
		t.Fatalf("upsert changed identity: %s vs %s", b.ID, a.ID)
	}

	// different user, same url: independent site
	c := &domain.Site{UserID: "U2", URL: "https://example.com"}
	if err := s.Add(ctx, c); err != nil {
		t.Fatalf("Add other user: %v", err)
	}
	if c.ID == a.ID {
		t.Fatalf("sites must be scoped per user")
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(all))
	}
	mine, err := s.ListByUser(ctx, "U1")
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListByUser: %v, n=%d", err, len(mine))
	}
	if len(mine[0].AlertEmails) != 1 {
		t.Fatalf("alert emails not upserted: %+v", mine[0])
	}
}

func TestMemoryStore_SetStatusOnDeletedSiteIsNoop(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.SetStatus(ctx, "gone", domain.StatusUp, time.Now()); err != nil {
		t.Fatalf("SetStatus on missing site must be a no-op, got %v", err)
	}
	if err := s.Append(ctx, &domain.StatusLogEntry{SiteID: "gone", Status: domain.StatusUp}); err != nil {
		t.Fatalf("Append on missing site must be a no-op, got %v", err)
	}
}

func TestMemoryStore_DeleteCascadesLogs(t *testing.T) {
	ctx := context.Background()
	s := New()
	site := &domain.Site{UserID: "U1", URL: "https://example.com"}
	if err := s.Add(ctx, site); err != nil {
		t.Fatalf("Add: %v", err)
	}
	for i := 0; i < 3; i++ {
		e := &domain.StatusLogEntry{SiteID: site.ID, Status: domain.StatusUp, CheckedAt: time.Now().UTC()}
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// wrong owner: no delete
	ok, err := s.Delete(ctx, site.ID, "U2")
	if err != nil || ok {
		t.Fatalf("delete by non-owner must not match, ok=%v err=%v", ok, err)
	}

	ok, err = s.Delete(ctx, site.ID, "U1")
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	logs, err := s.ListBySite(ctx, site.ID, 0)
	if err != nil {
		t.Fatalf("ListBySite: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("logs must cascade on delete, got %d", len(logs))
	}
}

func TestMemoryStore_LogsNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	site := &domain.Site{UserID: "U1", URL: "https://example.com"}
	if err := s.Add(ctx, site); err != nil {
		t.Fatalf("Add: %v", err)
	}
	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := &domain.StatusLogEntry{SiteID: site.ID, Status: domain.StatusUp, CheckedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	logs, err := s.ListBySite(ctx, site.ID, 2)
	if err != nil {
		t.Fatalf("ListBySite: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("limit not applied: %d", len(logs))
	}
	if !logs[0].CheckedAt.After(logs[1].CheckedAt) {
		t.Fatalf("want newest first: %+v", logs)
	}
}

func TestMemoryStore_Tokens(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.SaveToken(ctx, "U1", "tok-a"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := s.SaveToken(ctx, "U1", "tok-b"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	// token re-registered by another account moves over
	if err := s.SaveToken(ctx, "U2", "tok-b"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	toks, err := s.TokensByUser(ctx, "U1")
	if err != nil {
		t.Fatalf("TokensByUser: %v", err)
	}
	if len(toks) != 1 || toks[0] != "tok-a" {
		t.Fatalf("unexpected tokens: %v", toks)
	}

	if err := s.DeleteToken(ctx, "tok-a"); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	toks, _ = s.TokensByUser(ctx, "U1")
	if len(toks) != 0 {
		t.Fatalf("token not deleted: %v", toks)
	}
}

func TestMemoryStore_AlertProfile(t *testing.T) {
	ctx := context.Background()
	s := New()
	if p, err := s.AlertProfile(ctx, "nobody"); err != nil || p != nil {
		t.Fatalf("unknown user must be nil, nil; got %+v, %v", p, err)
	}
	s.SetAlertProfile(domain.AlertProfile{UserID: "U1", PrimaryEmail: "me@example.com", ExtraEmails: []string{"ops@example.com"}})
	p, err := s.AlertProfile(ctx, "U1")
	if err != nil || p == nil {
		t.Fatalf("AlertProfile: %+v, %v", p, err)
	}
	if p.PrimaryEmail != "me@example.com" || len(p.ExtraEmails) != 1 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}
