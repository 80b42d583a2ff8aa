package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/benjoco/sitescope/internal/domain"
	"github.com/benjoco/sitescope/internal/notify"
	"github.com/benjoco/sitescope/internal/probe"
	"github.com/benjoco/sitescope/internal/repo/memory"
)

// ---- fakes ----

type scriptedChecker struct {
	mu      sync.Mutex
	results []probe.Result // consumed in order; last one repeats
	calls   int
	delay   time.Duration
}

func (s *scriptedChecker) Check(ctx context.Context, target string) probe.Result {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i]
}

type recordingDispatcher struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, a notify.Alert) notify.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return notify.Outcome{EmailsSent: 1}
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func up(code int) probe.Result {
	return probe.Result{Status: domain.StatusUp, HTTPCode: code, Reason: "200 OK"}
}

func down(code int) probe.Result {
	return probe.Result{Status: domain.StatusDown, HTTPCode: code, Reason: "boom"}
}

func newTestMonitor(t *testing.T, chk probe.Checker, window time.Duration) (*Monitor, *memory.Store, *recordingDispatcher) {
	t.Helper()
	st := memory.New()
	disp := &recordingDispatcher{}
	m := New(zap.NewNop(), st, st, chk, NewCooldown(window), disp, nil, Config{
		Interval:     time.Hour, // loop not used in tests
		ProbeTimeout: time.Second,
		Concurrency:  4,
	})
	m.dns = nil // keep unit tests off the resolver
	return m, st, disp
}

func addSite(t *testing.T, st *memory.Store, user domain.UserID, url string) domain.SiteID {
	t.Helper()
	s := &domain.Site{UserID: user, URL: url}
	if err := st.Add(context.Background(), s); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return s.ID
}

// ---- tests ----

func TestCheckNow_FirstObservationAlertsAndPersists(t *testing.T) {
	// Scenario: never probed -> UP -> alert sent, status persisted, one log entry.
	ctx := context.Background()
	chk := &scriptedChecker{results: []probe.Result{up(200)}}
	m, st, disp := newTestMonitor(t, chk, 10*time.Minute)
	id := addSite(t, st, "U1", "https://a.example.com")

	res, err := m.CheckNow(ctx, id)
	if err != nil {
		t.Fatalf("CheckNow: %v", err)
	}
	if res.Status != domain.StatusUp || res.HTTPCode != 200 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if disp.count() != 1 {
		t.Fatalf("want 1 alert on first observation, got %d", disp.count())
	}
	site, _ := st.Get(ctx, id)
	if site.Status != domain.StatusUp || site.LastChecked.IsZero() {
		t.Fatalf("status not persisted: %+v", site)
	}
	logs, _ := st.ListBySite(ctx, id, 0)
	if len(logs) != 1 || logs[0].Status != domain.StatusUp {
		t.Fatalf("want exactly one log entry, got %+v", logs)
	}
	if logs[0].HTTPCode == nil || *logs[0].HTTPCode != 200 {
		t.Fatalf("log entry missing http code: %+v", logs[0])
	}
}

func TestCheckNow_UnchangedLogsButNeverAlerts(t *testing.T) {
	// Scenario: UP -> UP: no notification, log still appended.
	ctx := context.Background()
	chk := &scriptedChecker{results: []probe.Result{up(200), up(200)}}
	m, st, disp := newTestMonitor(t, chk, 10*time.Minute)
	id := addSite(t, st, "U1", "https://a.example.com")

	if _, err := m.CheckNow(ctx, id); err != nil {
		t.Fatalf("first check: %v", err)
	}
	if _, err := m.CheckNow(ctx, id); err != nil {
		t.Fatalf("second check: %v", err)
	}
	if disp.count() != 1 {
		t.Fatalf("unchanged must not alert again, got %d", disp.count())
	}
	logs, _ := st.ListBySite(ctx, id, 0)
	if len(logs) != 2 {
		t.Fatalf("every probe appends one entry, got %d", len(logs))
	}
}

func TestCheckNow_RepeatedDownWithinCooldownAlertsOnce(t *testing.T) {
	// Scenario: UP -> DOWN -> DOWN within 2 minutes, cooldown 10m.
	// First flip alerts; the second probe is UNCHANGED against the now-DOWN
	// status and stays silent.
	ctx := context.Background()
	chk := &scriptedChecker{results: []probe.Result{up(200), down(503), down(503)}}
	m, st, disp := newTestMonitor(t, chk, 10*time.Minute)
	id := addSite(t, st, "U1", "https://a.example.com")

	for i := 0; i < 3; i++ {
		if _, err := m.CheckNow(ctx, id); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}
	// first observation (UP) + flip (DOWN) = 2; repeated DOWN adds none
	if disp.count() != 2 {
		t.Fatalf("want 2 alerts, got %d", disp.count())
	}
	site, _ := st.Get(ctx, id)
	if site.Status != domain.StatusDown {
		t.Fatalf("status not DOWN: %+v", site)
	}
	logs, _ := st.ListBySite(ctx, id, 0)
	if len(logs) != 3 {
		t.Fatalf("want 3 log entries, got %d", len(logs))
	}
}

func TestCheckNow_DeletedSite(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMonitor(t, &scriptedChecker{results: []probe.Result{up(200)}}, time.Minute)
	if _, err := m.CheckNow(ctx, "gone"); err != ErrSiteNotFound {
		t.Fatalf("want ErrSiteNotFound, got %v", err)
	}
}

func TestRunCycle_ChecksEverySiteOnce(t *testing.T) {
	ctx := context.Background()
	chk := &scriptedChecker{results: []probe.Result{up(200)}}
	m, st, disp := newTestMonitor(t, chk, 10*time.Minute)
	ids := []domain.SiteID{
		addSite(t, st, "U1", "https://a.example.com"),
		addSite(t, st, "U1", "https://b.example.com"),
		addSite(t, st, "U2", "https://a.example.com"),
	}

	m.RunCycle(ctx)

	for _, id := range ids {
		logs, _ := st.ListBySite(ctx, id, 0)
		if len(logs) != 1 {
			t.Fatalf("site %s: want 1 log entry, got %d", id, len(logs))
		}
		site, _ := st.Get(ctx, id)
		if site.Status != domain.StatusUp {
			t.Fatalf("site %s not UP: %+v", id, site)
		}
	}
	// each site's first observation alerts its own user
	if disp.count() != 3 {
		t.Fatalf("want 3 alerts, got %d", disp.count())
	}
}

func TestRunCycle_ManualCheckRaceAlertsAtMostOnce(t *testing.T) {
	// A scheduled cycle and a manual check racing on the same site must
	// not produce a duplicate flip alert: the per-site lock serializes
	// them, so the loser observes the already-updated status.
	ctx := context.Background()
	chk := &scriptedChecker{
		results: []probe.Result{down(503)},
		delay:   10 * time.Millisecond,
	}
	m, st, disp := newTestMonitor(t, chk, 10*time.Minute)
	id := addSite(t, st, "U1", "https://a.example.com")
	// establish UP first
	if err := st.SetStatus(ctx, id, domain.StatusUp, time.Now().UTC()); err != nil {
		t.Fatalf("seed status: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.RunCycle(ctx)
	}()
	go func() {
		defer wg.Done()
		_, _ = m.CheckNow(ctx, id)
	}()
	wg.Wait()

	if disp.count() != 1 {
		t.Fatalf("racing checks must alert exactly once, got %d", disp.count())
	}
	logs, _ := st.ListBySite(ctx, id, 0)
	if len(logs) != 2 {
		t.Fatalf("both checks still append their log entry, got %d", len(logs))
	}
}

func TestRunCycle_SkipsWhenPreviousStillRunning(t *testing.T) {
	ctx := context.Background()
	chk := &scriptedChecker{results: []probe.Result{up(200)}, delay: 50 * time.Millisecond}
	m, st, _ := newTestMonitor(t, chk, time.Minute)
	id := addSite(t, st, "U1", "https://a.example.com")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.RunCycle(ctx)
	}()
	time.Sleep(10 * time.Millisecond) // let the first cycle take the slot
	m.RunCycle(ctx)                   // must return immediately, skipped
	wg.Wait()

	logs, _ := st.ListBySite(ctx, id, 0)
	if len(logs) != 1 {
		t.Fatalf("overlapping cycle must be skipped, got %d log entries", len(logs))
	}
}

func TestTestAlert_ForceDispatchesWithoutProbe(t *testing.T) {
	// Scenario: force test-alert within cooldown still sends.
	ctx := context.Background()
	chk := &scriptedChecker{results: []probe.Result{up(200)}}
	m, st, disp := newTestMonitor(t, chk, 10*time.Minute)
	id := addSite(t, st, "U1", "https://a.example.com")

	if _, err := m.CheckNow(ctx, id); err != nil { // consumes the cooldown
		t.Fatalf("CheckNow: %v", err)
	}
	out := m.TestAlert(ctx, "U1", "https://a.example.com", domain.StatusDown)
	if out.EmailsSent == 0 {
		t.Fatalf("forced alert must dispatch: %+v", out)
	}
	if disp.count() != 2 {
		t.Fatalf("want 2 dispatches, got %d", disp.count())
	}
	if !disp.alerts[1].Force {
		t.Fatalf("test alert must carry the force flag")
	}
	if chk.calls != 1 {
		t.Fatalf("test alert must not probe, calls=%d", chk.calls)
	}
}

func TestRun_WarmupThenTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chk := &scriptedChecker{results: []probe.Result{up(200)}}
	st := memory.New()
	disp := &recordingDispatcher{}
	m := New(zap.NewNop(), st, st, chk, NewCooldown(time.Minute), disp, nil, Config{
		Interval:     20 * time.Millisecond,
		Warmup:       5 * time.Millisecond,
		ProbeTimeout: time.Second,
		Concurrency:  2,
	})
	m.dns = nil
	addSite(t, st, "U1", "https://a.example.com")

	go m.Run(ctx)
	time.Sleep(60 * time.Millisecond)
	cancel()

	chk.mu.Lock()
	calls := chk.calls
	chk.mu.Unlock()
	if calls < 2 {
		t.Fatalf("expected warmup pass plus at least one tick, got %d calls", calls)
	}
}
