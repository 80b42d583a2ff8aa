package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/benjoco/sitescope/internal/domain"
	"github.com/benjoco/sitescope/internal/notify"
	"github.com/benjoco/sitescope/internal/probe"
	"github.com/benjoco/sitescope/internal/repo"
	"github.com/benjoco/sitescope/internal/urlutil"
)

// ErrSiteNotFound is returned by the manual check path when the site
// does not exist (or was deleted while the check was queued).
var ErrSiteNotFound = errors.New("site not found")

type Config struct {
	Interval     time.Duration // 0 disables the background loop
	Warmup       time.Duration // delay before the first cycle
	ProbeTimeout time.Duration
	Concurrency  int
}

// Monitor drives probe -> classify -> gate -> dispatch -> persist over
// all registered sites, and exposes the same pipeline for manual
// checks.
type Monitor struct {
	logger  *zap.Logger
	sites   repo.SiteStore
	logs    repo.LogStore
	checker probe.Checker
	gate    *Cooldown
	dispatcher interface {
		Dispatch(ctx context.Context, a notify.Alert) notify.Outcome
	}
	ops notify.Notifier // optional flip mirror (Slack); may be nil

	interval    time.Duration
	warmup      time.Duration
	timeout     time.Duration
	concurrency int

	locks   *siteLocks
	running atomic.Bool

	// dns enriches transport-level DOWN reasons; replaceable in tests.
	dns func(ctx context.Context, host string) string
}

func New(
	logger *zap.Logger,
	sites repo.SiteStore,
	logs repo.LogStore,
	checker probe.Checker,
	gate *Cooldown,
	dispatcher interface {
		Dispatch(ctx context.Context, a notify.Alert) notify.Outcome
	},
	ops notify.Notifier,
	cfg Config,
) *Monitor {
	if cfg.Warmup <= 0 {
		cfg.Warmup = 5 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 8
	}
	return &Monitor{
		logger:      logger,
		sites:       sites,
		logs:        logs,
		checker:     checker,
		gate:        gate,
		dispatcher:  dispatcher,
		ops:         ops,
		interval:    cfg.Interval,
		warmup:      cfg.Warmup,
		timeout:     cfg.ProbeTimeout,
		concurrency: cfg.Concurrency,
		locks:       newSiteLocks(),
		dns:         probe.ClassifyDNS,
	}
}

// Run starts the background loop: one cycle after the warm-up delay,
// then one per interval. Stops when ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if m.interval == 0 {
		m.logger.Info("monitor_disabled")
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(m.warmup):
	}
	m.RunCycle(ctx)

	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor_stopped")
			return
		case <-t.C:
			m.RunCycle(ctx)
		}
	}
}

// RunCycle checks every registered site once, concurrently. Invocations
// never overlap: a tick that fires while the previous cycle is still
// draining is skipped rather than queued.
func (m *Monitor) RunCycle(ctx context.Context) {
	if !m.running.CompareAndSwap(false, true) {
		m.logger.Warn("cycle_skipped_still_running")
		return
	}
	defer m.running.Store(false)

	sites, err := m.sites.ListAll(ctx)
	if err != nil {
		m.logger.Error("cycle_list_error", zap.Error(err))
		return
	}
	if len(sites) == 0 {
		return
	}

	start := time.Now()
	var ok, failed atomic.Int64

	sem := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup
	for _, site := range sites {
		s := site
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					m.logger.Error("check_panic",
						zap.String("site_id", string(s.ID)),
						zap.Any("panic", r),
					)
				}
			}()

			if _, err := m.evaluate(ctx, s.ID); err != nil && !errors.Is(err, ErrSiteNotFound) {
				failed.Add(1)
				m.logger.Warn("check_failed",
					zap.String("site_id", string(s.ID)),
					zap.String("url", s.URL),
					zap.Error(err),
				)
				return
			}
			ok.Add(1)
		}()
	}
	wg.Wait()

	m.logger.Info("cycle_complete",
		zap.Int("sites", len(sites)),
		zap.Int64("ok", ok.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Duration("duration", time.Since(start)),
	)
}

// CheckNow runs the full pipeline for one site on demand. It shares
// the per-site lock with the background cycle, so a manual check
// racing a scheduled one cannot double-alert.
func (m *Monitor) CheckNow(ctx context.Context, id domain.SiteID) (*domain.ProbeResult, error) {
	return m.evaluate(ctx, id)
}

// TestAlert dispatches a forced notification without probing. When the
// user has a registered site for the URL its per-site emails join the
// fan-out and the cooldown clock for the pair is restarted.
func (m *Monitor) TestAlert(ctx context.Context, user domain.UserID, url string, status domain.Status) notify.Outcome {
	a := notify.Alert{UserID: user, SiteURL: url, Status: status, Force: true}
	if site, err := m.sites.GetByURL(ctx, user, url); err == nil && site != nil {
		a.SiteEmails = site.AlertEmails
		m.gate.ShouldNotify(user, site.ID, Unchanged, true) // restart cooldown clock
	}
	return m.dispatcher.Dispatch(ctx, a)
}

// ForgetSite drops per-site monitor state after a deletion.
func (m *Monitor) ForgetSite(user domain.UserID, id domain.SiteID) {
	m.locks.drop(id)
	m.gate.Forget(user, id)
}

// evaluate is the serialized per-site pipeline: re-read the stored
// status under the site lock, probe, classify against it, maybe
// dispatch, then persist status and exactly one log entry.
func (m *Monitor) evaluate(ctx context.Context, id domain.SiteID) (*domain.ProbeResult, error) {
	lock := m.locks.get(id)
	lock.Lock()
	defer lock.Unlock()

	site, err := m.sites.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read site: %w", err)
	}
	if site == nil {
		return nil, ErrSiteNotFound
	}
	prev := site.Status

	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	out := m.checker.Check(pctx, site.URL)
	cancel()

	if m.dns != nil && out.Status == domain.StatusDown && out.HTTPCode == 0 {
		out.Reason = strings.TrimSpace(out.Reason + " dns=" + m.dns(ctx, urlutil.Host(site.URL)))
	}

	checkedAt := time.Now().UTC()
	class := Classify(prev, out.Status)

	if class != Unchanged {
		if m.gate.ShouldNotify(site.UserID, site.ID, class, false) {
			m.dispatcher.Dispatch(ctx, notify.Alert{
				UserID:     site.UserID,
				SiteURL:    site.URL,
				Status:     out.Status,
				Reason:     out.Reason,
				SiteEmails: site.AlertEmails,
			})
			m.mirrorToOps(ctx, site.URL, out)
		} else {
			m.logger.Info("alert_suppressed",
				zap.String("site_id", string(site.ID)),
				zap.String("user_id", string(site.UserID)),
				zap.String("classification", class.String()),
			)
		}
	}

	// Persist regardless of alerting. Store trouble is logged and
	// self-corrects on the next cycle's re-read.
	if err := m.sites.SetStatus(ctx, site.ID, out.Status, checkedAt); err != nil {
		m.logger.Warn("persist_status_error", zap.String("site_id", string(site.ID)), zap.Error(err))
	}
	entry := &domain.StatusLogEntry{
		SiteID:    site.ID,
		Status:    out.Status,
		CheckedAt: checkedAt,
	}
	res := &domain.ProbeResult{
		SiteID:    site.ID,
		Status:    out.Status,
		HTTPCode:  out.HTTPCode,
		LatencyMS: out.LatencyMS,
		Reason:    out.Reason,
		CheckedAt: checkedAt,
	}
	entry.HTTPCode = res.HTTPCodePtr()
	if err := m.logs.Append(ctx, entry); err != nil {
		m.logger.Warn("persist_log_error", zap.String("site_id", string(site.ID)), zap.Error(err))
	}

	m.logger.Debug("site_checked",
		zap.String("site_id", string(site.ID)),
		zap.String("url", site.URL),
		zap.String("status", string(out.Status)),
		zap.Int("http_code", out.HTTPCode),
		zap.Float64("latency_ms", out.LatencyMS),
		zap.String("classification", class.String()),
	)
	return res, nil
}

func (m *Monitor) mirrorToOps(ctx context.Context, url string, out probe.Result) {
	if m.ops == nil {
		return
	}
	title := "🔴 Site DOWN"
	if out.Status == domain.StatusUp {
		title = "🟢 Site UP"
	}
	text := fmt.Sprintf("URL: %s\nHTTP: %d\nReason: %s", url, out.HTTPCode, out.Reason)
	if err := m.ops.Send(ctx, title, text); err != nil {
		m.logger.Warn("ops_mirror_failed", zap.Error(err))
	}
}
