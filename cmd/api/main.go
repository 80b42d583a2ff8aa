package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/benjoco/sitescope/internal/config"
	"github.com/benjoco/sitescope/internal/httpapi"
	"github.com/benjoco/sitescope/internal/logging"
	"github.com/benjoco/sitescope/internal/monitor"
	"github.com/benjoco/sitescope/internal/notify"
	"github.com/benjoco/sitescope/internal/probe"
	"github.com/benjoco/sitescope/internal/repo"
	"github.com/benjoco/sitescope/internal/repo/memory"
	"github.com/benjoco/sitescope/internal/repo/postgres"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		sites  repo.SiteStore
		logs   repo.LogStore
		tokens repo.TokenStore
		users  repo.UserStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_connect_error", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("postgres_migrate_error", zap.Error(err))
		}
		sites, logs, tokens, users = pg, pg, pg, pg
		logger.Info("store_postgres")
	} else {
		mem := memory.New()
		sites, logs, tokens, users = mem, mem, mem, mem
		logger.Warn("store_memory", zap.String("hint", "set DATABASE_URL to persist"))
	}

	var email notify.EmailSender
	if smtp := notify.NewSMTP(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	}); smtp != nil {
		email = smtp
	} else {
		logger.Warn("smtp_disabled")
	}

	var push notify.PushSender
	if cfg.FCMCredsFile != "" {
		fcm, err := notify.NewFCM(ctx, cfg.FCMCredsFile)
		if err != nil {
			logger.Warn("fcm_init_error", zap.Error(err))
		} else {
			push = fcm
		}
	} else {
		logger.Warn("fcm_disabled")
	}

	var ops notify.Notifier
	if cfg.SlackWebhook != "" {
		ops = notify.NewSlack(cfg.SlackWebhook)
	}

	dispatcher := notify.NewDispatcher(logger, email, push, tokens, users, cfg.NotifyTimeout)
	gate := monitor.NewCooldown(cfg.Cooldown)

	var checker probe.Checker = probe.NewHTTPChecker(cfg.ProbeTimeout)
	if cfg.RetryAttempts > 1 {
		checker = &probe.RetryChecker{
			Inner:    checker,
			Attempts: cfg.RetryAttempts,
			Backoff:  cfg.RetryBackoff,
		}
	}

	mon := monitor.New(logger, sites, logs, checker, gate, dispatcher, ops, monitor.Config{
		Interval:     cfg.CheckInterval,
		Warmup:       cfg.WarmupDelay,
		ProbeTimeout: cfg.ProbeTimeout,
		Concurrency:  cfg.MaxConcurrent,
	})
	go mon.Run(ctx)

	api := httpapi.NewServer(logger, sites, logs, tokens, mon)
	api.APIKeys = cfg.APIKeys
	api.RatePerMin = cfg.RatePerMin
	api.RateBurst = cfg.RateBurst

	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api_serve_error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warn("shutdown_error", zap.Error(err))
	}
}
