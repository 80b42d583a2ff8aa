package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benjoco/sitescope/internal/domain"
)

type Config struct {
	Addr        string // API bind address
	LogDir      string // logs directory
	DatabaseURL string // empty means in-memory stores

	CheckInterval time.Duration // background cycle interval
	WarmupDelay   time.Duration // delay before the first cycle
	ProbeTimeout  time.Duration
	Cooldown      time.Duration // per (user, site) notification window
	NotifyTimeout time.Duration // per-destination send deadline
	MaxConcurrent int           // concurrent site checks per cycle

	RetryAttempts int // probe retries before accepting DOWN
	RetryBackoff  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	SMTPFrom     string
	FCMCredsFile string // Firebase service-account key path
	SlackWebhook string // optional ops mirror

	// APIKeys maps an API key to the acting user, e.g.
	// API_KEYS="k1:alice,k2:bob". Empty means open dev mode.
	APIKeys map[string]domain.UserID

	RatePerMin int
	RateBurst  int
}

func FromEnv() Config {
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:4000"
	}
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	return Config{
		Addr:        addr,
		LogDir:      logDir,
		DatabaseURL: os.Getenv("DATABASE_URL"),

		CheckInterval: envDuration("CHECK_INTERVAL_S", time.Second, 120*time.Second),
		WarmupDelay:   envDuration("WARMUP_DELAY_S", time.Second, 5*time.Second),
		ProbeTimeout:  envDuration("PROBE_TIMEOUT_S", time.Second, 10*time.Second),
		Cooldown:      envDuration("COOLDOWN_MIN", time.Minute, 10*time.Minute),
		NotifyTimeout: envDuration("NOTIFY_TIMEOUT_S", time.Second, 15*time.Second),
		MaxConcurrent: envInt("MAX_CONCURRENT_CHECKS", 16),

		RetryAttempts: envInt("RETRY_ATTEMPTS", 2),
		RetryBackoff:  envDuration("RETRY_BACKOFF_MS", time.Millisecond, 300*time.Millisecond),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPass:     os.Getenv("SMTP_PASS"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		FCMCredsFile: os.Getenv("FCM_CREDENTIALS_FILE"),
		SlackWebhook: os.Getenv("SLACK_WEBHOOK"),

		APIKeys: parseKeys(os.Getenv("API_KEYS")),

		RatePerMin: envInt("API_RPM", 120),
		RateBurst:  envInt("API_BURST", 60),
	}
}

// parseKeys reads "key:user,key:user". Entries without a user are
// skipped.
func parseKeys(raw string) map[string]domain.UserID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]domain.UserID)
	for _, pair := range strings.Split(raw, ",") {
		key, user, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || key == "" || user == "" {
			continue
		}
		out[key] = domain.UserID(user)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envDuration(name string, unit, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * unit
		}
	}
	return def
}
