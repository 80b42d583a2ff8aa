package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benjoco/sitescope/internal/domain"
	"github.com/benjoco/sitescope/internal/repo"
)

// Alert is one qualifying status change to deliver.
type Alert struct {
	UserID     domain.UserID
	SiteURL    string
	Status     domain.Status
	Reason     string
	SiteEmails []string
	Force      bool // explicit test alert
}

// Outcome summarizes one dispatch across all channels. Err aggregates
// per-destination failures for logging; a non-nil Err is not a failed
// dispatch.
type Outcome struct {
	EmailsSent    int
	EmailsFailed  int
	PushSent      int
	PushFailed    int
	TokensDeleted int
	Err           error
}

// Dispatcher fans a status change out to the user's email recipients
// and push tokens. Every destination is attempted independently;
// Dispatch never returns an error to its caller.
type Dispatcher struct {
	log         *zap.Logger
	email       EmailSender
	push        PushSender
	tokens      repo.TokenStore
	users       repo.UserStore
	sendTimeout time.Duration
}

func NewDispatcher(
	log *zap.Logger,
	email EmailSender,
	push PushSender,
	tokens repo.TokenStore,
	users repo.UserStore,
	sendTimeout time.Duration,
) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 15 * time.Second
	}
	return &Dispatcher{
		log:         log,
		email:       email,
		push:        push,
		tokens:      tokens,
		users:       users,
		sendTimeout: sendTimeout,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, a Alert) Outcome {
	var out Outcome

	subject := fmt.Sprintf("SiteScope Alert: %s is %s", a.SiteURL, a.Status)
	if a.Force {
		subject = "SiteScope Test Alert: " + a.SiteURL + " is " + string(a.Status)
	}
	body := fmt.Sprintf("Website: %s\nStatus: %s\nTime: %s", a.SiteURL, a.Status, time.Now().UTC().Format(time.RFC1123))
	if a.Reason != "" {
		body += "\nReason: " + a.Reason
	}

	d.sendEmails(ctx, a, subject, body, &out)
	d.sendPushes(ctx, a, subject, &out)

	d.log.Info("dispatch_complete",
		zap.String("user_id", string(a.UserID)),
		zap.String("url", a.SiteURL),
		zap.String("status", string(a.Status)),
		zap.Bool("force", a.Force),
		zap.Int("emails_sent", out.EmailsSent),
		zap.Int("emails_failed", out.EmailsFailed),
		zap.Int("push_sent", out.PushSent),
		zap.Int("push_failed", out.PushFailed),
		zap.Int("tokens_deleted", out.TokensDeleted),
	)
	return out
}

func (d *Dispatcher) sendEmails(ctx context.Context, a Alert, subject, body string, out *Outcome) {
	profile, err := d.users.AlertProfile(ctx, a.UserID)
	if err != nil {
		d.log.Warn("dispatch_profile_error", zap.String("user_id", string(a.UserID)), zap.Error(err))
	}
	for _, to := range Recipients(profile, a.SiteEmails) {
		sctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		if d.email == nil {
			err = errors.New("email sender not configured")
		} else {
			err = d.email.Send(sctx, to, subject, body)
		}
		cancel()
		if err != nil {
			out.EmailsFailed++
			out.Err = multierr.Append(out.Err, fmt.Errorf("email %s: %w", to, err))
			d.log.Warn("dispatch_email_failed", zap.String("to", to), zap.Error(err))
			continue
		}
		out.EmailsSent++
	}
}

func (d *Dispatcher) sendPushes(ctx context.Context, a Alert, title string, out *Outcome) {
	tokens, err := d.tokens.TokensByUser(ctx, a.UserID)
	if err != nil {
		d.log.Warn("dispatch_tokens_error", zap.String("user_id", string(a.UserID)), zap.Error(err))
		return
	}
	kind := "status_change"
	if a.Force {
		kind = "test_alert"
	}
	data := map[string]string{
		"type":   kind,
		"url":    a.SiteURL,
		"status": string(a.Status),
	}
	pushBody := fmt.Sprintf("%s is %s", a.SiteURL, a.Status)

	for _, tok := range tokens {
		if d.push == nil {
			out.PushFailed++
			out.Err = multierr.Append(out.Err, errors.New("push sender not configured"))
			continue
		}
		sctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		res, err := d.push.Send(sctx, tok, title, pushBody, data)
		cancel()
		switch res {
		case PushSent:
			out.PushSent++
		case PushInvalidToken:
			out.TokensDeleted++
			if delErr := d.tokens.DeleteToken(ctx, tok); delErr != nil {
				d.log.Warn("dispatch_token_delete_failed", zap.Error(delErr))
			} else {
				d.log.Info("dispatch_token_removed", zap.String("user_id", string(a.UserID)))
			}
		default:
			out.PushFailed++
			out.Err = multierr.Append(out.Err, fmt.Errorf("push: %w", err))
			d.log.Warn("dispatch_push_failed", zap.Error(err))
		}
	}
}

// Recipients resolves the email fan-out set: the account's primary
// address, account-level extras, then site-level extras; deduplicated
// case-insensitively, obviously malformed addresses skipped, capped at
// MaxAlertEmails.
func Recipients(profile *domain.AlertProfile, siteEmails []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" || !strings.Contains(addr, "@") {
			return
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			return
		}
		if len(out) >= domain.MaxAlertEmails {
			return
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	if profile != nil {
		add(profile.PrimaryEmail)
		for _, e := range profile.ExtraEmails {
			add(e)
		}
	}
	for _, e := range siteEmails {
		add(e)
	}
	return out
}
