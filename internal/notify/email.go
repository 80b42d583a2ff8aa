package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // display From, defaults to Username
}

// SMTP sends alert mail through a plain SMTP account. Port 465 speaks
// implicit TLS, anything else negotiates STARTTLS when offered.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.Host == "" {
		return nil
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTP{dialer: d, from: from}
}

func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, "SiteScope Alerts")
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	// gomail has no context support; run the dial in a goroutine so a
	// stalled provider cannot hold a dispatch slot past its deadline.
	errc := make(chan error, 1)
	go func() { errc <- s.dialer.DialAndSend(m) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
