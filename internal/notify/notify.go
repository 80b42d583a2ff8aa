package notify

import "context"

// EmailSender delivers one alert email. Implementations return an
// error for the dispatcher to log; they never panic past the call.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PushOutcome classifies one push delivery attempt.
type PushOutcome int

const (
	PushSent PushOutcome = iota
	// PushFailed is transient or unknown; the token is kept.
	PushFailed
	// PushInvalidToken means the provider reports the token as
	// permanently unregistered; the dispatcher deletes it.
	PushInvalidToken
)

func (o PushOutcome) String() string {
	switch o {
	case PushSent:
		return "SENT"
	case PushInvalidToken:
		return "INVALID_TOKEN"
	default:
		return "FAILED"
	}
}

// PushSender delivers one push message to a registration token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (PushOutcome, error)
}

// Notifier is a fire-and-forget ops channel (Slack webhook etc.),
// separate from user-facing alert delivery.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans an ops message out to several channels, reporting the
// first error only.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
