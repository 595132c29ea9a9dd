package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/wneessen/go-mail"
)

// MailClient is the part of the go-mail client the mailer needs.
type MailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type MailerConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	TLSPolicy    string
	Timeout      time.Duration
	MaxRetries   uint64
	RetryBackoff time.Duration
}

// Mailer renders envelopes and sends them over SMTP with a bounded
// exponential retry. Rendering and addressing failures are not retried.
type Mailer struct {
	client     MailClient
	renderer   *Renderer
	from       string
	maxRetries uint64
	backoff    time.Duration
	logger     *slog.Logger
}

func NewMailer(cfg MailerConfig, renderer *Renderer, logger *slog.Logger) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLSPolicy)),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return NewMailerWithClient(client, cfg, renderer, logger), nil
}

func NewMailerWithClient(client MailClient, cfg MailerConfig, renderer *Renderer, logger *slog.Logger) *Mailer {
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Mailer{
		client:     client,
		renderer:   renderer,
		from:       cfg.From,
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

func (m *Mailer) Send(ctx context.Context, env Envelope) error {
	body, err := m.renderer.Render(env)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(env.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", env.To, err)
	}
	msg.Subject(env.Subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	attempt := 0
	b := retry.WithMaxRetries(m.maxRetries, retry.NewExponential(m.backoff))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
			m.logger.WarnContext(ctx, "smtp delivery attempt failed",
				"attempt", attempt,
				"to", env.To,
				"template", env.Template,
				"error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("send %s mail to %s after %d attempts: %w", env.Template, env.To, attempt, err)
	}

	m.logger.DebugContext(ctx, "mail sent", "to", env.To, "template", env.Template, "attempts", attempt)
	return nil
}

func tlsPolicy(policy string) mail.TLSPolicy {
	switch policy {
	case "mandatory":
		return mail.TLSMandatory
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}
