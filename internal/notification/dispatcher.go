package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Failure records one envelope that could not be handed off.
type Failure struct {
	Audience Audience
	To       string
	Err      error
}

// Report is the outcome of a Notify call. It is informational only and never
// becomes part of the result of the operation that triggered it.
type Report struct {
	Kind      Kind
	Attempted int
	Failures  []Failure
}

func (r Report) OK() bool {
	return len(r.Failures) == 0
}

func (r Report) Delivered() int {
	return r.Attempted - len(r.Failures)
}

// Dispatcher composes messages into envelopes and hands each one to the
// sender independently. One failing recipient never stops the others.
type Dispatcher struct {
	sender   Sender
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func NewDispatcher(sender Sender, settings Settings, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:   sender,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Settings() Settings {
	return d.settings
}

func (d *Dispatcher) Notify(ctx context.Context, msg Message) Report {
	if msg == nil {
		return Report{}
	}

	envelopes := Compose(msg, d.settings, d.now())
	report := Report{Kind: msg.Kind(), Attempted: len(envelopes)}

	for _, env := range envelopes {
		if err := d.send(ctx, env); err != nil {
			d.logger.ErrorContext(ctx, "notification failed",
				"kind", env.Kind,
				"audience", env.Audience,
				"to", env.To,
				"user_id", msg.Record().ID,
				"error", err)
			report.Failures = append(report.Failures, Failure{Audience: env.Audience, To: env.To, Err: err})
		}
	}

	return report
}

func (d *Dispatcher) send(ctx context.Context, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()
	return d.sender.Send(ctx, env)
}
