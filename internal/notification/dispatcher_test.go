package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/frahmantamala/employee-management/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

type recorder struct {
	mu   sync.Mutex
	sent []notification.Envelope
}

func (r *recorder) Send(_ context.Context, env notification.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, env)
	return nil
}

func (r *recorder) Sent() []notification.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification.Envelope(nil), r.sent...)
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx      context.Context
		settings notification.Settings
	)

	BeforeEach(func() {
		ctx = context.Background()
		settings = notification.DefaultSettings()
	})

	clock := notification.WithClock(func() time.Time { return fixedNow })

	It("should deliver every envelope and report success", func() {
		rec := &recorder{}
		d := notification.NewDispatcher(rec, settings, testLogger, clock)

		report := d.Notify(ctx, notification.Created{User: ann})

		Expect(report.OK()).To(BeTrue())
		Expect(report.Kind).To(Equal(notification.KindCreated))
		Expect(report.Attempted).To(Equal(2))
		Expect(report.Delivered()).To(Equal(2))
		Expect(rec.Sent()).To(HaveLen(2))
	})

	It("should still send the employee copy when the admin copy fails", func() {
		rec := &recorder{}
		sender := notification.SenderFunc(func(ctx context.Context, env notification.Envelope) error {
			if env.Audience == notification.AudienceAdmin {
				return errors.New("mailbox full")
			}
			return rec.Send(ctx, env)
		})
		d := notification.NewDispatcher(sender, settings, testLogger, clock)

		report := d.Notify(ctx, notification.Created{User: ann})

		Expect(report.OK()).To(BeFalse())
		Expect(report.Delivered()).To(Equal(1))
		Expect(report.Failures).To(HaveLen(1))
		Expect(report.Failures[0].To).To(Equal(settings.AdminEmail))
		Expect(report.Failures[0].Err).To(MatchError("mailbox full"))
		Expect(rec.Sent()).To(HaveLen(1))
		Expect(rec.Sent()[0].To).To(Equal("ann@x.com"))
	})

	It("should turn a sender panic into a failure", func() {
		sender := notification.SenderFunc(func(context.Context, notification.Envelope) error {
			panic("boom")
		})
		d := notification.NewDispatcher(sender, settings, testLogger, clock)

		var report notification.Report
		Expect(func() { report = d.Notify(ctx, notification.Deleted{User: ann}) }).NotTo(Panic())
		Expect(report.Failures).To(HaveLen(1))
		Expect(report.Failures[0].Err).To(MatchError(ContainSubstring("sender panicked")))
	})

	It("should ignore a nil message", func() {
		rec := &recorder{}
		d := notification.NewDispatcher(rec, settings, testLogger)

		report := d.Notify(ctx, nil)

		Expect(report.Attempted).To(BeZero())
		Expect(rec.Sent()).To(BeEmpty())
	})

	It("should expose its settings", func() {
		d := notification.NewDispatcher(&recorder{}, settings, testLogger)

		Expect(d.Settings()).To(Equal(settings))
	})

	It("should accept everything with the log sender", func() {
		d := notification.NewDispatcher(notification.NewLogSender(testLogger), settings, testLogger)

		Expect(d.Notify(ctx, notification.Created{User: ann}).OK()).To(BeTrue())
	})
})
