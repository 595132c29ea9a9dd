package notification_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/employee-management/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Queue", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should deliver every accepted envelope before shutdown returns", func() {
		rec := &recorder{}
		q := notification.NewQueue(rec, notification.QueueConfig{Workers: 3, QueueSize: 20}, testLogger)

		for i := 0; i < 10; i++ {
			Expect(q.Send(ctx, notification.Envelope{To: "ann@x.com"})).To(Succeed())
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		Expect(q.Shutdown(shutdownCtx)).To(Succeed())
		Expect(rec.Sent()).To(HaveLen(10))
	})

	It("should reject envelopes once closed", func() {
		q := notification.NewQueue(&recorder{}, notification.QueueConfig{Workers: 1}, testLogger)
		Expect(q.Shutdown(ctx)).To(Succeed())

		Expect(q.Send(ctx, notification.Envelope{})).To(MatchError(notification.ErrQueueClosed))
	})

	It("should report a full buffer instead of blocking", func() {
		gate := make(chan struct{})
		blocked := notification.SenderFunc(func(context.Context, notification.Envelope) error {
			<-gate
			return nil
		})
		q := notification.NewQueue(blocked, notification.QueueConfig{Workers: 1, QueueSize: 1}, testLogger)

		var full error
		for i := 0; i < 10 && full == nil; i++ {
			full = q.Send(ctx, notification.Envelope{})
			time.Sleep(5 * time.Millisecond)
		}
		Expect(full).To(MatchError(notification.ErrQueueFull))

		close(gate)
		Expect(q.Shutdown(ctx)).To(Succeed())
	})

	It("should keep delivering after a send fails", func() {
		var delivered atomic.Int32
		flaky := notification.SenderFunc(func(_ context.Context, env notification.Envelope) error {
			if env.To == "bad@x.com" {
				return errors.New("rejected")
			}
			delivered.Add(1)
			return nil
		})
		q := notification.NewQueue(flaky, notification.QueueConfig{Workers: 1}, testLogger)

		Expect(q.Send(ctx, notification.Envelope{To: "bad@x.com"})).To(Succeed())
		Expect(q.Send(ctx, notification.Envelope{To: "ann@x.com"})).To(Succeed())
		Expect(q.Shutdown(ctx)).To(Succeed())

		Expect(delivered.Load()).To(Equal(int32(1)))
	})

	It("should detach queued work from the caller's cancellation", func() {
		var sawErr atomic.Value
		sender := notification.SenderFunc(func(ctx context.Context, _ notification.Envelope) error {
			sawErr.Store(ctx.Err() == nil)
			return nil
		})
		q := notification.NewQueue(sender, notification.QueueConfig{Workers: 1}, testLogger)

		reqCtx, cancel := context.WithCancel(ctx)
		Expect(q.Send(reqCtx, notification.Envelope{})).To(Succeed())
		cancel()

		Expect(q.Shutdown(ctx)).To(Succeed())
		Expect(sawErr.Load()).To(Equal(true))
	})
})
