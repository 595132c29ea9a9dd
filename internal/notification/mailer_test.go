package notification_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/frahmantamala/employee-management/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/wneessen/go-mail"
)

type fakeMailClient struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	messages []*mail.Msg
}

func (f *fakeMailClient) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	f.messages = append(f.messages, messages...)
	return nil
}

var _ = Describe("Mailer", func() {
	var (
		ctx      context.Context
		client   *fakeMailClient
		mailer   *notification.Mailer
		envelope notification.Envelope
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeMailClient{err: errors.New("451 try again later")}

		renderer, err := notification.NewRenderer()
		Expect(err).NotTo(HaveOccurred())

		mailer = notification.NewMailerWithClient(client, notification.MailerConfig{
			From:         "hr@techcorp.com",
			MaxRetries:   2,
			RetryBackoff: time.Millisecond,
		}, renderer, testLogger)

		envelope = notification.Compose(notification.Created{User: ann}, notification.DefaultSettings(), fixedNow)[1]
	})

	It("should send a rendered html message", func() {
		Expect(mailer.Send(ctx, envelope)).To(Succeed())

		Expect(client.calls).To(Equal(1))
		Expect(client.messages).To(HaveLen(1))

		msg := client.messages[0]
		Expect(msg.GetGenHeader(mail.HeaderSubject)).To(ConsistOf(envelope.Subject))
		to := msg.GetToString()
		Expect(to).To(ConsistOf("<ann@x.com>"))
	})

	It("should retry transient failures", func() {
		client.failures = 2

		Expect(mailer.Send(ctx, envelope)).To(Succeed())
		Expect(client.calls).To(Equal(3))
	})

	It("should give up after the configured retries", func() {
		client.failures = 10

		err := mailer.Send(ctx, envelope)

		Expect(err).To(MatchError(ContainSubstring("after 3 attempts")))
		Expect(errors.Is(err, client.err)).To(BeTrue())
		Expect(client.calls).To(Equal(3))
	})

	It("should not dial for an invalid recipient", func() {
		envelope.To = "not an address"

		Expect(mailer.Send(ctx, envelope)).To(MatchError(ContainSubstring("invalid recipient")))
		Expect(client.calls).To(BeZero())
	})

	It("should not dial when the template is unknown", func() {
		envelope.Template = "missing"

		Expect(mailer.Send(ctx, envelope)).NotTo(Succeed())
		Expect(client.calls).To(BeZero())
	})
})
