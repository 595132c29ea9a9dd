package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/frahmantamala/employee-management/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

// fakeList mimics LPUSH/BRPOP on a single in-memory list.
type fakeList struct {
	mu       sync.Mutex
	items    map[string][]string
	pushErr  error
	popCalls int
}

func newFakeList() *fakeList {
	return &fakeList{items: make(map[string][]string)}
}

func (f *fakeList) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		var s string
		switch val := v.(type) {
		case []byte:
			s = string(val)
		case string:
			s = val
		}
		f.items[key] = append([]string{s}, f.items[key]...)
	}
	return redis.NewIntResult(int64(len(f.items[key])), nil)
}

func (f *fakeList) BRPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	f.mu.Lock()
	f.popCalls++
	list := f.items[keys[0]]
	if n := len(list); n > 0 {
		v := list[n-1]
		f.items[keys[0]] = list[:n-1]
		f.mu.Unlock()
		return redis.NewStringSliceResult([]string{keys[0], v}, nil)
	}
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return redis.NewStringSliceResult(nil, ctx.Err())
	case <-time.After(5 * time.Millisecond):
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
}

func (f *fakeList) Len(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items[key])
}

var _ = Describe("Redis queue", func() {
	var (
		ctx  context.Context
		list *fakeList
	)

	BeforeEach(func() {
		ctx = context.Background()
		list = newFakeList()
	})

	It("should push JSON encoded envelopes under the default key", func() {
		q := notification.NewRedisQueue(list, "")
		env := notification.Compose(notification.Created{User: ann}, notification.DefaultSettings(), fixedNow)[0]

		Expect(q.Send(ctx, env)).To(Succeed())
		Expect(list.Len(notification.DefaultRedisKey)).To(Equal(1))

		var decoded notification.Envelope
		Expect(json.Unmarshal([]byte(list.items[notification.DefaultRedisKey][0]), &decoded)).To(Succeed())
		Expect(decoded.Subject).To(Equal(env.Subject))
		Expect(decoded.Data.User.Email).To(Equal("ann@x.com"))
	})

	It("should surface push failures", func() {
		list.pushErr = errors.New("connection reset")
		q := notification.NewRedisQueue(list, "mail")

		Expect(q.Send(ctx, notification.Envelope{})).To(MatchError(ContainSubstring("connection reset")))
	})

	It("should deliver queued envelopes in order until cancelled", func() {
		q := notification.NewRedisQueue(list, "mail")
		envs := notification.Compose(notification.Created{User: ann}, notification.DefaultSettings(), fixedNow)
		for _, env := range envs {
			Expect(q.Send(ctx, env)).To(Succeed())
		}

		rec := &recorder{}
		consumer := notification.NewConsumer(list, "mail", rec, testLogger)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- consumer.Run(runCtx) }()

		Eventually(func() int { return len(rec.Sent()) }, time.Second, 10*time.Millisecond).Should(Equal(2))
		cancel()
		Eventually(done, time.Second).Should(Receive(BeNil()))

		sent := rec.Sent()
		Expect(sent[0].To).To(Equal(envs[0].To))
		Expect(sent[1].To).To(Equal(envs[1].To))
	})

	It("should drop undecodable payloads and keep running", func() {
		list.items["mail"] = []string{`{"to":"ann@x.com"}`, "not json"}

		rec := &recorder{}
		consumer := notification.NewConsumer(list, "mail", rec, testLogger)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- consumer.Run(runCtx) }()

		Eventually(func() int { return len(rec.Sent()) }, time.Second, 10*time.Millisecond).Should(Equal(1))
		cancel()
		Eventually(done, time.Second).Should(Receive(BeNil()))
		Expect(rec.Sent()[0].To).To(Equal("ann@x.com"))
	})
})
