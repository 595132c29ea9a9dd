package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "notifications:mail"

// ListClient is the subset of the go-redis client used by the Redis queue.
type ListClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// RedisQueue pushes envelopes onto a Redis list. A Consumer running in the
// worker process pops and delivers them.
type RedisQueue struct {
	client ListClient
	key    string
}

func NewRedisQueue(client ListClient, key string) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Send(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue envelope: %w", err)
	}
	return nil
}

type Consumer struct {
	client      ListClient
	key         string
	next        Sender
	logger      *slog.Logger
	pollTimeout time.Duration
	sendTimeout time.Duration
	errorDelay  time.Duration
}

func NewConsumer(client ListClient, key string, next Sender, logger *slog.Logger) *Consumer {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Consumer{
		client:      client,
		key:         key,
		next:        next,
		logger:      logger,
		pollTimeout: 5 * time.Second,
		sendTimeout: 30 * time.Second,
		errorDelay:  time.Second,
	}
}

// Run pops envelopes until ctx is cancelled. Delivery failures are logged
// and the envelope is dropped.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("notification consumer started", "key", c.key)

	for {
		if ctx.Err() != nil {
			c.logger.Info("notification consumer stopped")
			return nil
		}

		result, err := c.client.BRPop(ctx, c.pollTimeout, c.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				c.logger.Info("notification consumer stopped")
				return nil
			}
			c.logger.Error("failed to pop notification", "error", err)
			select {
			case <-time.After(c.errorDelay):
			case <-ctx.Done():
			}
			continue
		}

		// BRPOP replies with [key, value]
		if len(result) != 2 {
			c.logger.Warn("unexpected BRPOP reply", "reply", result)
			continue
		}
		c.handle(ctx, []byte(result[1]))
	}
}

func (c *Consumer) handle(ctx context.Context, payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		c.logger.Error("dropping undecodable notification", "error", err)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	if err := c.next.Send(sendCtx, env); err != nil {
		c.logger.Error("notification delivery failed",
			"kind", env.Kind,
			"audience", env.Audience,
			"to", env.To,
			"error", err)
		return
	}
	c.logger.Info("notification delivered", "kind", env.Kind, "to", env.To)
}
