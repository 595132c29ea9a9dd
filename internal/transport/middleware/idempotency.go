package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	DefaultIdempotencyTTL = 24 * time.Hour
	inFlightTTL           = 30 * time.Second
)

// IdempotencyStore keeps finished responses and in-flight reservations.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisIdempotencyStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisIdempotencyStore(client redis.Cmdable) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: "idempotency:"}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+"lock:"+key, 1, ttl).Result()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+"lock:"+key).Err()
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the stored response of a POST carrying an
// Idempotency-Key that was already answered successfully. Store outages fail
// open: the request is served normally.
func Idempotency(store IdempotencyStore, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			scoped := r.Method + " " + r.URL.Path + " " + key

			if raw, ok, err := store.Get(ctx, scoped); err != nil {
				logger.Error("idempotency lookup failed", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			} else if ok {
				var cached cachedResponse
				if err := json.Unmarshal(raw, &cached); err == nil {
					logger.Info("replaying cached response", "key", key, "status", cached.Status)
					if cached.ContentType != "" {
						w.Header().Set("Content-Type", cached.ContentType)
					}
					w.Header().Set(ReplayedHeader, "true")
					w.WriteHeader(cached.Status)
					_, _ = w.Write(cached.Body)
					return
				}
				logger.Warn("discarding unreadable cached response", "key", key)
			}

			reserved, err := store.Reserve(ctx, scoped, inFlightTTL)
			if err != nil {
				logger.Error("idempotency reservation failed", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !reserved {
				status, body := internal.NewConflictError("a request with this idempotency key is in progress", internal.ErrCodeRequestInProgress).ToHTTPResponse()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(body)
				return
			}
			defer func() {
				if err := store.Release(context.WithoutCancel(ctx), scoped); err != nil {
					logger.Warn("idempotency release failed", "key", key, "error", err)
				}
			}()

			cw := newCaptureWriter(w)
			next.ServeHTTP(cw, r)

			status := cw.status()
			if status < 200 || status >= 300 {
				return
			}
			payload, err := json.Marshal(cachedResponse{
				Status:      status,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        cw.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := store.Set(context.WithoutCancel(ctx), scoped, payload, ttl); err != nil {
				logger.Error("idempotency store failed", "key", key, "error", err)
			}
		})
	}
}
