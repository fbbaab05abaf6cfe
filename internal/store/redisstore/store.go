// Package redisstore holds the Redis-backed pieces: the distributed chat lock.
package redisstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultLockTTL   = 2 * time.Minute
	defaultLockRetry = 50 * time.Millisecond
)

// ErrLockTimeout is returned when the context ends before the lock is free.
var ErrLockTimeout = errors.New("redis lock: timed out waiting for lock")

// unlockScript deletes the key only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Store struct {
	Rdb     *redis.Client
	LockTTL time.Duration
	Retry   time.Duration
}

func New(addr, password string, db int) *Store {
	return &Store{
		Rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		LockTTL: DefaultLockTTL,
		Retry:   defaultLockRetry,
	}
}

// TurnLockTTL covers a chat turn that makes two completion calls (reply and
// summary) of up to timeout each, plus a margin for storage work.
func TurnLockTTL(timeout time.Duration) time.Duration {
	ttl := 2*timeout + 30*time.Second
	if ttl < DefaultLockTTL {
		return DefaultLockTTL
	}
	return ttl
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.Rdb.Close()
}

// Lock spins on SET NX until it owns key or ctx ends. The TTL bounds how long
// a crashed holder can block others; it must exceed the slowest chat turn.
func (s *Store) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	retry := s.Retry
	if retry <= 0 {
		retry = defaultLockRetry
	}

	for {
		ok, err := s.Rdb.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, err
		}
		if ok {
			break
		}
		t := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ErrLockTimeout
		case <-t.C:
		}
	}

	return func() {
		// release even when the request context is already cancelled
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = unlockScript.Run(rctx, s.Rdb, []string{key}, token).Err()
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
