package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"ms-rsvp/internal/events"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Redis serializes read-modify-write cycles on a single event's participant
// set. The lease is a SetNX key with a TTL so a crashed holder cannot wedge
// an event forever.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

const acquirePollInterval = 50 * time.Millisecond

// getEventLockDuration returns the lease TTL from the environment or the default.
func (r *Redis) getEventLockDuration() time.Duration {
	defaultDuration := 30 * time.Second

	lockTTLStr := os.Getenv("EVENT_LOCK_TTL_SECONDS")
	if lockTTLStr == "" {
		return defaultDuration
	}

	lockTTLSec, err := strconv.Atoi(lockTTLStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid EVENT_LOCK_TTL_SECONDS value '" + lockTTLStr + "', using default 30 seconds")
		return defaultDuration
	}

	return time.Duration(lockTTLSec) * time.Second
}

// TryLockEvent attempts a single lease grab. The returned token identifies
// the holder; only the holder can release.
func (r *Redis) TryLockEvent(ctx context.Context, eventKey string) (string, bool, error) {
	token := uuid.New().String()
	key := "event_lock:" + eventKey
	ok, err := r.Client.SetNX(ctx, key, token, r.getEventLockDuration()).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Acquire blocks until the event lease is held or ctx runs out. A timeout
// surfaces as ErrEventBusy so callers report it like any other transient
// failure instead of proceeding unlocked.
func (r *Redis) Acquire(ctx context.Context, eventKey string) (string, error) {
	for {
		token, ok, err := r.TryLockEvent(ctx, eventKey)
		if err != nil {
			return "", fmt.Errorf("redis lock error: %w", err)
		}
		if ok {
			return token, nil
		}

		select {
		case <-ctx.Done():
			return "", events.ErrEventBusy
		case <-time.After(acquirePollInterval):
		}
	}
}

// Release drops the lease if this holder still owns it. Releasing a lease
// that expired or belongs to someone else is a no-op.
func (r *Redis) Release(ctx context.Context, eventKey, token string) error {
	key := "event_lock:" + eventKey
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
