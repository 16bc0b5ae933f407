package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/redis/go-redis/v9"
)

// KV is the subset of redis.Cmdable the cache uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Schedules is a read-through Redis cache in front of a ScheduleStore.
// Redis failures are logged and the request falls through to the store.
type Schedules struct {
	kv     KV
	next   booking.ScheduleStore
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewSchedules(kv KV, next booking.ScheduleStore, ttl time.Duration, logger *slog.Logger) *Schedules {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Schedules{kv: kv, next: next, ttl: ttl, prefix: "schedule:", logger: logger}
}

type cachedSchedule struct {
	HostID    string                       `json:"host_id"`
	TimeZone  string                       `json:"time_zone"`
	Weekly    [7]availability.WeeklyWindow `json:"weekly"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

func (c *Schedules) Schedule(ctx context.Context, hostID string) (model.Schedule, error) {
	key := c.prefix + hostID
	raw, err := c.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cs cachedSchedule
		if err := json.Unmarshal(raw, &cs); err == nil {
			return model.Schedule(cs), nil
		}
		c.logger.Warn("dropping undecodable cached schedule", "host_id", hostID)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("schedule cache read failed", "host_id", hostID, "err", err)
	}

	s, err := c.next.Schedule(ctx, hostID)
	if err != nil {
		return model.Schedule{}, err
	}
	if raw, err := json.Marshal(cachedSchedule(s)); err == nil {
		if err := c.kv.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("schedule cache write failed", "host_id", hostID, "err", err)
		}
	}
	return s, nil
}

// SaveSchedule writes through to the store and evicts the cached copy.
func (c *Schedules) SaveSchedule(ctx context.Context, s *model.Schedule) error {
	if err := c.next.SaveSchedule(ctx, s); err != nil {
		return err
	}
	if err := c.kv.Del(ctx, c.prefix+s.HostID).Err(); err != nil {
		c.logger.Warn("schedule cache evict failed", "host_id", s.HostID, "err", err)
	}
	return nil
}

// ReadyCheck pings Redis for /readyz.
func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
