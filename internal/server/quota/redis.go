package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avelins/classmedia/internal/common"
)

const (
	hourBucketLayout = "2006010215"
	dayBucketLayout  = "20060102"

	// Bucket TTLs leave a full extra window so a commit racing a rollover
	// still sees the old bucket.
	hourKeyTTL = 2 * time.Hour
	dayKeyTTL  = 48 * time.Hour
)

// commitScript is the atomic increment-with-ceiling. It checks all three
// ceilings and only then increments, so concurrent commits are serialized by
// Redis and can never jointly exceed a ceiling.
//
// KEYS: hour counter, day counter, bytes counter.
// ARGV: hour ceiling, day ceiling, bytes ceiling, upload size, hour TTL (s), day TTL (s).
// Returns "ok" or the name of the ceiling that would be exceeded.
var commitScript = redis.NewScript(`
local hour = tonumber(redis.call('GET', KEYS[1]) or '0')
if hour + 1 > tonumber(ARGV[1]) then return 'hour' end
local day = tonumber(redis.call('GET', KEYS[2]) or '0')
if day + 1 > tonumber(ARGV[2]) then return 'day' end
local bytes = tonumber(redis.call('GET', KEYS[3]) or '0')
if bytes + tonumber(ARGV[4]) > tonumber(ARGV[3]) then return 'bytes' end
redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[5])
redis.call('INCR', KEYS[2])
redis.call('EXPIRE', KEYS[2], ARGV[6])
redis.call('INCRBY', KEYS[3], ARGV[4])
return 'ok'
`)

// releaseScript decrements the counters, clamping at zero.
// KEYS as in commitScript; ARGV: upload size.
var releaseScript = redis.NewScript(`
for i = 1, 2 do
	local v = tonumber(redis.call('GET', KEYS[i]) or '0')
	if v > 0 then redis.call('DECR', KEYS[i]) end
end
local bytes = tonumber(redis.call('GET', KEYS[3]) or '0')
local n = tonumber(ARGV[1])
if n > bytes then n = bytes end
if n > 0 then redis.call('DECRBY', KEYS[3], n) end
return 'ok'
`)

// RedisStore keeps quota counters in Redis.
type RedisStore struct {
	client   *redis.Client
	ceilings Ceilings

	now func() time.Time
}

// NewRedisStore connects to Redis at url and returns a quota store using the
// given ceilings.
func NewRedisStore(url string, ceilings Ceilings) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client, ceilings: ceilings, now: time.Now}, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) keys(identity string) (hour, day, bytes string) {
	t := s.now().UTC()
	hour = fmt.Sprintf("quota:%s:h:%s", identity, t.Format(hourBucketLayout))
	day = fmt.Sprintf("quota:%s:d:%s", identity, t.Format(dayBucketLayout))
	bytes = fmt.Sprintf("quota:%s:bytes", identity)
	return
}

// Check reads the current counters and reports whether an upload of
// sizeBytes would fit. Read-only.
func (s *RedisStore) Check(ctx context.Context, identity string, sizeBytes int64) error {
	hourKey, dayKey, bytesKey := s.keys(identity)

	vals, err := s.client.MGet(ctx, hourKey, dayKey, bytesKey).Result()
	if err != nil {
		return fmt.Errorf("%w: quota read: %v", common.ErrInfrastructure, err)
	}

	hour, day, bytes := toInt64(vals[0]), toInt64(vals[1]), toInt64(vals[2])
	return denyError(s.ceilings, denyReason(s.ceilings, hour, day, bytes, sizeBytes))
}

// Commit atomically increments the counters with ceiling enforcement.
func (s *RedisStore) Commit(ctx context.Context, identity string, sizeBytes int64) error {
	hourKey, dayKey, bytesKey := s.keys(identity)

	res, err := commitScript.Run(ctx, s.client,
		[]string{hourKey, dayKey, bytesKey},
		s.ceilings.UploadsPerHour,
		s.ceilings.UploadsPerDay,
		s.ceilings.MaxTotalBytes,
		sizeBytes,
		int64(hourKeyTTL.Seconds()),
		int64(dayKeyTTL.Seconds()),
	).Text()
	if err != nil {
		return fmt.Errorf("%w: quota commit: %v", common.ErrInfrastructure, err)
	}
	if res == "ok" {
		return nil
	}
	return denyError(s.ceilings, res)
}

// Release undoes a Commit. Counters are clamped at zero.
func (s *RedisStore) Release(ctx context.Context, identity string, sizeBytes int64) error {
	hourKey, dayKey, bytesKey := s.keys(identity)

	if err := releaseScript.Run(ctx, s.client,
		[]string{hourKey, dayKey, bytesKey}, sizeBytes).Err(); err != nil {
		return fmt.Errorf("%w: quota release: %v", common.ErrInfrastructure, err)
	}
	return nil
}

// denyError maps a tripped ceiling name to the caller-visible denial.
func denyError(c Ceilings, reason string) error {
	switch reason {
	case "":
		return nil
	case "hour":
		return fmt.Errorf("%w: hourly upload limit reached (%d per hour)",
			common.ErrQuotaExceeded, c.UploadsPerHour)
	case "day":
		return fmt.Errorf("%w: daily upload limit reached (%d per day)",
			common.ErrQuotaExceeded, c.UploadsPerDay)
	case "bytes":
		return fmt.Errorf("%w: storage quota exhausted (%d bytes maximum)",
			common.ErrQuotaExceeded, c.MaxTotalBytes)
	default:
		return fmt.Errorf("%w: %s", common.ErrQuotaExceeded, reason)
	}
}

// denyReason evaluates the ceilings against counter values and returns the
// first tripped ceiling name, or "".
func denyReason(c Ceilings, hour, day, bytes, sizeBytes int64) string {
	switch {
	case hour+1 > c.UploadsPerHour:
		return "hour"
	case day+1 > c.UploadsPerDay:
		return "day"
	case bytes+sizeBytes > c.MaxTotalBytes:
		return "bytes"
	default:
		return ""
	}
}

func toInt64(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	var n int64
	_, _ = fmt.Sscanf(s, "%d", &n)
	return n
}
