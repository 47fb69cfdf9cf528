package ai

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ossy/pkg/errors"
)

const bucketKeyPrefix = "ossy:llm_bucket:"

// takeTokenScript refills the bucket for the elapsed milliseconds and takes
// one token. Replies {1, 0} when taken, {0, wait_ms} otherwise.
//
// KEYS[1] bucket hash (tokens, ts_ms)
// ARGV    tokens per ms, burst, now in ms, ttl in ms
const takeTokenScript = `
local key = KEYS[1]
local per_ms = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local tokens = tonumber(redis.call('HGET', key, 'tokens'))
local ts = tonumber(redis.call('HGET', key, 'ts_ms'))
if tokens == nil or ts == nil then
  tokens = burst
  ts = now
end
if now > ts then
  tokens = math.min(burst, tokens + (now - ts) * per_ms)
  ts = now
end

local taken = 0
local wait_ms = 0
if tokens >= 1 then
  tokens = tokens - 1
  taken = 1
else
  wait_ms = math.ceil((1 - tokens) / per_ms)
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'ts_ms', tostring(ts))
redis.call('PEXPIRE', key, ttl)
return {taken, wait_ms}
`

var takeToken = redis.NewScript(takeTokenScript)

// RedisRateLimiter is a token bucket shared by every replica through Redis.
// There is one bucket per provider and model, so switching AI_MODEL starts
// from a full bucket.
type RedisRateLimiter struct {
	client    *redis.Client
	provider  ProviderName
	model     string
	perMinute float64
	burst     int
	key       string
	now       func() time.Time
}

// NewRedisRateLimiter creates the bucket for provider and model. A burst of
// zero allows a tenth of the per-minute budget at once, at least one request.
func NewRedisRateLimiter(client *redis.Client, provider ProviderName, model string, perMinute float64, burst int) *RedisRateLimiter {
	if burst <= 0 {
		burst = max(1, int(perMinute/10))
	}

	return &RedisRateLimiter{
		client:    client,
		provider:  provider,
		model:     model,
		perMinute: perMinute,
		burst:     burst,
		key:       bucketKeyPrefix + provider.String() + ":" + model,
		now:       time.Now,
	}
}

// Wait blocks until a token is taken, sleeping for the delay the bucket reports.
func (l *RedisRateLimiter) Wait(ctx context.Context) error {
	for {
		taken, wait, err := l.take(ctx)
		if err != nil {
			return errors.Wrapf(errors.Mark(err, errors.ErrUnavailable), "llm bucket %s", l.key)
		}
		if taken {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &RateLimitError{
				Provider: l.provider,
				Limit:    l.perMinute,
				Err:      errors.Wrap(ctx.Err(), "waiting for llm bucket"),
			}
		case <-timer.C:
		}
	}
}

// Allow takes a token without waiting. A Redis failure denies the request.
func (l *RedisRateLimiter) Allow() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	taken, _, err := l.take(ctx)
	return err == nil && taken
}

// PerMinute returns the configured budget.
func (l *RedisRateLimiter) PerMinute() float64 {
	return l.perMinute
}

// Tokens returns the tokens available now without taking one.
func (l *RedisRateLimiter) Tokens(ctx context.Context) (float64, error) {
	vals, err := l.client.HMGet(ctx, l.key, "tokens", "ts_ms").Result()
	if err != nil {
		return 0, errors.Wrap(err, "read llm bucket")
	}

	rawTokens, ok1 := vals[0].(string)
	rawTS, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return float64(l.burst), nil
	}

	tokens, err := strconv.ParseFloat(rawTokens, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse bucket tokens")
	}
	ts, err := strconv.ParseFloat(rawTS, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse bucket timestamp")
	}

	if elapsed := float64(l.now().UnixMilli()) - ts; elapsed > 0 {
		tokens = min(float64(l.burst), tokens+elapsed*l.perMs())
	}
	return tokens, nil
}

// Reset drops the bucket; the next request finds it full.
func (l *RedisRateLimiter) Reset(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}

func (l *RedisRateLimiter) take(ctx context.Context) (bool, time.Duration, error) {
	reply, err := takeToken.Run(ctx, l.client, []string{l.key},
		l.perMs(),
		l.burst,
		l.now().UnixMilli(),
		l.ttl().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, errors.Wrap(err, "run bucket script")
	}
	if len(reply) != 2 {
		return false, 0, errors.Wrapf(errors.ErrInternal, "bucket script replied %v", reply)
	}

	return reply[0] == 1, time.Duration(reply[1]) * time.Millisecond, nil
}

func (l *RedisRateLimiter) perMs() float64 {
	return l.perMinute / float64(time.Minute.Milliseconds())
}

// ttl keeps an idle bucket twice as long as a full refill takes
func (l *RedisRateLimiter) ttl() time.Duration {
	refill := time.Duration(float64(l.burst) / l.perMinute * float64(time.Minute))
	return max(time.Second, 2*refill)
}
