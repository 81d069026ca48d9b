package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared between processes.  Each lock is a SET NX PX
// key holding a random token; a holder that dies loses the lock after TTL.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
	log    logrus.FieldLogger
}

// NewRedis returns a Redis locker.  ttl bounds how long a crashed holder
// blocks others; retry is the poll interval while waiting.
func NewRedis(client redis.UniversalClient, prefix string, ttl, retry time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, retry: retry, log: logrus.StandardLogger()}
}

// WithLogger sets where failed releases are reported.
func (r *Redis) WithLogger(log logrus.FieldLogger) *Redis {
	r.log = log
	return r
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	full := r.prefix + ":" + key
	token := uuid.NewString()
	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, full, token, r.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			// a failed release leaves the key until its TTL runs out
			if err := releaseScript.Run(ctx, r.client, []string{full}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				r.log.WithError(err).WithField("key", full).Error("lock: release failed")
			}
		})
	}, nil
}
