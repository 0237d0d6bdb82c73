package progress

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrInProgress = errors.New("another sync is already in progress")

// Guard is the "operation in progress" flag. TryAcquire never waits: a
// second caller is refused, not queued.
type Guard interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LocalGuard guards within one process.
type LocalGuard struct {
	busy atomic.Bool
}

var processGuard = &LocalGuard{}

// ProcessGuard returns the guard shared by the whole process.
func ProcessGuard() *LocalGuard {
	return processGuard
}

func (g *LocalGuard) TryAcquire(context.Context) (bool, error) {
	return g.busy.CompareAndSwap(false, true), nil
}

func (g *LocalGuard) Release(context.Context) error {
	g.busy.Store(false)
	return nil
}

func (g *LocalGuard) Busy() bool {
	return g.busy.Load()
}

const DefaultRedisGuardKey = "roombook:sync-in-progress"

// releaseScript deletes the key only while it still holds our token, so an
// expired holder cannot release someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard shares the flag between processes and machines. The TTL bounds
// how long a crashed holder can block others.
type RedisGuard struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

func NewRedisGuard(client *redis.Client, key string, ttl time.Duration) *RedisGuard {
	if key == "" {
		key = DefaultRedisGuardKey
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisGuard{client: client, key: key, ttl: ttl, token: uuid.NewString()}
}

func (g *RedisGuard) TryAcquire(ctx context.Context) (bool, error) {
	return g.client.SetNX(ctx, g.key, g.token, g.ttl).Result()
}

func (g *RedisGuard) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, g.client, []string{g.key}, g.token).Err()
}

// DialRedis connects and pings; it returns nil when the server cannot be
// reached so callers fall back to the process guard.
func DialRedis(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
