package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld 同一键已有请求在处理中
var ErrLockHeld = errors.New("lock already held")

const defaultLockTTL = 30 * time.Second

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 防重复提交锁
// Redis 可用时使用 SET NX PX，否则退化为进程内锁
type Locker struct {
	ttl   time.Duration
	mu    sync.Mutex
	local map[string]localLock
	now   func() time.Time
}

type localLock struct {
	token     string
	expiresAt time.Time
}

// NewLocker 创建锁
func NewLocker(ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{
		ttl:   ttl,
		local: make(map[string]localLock),
		now:   time.Now,
	}
}

// Acquire 获取锁，返回释放函数；已被占用时返回 ErrLockHeld
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	key = "lock:" + strings.TrimSpace(key)
	token := uuid.NewString()
	if Enabled() {
		client, redisKey := current.client, current.key(key)
		ok, err := client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrLockHeld
		}
		return func() {
			_ = releaseScript.Run(context.Background(), client, []string{redisKey}, token).Err()
		}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if held, ok := l.local[key]; ok && now.Before(held.expiresAt) {
		return nil, ErrLockHeld
	}
	l.local[key] = localLock{token: token, expiresAt: now.Add(l.ttl)}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if held, ok := l.local[key]; ok && held.token == token {
			delete(l.local, key)
		}
	}, nil
}
