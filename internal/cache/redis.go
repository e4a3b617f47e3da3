package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cargo-inspection/internal/config"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "cargo"
	pingTimeout   = 3 * time.Second
)

// store 共享 Redis 连接；client 为空时所有读写都是空操作
type store struct {
	client *redis.Client
	prefix string
}

var current store

// InitRedis 连接 Redis 并探活，失败时保持禁用，锁退化为进程内实现
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		current = store{}
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		current = store{}
		return fmt.Errorf("redis ping %s: %w", addr, err)
	}
	UseClient(client, cfg.Prefix)
	return nil
}

// UseClient 直接注入客户端（测试与复用连接）
func UseClient(client *redis.Client, prefix string) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	current = store{client: client, prefix: prefix}
}

func Enabled() bool {
	return current.client != nil
}

// Client 限流等中间件直接使用的客户端，禁用时为 nil
func Client() *redis.Client {
	return current.client
}

func Close() error {
	client := current.client
	current = store{}
	if client == nil {
		return nil
	}
	return client.Close()
}

func (s store) key(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.prefix
	}
	return s.prefix + ":" + name
}

// getValue 读取 CBOR 编码的缓存值
func getValue(ctx context.Context, name string, dest interface{}) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	raw, err := current.client.Get(ctx, current.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := cbor.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func setValue(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	if !Enabled() {
		return nil
	}
	raw, err := cbor.Marshal(value)
	if err != nil {
		return err
	}
	return current.client.Set(ctx, current.key(name), raw, ttl).Err()
}

func del(ctx context.Context, name string) error {
	if !Enabled() {
		return nil
	}
	return current.client.Del(ctx, current.key(name)).Err()
}
