package router

import (
	"context"
	"strings"

	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/http/handlers/shared"
	"github.com/cargo-inspection/internal/http/response"
	"github.com/cargo-inspection/internal/i18n"
	"github.com/cargo-inspection/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流主体（用户或 IP）
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
}

func (r RateLimitRule) active() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// 首次计数时设置窗口过期，返回 {count, ttl}
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

type fixedWindow struct {
	client *redis.Client
	rule   RateLimitRule
}

// hit 计数一次，返回窗口内累计次数与剩余秒数
func (w fixedWindow) hit(ctx context.Context, subject string) (int64, int64, error) {
	key := subject
	if w.rule.Prefix != "" {
		key = w.rule.Prefix + ":" + subject
	}
	values, err := fixedWindowScript.Run(ctx, w.client, []string{key}, w.rule.WindowSeconds).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(values) < 2 {
		return 0, 0, redis.Nil
	}
	return values[0], values[1], nil
}

// RateLimitMiddleware Redis 限流，client 为空或规则未配置时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	window := fixedWindow{client: client, rule: rule}
	return func(c *gin.Context) {
		if client == nil || !rule.active() {
			c.Next()
			return
		}
		subject := ""
		if keyFunc != nil {
			subject = strings.TrimSpace(keyFunc(c))
		}
		if subject == "" {
			subject = c.ClientIP()
		}

		locale := i18n.ResolveLocale(c)
		count, ttl, err := window.hit(c.Request.Context(), subject)
		if err != nil {
			shared.RequestLog(c).Warnw("rate_limit_check_failed", "subject", subject, "error", err)
			response.Error(c, response.CodeInternal, i18n.T(locale, "error.rate_limit_unavailable"))
			c.Abort()
			return
		}
		if count > int64(rule.MaxRequests) {
			wait := int(ttl)
			if wait < 1 {
				wait = rule.WindowSeconds
			}
			response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(locale, "error.rate_limited", wait))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ExportRateLimitRule PDF 导出限流，键形如 <prefix>:rate:export:<subject>
func ExportRateLimitRule(cfg config.ExportConfig, redisPrefix string) RateLimitRule {
	prefix := "rate:export"
	if redisPrefix = strings.TrimSpace(redisPrefix); redisPrefix != "" {
		prefix = redisPrefix + ":" + prefix
	}
	return RateLimitRule{
		Prefix:        prefix,
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxRequests,
	}
}

// KeyByPrincipal 按登录用户限流，未登录时退回 IP
func KeyByPrincipal(c *gin.Context) string {
	if value, ok := c.Get(shared.PrincipalContextKey); ok {
		if principal, ok := value.(identity.Principal); ok {
			if name := strings.ToLower(principal.DisplayName()); name != "" {
				return "user:" + name
			}
		}
	}
	return "ip:" + c.ClientIP()
}
