package router

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/revisit-loyalty/internal/cache"
	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/i18n"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/metrics"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitMessageKey = "error.too_many_requests"

// RateLimitKeyFunc 从请求中取限流主体
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 单个作用域的窗口计数规则
type RateLimitRule struct {
	Scope         string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

// NewRateLimitRule 由配置构建限流规则
func NewRateLimitRule(scope string, cfg config.RateLimitConfig) RateLimitRule {
	return RateLimitRule{
		Scope:         scope,
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxRequests,
		BlockSeconds:  cfg.BlockSeconds,
		MessageKey:    rateLimitMessageKey,
	}
}

func (r RateLimitRule) active() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// 返回 {计数, 剩余秒数}；计数为 -1 表示处于封禁期
var rateLimitScript = redis.NewScript(`
local blocked = redis.call("TTL", KEYS[2])
if blocked > 0 then
	return {-1, blocked}
end
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
if current > tonumber(ARGV[2]) and tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[2], "1", "EX", ARGV[3])
	ttl = tonumber(ARGV[3])
end
return {current, ttl}
`)

type rateVerdict struct {
	allowed    bool
	retryAfter int
}

// verdict 解析脚本结果，结果异常时放行
func (r RateLimitRule) verdict(values []int64) rateVerdict {
	if len(values) < 2 {
		return rateVerdict{allowed: true}
	}
	count, ttl := values[0], values[1]
	if count >= 0 && count <= int64(r.MaxRequests) {
		return rateVerdict{allowed: true}
	}
	wait := int(ttl)
	if wait < 1 {
		wait = r.WindowSeconds
	}
	if wait < 1 {
		wait = 1
	}
	return rateVerdict{retryAfter: wait}
}

type limiter struct {
	client  *redis.Client
	rule    RateLimitRule
	subject RateLimitKeyFunc
}

func (l limiter) keys(c *gin.Context) []string {
	subject := ""
	if l.subject != nil {
		subject = strings.TrimSpace(l.subject(c))
	}
	if subject == "" {
		subject = c.ClientIP()
	}
	if rid := c.GetString(constants.ContextKeyRestaurantID); rid != "" {
		subject = rid + "|" + subject
	}
	return []string{
		cache.BuildKey(cache.RateLimitKey(l.rule.Scope, subject)),
		cache.BuildKey(cache.RateLimitBlockKey(l.rule.Scope, subject)),
	}
}

func (l limiter) handle(c *gin.Context) {
	if l.client == nil || !l.rule.active() {
		c.Next()
		return
	}
	values, err := rateLimitScript.Run(c.Request.Context(), l.client, l.keys(c),
		l.rule.WindowSeconds, l.rule.MaxRequests, l.rule.BlockSeconds).Int64Slice()
	if err != nil {
		logger.Warnw("rate_limit_unavailable", "scope", l.rule.Scope, "error", err)
		c.Next()
		return
	}
	v := l.rule.verdict(values)
	if v.allowed {
		c.Next()
		return
	}

	metrics.RateLimitRejections.WithLabelValues(l.rule.Scope).Inc()
	key := strings.TrimSpace(l.rule.MessageKey)
	if key == "" {
		key = rateLimitMessageKey
	}
	response.Reject(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), key, v.retryAfter), gin.H{
		"error":       "too_many_requests",
		"retry_after": v.retryAfter,
	})
	c.Abort()
}

// RateLimitMiddleware Redis 固定窗口限流，Redis 不可用时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return limiter{client: client, rule: rule, subject: keyFunc}.handle
}

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByPhoneAndIP 按请求体中的手机号（仅数字）加 IP 限流
func KeyByPhoneAndIP(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		phone := service.NormalizePhone(peekJSONString(c, field))
		if phone == "" {
			return c.ClientIP()
		}
		return phone + "|" + c.ClientIP()
	}
}

// peekJSONString 读取 JSON 字段后还原请求体，供后续绑定
func peekJSONString(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
