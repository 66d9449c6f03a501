package router

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/authz"
	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/http/handlers/shared"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/metrics"
	"github.com/revisit-loyalty/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantResolver 将公开 slug 解析为租户
type TenantResolver interface {
	ResolveSlug(ctx context.Context, slug string) (*service.TenantRef, error)
}

// TokenVerifier 校验员工令牌
type TokenVerifier interface {
	ParseToken(tokenString string) (*service.StaffClaims, error)
}

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{
		"Content-Type",
		"Accept-Language",
		"Authorization",
		"X-Requested-With",
		constants.HeaderRequestID,
	}
)

type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     cfg.AllowedOrigins,
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:     strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	if len(p.origins) == 0 {
		p.origins = []string{"*"}
	}
	for _, origin := range p.origins {
		if origin == "*" {
			p.wildcard = true
		}
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// allowOrigin 通配且允许凭证时回显请求来源
func (p corsPolicy) allowOrigin(origin string) string {
	if p.wildcard {
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	for _, allowed := range p.origins {
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件，预检请求直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := policy.allowOrigin(c.GetHeader("Origin")); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if policy.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", policy.methods)
		h.Set("Access-Control-Allow-Headers", policy.headers)
		if policy.maxAge != "" {
			h.Set("Access-Control-Max-Age", policy.maxAge)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(constants.HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, requestID)
		c.Writer.Header().Set(constants.HeaderRequestID, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", c.GetString(constants.ContextKeyRequestID),
			"restaurant_id", c.GetString(constants.ContextKeyRestaurantID),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

// MetricsMiddleware 按路由模板记录请求次数与耗时
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// TenantMiddleware 由路径中的 slug 解析租户并写入上下文
func TenantMiddleware(resolver TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolver == nil {
			logger.Errorw("tenant_resolver_unavailable")
			shared.RespondError(c, response.CodeInternal, "error.internal", nil)
			c.Abort()
			return
		}
		tenant, err := resolver.ResolveSlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			shared.RespondServiceError(c, err)
			c.Abort()
			return
		}
		c.Set(constants.ContextKeyRestaurantID, tenant.RestaurantID)
		c.Writer.Header().Set(constants.HeaderRestaurantID, tenant.RestaurantID)
		c.Next()
	}
}

// StaffAuthMiddleware 校验员工 Bearer 令牌，租户与角色取自令牌声明
func StaffAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			respondUnauthenticated(c)
			return
		}
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			respondUnauthenticated(c)
			return
		}

		claims, err := verifier.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			shared.RequestLog(c).Debugw("staff_token_rejected", "error", err)
			respondUnauthenticated(c)
			return
		}
		actor := claims.Actor()
		c.Set(constants.ContextKeyRestaurantID, actor.RestaurantID)
		c.Set(constants.ContextKeyStaffUserID, actor.UserID)
		c.Set(constants.ContextKeyStaffRole, actor.Role)
		c.Next()
	}
}

func respondUnauthenticated(c *gin.Context) {
	shared.RespondTaggedError(c, response.CodeUnauthorized, "error.unauthorized", service.ErrorTag(service.ErrNotAuthenticated), nil, nil)
	c.Abort()
}

// StaffRBACMiddleware 按员工角色执行 RBAC 鉴权
func StaffRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("staff_rbac_service_unavailable")
			respondUnauthenticated(c)
			return
		}
		role := c.GetString(constants.ContextKeyStaffRole)
		if role == "" {
			respondUnauthenticated(c)
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceRole(role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("staff_rbac_enforce_failed",
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			respondUnauthenticated(c)
			return
		}
		if !allowed {
			logger.Warnw("staff_rbac_permission_denied",
				"restaurant_id", c.GetString(constants.ContextKeyRestaurantID),
				"role", role,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			shared.RespondTaggedError(c, response.CodeForbidden, "error.forbidden", "forbidden", nil, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
