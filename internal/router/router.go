package router

import (
	"sort"
	"strings"

	"github.com/revisit-loyalty/internal/authz"
	"github.com/revisit-loyalty/internal/cache"
	"github.com/revisit-loyalty/internal/config"
	ownerhandlers "github.com/revisit-loyalty/internal/http/handlers/owner"
	poshandlers "github.com/revisit-loyalty/internal/http/handlers/pos"
	publichandlers "github.com/revisit-loyalty/internal/http/handlers/public"
	"github.com/revisit-loyalty/internal/http/response"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按会员自助/收银台/商户后台分组）
	publicHandler := publichandlers.New(c)
	posHandler := poshandlers.New(c)
	ownerHandler := ownerhandlers.New(c)

	redisClient := cache.Client()
	registerRule := NewRateLimitRule("register", cfg.Security.RegisterRateLimit)
	lookupRule := NewRateLimitRule("lookup", cfg.Security.LookupRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware())
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.Handler()))
	}

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 会员自助接口（租户由 slug 解析）
		public := apiV1.Group("/public/:slug")
		public.Use(TenantMiddleware(c.RestaurantService))
		{
			public.GET("", publicHandler.GetProgram)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
			public.POST("/customers", RateLimitMiddleware(redisClient, registerRule, KeyByPhoneAndIP("phone")), publicHandler.RegisterCustomer)
			public.GET("/cards/:card", RateLimitMiddleware(redisClient, lookupRule, KeyByIP), publicHandler.GetCardBalance)
			public.GET("/cards/:card/reward", RateLimitMiddleware(redisClient, lookupRule, KeyByIP), publicHandler.CheckReward)
		}

		// 收银台接口
		pos := apiV1.Group("/pos")
		pos.Use(StaffAuthMiddleware(c.AuthService), StaffRBACMiddleware(c.AuthzService))
		{
			pos.POST("/sales/preview", posHandler.PreviewSale)
			pos.POST("/sales", posHandler.RegisterSale)
			pos.GET("/cards/:card", posHandler.GetCardBalance)
			pos.GET("/cards/:card/reward", posHandler.CheckReward)
			pos.GET("/rewards", posHandler.ListActiveRewards)
			pos.POST("/redemptions", posHandler.Redeem)
		}

		// 商户后台接口
		owner := apiV1.Group("/owner")
		owner.Use(StaffAuthMiddleware(c.AuthService), StaffRBACMiddleware(c.AuthzService))
		{
			// 积分设置
			owner.GET("/settings", ownerHandler.GetSettings)
			owner.PUT("/settings", ownerHandler.UpdateSettings)
			owner.GET("/ranks", ownerHandler.ListRanks)
			owner.PUT("/ranks", ownerHandler.ReplaceRanks)

			// 奖励配置
			owner.GET("/reward-configs", ownerHandler.ListRewardConfigs)
			owner.POST("/reward-configs", ownerHandler.CreateRewardConfig)
			owner.PUT("/reward-configs/:id", ownerHandler.UpdateRewardConfig)

			// 会员与流水
			owner.GET("/customers", ownerHandler.ListCustomers)
			owner.GET("/customers/:id", ownerHandler.GetCustomer)
			owner.GET("/customers/:id/transactions", ownerHandler.ListCustomerTransactions)
			owner.POST("/customers/:id/adjustments", ownerHandler.AdjustPoints)
			owner.GET("/customers/:id/ledger/verify", ownerHandler.VerifyLedger)
			owner.POST("/points/expire", ownerHandler.ExpirePoints)
			owner.GET("/redemptions", ownerHandler.ListRedemptions)

			// 员工
			owner.GET("/staff", ownerHandler.ListStaff)
			owner.POST("/staff", ownerHandler.AddStaff)

			owner.GET("/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildPermissionCatalog(r, c.AuthzService))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type permissionCatalogItem struct {
	Module     string   `json:"module"`
	Method     string   `json:"method"`
	Object     string   `json:"object"`
	Permission string   `json:"permission"`
	Roles      []string `json:"roles"`
}

// buildPermissionCatalog 列出员工接口的授权资源及可访问的员工角色
func buildPermissionCatalog(engine *gin.Engine, authzService *authz.Service) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/pos/") && !strings.HasPrefix(item.Path, "/api/v1/owner/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		roles := []string{}
		if authzService != nil {
			allowed, err := authzService.AllowedRoles(object, method)
			if err != nil {
				logger.Warnw("permission_catalog_enforce_failed", "permission", permission, "error", err)
			} else {
				roles = allowed
			}
		}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
			Roles:      roles,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	return segments[0] + "/" + segments[1]
}
