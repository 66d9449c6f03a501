package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/models"
	"github.com/revisit-loyalty/internal/provider"
	"github.com/revisit-loyalty/internal/service"
)

func main() {
	var (
		slug       string
		name       string
		ownerID    string
		rewardType string
		earnRate   int
		tokenTTL   time.Duration
	)
	flag.StringVar(&slug, "slug", "cantina-demo", "商户 slug")
	flag.StringVar(&name, "name", "Cantina Demo", "商户名称")
	flag.StringVar(&ownerID, "owner", "owner-demo", "店主外部用户 ID")
	flag.StringVar(&rewardType, "reward-type", constants.RewardTypeFreeProduct, "奖励策略: cashback, free_product, progressive_discount")
	flag.IntVar(&earnRate, "earn-rate", 1, "每货币单位积分数")
	flag.DurationVar(&tokenTTL, "token-ttl", 12*time.Hour, "开发令牌有效期")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container, err := provider.Build(cfg, models.DB, nil)
	if err != nil {
		stdLog.Fatalf("Failed to build services: %v", err)
	}
	ctx := context.Background()

	// 创建商户（已存在则复用）
	restaurant, err := container.RestaurantService.CreateRestaurant(ctx, service.CreateRestaurantInput{
		Slug:        slug,
		Name:        name,
		EarnRate:    earnRate,
		RewardType:  rewardType,
		OwnerUserID: ownerID,
		OwnerName:   "Demo Owner",
	})
	switch {
	case errors.Is(err, service.ErrSlugTaken):
		ref, resolveErr := container.RestaurantService.ResolveSlug(ctx, slug)
		if resolveErr != nil {
			stdLog.Fatalf("Failed to load restaurant %s: %v", slug, resolveErr)
		}
		restaurant, err = container.RestaurantService.GetRestaurant(ctx, ref.RestaurantID)
		if err != nil {
			stdLog.Fatalf("Failed to load restaurant %s: %v", slug, err)
		}
		stdLog.Printf("Restaurant already exists: %s", slug)
	case err != nil:
		stdLog.Fatalf("Failed to create restaurant %s: %v", slug, err)
	default:
		stdLog.Printf("Created restaurant: %s (%s)", slug, restaurant.ID)
	}

	// 添加兑换奖励
	existing, err := container.RewardConfigService.List(ctx, restaurant.ID, false)
	if err != nil {
		stdLog.Fatalf("Failed to list reward configs: %v", err)
	}
	if len(existing) == 0 {
		rewards := []service.RewardConfigInput{
			{Name: "Café expresso", PointsRequired: 50},
			{Name: "Sobremesa da casa", PointsRequired: 120},
			{Name: "Prato executivo", PointsRequired: 300},
		}
		for _, input := range rewards {
			if _, err := container.RewardConfigService.Create(ctx, restaurant.ID, input); err != nil {
				stdLog.Printf("Failed to create reward %s: %v", input.Name, err)
				continue
			}
			stdLog.Printf("Created reward: %s", input.Name)
		}
	} else {
		stdLog.Printf("Reward configs already exist: %d", len(existing))
	}

	// 签发开发令牌
	token, expiresAt, err := container.AuthService.IssueToken(service.Actor{
		RestaurantID: restaurant.ID,
		UserID:       ownerID,
		Role:         constants.StaffRoleOwner,
	}, tokenTTL)
	if err != nil {
		stdLog.Fatalf("Failed to issue dev token: %v", err)
	}
	fmt.Printf("restaurant_id=%s\nslug=%s\nowner_token=%s\nexpires_at=%s\n", restaurant.ID, restaurant.Slug, token, expiresAt.Format(time.RFC3339))
}
