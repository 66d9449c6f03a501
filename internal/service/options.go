package service

import (
	"strings"
	"time"

	"github.com/revisit-loyalty/internal/config"
)

// LoyaltyOptions 积分服务运行参数
type LoyaltyOptions struct {
	TenantCacheTTL          time.Duration
	CardCacheTTL            time.Duration
	RecentTransactions      int
	DefaultEntryRankName    string
	ProgressiveDiscountNote string
}

// DefaultLoyaltyOptions 默认参数
func DefaultLoyaltyOptions() LoyaltyOptions {
	return LoyaltyOptions{
		TenantCacheTTL:          5 * time.Minute,
		CardCacheTTL:            time.Minute,
		RecentTransactions:      10,
		DefaultEntryRankName:    "Bronze",
		ProgressiveDiscountNote: "Desconto progressivo aplicado",
	}
}

// LoyaltyOptionsFromConfig 从配置构建参数，空值使用默认
func LoyaltyOptionsFromConfig(cfg config.LoyaltyConfig) LoyaltyOptions {
	opts := DefaultLoyaltyOptions()
	opts.TenantCacheTTL = cfg.TenantCacheTTL()
	opts.CardCacheTTL = cfg.CardCacheTTL()
	if cfg.RecentTransactions > 0 {
		opts.RecentTransactions = cfg.RecentTransactions
	}
	if name := strings.TrimSpace(cfg.DefaultEntryRankName); name != "" {
		opts.DefaultEntryRankName = name
	}
	if note := strings.TrimSpace(cfg.ProgressiveDiscountNote); note != "" {
		opts.ProgressiveDiscountNote = note
	}
	return opts
}
