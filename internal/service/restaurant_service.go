package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/revisit-loyalty/internal/cache"
	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/models"
	"github.com/revisit-loyalty/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// TenantRef slug 解析结果（缓存内容）
type TenantRef struct {
	RestaurantID string `json:"restaurant_id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	ProgramName  string `json:"program_name"`
	RewardType   string `json:"reward_type"`
}

// CreateRestaurantInput 创建商户输入
type CreateRestaurantInput struct {
	Slug        string
	Name        string
	ProgramName string
	EarnRate    int
	RewardType  string
	OwnerUserID string
	OwnerName   string
}

// SettingsInput 积分配置更新输入（nil 字段不修改）
type SettingsInput struct {
	Name            *string `json:"name"`
	ProgramName     *string `json:"program_name"`
	EarnRate        *int    `json:"earn_rate"`
	RewardType      *string `json:"reward_type"`
	PointExpiryDays *int    `json:"point_expiry_days"`
	ClearExpiry     bool    `json:"clear_expiry"`
}

// RestaurantService 商户服务
type RestaurantService struct {
	db             *gorm.DB
	restaurantRepo repository.RestaurantRepository
	rankRepo       repository.RankRepository
	staffRepo      repository.StaffRepository
	opts           LoyaltyOptions
}

// NewRestaurantService 创建商户服务
func NewRestaurantService(
	db *gorm.DB,
	restaurantRepo repository.RestaurantRepository,
	rankRepo repository.RankRepository,
	staffRepo repository.StaffRepository,
	opts LoyaltyOptions,
) *RestaurantService {
	return &RestaurantService{
		db:             db,
		restaurantRepo: restaurantRepo,
		rankRepo:       rankRepo,
		staffRepo:      staffRepo,
		opts:           opts,
	}
}

// IsValidRewardType 判断奖励策略是否合法
func IsValidRewardType(rewardType string) bool {
	switch rewardType {
	case constants.RewardTypeCashback, constants.RewardTypeFreeProduct, constants.RewardTypeProgressiveDiscount:
		return true
	default:
		return false
	}
}

// defaultRanks 新商户默认等级
func defaultRanks(entryName string) []RankInput {
	return []RankInput{
		{Name: entryName, MinVisits: 0, Multiplier: decimal.NewFromInt(1), DiscountPct: decimal.Zero},
		{Name: "Prata", MinVisits: 5, Multiplier: decimal.RequireFromString("1.25"), DiscountPct: decimal.NewFromInt(5)},
		{Name: "Ouro", MinVisits: 15, Multiplier: decimal.RequireFromString("1.5"), DiscountPct: decimal.NewFromInt(10)},
	}
}

// CreateRestaurant 创建商户、默认等级与店主员工记录
func (s *RestaurantService) CreateRestaurant(ctx context.Context, input CreateRestaurantInput) (*models.Restaurant, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	name := strings.TrimSpace(input.Name)
	if !slugPattern.MatchString(slug) || name == "" {
		return nil, ErrSettingsInvalid
	}
	programName := strings.TrimSpace(input.ProgramName)
	if programName == "" {
		programName = name
	}
	earnRate := input.EarnRate
	if earnRate == 0 {
		earnRate = 1
	}
	rewardType := strings.TrimSpace(input.RewardType)
	if rewardType == "" {
		rewardType = constants.RewardTypeCashback
	}
	if err := validateSettings(programName, earnRate, rewardType, nil); err != nil {
		return nil, err
	}
	ranks, err := buildRanks(defaultRanks(s.opts.DefaultEntryRankName))
	if err != nil {
		return nil, err
	}

	restaurant := &models.Restaurant{
		Slug:        slug,
		Name:        name,
		ProgramName: programName,
		EarnRate:    earnRate,
		RewardType:  rewardType,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.restaurantRepo.WithTx(tx).Create(restaurant); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrSlugTaken
			}
			return err
		}
		if err := s.rankRepo.WithTx(tx).ReplaceAll(restaurant.ID, ranks); err != nil {
			return err
		}
		if owner := strings.TrimSpace(input.OwnerUserID); owner != "" {
			return s.staffRepo.WithTx(tx).Create(&models.Staff{
				RestaurantID: restaurant.ID,
				UserID:       owner,
				DisplayName:  strings.TrimSpace(input.OwnerName),
				Role:         constants.StaffRoleOwner,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Tenant(restaurant.ID).Infow("restaurant_created", "slug", restaurant.Slug)
	return restaurant, nil
}

// GetRestaurant 获取商户
func (s *RestaurantService) GetRestaurant(ctx context.Context, restaurantID string) (*models.Restaurant, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	restaurant, err := s.restaurantRepo.WithContext(ctx).GetByID(restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	return restaurant, nil
}

// ResolveSlug 将公开 slug 解析为商户，结果缓存
func (s *RestaurantService) ResolveSlug(ctx context.Context, slug string) (*TenantRef, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, ErrRestaurantNotFound
	}
	return cache.Remember(ctx, cache.TenantSlugKey(slug), s.opts.TenantCacheTTL, func(ctx context.Context) (*TenantRef, error) {
		restaurant, err := s.restaurantRepo.WithContext(ctx).GetBySlug(slug)
		if err != nil {
			return nil, err
		}
		if restaurant == nil {
			return nil, ErrRestaurantNotFound
		}
		return &TenantRef{
			RestaurantID: restaurant.ID,
			Slug:         restaurant.Slug,
			Name:         restaurant.Name,
			ProgramName:  restaurant.ProgramName,
			RewardType:   restaurant.RewardType,
		}, nil
	})
}

// UpdateSettings 更新积分配置
func (s *RestaurantService) UpdateSettings(ctx context.Context, restaurantID string, input SettingsInput) (*models.Restaurant, error) {
	restaurant, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		restaurant.Name = strings.TrimSpace(*input.Name)
		if restaurant.Name == "" {
			return nil, ErrSettingsInvalid
		}
	}
	if input.ProgramName != nil {
		restaurant.ProgramName = strings.TrimSpace(*input.ProgramName)
	}
	if input.EarnRate != nil {
		restaurant.EarnRate = *input.EarnRate
	}
	if input.RewardType != nil {
		restaurant.RewardType = strings.TrimSpace(*input.RewardType)
	}
	if input.ClearExpiry {
		restaurant.PointExpiryDays = nil
	} else if input.PointExpiryDays != nil {
		days := *input.PointExpiryDays
		restaurant.PointExpiryDays = &days
	}
	if err := validateSettings(restaurant.ProgramName, restaurant.EarnRate, restaurant.RewardType, restaurant.PointExpiryDays); err != nil {
		return nil, err
	}
	if err := s.restaurantRepo.WithContext(ctx).UpdateSettings(restaurant); err != nil {
		return nil, err
	}
	if err := cache.Del(ctx, cache.TenantSlugKey(restaurant.Slug)); err != nil {
		logger.Warnw("tenant_cache_invalidate_failed", "slug", restaurant.Slug, "error", err)
	}
	invalidateTenantCards(ctx, restaurant.ID)
	logger.Tenant(restaurant.ID).Infow("restaurant_settings_updated",
		"earn_rate", restaurant.EarnRate,
		"reward_type", restaurant.RewardType,
		"point_expiry_days", restaurant.PointExpiryDays,
	)
	return restaurant, nil
}

// ListExpiryEnabled 获取开启积分过期的商户
func (s *RestaurantService) ListExpiryEnabled(ctx context.Context) ([]models.Restaurant, error) {
	return s.restaurantRepo.WithContext(ctx).ListExpiryEnabled()
}

func validateSettings(programName string, earnRate int, rewardType string, expiryDays *int) error {
	length := utf8.RuneCountInString(programName)
	if length < 1 || length > constants.ProgramNameMaxLen {
		return ErrSettingsInvalid
	}
	if earnRate < constants.EarnRateMin || earnRate > constants.EarnRateMax {
		return ErrSettingsInvalid
	}
	if !IsValidRewardType(rewardType) {
		return ErrInvalidRewardType
	}
	if expiryDays != nil && *expiryDays < 0 {
		return ErrSettingsInvalid
	}
	return nil
}
