package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/models"
	"github.com/revisit-loyalty/internal/repository"
)

// RewardConfigService 奖励配置服务
type RewardConfigService struct {
	rewardRepo repository.RewardRepository
}

// RewardConfigInput 奖励配置输入
type RewardConfigInput struct {
	Name           string `json:"name"`
	PointsRequired int64  `json:"points_required"`
	IsActive       *bool  `json:"is_active"`
}

// NewRewardConfigService 创建奖励配置服务
func NewRewardConfigService(rewardRepo repository.RewardRepository) *RewardConfigService {
	return &RewardConfigService{rewardRepo: rewardRepo}
}

func validateRewardConfig(input RewardConfigInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || utf8.RuneCountInString(name) > 120 {
		return "", ErrRewardConfigInvalid
	}
	if input.PointsRequired <= 0 {
		return "", ErrRewardConfigInvalid
	}
	return name, nil
}

// List 获取商户奖励配置
func (s *RewardConfigService) List(ctx context.Context, restaurantID string, onlyActive bool) ([]models.RewardConfig, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	return s.rewardRepo.WithContext(ctx).ListConfigs(restaurantID, onlyActive)
}

// Create 创建奖励配置
func (s *RewardConfigService) Create(ctx context.Context, restaurantID string, input RewardConfigInput) (*models.RewardConfig, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	name, err := validateRewardConfig(input)
	if err != nil {
		return nil, err
	}
	config := &models.RewardConfig{
		RestaurantID:   restaurantID,
		Name:           name,
		PointsRequired: input.PointsRequired,
		IsActive:       input.IsActive == nil || *input.IsActive,
	}
	if err := s.rewardRepo.WithContext(ctx).CreateConfig(config); err != nil {
		return nil, err
	}
	logger.Tenant(restaurantID).Infow("reward_config_created",
		"reward_config_id", config.ID,
		"points_required", config.PointsRequired,
	)
	return config, nil
}

// Update 更新奖励配置
func (s *RewardConfigService) Update(ctx context.Context, restaurantID, configID string, input RewardConfigInput) (*models.RewardConfig, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	name, err := validateRewardConfig(input)
	if err != nil {
		return nil, err
	}
	repo := s.rewardRepo.WithContext(ctx)
	config, err := repo.GetConfig(restaurantID, configID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, ErrRewardNotFound
	}
	config.Name = name
	config.PointsRequired = input.PointsRequired
	if input.IsActive != nil {
		config.IsActive = *input.IsActive
	}
	if err := repo.UpdateConfig(config); err != nil {
		return nil, err
	}
	logger.Tenant(restaurantID).Infow("reward_config_updated",
		"reward_config_id", config.ID,
		"is_active", config.IsActive,
	)
	return config, nil
}
