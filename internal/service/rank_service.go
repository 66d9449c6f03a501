package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/models"
	"github.com/revisit-loyalty/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	rankMultiplierMin = decimal.RequireFromString(constants.RankMultiplierMin)
	rankMultiplierMax = decimal.RequireFromString(constants.RankMultiplierMax)
	rankDiscountMax   = decimal.RequireFromString(constants.RankDiscountPctMax)
)

// RankInfo 解析后的等级信息
type RankInfo struct {
	ID          *string         `json:"id"`
	Name        string          `json:"name"`
	MinVisits   int             `json:"min_visits"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// RankInput 等级编辑输入
type RankInput struct {
	Name        string          `json:"name"`
	MinVisits   int             `json:"min_visits"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// ResolveRank 将等级映射为展示信息，nil 表示无等级
func ResolveRank(rank *models.Rank) RankInfo {
	if rank == nil {
		return RankInfo{
			Name:        constants.RankNameNone,
			Multiplier:  decimal.NewFromInt(1),
			DiscountPct: decimal.Zero,
		}
	}
	id := rank.ID
	return RankInfo{
		ID:          &id,
		Name:        rank.Name,
		MinVisits:   rank.MinVisits,
		Multiplier:  rank.Multiplier.Decimal,
		DiscountPct: rank.DiscountPct.Decimal,
	}
}

// TargetRank 返回 min_visits 不超过到店次数的最高等级
func TargetRank(ranks []models.Rank, visitCount int) *models.Rank {
	var target *models.Rank
	for i := range ranks {
		if ranks[i].MinVisits > visitCount {
			continue
		}
		if target == nil || ranks[i].MinVisits > target.MinVisits {
			target = &ranks[i]
		}
	}
	return target
}

// findRank 在列表中按ID查找
func findRank(ranks []models.Rank, rankID *string) *models.Rank {
	if rankID == nil {
		return nil
	}
	for i := range ranks {
		if ranks[i].ID == *rankID {
			return &ranks[i]
		}
	}
	return nil
}

// shouldPromote 只升不降
func shouldPromote(current, target *models.Rank) bool {
	if target == nil {
		return false
	}
	if current == nil {
		return true
	}
	return target.MinVisits > current.MinVisits
}

// RankService 会员等级服务
type RankService struct {
	db           *gorm.DB
	rankRepo     repository.RankRepository
	customerRepo repository.CustomerRepository
}

// NewRankService 创建等级服务
func NewRankService(db *gorm.DB, rankRepo repository.RankRepository, customerRepo repository.CustomerRepository) *RankService {
	return &RankService{db: db, rankRepo: rankRepo, customerRepo: customerRepo}
}

// ListRanks 获取商户等级
func (s *RankService) ListRanks(ctx context.Context, restaurantID string) ([]models.Rank, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	return s.rankRepo.WithContext(ctx).ListByRestaurant(restaurantID)
}

// ResolveForCustomer 解析会员当前等级
func (s *RankService) ResolveForCustomer(ctx context.Context, restaurantID string, customer *models.Customer) (RankInfo, error) {
	if customer == nil || customer.CurrentRankID == nil {
		return ResolveRank(nil), nil
	}
	rank, err := s.rankRepo.WithContext(ctx).GetByID(restaurantID, *customer.CurrentRankID)
	if err != nil {
		return RankInfo{}, err
	}
	return ResolveRank(rank), nil
}

// ReplaceRanks 整体替换商户等级，并按到店次数重新分配会员等级
func (s *RankService) ReplaceRanks(ctx context.Context, restaurantID string, inputs []RankInput) ([]models.Rank, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	ranks, err := buildRanks(inputs)
	if err != nil {
		return nil, err
	}

	remapped := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.rankRepo.WithTx(tx).ReplaceAll(restaurantID, ranks); err != nil {
			return err
		}
		customerRepo := s.customerRepo.WithTx(tx)
		customers, err := customerRepo.ListForRankRemap(restaurantID)
		if err != nil {
			return err
		}
		for _, customer := range customers {
			target := TargetRank(ranks, customer.VisitCount)
			if target == nil {
				target = &ranks[0]
			}
			if customer.CurrentRankID != nil && *customer.CurrentRankID == target.ID {
				continue
			}
			rankID := target.ID
			if err := customerRepo.SetRank(restaurantID, customer.ID, &rankID); err != nil {
				return err
			}
			remapped++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateTenantCards(ctx, restaurantID)
	logger.Tenant(restaurantID).Infow("restaurant_ranks_updated",
		"rank_count", len(ranks),
		"customers_remapped", remapped,
	)
	return ranks, nil
}

// buildRanks 校验并按 min_visits 排序生成等级
func buildRanks(inputs []RankInput) ([]models.Rank, error) {
	if len(inputs) == 0 {
		return nil, ErrRanksInvalid
	}
	sorted := make([]RankInput, len(inputs))
	copy(sorted, inputs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinVisits < sorted[j].MinVisits
	})

	ranks := make([]models.Rank, 0, len(sorted))
	for i, input := range sorted {
		name := strings.TrimSpace(input.Name)
		if name == "" || utf8.RuneCountInString(name) > constants.RankNameMaxLen {
			return nil, ErrRanksInvalid
		}
		if input.MinVisits < 0 {
			return nil, ErrRanksInvalid
		}
		if i > 0 && input.MinVisits == sorted[i-1].MinVisits {
			return nil, ErrRanksInvalid
		}
		if input.Multiplier.LessThan(rankMultiplierMin) || input.Multiplier.GreaterThan(rankMultiplierMax) {
			return nil, ErrRanksInvalid
		}
		if input.DiscountPct.IsNegative() || input.DiscountPct.GreaterThan(rankDiscountMax) {
			return nil, ErrRanksInvalid
		}
		ranks = append(ranks, models.Rank{
			Name:        name,
			SortOrder:   i,
			MinVisits:   input.MinVisits,
			Multiplier:  models.NewRate(input.Multiplier),
			DiscountPct: models.NewRate(input.DiscountPct),
		})
	}
	return ranks, nil
}
