package service

import (
	"context"
	"strings"

	"github.com/revisit-loyalty/internal/constants"
	"github.com/revisit-loyalty/internal/models"
	"github.com/revisit-loyalty/internal/repository"
)

// Actor 已通过令牌校验的操作者
type Actor struct {
	RestaurantID string
	UserID       string
	Role         string
}

// StaffService 员工服务
type StaffService struct {
	staffRepo repository.StaffRepository
}

// AddStaffInput 添加员工输入
type AddStaffInput struct {
	RestaurantID string
	UserID       string
	DisplayName  string
	Role         string
}

// NewStaffService 创建员工服务
func NewStaffService(staffRepo repository.StaffRepository) *StaffService {
	return &StaffService{staffRepo: staffRepo}
}

// ResolveStaff 将操作者映射到当前商户的员工记录
func (s *StaffService) ResolveStaff(ctx context.Context, actor Actor) (*models.Staff, error) {
	if strings.TrimSpace(actor.RestaurantID) == "" {
		return nil, ErrTenantRequired
	}
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, ErrNotAuthenticated
	}
	staff, err := s.staffRepo.WithContext(ctx).GetByUserID(actor.RestaurantID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrNotAuthenticated
	}
	return staff, nil
}

// AddStaff 添加员工
func (s *StaffService) AddStaff(ctx context.Context, input AddStaffInput) (*models.Staff, error) {
	if strings.TrimSpace(input.RestaurantID) == "" {
		return nil, ErrTenantRequired
	}
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role != constants.StaffRoleOwner && role != constants.StaffRoleManager {
		return nil, ErrStaffRoleInvalid
	}
	repo := s.staffRepo.WithContext(ctx)
	existing, err := repo.GetByUserID(input.RestaurantID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	staff := &models.Staff{
		RestaurantID: input.RestaurantID,
		UserID:       userID,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         role,
	}
	if err := repo.Create(staff); err != nil {
		if repository.IsUniqueViolation(err) {
			return repo.GetByUserID(input.RestaurantID, userID)
		}
		return nil, err
	}
	return staff, nil
}

// ListStaff 获取商户员工
func (s *StaffService) ListStaff(ctx context.Context, restaurantID string) ([]models.Staff, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrTenantRequired
	}
	return s.staffRepo.WithContext(ctx).ListByRestaurant(restaurantID)
}
