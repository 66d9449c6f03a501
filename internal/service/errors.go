package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/revisit-loyalty/internal/repository"
)

// 契约错误（对外返回稳定的错误标签）
var (
	ErrNotAuthenticated      = errors.New("not_authenticated")
	ErrInvalidCardFormat     = errors.New("invalid_card_format")
	ErrCustomerNotFound      = errors.New("customer_not_found")
	ErrRewardNotFound        = errors.New("reward_not_found")
	ErrInsufficientPoints    = errors.New("insufficient_points")
	ErrCardCapacityExhausted = errors.New("card_capacity_exhausted")
	ErrPointsOverflow        = errors.New("points_overflow")
)

// 校验错误
var (
	ErrTenantRequired       = errors.New("tenant_required")
	ErrRestaurantNotFound   = errors.New("restaurant_not_found")
	ErrSaleAmountInvalid    = errors.New("invalid_amount")
	ErrInvalidStaffID       = errors.New("invalid_staff_id")
	ErrInvalidRewardType    = errors.New("invalid_reward_type")
	ErrCustomerNameInvalid  = errors.New("customer_name_invalid")
	ErrCustomerPhoneInvalid = errors.New("customer_phone_invalid")
	ErrSettingsInvalid      = errors.New("settings_invalid")
	ErrRanksInvalid         = errors.New("ranks_invalid")
	ErrRewardConfigInvalid  = errors.New("reward_config_invalid")
	ErrAdjustmentInvalid    = errors.New("adjustment_invalid")
	ErrSlugTaken            = errors.New("slug_taken")
	ErrStaffRoleInvalid     = errors.New("staff_role_invalid")
	ErrCaptchaRequired      = errors.New("captcha_required")
	ErrCaptchaInvalid       = errors.New("captcha_invalid")
)

// ValidationError 字段级校验错误集合
type ValidationError struct {
	Fields map[string]error
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name].Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap 支持 errors.Is 命中任一字段错误
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for _, err := range e.Fields {
		errs = append(errs, err)
	}
	return errs
}

// FieldTags 返回字段到错误标签的映射
func (e *ValidationError) FieldTags() map[string]string {
	tags := make(map[string]string, len(e.Fields))
	for name, err := range e.Fields {
		tags[name] = ErrorTag(err)
	}
	return tags
}

type fieldErrors map[string]error

func (f fieldErrors) add(field string, err error) {
	if _, exists := f[field]; !exists {
		f[field] = err
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

var taggedErrors = []error{
	ErrNotAuthenticated,
	ErrInvalidCardFormat,
	ErrCustomerNotFound,
	ErrRewardNotFound,
	ErrInsufficientPoints,
	ErrCardCapacityExhausted,
	ErrPointsOverflow,
	ErrTenantRequired,
	ErrRestaurantNotFound,
	ErrSaleAmountInvalid,
	ErrInvalidStaffID,
	ErrInvalidRewardType,
	ErrCustomerNameInvalid,
	ErrCustomerPhoneInvalid,
	ErrSettingsInvalid,
	ErrRanksInvalid,
	ErrRewardConfigInvalid,
	ErrAdjustmentInvalid,
	ErrSlugTaken,
	ErrStaffRoleInvalid,
	ErrCaptchaRequired,
	ErrCaptchaInvalid,
}

// ErrorTag 将错误映射为稳定的错误标签，未知错误归为 internal_error
func ErrorTag(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, repository.ErrTenantRequired) {
		return ErrTenantRequired.Error()
	}
	for _, known := range taggedErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal_error"
}
