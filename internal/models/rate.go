package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Rate 等级倍率与折扣百分比（保留 2 位小数）
type Rate struct {
	decimal.Decimal
}

// NewRate 从 decimal 创建
func NewRate(value decimal.Decimal) Rate {
	return Rate{Decimal: value.Round(2)}
}

// RateFromString 解析字符串，失败时返回错误
func RateFromString(value string) (Rate, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Rate{}, err
	}
	return NewRate(d), nil
}

// MarshalJSON 输出数字
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.Decimal.Round(2).String()), nil
}

// UnmarshalJSON 支持字符串或数字
func (r *Rate) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := RateFromString(s)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	*r = NewRate(d)
	return nil
}

// Value 用于数据库写入
func (r Rate) Value() (driver.Value, error) {
	return r.Decimal.Round(2).Value()
}

// Scan 用于数据库读取
func (r *Rate) Scan(value interface{}) error {
	if err := r.Decimal.Scan(value); err != nil {
		return err
	}
	r.Decimal = r.Decimal.Round(2)
	return nil
}
