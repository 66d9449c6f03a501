package repository

import "time"

// CustomerListFilter 查询会员列表的过滤条件
type CustomerListFilter struct {
	Page     int
	PageSize int
	Search   string
	RankID   string
}

// PointTransactionListFilter 查询积分流水的过滤条件
type PointTransactionListFilter struct {
	Page            int
	PageSize        int
	CustomerID      string
	TransactionType string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

// RedemptionListFilter 查询兑换记录的过滤条件
type RedemptionListFilter struct {
	Page       int
	PageSize   int
	CustomerID string
	RewardType string
}
