// Package metrics 积分业务 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "loyalty"

// 结果标签取值
const (
	OutcomeOK       = "ok"
	OutcomeExisting = "existing"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// CustomerRegistrations 会员注册次数
var CustomerRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "customers",
	Name:      "registrations_total",
	Help:      "Customer enrollment attempts by outcome.",
}, []string{"outcome"})

// SalesRegistered 消费登记次数
var SalesRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "sales",
	Name:      "registered_total",
	Help:      "Sale commits by outcome.",
}, []string{"outcome"})

// PointsIssued 发放积分总量
var PointsIssued = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "points_issued_total",
	Help:      "Points credited by earn entries.",
})

// PointsDebited 扣减积分总量（兑换、调整、过期）
var PointsDebited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "points_debited_total",
	Help:      "Points removed from balances by transaction type.",
}, []string{"type"})

// Redemptions 兑换次数
var Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "rewards",
	Name:      "redemptions_total",
	Help:      "Reward redemptions by strategy and outcome.",
}, []string{"reward_type", "outcome"})

// RankPromotions 等级晋升次数
var RankPromotions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ranks",
	Name:      "promotions_total",
	Help:      "Customers promoted to a higher rank.",
})

// OperationDuration 核心操作耗时
var OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "engine",
	Name:      "operation_duration_seconds",
	Help:      "Latency of ledger operations.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

// CacheLookups 读穿缓存命中情况（按键空间）
var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "cache",
	Name:      "lookups_total",
	Help:      "Read-through cache lookups by keyspace and result.",
}, []string{"keyspace", "result"})

// RateLimitRejections 公开接口限流拒绝次数
var RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Public requests rejected by the rate limiter.",
}, []string{"scope"})

// HTTPRequests 接口请求次数（按路由模板）
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

// HTTPDuration 接口耗时
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})

// ObserveSince 记录操作耗时
func ObserveSince(operation string, start time.Time) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
