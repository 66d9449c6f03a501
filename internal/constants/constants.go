package constants

// 奖励策略常量
const (
	RewardTypeCashback            = "cashback"
	RewardTypeFreeProduct         = "free_product"
	RewardTypeProgressiveDiscount = "progressive_discount"
	RewardTypeNone                = "none"
)

// 积分流水类型常量
const (
	PointTxnTypeEarn       = "earn"
	PointTxnTypeRedeem     = "redeem"
	PointTxnTypeAdjustment = "adjustment"
	PointTxnTypeExpiry     = "expiry"
)

// 员工角色常量
const (
	StaffRoleOwner   = "owner"
	StaffRoleManager = "manager"
)

// 会员卡号范围
const (
	CardSequenceMin = 1
	CardSequenceMax = 9999
)

// 商户配置取值范围
const (
	EarnRateMin         = 1
	EarnRateMax         = 100
	ProgramNameMaxLen   = 100
	CustomerNameMinLen  = 2
	CustomerNameMaxLen  = 100
	RankNameMaxLen      = 50
	RankMultiplierMin   = "0.1"
	RankMultiplierMax   = "10"
	RankDiscountPctMax  = "100"
	SaleAmountMaxString = "99999.99"
	SaleAmountMaxCents  = 9999999
)

// 无等级时的展示名称
const (
	RankNameNone = "Sem nível"
)

// 队列常量
const (
	QueueDefault     = "default"
	QueueCritical    = "critical"
	TaskPointsExpiry = "loyalty:points_expiry"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "rv"
)

// 请求上下文键
const (
	ContextKeyRestaurantID = "restaurant_id"
	ContextKeyStaffUserID  = "staff_user_id"
	ContextKeyStaffRole    = "staff_role"
	ContextKeyRequestID    = "request_id"
	HeaderRequestID        = "X-Request-ID"
	HeaderRestaurantID     = "X-Restaurant-ID"
)
