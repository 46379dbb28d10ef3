package constants

import "time"

// 分页相关常量
const (
	// DefaultPageSize 默认分页大小
	DefaultPageSize = 20
	// MaxPageSize 最大分页大小
	MaxPageSize = 100
)

// 分布式锁相关常量
const (
	// PayoutGenerateLockExpiration 生成 payout 时供应商锁的过期时间
	PayoutGenerateLockExpiration = 2 * time.Minute
	// PayoutGenerateLockRetries 只尝试一次，拿不到说明另一个批次正在处理该供应商
	PayoutGenerateLockRetries = 1
)

// 外部调用超时
const (
	DefaultGatewayTimeout  = 10 * time.Second
	DefaultTransferTimeout = 30 * time.Second
	DefaultAlertTimeout    = 5 * time.Second
)

// 订单支付状态（本地缓存，权威来源是支付网关）
const (
	PaymentStatusPending   = "pending"
	PaymentStatusApproved  = "approved"
	PaymentStatusInProcess = "in_process"
	PaymentStatusRejected  = "rejected"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusRefunded  = "refunded"
	// PaymentStatusPaid 历史数据中的手工标记，payout 生成时与 approved 等价
	PaymentStatusPaid = "paid"
)

// 订单履约状态
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payout 状态
const (
	PayoutStatusPending = "pending"
	// PayoutStatusProcessing 打款进行中的占用状态，防止并发重复打款
	PayoutStatusProcessing = "processing"
	PayoutStatusPaid       = "paid"
	PayoutStatusFailed     = "failed"
)

// PaymentLog 类型
const (
	LogTypeWebhook    = "webhook"
	LogTypePayout     = "payout"
	LogTypePreference = "preference"
)

// Payout 事件
const (
	EventPayoutCreated = "payout.created"
	EventPayoutPaid    = "payout.paid"
	EventPayoutFailed  = "payout.failed"
)

// 告警来源
const (
	AlertSourceAdmin = "admin"
	AlertSourceCron  = "cron"
)

// Webhook topic
const (
	NotificationTypePayment = "payment"
)

// 错误信息
const (
	// MsgMissingDestination 供应商未绑定收款账户
	MsgMissingDestination = "supplier has no linked payment account"
)
