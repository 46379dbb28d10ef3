package biz

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDuplicateInclusion 订单已被该供应商的其他 payout 覆盖（唯一索引冲突）
var ErrDuplicateInclusion = errors.New("order already included in a payout for this supplier")

// ErrPayoutVersionConflict payout 已被其他流程修改
var ErrPayoutVersionConflict = errors.New("payout was modified concurrently")

// PayoutOrder payout 覆盖的单个订单贡献
type PayoutOrder struct {
	OrderID string
	Amount  decimal.Decimal
}

// Payout 供应商打款批次
type Payout struct {
	ID          string
	SupplierID  string
	Currency    string
	Amount      decimal.Decimal
	Status      string
	Orders      []*PayoutOrder
	Attempts    int
	LastTriedAt *time.Time
	LastError   string
	PaidAt      *time.Time
	// Destination 创建时的收款目的地快照，之后账户变更不影响
	Destination *Destination
	TransferID  string
	// Version 乐观锁版本号
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PayoutFilter 列表查询条件
type PayoutFilter struct {
	Status     string
	SupplierID string
	Page       int
	PageSize   int
}

// PayoutRepo payout 仓库接口
type PayoutRepo interface {
	// CreatePayout 写入 payout 及其订单明细，(order, supplier) 重复时返回 ErrDuplicateInclusion
	CreatePayout(ctx context.Context, p *Payout) error
	GetPayout(ctx context.Context, payoutID string) (*Payout, error)
	ListPayouts(ctx context.Context, filter *PayoutFilter) ([]*Payout, int, error)
	// CoveredOrderIDs 该供应商历史 payout 已覆盖的订单
	CoveredOrderIDs(ctx context.Context, supplierID string) (map[string]bool, error)
	// CoveredSuppliers 该订单已被哪些供应商的 payout 覆盖
	CoveredSuppliers(ctx context.Context, orderID string) (map[string]bool, error)
	// ListProcessable 按创建时间先后返回待打款 payout，limit<=0 表示不限制
	ListProcessable(ctx context.Context, statuses []string, maxAttempts, limit int) ([]*Payout, error)
	// Claim 将 payout 置为 processing，版本号不一致时返回 false
	Claim(ctx context.Context, p *Payout) (bool, error)
	// SaveAttempt 记录一次打款结果，仅对 processing 状态且版本号一致的记录生效
	SaveAttempt(ctx context.Context, p *Payout) error
	// ReleaseStale 将长时间停留在 processing 的 payout 退回 failed
	ReleaseStale(ctx context.Context, olderThan time.Time, reason string) (int, error)
}

// PaymentLog 支付审计日志，只追加
type PaymentLog struct {
	ID          uint64
	Type        string
	ReferenceID string
	OrderID     string
	PayoutID    string
	SupplierID  string
	Request     interface{}
	Response    interface{}
	Success     bool
	Error       string
	CreatedAt   time.Time
}

// PaymentLogFilter 审计日志查询条件
type PaymentLogFilter struct {
	Type     string
	OrderID  string
	PayoutID string
	Page     int
	PageSize int
}

// PaymentLogRepo 审计日志仓库，不提供更新和删除
type PaymentLogRepo interface {
	CreateLog(ctx context.Context, l *PaymentLog) error
	ListLogs(ctx context.Context, filter *PaymentLogFilter) ([]*PaymentLog, int, error)
}
