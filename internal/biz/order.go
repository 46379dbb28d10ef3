package biz

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem 订单行
type OrderItem struct {
	ID         uint64
	ProductID  string
	SupplierID string
	// Price 向客户收取的单价
	Price decimal.Decimal
	// CostPrice 应付供应商的单价，缺失按 0 处理
	CostPrice *decimal.Decimal
	Quantity  int
}

// CommissionDetails 审批时计算的佣金快照，每个订单只计算一次
type CommissionDetails struct {
	AdminCommission           decimal.Decimal
	SupplierAmount            decimal.Decimal
	AdminCommissionPercentage decimal.Decimal
	CalculatedAt              time.Time
}

// Order 订单
type Order struct {
	ID                  string
	OrderNumber         string
	UserID              string
	GatewayPaymentID    string
	GatewayPreferenceID string
	Items               []*OrderItem
	Total               decimal.Decimal
	Subtotal            decimal.Decimal
	Discount            decimal.Decimal
	Tax                 decimal.Decimal
	Shipping            decimal.Decimal
	PaymentStatus       string
	Status              string
	// PayoutsPrepared 只能 false -> true
	PayoutsPrepared   bool
	CommissionDetails *CommissionDetails
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SupplierIDs 订单行中出现的供应商，按首次出现顺序
func (o *Order) SupplierIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, it := range o.Items {
		if it == nil || seen[it.SupplierID] {
			continue
		}
		seen[it.SupplierID] = true
		ids = append(ids, it.SupplierID)
	}
	return ids
}

// OrderRepo 订单仓库接口，查不到时返回 nil, nil
type OrderRepo interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID, paymentID, status string) error
	SetPreference(ctx context.Context, orderID, preferenceID string) error
	// MarkPayoutsPrepared 条件更新 payouts_prepared=false 的订单，返回 false 表示已被其他流程处理
	MarkPayoutsPrepared(ctx context.Context, orderID string, details *CommissionDetails) (bool, error)
	// ListPayoutEligible 已支付、已送达且未准备 payout 的订单（含订单行）
	ListPayoutEligible(ctx context.Context, supplierID string) ([]*Order, error)
}

// Destination 供应商收款目的地快照
type Destination struct {
	Provider   string `json:"provider"`
	AccountID  string `json:"accountId,omitempty"`
	Email      string `json:"email,omitempty"`
	HolderName string `json:"holderName,omitempty"`
	Alias      string `json:"alias,omitempty"`
	CVU        string `json:"cvu,omitempty"`
}

// SupplierWallet 供应商钱包
type SupplierWallet struct {
	Alias   string
	CVU     string
	Primary bool
}

// SupplierPaymentAccount 供应商收款账户（外部协作者，只读）
type SupplierPaymentAccount struct {
	SupplierID string
	Provider   string
	AccountID  string
	Email      string
	HolderName string
	Wallets    []*SupplierWallet
}

// Destination 优先主钱包，其次第一个钱包，最后是账户本身
func (a *SupplierPaymentAccount) Destination() *Destination {
	if a == nil {
		return nil
	}
	d := &Destination{
		Provider:   a.Provider,
		AccountID:  a.AccountID,
		Email:      a.Email,
		HolderName: a.HolderName,
	}
	var wallet *SupplierWallet
	for _, w := range a.Wallets {
		if w.Primary {
			wallet = w
			break
		}
	}
	if wallet == nil && len(a.Wallets) > 0 {
		wallet = a.Wallets[0]
	}
	if wallet != nil {
		d.Alias = wallet.Alias
		d.CVU = wallet.CVU
	}
	return d
}

// SupplierAccountRepo 供应商收款账户仓库，不存在时返回 nil, nil
type SupplierAccountRepo interface {
	GetAccount(ctx context.Context, supplierID string) (*SupplierPaymentAccount, error)
}
