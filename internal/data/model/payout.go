package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payout 供应商打款模型
type Payout struct {
	ID          string          `gorm:"primaryKey;column:payout_id;type:varchar(36)"`
	SupplierID  string          `gorm:"column:supplier_id;type:varchar(64);index"`
	Currency    string          `gorm:"column:currency;type:varchar(8)"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null"`
	Status      string          `gorm:"column:status;type:varchar(16);index:idx_payouts_status_created,priority:1"`
	Attempts    int             `gorm:"column:attempts;not null;default:0"`
	LastTriedAt *time.Time      `gorm:"column:last_tried_at"`
	LastError   string          `gorm:"column:last_error;type:text"`
	PaidAt      *time.Time      `gorm:"column:paid_at"`
	Destination datatypes.JSON  `gorm:"column:destination"`
	TransferID  string          `gorm:"column:transfer_id;type:varchar(64)"`
	Version     int64           `gorm:"column:version;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;index:idx_payouts_status_created,priority:2"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`

	Orders []PayoutOrder `gorm:"foreignKey:PayoutID;references:ID"`
}

func (Payout) TableName() string { return "payouts" }

// PayoutOrder payout 覆盖的订单，(order_id, supplier_id) 全局唯一
type PayoutOrder struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement;column:id"`
	PayoutID   string          `gorm:"column:payout_id;type:varchar(36);index"`
	OrderID    string          `gorm:"column:order_id;type:varchar(36);uniqueIndex:uk_payout_orders_order_supplier,priority:1"`
	SupplierID string          `gorm:"column:supplier_id;type:varchar(64);uniqueIndex:uk_payout_orders_order_supplier,priority:2"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

func (PayoutOrder) TableName() string { return "payout_orders" }
