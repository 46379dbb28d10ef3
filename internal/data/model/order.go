package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 订单模型
type Order struct {
	ID                  string          `gorm:"primaryKey;column:order_id;type:varchar(36)"`
	OrderNumber         string          `gorm:"column:order_number;type:varchar(64);uniqueIndex"`
	UserID              string          `gorm:"column:user_id;type:varchar(64);index"`
	GatewayPaymentID    string          `gorm:"column:gateway_payment_id;type:varchar(64);index"`
	GatewayPreferenceID string          `gorm:"column:gateway_preference_id;type:varchar(128)"`
	Total               decimal.Decimal `gorm:"column:total;type:decimal(18,2);not null"`
	Subtotal            decimal.Decimal `gorm:"column:subtotal;type:decimal(18,2);not null"`
	Discount            decimal.Decimal `gorm:"column:discount;type:decimal(18,2);not null"`
	Tax                 decimal.Decimal `gorm:"column:tax;type:decimal(18,2);not null"`
	Shipping            decimal.Decimal `gorm:"column:shipping;type:decimal(18,2);not null"`
	PaymentStatus       string          `gorm:"column:payment_status;type:varchar(16);index"`
	Status              string          `gorm:"column:status;type:varchar(16);index"`
	PayoutsPrepared     bool            `gorm:"column:payouts_prepared;not null;default:false"`

	AdminCommission           decimal.NullDecimal `gorm:"column:admin_commission;type:decimal(18,2)"`
	SupplierAmount            decimal.NullDecimal `gorm:"column:supplier_amount;type:decimal(18,2)"`
	AdminCommissionPercentage decimal.NullDecimal `gorm:"column:admin_commission_percentage;type:decimal(5,2)"`
	CommissionCalculatedAt    *time.Time          `gorm:"column:commission_calculated_at"`

	Version   int64     `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 订单行模型
type OrderItem struct {
	ID         uint64              `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID    string              `gorm:"column:order_id;type:varchar(36);index"`
	ProductID  string              `gorm:"column:product_id;type:varchar(64)"`
	SupplierID string              `gorm:"column:supplier_id;type:varchar(64);index"`
	Price      decimal.Decimal     `gorm:"column:price;type:decimal(18,2);not null"`
	CostPrice  decimal.NullDecimal `gorm:"column:cost_price;type:decimal(18,2)"`
	Quantity   int                 `gorm:"column:quantity;not null"`
}

func (OrderItem) TableName() string { return "order_items" }
