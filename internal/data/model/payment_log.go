package model

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentLog 支付审计日志模型，只追加
type PaymentLog struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement;column:id"`
	Type        string         `gorm:"column:type;type:varchar(16);index"`
	ReferenceID string         `gorm:"column:reference_id;type:varchar(64);index"`
	OrderID     string         `gorm:"column:order_id;type:varchar(36);index"`
	PayoutID    string         `gorm:"column:payout_id;type:varchar(36);index"`
	SupplierID  string         `gorm:"column:supplier_id;type:varchar(64)"`
	Request     datatypes.JSON `gorm:"column:request"`
	Response    datatypes.JSON `gorm:"column:response"`
	Success     bool           `gorm:"column:success;not null"`
	Error       string         `gorm:"column:error;type:text"`
	CreatedAt   time.Time      `gorm:"column:created_at;index"`
}

func (PaymentLog) TableName() string { return "payment_logs" }
