package model

import "time"

// SupplierPaymentAccount 供应商收款账户，由供应商模块维护，这里只读
type SupplierPaymentAccount struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement;column:id"`
	SupplierID string    `gorm:"column:supplier_id;type:varchar(64);uniqueIndex"`
	Provider   string    `gorm:"column:provider;type:varchar(32)"`
	AccountID  string    `gorm:"column:account_id;type:varchar(64)"`
	Email      string    `gorm:"column:email;type:varchar(128)"`
	HolderName string    `gorm:"column:holder_name;type:varchar(128)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`

	Wallets []SupplierWallet `gorm:"foreignKey:SupplierID;references:SupplierID"`
}

func (SupplierPaymentAccount) TableName() string { return "supplier_payment_accounts" }

// SupplierWallet 供应商钱包
type SupplierWallet struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement;column:id"`
	SupplierID string `gorm:"column:supplier_id;type:varchar(64);index"`
	Alias      string `gorm:"column:alias;type:varchar(64)"`
	CVU        string `gorm:"column:cvu;type:varchar(32)"`
	IsPrimary  bool   `gorm:"column:is_primary;not null;default:false"`
}

func (SupplierWallet) TableName() string { return "supplier_wallets" }
