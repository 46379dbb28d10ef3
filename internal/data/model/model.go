package model

// All 需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&Order{},
		&OrderItem{},
		&Payout{},
		&PayoutOrder{},
		&PaymentLog{},
		&SupplierPaymentAccount{},
		&SupplierWallet{},
	}
}
