package biz_test

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func item(supplierID, price, cost string, qty int) *biz.OrderItem {
	return &biz.OrderItem{
		ProductID:  "p-" + supplierID,
		SupplierID: supplierID,
		Price:      dec(price),
		CostPrice:  decPtr(cost),
		Quantity:   qty,
	}
}

// deliveredOrder 已支付、已送达、待生成 payout 的订单
func deliveredOrder(id string, items ...*biz.OrderItem) *biz.Order {
	return &biz.Order{
		ID:            id,
		OrderNumber:   "ORD-" + id,
		PaymentStatus: constants.PaymentStatusApproved,
		Status:        constants.OrderStatusDelivered,
		Items:         items,
	}
}

func pendingOrder(id string, items ...*biz.OrderItem) *biz.Order {
	return &biz.Order{
		ID:            id,
		OrderNumber:   "ORD-" + id,
		PaymentStatus: constants.PaymentStatusPending,
		Status:        constants.OrderStatusPending,
		Items:         items,
	}
}

func account(supplierID string) *biz.SupplierPaymentAccount {
	return &biz.SupplierPaymentAccount{
		SupplierID: supplierID,
		Provider:   "mercadopago",
		AccountID:  "acc-" + supplierID,
		Email:      supplierID + "@example.com",
		Wallets:    []*biz.SupplierWallet{{Alias: supplierID + ".alias", CVU: "000" + supplierID, Primary: true}},
	}
}

var seq int

func payout(supplierID, status string, attempts int, amount string) *biz.Payout {
	seq++
	created := time.Date(2024, 1, 1, 0, 0, seq, 0, time.UTC)
	return &biz.Payout{
		ID:         fmt.Sprintf("po-%d", seq),
		SupplierID: supplierID,
		Currency:   "ARS",
		Amount:     dec(amount),
		Status:     status,
		Attempts:   attempts,
		Orders:     []*biz.PayoutOrder{{OrderID: fmt.Sprintf("o-%d", seq), Amount: dec(amount)}},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}
