package data

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/constants"
	"github.com/Noashop/test-pago-sub003/internal/data/model"
)

var testLogger = log.NewStdLogger(io.Discard)

// newTestData 每个测试独立的 sqlite 内存库
func newTestData(t *testing.T) *Data {
	t.Helper()
	c := &conf.Bootstrap{Data: &conf.Data{}}
	c.Data.Database.Driver = "sqlite"
	c.Data.Database.Source = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	c.Data.Database.MaxOpenConns = 1
	c.Data.Database.AutoMigrate = true

	db, err := NewDB(c)
	require.NoError(t, err)
	d, cleanup, err := NewData(c, testLogger, db, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func seedOrder(t *testing.T, d *Data, o *biz.Order) {
	t.Helper()
	m := &model.Order{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		UserID:              o.UserID,
		GatewayPaymentID:    o.GatewayPaymentID,
		GatewayPreferenceID: o.GatewayPreferenceID,
		Total:               o.Total,
		Subtotal:            o.Subtotal,
		PaymentStatus:       o.PaymentStatus,
		Status:              o.Status,
		PayoutsPrepared:     o.PayoutsPrepared,
		CreatedAt:           o.CreatedAt,
	}
	for _, it := range o.Items {
		mi := model.OrderItem{
			OrderID:    o.ID,
			ProductID:  it.ProductID,
			SupplierID: it.SupplierID,
			Price:      it.Price,
			Quantity:   it.Quantity,
		}
		if it.CostPrice != nil {
			mi.CostPrice = decimal.NewNullDecimal(*it.CostPrice)
		}
		m.Items = append(m.Items, mi)
	}
	require.NoError(t, d.db.Create(m).Error)
}

func seedAccount(t *testing.T, d *Data, supplierID string, wallets ...model.SupplierWallet) {
	t.Helper()
	require.NoError(t, d.db.Create(&model.SupplierPaymentAccount{
		SupplierID: supplierID,
		Provider:   "mercadopago",
		AccountID:  "acc-" + supplierID,
		Email:      supplierID + "@example.com",
		Wallets:    wallets,
	}).Error)
}

func testOrder(id, paymentStatus, status string, items ...*biz.OrderItem) *biz.Order {
	return &biz.Order{
		ID:            id,
		OrderNumber:   "ORD-" + id,
		UserID:        "u-1",
		PaymentStatus: paymentStatus,
		Status:        status,
		Items:         items,
		Total:         dec("0"),
		Subtotal:      dec("0"),
		CreatedAt:     time.Now().UTC(),
	}
}

func testItem(supplierID, price, cost string, qty int) *biz.OrderItem {
	return &biz.OrderItem{
		ProductID:  "p-" + supplierID,
		SupplierID: supplierID,
		Price:      dec(price),
		CostPrice:  decPtr(cost),
		Quantity:   qty,
	}
}

func testPayout(id, supplierID, status string, attempts int, created time.Time, orderIDs ...string) *biz.Payout {
	p := &biz.Payout{
		ID:         id,
		SupplierID: supplierID,
		Currency:   "ARS",
		Amount:     dec("10"),
		Status:     status,
		Attempts:   attempts,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, oid := range orderIDs {
		p.Orders = append(p.Orders, &biz.PayoutOrder{OrderID: oid, Amount: dec("10")})
	}
	return p
}

var delivered = constants.OrderStatusDelivered
