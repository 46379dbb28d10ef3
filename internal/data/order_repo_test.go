package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

func TestOrderRepo_Lookup(t *testing.T) {
	d := newTestData(t)
	repo := NewOrderRepo(d, testLogger)
	ctx := context.Background()

	o := testOrder("o1", constants.PaymentStatusPending, constants.OrderStatusPending,
		testItem("s1", "100", "60", 2),
		&biz.OrderItem{ProductID: "p2", SupplierID: "s2", Price: dec("5"), Quantity: 1},
	)
	o.GatewayPaymentID = "pay-1"
	seedOrder(t, d, o)

	got, err := repo.GetOrder(ctx, "o1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "s1", got.Items[0].SupplierID)
	require.NotNil(t, got.Items[0].CostPrice)
	assert.True(t, got.Items[0].CostPrice.Equal(dec("60")))
	assert.Nil(t, got.Items[1].CostPrice)
	assert.Nil(t, got.CommissionDetails)

	byPayment, err := repo.FindByPaymentID(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "o1", byPayment.ID)

	byNumber, err := repo.FindByOrderNumber(ctx, "ORD-o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", byNumber.ID)

	missing, err := repo.GetOrder(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := repo.FindByPaymentID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestOrderRepo_UpdatePaymentStatus(t *testing.T) {
	d := newTestData(t)
	repo := NewOrderRepo(d, testLogger)
	ctx := context.Background()
	seedOrder(t, d, testOrder("o1", constants.PaymentStatusPending, constants.OrderStatusPending))

	require.NoError(t, repo.UpdatePaymentStatus(ctx, "o1", "pay-9", constants.PaymentStatusRejected))
	got, _ := repo.GetOrder(ctx, "o1")
	assert.Equal(t, constants.PaymentStatusRejected, got.PaymentStatus)
	assert.Equal(t, "pay-9", got.GatewayPaymentID)

	// 空 paymentID 不覆盖已有值
	require.NoError(t, repo.UpdatePaymentStatus(ctx, "o1", "", constants.PaymentStatusApproved))
	got, _ = repo.GetOrder(ctx, "o1")
	assert.Equal(t, constants.PaymentStatusApproved, got.PaymentStatus)
	assert.Equal(t, "pay-9", got.GatewayPaymentID)

	require.NoError(t, repo.SetPreference(ctx, "o1", "pref-1"))
	got, _ = repo.GetOrder(ctx, "o1")
	assert.Equal(t, "pref-1", got.GatewayPreferenceID)
}

func TestOrderRepo_MarkPayoutsPrepared(t *testing.T) {
	d := newTestData(t)
	repo := NewOrderRepo(d, testLogger)
	ctx := context.Background()
	seedOrder(t, d, testOrder("o1", constants.PaymentStatusApproved, delivered, testItem("s1", "100", "60", 2)))

	first := &biz.CommissionDetails{
		AdminCommission:           dec("80"),
		SupplierAmount:            dec("120"),
		AdminCommissionPercentage: dec("40"),
		CalculatedAt:              time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	ok, err := repo.MarkPayoutsPrepared(ctx, "o1", first)
	require.NoError(t, err)
	assert.True(t, ok)

	second := *first
	second.AdminCommission = dec("1")
	ok, err = repo.MarkPayoutsPrepared(ctx, "o1", &second)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := repo.GetOrder(ctx, "o1")
	assert.True(t, got.PayoutsPrepared)
	require.NotNil(t, got.CommissionDetails)
	assert.True(t, got.CommissionDetails.AdminCommission.Equal(dec("80")))
	assert.True(t, got.CommissionDetails.SupplierAmount.Equal(dec("120")))

	ok, err = repo.MarkPayoutsPrepared(ctx, "missing", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderRepo_ListPayoutEligible(t *testing.T) {
	d := newTestData(t)
	repo := NewOrderRepo(d, testLogger)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	mk := func(id, paymentStatus, status string, prepared bool, offset int, items ...*biz.OrderItem) {
		o := testOrder(id, paymentStatus, status, items...)
		o.PayoutsPrepared = prepared
		o.CreatedAt = base.Add(time.Duration(offset) * time.Minute)
		seedOrder(t, d, o)
	}
	mk("b", constants.PaymentStatusPaid, delivered, false, 2, testItem("s2", "10", "5", 1))
	mk("a", constants.PaymentStatusApproved, delivered, false, 1, testItem("s1", "10", "5", 1), testItem("s2", "10", "5", 1))
	mk("prepared", constants.PaymentStatusApproved, delivered, true, 3, testItem("s1", "10", "5", 1))
	mk("shipped", constants.PaymentStatusApproved, constants.OrderStatusShipped, false, 4, testItem("s1", "10", "5", 1))
	mk("unpaid", constants.PaymentStatusPending, delivered, false, 5, testItem("s1", "10", "5", 1))

	all, err := repo.ListPayoutEligible(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Len(t, all[0].Items, 2)

	s1, err := repo.ListPayoutEligible(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, s1, 1)
	assert.Equal(t, "a", s1[0].ID)
}
