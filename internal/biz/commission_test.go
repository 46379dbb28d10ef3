package biz

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noashop/test-pago-sub003/internal/constants"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestComputeCommission(t *testing.T) {
	items := []*OrderItem{
		{SupplierID: "s1", Price: dec("100"), CostPrice: decPtr("60"), Quantity: 2},
		{SupplierID: "s1", Price: dec("50"), CostPrice: decPtr("55"), Quantity: 1},
	}

	c := ComputeCommission(items)
	assert.True(t, c.AdminCommission.Equal(dec("80")), c.AdminCommission.String())
	assert.True(t, c.SupplierAmount.Equal(dec("175")), c.SupplierAmount.String())
	assert.True(t, c.TotalAmount.Equal(dec("250")), c.TotalAmount.String())
	assert.True(t, c.AdminCommissionPercentage.Equal(dec("32")), c.AdminCommissionPercentage.String())
}

func TestComputeCommission_LossLine(t *testing.T) {
	// 售价低于成本：佣金为 0，供应商按成本结算
	c := ComputeCommission([]*OrderItem{
		{SupplierID: "s1", Price: dec("10"), CostPrice: decPtr("12.5"), Quantity: 3},
	})
	assert.True(t, c.AdminCommission.IsZero())
	assert.True(t, c.SupplierAmount.Equal(dec("37.5")))
	assert.True(t, c.TotalAmount.Equal(dec("30")))
	assert.True(t, c.AdminCommissionPercentage.IsZero())
}

func TestComputeCommission_Edges(t *testing.T) {
	c := ComputeCommission(nil)
	assert.True(t, c.TotalAmount.IsZero())
	assert.True(t, c.AdminCommissionPercentage.IsZero())

	// 缺少成本价按 0 处理
	c = ComputeCommission([]*OrderItem{{SupplierID: "s1", Price: dec("20"), Quantity: 1}, nil})
	assert.True(t, c.AdminCommission.Equal(dec("20")))
	assert.True(t, c.SupplierAmount.IsZero())
	assert.True(t, c.AdminCommissionPercentage.Equal(dec("100")))
}

func TestSupplierAmounts(t *testing.T) {
	items := []*OrderItem{
		{SupplierID: "b", Price: dec("10"), CostPrice: decPtr("8"), Quantity: 1},
		{SupplierID: "a", Price: dec("30"), CostPrice: decPtr("20"), Quantity: 2},
		{SupplierID: "b", Price: dec("5"), CostPrice: decPtr("9"), Quantity: 2},
	}
	got := SupplierAmounts(items)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].SupplierID)
	assert.True(t, got[0].Amount.Equal(dec("26")))
	assert.Equal(t, "a", got[1].SupplierID)
	assert.True(t, got[1].Amount.Equal(dec("40")))
}

func TestMapGatewayStatus(t *testing.T) {
	cases := map[GatewayStatus]string{
		GatewayStatusApproved:    constants.PaymentStatusApproved,
		GatewayStatusPending:     constants.PaymentStatusPending,
		GatewayStatusInProcess:   constants.PaymentStatusPending,
		GatewayStatusInMediation: constants.PaymentStatusPending,
		GatewayStatusRejected:    constants.PaymentStatusRejected,
		GatewayStatusCancelled:   constants.PaymentStatusCancelled,
		GatewayStatusRefunded:    constants.PaymentStatusRefunded,
	}
	for in, want := range cases {
		got, err := MapGatewayStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, s := range []GatewayStatus{"expired", "authorized", "charged_back"} {
		_, err := MapGatewayStatus(s)
		assert.True(t, errors.Is(err, ErrUnknownGatewayStatus), s)
	}
}

func TestSupplierPaymentAccountDestination(t *testing.T) {
	var nilAccount *SupplierPaymentAccount
	assert.Nil(t, nilAccount.Destination())

	a := &SupplierPaymentAccount{
		SupplierID: "s1",
		Provider:   "mercadopago",
		Email:      "s1@example.com",
		Wallets: []*SupplierWallet{
			{Alias: "first.alias", CVU: "0001"},
			{Alias: "main.alias", CVU: "0002", Primary: true},
		},
	}
	d := a.Destination()
	assert.Equal(t, "main.alias", d.Alias)
	assert.Equal(t, "0002", d.CVU)
	assert.Equal(t, "s1@example.com", d.Email)

	a.Wallets[1].Primary = false
	assert.Equal(t, "first.alias", a.Destination().Alias)
}
