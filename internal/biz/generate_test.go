package biz_test

import (
	"context"
	"errors"
	"testing"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/biz/biztest"
	"github.com/Noashop/test-pago-sub003/internal/constants"
	bizErrors "github.com/Noashop/test-pago-sub003/internal/errors"
)

func TestGeneratePayouts_NothingEligible(t *testing.T) {
	env := biztest.NewEnv()
	env.Orders.Put(pendingOrder("o1", item("s1", "10", "5", 1)))
	shipped := deliveredOrder("o2", item("s1", "10", "5", 1))
	shipped.Status = constants.OrderStatusShipped
	env.Orders.Put(shipped)

	res, err := env.Usecase().GeneratePayouts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, res.Payouts)
	assert.Empty(t, env.Payouts.All())
}

func TestGeneratePayouts_GroupsBySupplier(t *testing.T) {
	env := biztest.NewEnv()
	env.Orders.Put(deliveredOrder("o1", item("s1", "100", "60", 2), item("s2", "50", "40", 1)))
	paid := deliveredOrder("o2", item("s1", "30", "25", 1))
	paid.PaymentStatus = constants.PaymentStatusPaid
	env.Orders.Put(paid)
	env.Accounts.Put(account("s1"))

	res, err := env.Usecase().GeneratePayouts(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)

	s1 := res.Payouts[0]
	assert.Equal(t, "s1", s1.SupplierID)
	assert.True(t, s1.Amount.Equal(dec("145")), s1.Amount.String())
	assert.Len(t, s1.Orders, 2)
	assert.Equal(t, "ARS", s1.Currency)
	require.NotNil(t, s1.Destination)

	s2 := res.Payouts[1]
	assert.Equal(t, "s2", s2.SupplierID)
	assert.True(t, s2.Amount.Equal(dec("40")))

	assert.True(t, env.Orders.Get("o1").PayoutsPrepared)
	assert.True(t, env.Orders.Get("o2").PayoutsPrepared)
	assert.Equal(t, []string{constants.EventPayoutCreated, constants.EventPayoutCreated}, env.Publisher.Types())
}

func TestGeneratePayouts_NoDoubleInclusion(t *testing.T) {
	env := biztest.NewEnv()
	env.Orders.Put(deliveredOrder("o1", item("s1", "100", "60", 1), item("s2", "50", "40", 1)))
	env.Orders.Put(deliveredOrder("o2", item("s1", "30", "25", 1)))
	uc := env.Usecase()
	ctx := context.Background()

	// 按供应商过滤时不标记订单，后续全量批次必须依赖已覆盖集合去重
	res, err := uc.GeneratePayouts(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.False(t, env.Orders.Get("o1").PayoutsPrepared)

	res, err = uc.GeneratePayouts(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "s2", res.Payouts[0].SupplierID)
	assert.True(t, env.Orders.Get("o1").PayoutsPrepared)
	assert.True(t, env.Orders.Get("o2").PayoutsPrepared)

	res, err = uc.GeneratePayouts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)

	seen := map[string]map[string]bool{}
	for _, p := range env.Payouts.All() {
		if seen[p.SupplierID] == nil {
			seen[p.SupplierID] = map[string]bool{}
		}
		for _, o := range p.Orders {
			assert.False(t, seen[p.SupplierID][o.OrderID], "order %s included twice for %s", o.OrderID, p.SupplierID)
			seen[p.SupplierID][o.OrderID] = true
		}
	}
	assert.Len(t, seen["s1"], 2)
	assert.Len(t, seen["s2"], 1)
}

func TestGeneratePayouts_LockBusy(t *testing.T) {
	env := biztest.NewEnv()
	env.Orders.Put(deliveredOrder("o1", item("s1", "10", "5", 1), item("s2", "10", "5", 1)))
	env.Orders.Put(deliveredOrder("o2", item("s2", "10", "5", 1)))
	env.Locker.Busy["payout_generate_lock:supplier:s1"] = true

	res, err := env.Usecase().GeneratePayouts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	var skipped *biz.GenerateItemResult
	for _, r := range res.Results {
		if r.SupplierID == "s1" {
			skipped = r
		}
	}
	require.NotNil(t, skipped)
	assert.True(t, skipped.Skipped)
	assert.False(t, skipped.Success)

	// o1 仍欠 s1，保持未准备状态以便下次补齐
	assert.False(t, env.Orders.Get("o1").PayoutsPrepared)
	assert.True(t, env.Orders.Get("o2").PayoutsPrepared)

	delete(env.Locker.Busy, "payout_generate_lock:supplier:s1")
	res, err = env.Usecase().GeneratePayouts(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "s1", res.Payouts[0].SupplierID)
	assert.True(t, env.Orders.Get("o1").PayoutsPrepared)
}

func TestGeneratePayouts_SkipsInvalidOrders(t *testing.T) {
	env := biztest.NewEnv()
	env.Orders.Put(deliveredOrder("empty"))
	env.Orders.Put(deliveredOrder("orphan", item("", "10", "5", 1)))
	env.Orders.Put(deliveredOrder("ok", item("s1", "10", "5", 1)))

	res, err := env.Usecase().GeneratePayouts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	skipped := 0
	for _, r := range res.Results {
		if r.Skipped {
			skipped++
		}
	}
	assert.Equal(t, 2, skipped)
	assert.False(t, env.Orders.Get("empty").PayoutsPrepared)
	assert.False(t, env.Orders.Get("orphan").PayoutsPrepared)
	assert.True(t, env.Orders.Get("ok").PayoutsPrepared)
}

func TestGeneratePayouts_ZeroCostNotPaid(t *testing.T) {
	env := biztest.NewEnv()
	env.Orders.Put(deliveredOrder("o1", &biz.OrderItem{SupplierID: "s1", Price: dec("10"), Quantity: 1}))

	res, err := env.Usecase().GeneratePayouts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.True(t, env.Orders.Get("o1").PayoutsPrepared)
}

func TestGeneratePayouts_ListFailure(t *testing.T) {
	env := biztest.NewEnv()
	env.Orders.ListErr = errors.New("dial tcp 10.0.0.5:3306: connection refused")

	res, err := env.Usecase().GeneratePayouts(context.Background(), "")
	require.Error(t, err)
	assert.Nil(t, res)
	se := kerrors.FromError(err)
	assert.Equal(t, int32(bizErrors.ErrCodePayoutGenerateFailed), se.Code)
	assert.NotContains(t, se.Message, "10.0.0.5")
}
