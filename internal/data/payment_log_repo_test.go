package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/constants"
	"github.com/Noashop/test-pago-sub003/internal/data/model"
)

func TestPaymentLogRepo(t *testing.T) {
	d := newTestData(t)
	repo := NewPaymentLogRepo(d, testLogger)
	ctx := context.Background()

	entry := &biz.PaymentLog{
		Type:        constants.LogTypePayout,
		ReferenceID: "po-1",
		PayoutID:    "po-1",
		SupplierID:  "s1",
		Request:     map[string]string{"amount": "10.00"},
		Success:     false,
		Error:       "transfer rejected",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.CreateLog(ctx, entry))
	assert.NotZero(t, entry.ID)

	require.NoError(t, repo.CreateLog(ctx, &biz.PaymentLog{
		Type:        constants.LogTypeWebhook,
		ReferenceID: "pay-1",
		OrderID:     "o1",
		Success:     true,
		CreatedAt:   time.Now().UTC(),
	}))

	logs, total, err := repo.ListLogs(ctx, &biz.PaymentLogFilter{PayoutID: "po-1", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	assert.Equal(t, "transfer rejected", logs[0].Error)
	raw, ok := logs[0].Request.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"amount":"10.00"}`, string(raw))
	assert.Nil(t, logs[0].Response)

	_, total, err = repo.ListLogs(ctx, &biz.PaymentLogFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestSupplierAccountRepo(t *testing.T) {
	d := newTestData(t)
	repo := NewSupplierAccountRepo(d, testLogger)
	ctx := context.Background()

	seedAccount(t, d, "s1",
		model.SupplierWallet{Alias: "first", CVU: "0001"},
		model.SupplierWallet{Alias: "main", CVU: "0002", IsPrimary: true},
	)

	a, err := repo.GetAccount(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Len(t, a.Wallets, 2)
	dest := a.Destination()
	assert.Equal(t, "main", dest.Alias)
	assert.Equal(t, "acc-s1", dest.AccountID)

	missing, err := repo.GetAccount(ctx, "s9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
