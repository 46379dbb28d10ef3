package server

import (
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noashop/test-pago-sub003/internal/auth"
	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/biz/biztest"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/constants"
	"github.com/Noashop/test-pago-sub003/internal/service"
)

type testServer struct {
	env *biztest.Env
	srv *http.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	env := biztest.NewEnv()
	cost := decimal.RequireFromString("80")
	env.Orders.Put(&biz.Order{
		ID:            "o1",
		OrderNumber:   "ORD-1",
		PaymentStatus: constants.PaymentStatusPending,
		Status:        constants.OrderStatusPending,
		Items: []*biz.OrderItem{{
			ProductID:  "p1",
			SupplierID: "s1",
			Price:      decimal.RequireFromString("100"),
			CostPrice:  &cost,
			Quantity:   1,
		}},
	})
	env.Gateway.Payments["555"] = &biz.GatewayPayment{ID: "555", Status: biz.GatewayStatusApproved, ExternalReference: "ORD-1"}

	c := &conf.Bootstrap{Payout: &conf.Payout{CronSecret: "s3cret", CronLimit: 10}}
	logger := log.NewStdLogger(io.Discard)
	svc := service.NewSettlementService(env.Usecase(), c, logger)
	return &testServer{env: env, srv: NewHTTPServer(c, svc, logger)}
}

func (ts *testServer) do(t *testing.T, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

var adminHeaders = map[string]string{auth.HeaderUserID: "admin-1", auth.HeaderUserRole: string(auth.RoleAdmin)}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec, out := ts.do(t, stdhttp.MethodGet, "/health", "", nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestWebhookRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec, out := ts.do(t, stdhttp.MethodPost, "/v1/webhooks/payments", `{"type":"payment","data":{"id":555}}`, nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.EqualValues(t, 1, out["payoutsCreated"])

	// 网关以 query 方式重放
	rec, out = ts.do(t, stdhttp.MethodGet, "/v1/webhooks/payments?type=payment&data.id=555", "", nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.Len(t, ts.env.Payouts.All(), 1)

	rec, out = ts.do(t, stdhttp.MethodGet, "/v1/webhooks/payments?type=payment&data.id=404", "", nil)
	assert.Equal(t, stdhttp.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, out["error"])
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec, out := ts.do(t, stdhttp.MethodGet, "/v1/admin/payouts", "", nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", out["reason"])

	rec, _ = ts.do(t, stdhttp.MethodGet, "/v1/admin/payouts", "", map[string]string{auth.HeaderUserID: "u-1", auth.HeaderUserRole: "user"})
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)

	rec, out = ts.do(t, stdhttp.MethodPost, "/v1/admin/orders/o1/preference", "", adminHeaders)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "pref-1", out["preferenceId"])

	rec, _ = ts.do(t, stdhttp.MethodPost, "/v1/admin/payouts/process", `{"limit":-1}`, adminHeaders)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	ts.do(t, stdhttp.MethodPost, "/v1/webhooks/payments", `{"type":"payment","data":{"id":"555"}}`, nil)

	rec, out = ts.do(t, stdhttp.MethodGet, "/v1/admin/payouts?status=pending&page_size=5", "", adminHeaders)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out["total"])
	assert.EqualValues(t, 5, out["pageSize"])

	rec, out = ts.do(t, stdhttp.MethodPost, "/v1/admin/payouts/process", `{"retry_failed":true}`, adminHeaders)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out["total"])
	assert.EqualValues(t, 1, out["processed"])

	rec, out = ts.do(t, stdhttp.MethodGet, "/v1/admin/payment-logs?type=payout", "", adminHeaders)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out["total"])
}

func TestCronRoute(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, stdhttp.MethodPost, "/v1/cron/payouts/retry", "", map[string]string{auth.HeaderCronSecret: "wrong"})
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	rec, out := ts.do(t, stdhttp.MethodPost, "/v1/cron/payouts/retry", "", map[string]string{auth.HeaderCronSecret: "s3cret"})
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.EqualValues(t, 0, out["total"])
}
