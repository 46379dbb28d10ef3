package data

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// fakeGateway 记录请求并按路径返回预设响应
type fakeGateway struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, body []byte)
}

func newFakeGateway(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) (*fakeGateway, *httptest.Server) {
	t.Helper()
	fg := &fakeGateway{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fg.mu.Lock()
		fg.requests = append(fg.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		fg.mu.Unlock()
		fg.handler(w, r, body)
	}))
	t.Cleanup(srv.Close)
	return fg, srv
}

func (f *fakeGateway) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func gatewayConf(baseURL string) *conf.Bootstrap {
	return &conf.Bootstrap{
		Gateway: &conf.Gateway{BaseURL: baseURL, AccessToken: "tok-123", Timeout: "2s"},
		Payout:  &conf.Payout{TransfersEnabled: true, TransferTimeout: "2s"},
	}
}

func TestGatewayClient_GetPayment(t *testing.T) {
	fg, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		if r.URL.Path == "/v1/payments/123" {
			writeJSON(w, http.StatusOK, `{"id":123,"status":"approved","status_detail":"accredited","external_reference":"ORD-1","transaction_amount":250.5,"currency_id":"ARS"}`)
			return
		}
		writeJSON(w, http.StatusNotFound, `{"message":"payment not found"}`)
	})

	gw, cleanup, err := NewGatewayClient(gatewayConf(srv.URL), testLogger)
	require.NoError(t, err)
	defer cleanup()

	p, err := gw.GetPayment(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "123", p.ID)
	assert.Equal(t, biz.GatewayStatusApproved, p.Status)
	assert.Equal(t, "ORD-1", p.ExternalReference)
	assert.True(t, p.TransactionAmount.Equal(dec("250.5")))
	assert.Equal(t, "Bearer tok-123", fg.last().Header.Get("Authorization"))

	_, err = gw.GetPayment(context.Background(), "404")
	assert.Error(t, err)
}

func TestGatewayClient_CreatePreference(t *testing.T) {
	fg, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusCreated, `{"id":"pref-1","init_point":"https://checkout.example/pref-1"}`)
	})

	gw, cleanup, err := NewGatewayClient(gatewayConf(srv.URL), testLogger)
	require.NoError(t, err)
	defer cleanup()

	pref, err := gw.CreatePreference(context.Background(), &biz.PreferenceRequest{
		ExternalReference: "ORD-1",
		NotificationURL:   "https://shop.example/v1/webhooks/payments",
		Items:             []*biz.PreferenceItem{{ID: "p1", Title: "p1", Quantity: 2, UnitPrice: dec("10"), Currency: "ARS"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)

	req := fg.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/checkout/preferences", req.Path)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "ORD-1", body["external_reference"])
	assert.Len(t, body["items"], 1)
}

func TestTransferClient_NotConfigured(t *testing.T) {
	c := gatewayConf("http://127.0.0.1:1")
	c.Payout.TransfersEnabled = false
	tr, _, err := NewTransferClient(c, testLogger)
	require.NoError(t, err)
	_, err = tr.Transfer(context.Background(), &biz.TransferRequest{PayoutID: "po-1"})
	assert.True(t, errors.Is(err, biz.ErrTransferNotConfigured))

	c = gatewayConf("http://127.0.0.1:1")
	c.Gateway.AccessToken = ""
	tr, _, err = NewTransferClient(c, testLogger)
	require.NoError(t, err)
	_, err = tr.Transfer(context.Background(), &biz.TransferRequest{PayoutID: "po-1"})
	assert.True(t, errors.Is(err, biz.ErrTransferNotConfigured))
}

func TestTransferClient_Transfer(t *testing.T) {
	status := http.StatusCreated
	reply := `{"id":987,"status":"approved"}`
	fg, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, status, reply)
	})

	tr, cleanup, err := NewTransferClient(gatewayConf(srv.URL), testLogger)
	require.NoError(t, err)
	defer cleanup()

	req := &biz.TransferRequest{
		PayoutID:    "po-1",
		SupplierID:  "s1",
		Attempt:     2,
		Amount:      dec("120"),
		Currency:    "ARS",
		Destination: &biz.Destination{Alias: "s1.alias", CVU: "0001"},
	}
	resp, err := tr.Transfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "987", resp.ID)

	last := fg.last()
	assert.Equal(t, "/v1/transfers", last.Path)
	assert.Equal(t, "po-1-2", last.Header.Get("X-Idempotency-Key"))
	assert.Equal(t, "Bearer tok-123", last.Header.Get("Authorization"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(last.Body, &body))
	assert.Equal(t, "po-1", body["external_reference"])

	reply = `{"id":988,"status":"rejected","status_detail":"insufficient_funds"}`
	_, err = tr.Transfer(context.Background(), req)
	assert.True(t, errors.Is(err, biz.ErrTransferRejected))

	status, reply = http.StatusBadRequest, `{"message":"invalid receiver"}`
	_, err = tr.Transfer(context.Background(), req)
	assert.True(t, errors.Is(err, biz.ErrTransferRejected))

	status, reply = http.StatusServiceUnavailable, `{"message":"try later"}`
	_, err = tr.Transfer(context.Background(), req)
	require.Error(t, err)
	assert.False(t, errors.Is(err, biz.ErrTransferRejected))
	assert.False(t, errors.Is(err, biz.ErrTransferNotConfigured))
}

func TestAlertClient(t *testing.T) {
	fg, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request, _ []byte) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	})

	c := &conf.Bootstrap{Alert: &conf.Alert{WebhookURL: srv.URL + "/hooks/payouts?channel=ops", Timeout: "2s"}}
	alerter, cleanup, err := NewAlertClient(c, testLogger)
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, alerter.Notify(context.Background(), &biz.Alert{Source: "cron", Total: 3, FailedCount: 2, ReachedMaxAttemptsCount: 1}))
	last := fg.last()
	assert.Equal(t, "/hooks/payouts", last.Path)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(last.Body, &body))
	assert.Equal(t, "cron", body["source"])
	assert.EqualValues(t, 2, body["failedCount"])
	assert.EqualValues(t, 1, body["reachedMaxAttemptsCount"])
	assert.Contains(t, body, "timestamp")

	noop, _, err := NewAlertClient(&conf.Bootstrap{}, testLogger)
	require.NoError(t, err)
	assert.NoError(t, noop.Notify(context.Background(), &biz.Alert{Source: "admin"}))
}
