package data

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/shopspring/decimal"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

// gatewayID 网关 id 可能是数字也可能是字符串
type gatewayID string

func (id *gatewayID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*id = ""
		return nil
	}
	*id = gatewayID(strings.Trim(s, `"`))
	return nil
}

type gatewayPayment struct {
	ID                gatewayID       `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
}

type gatewayPreferenceItem struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CurrencyID string          `json:"currency_id"`
}

type gatewayPreferenceRequest struct {
	ExternalReference string                   `json:"external_reference"`
	NotificationURL   string                   `json:"notification_url,omitempty"`
	Items             []*gatewayPreferenceItem `json:"items"`
}

type gatewayPreference struct {
	ID        gatewayID `json:"id"`
	InitPoint string    `json:"init_point"`
}

// gatewayClient 支付网关 REST 客户端
type gatewayClient struct {
	client *khttp.Client
	log    *log.Helper
}

// NewGatewayClient 创建支付网关客户端
func NewGatewayClient(c *conf.Bootstrap, logger log.Logger) (biz.PaymentGateway, func(), error) {
	if c == nil || c.Gateway == nil || c.Gateway.BaseURL == "" {
		return nil, nil, fmt.Errorf("gateway.base_url is required")
	}
	client, err := newHTTPClient(
		c.Gateway.BaseURL,
		c.Gateway.AccessToken,
		conf.Duration(c.Gateway.Timeout, constants.DefaultGatewayTimeout),
		logger,
	)
	if err != nil {
		return nil, nil, err
	}
	helper := log.NewHelper(logger)
	if c.Gateway.AccessToken == "" {
		helper.Warn("gateway access token is empty, payment lookups will be rejected")
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			helper.Warnf("Failed to close gateway client: %v", err)
		}
	}
	return &gatewayClient{client: client, log: helper}, cleanup, nil
}

// GetPayment 查询网关上的支付
func (g *gatewayClient) GetPayment(ctx context.Context, paymentID string) (*biz.GatewayPayment, error) {
	var reply gatewayPayment
	path := "/v1/payments/" + url.PathEscape(paymentID)
	if err := g.client.Invoke(ctx, "GET", path, nil, &reply); err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}
	return &biz.GatewayPayment{
		ID:                string(reply.ID),
		Status:            biz.GatewayStatus(reply.Status),
		StatusDetail:      reply.StatusDetail,
		ExternalReference: reply.ExternalReference,
		TransactionAmount: reply.TransactionAmount,
		Currency:          reply.CurrencyID,
	}, nil
}

// CreatePreference 创建 checkout preference
func (g *gatewayClient) CreatePreference(ctx context.Context, req *biz.PreferenceRequest) (*biz.Preference, error) {
	body := &gatewayPreferenceRequest{
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
	}
	for _, it := range req.Items {
		body.Items = append(body.Items, &gatewayPreferenceItem{
			ID:         it.ID,
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CurrencyID: it.Currency,
		})
	}
	var reply gatewayPreference
	if err := g.client.Invoke(ctx, "POST", "/checkout/preferences", body, &reply); err != nil {
		return nil, fmt.Errorf("create preference for %s: %w", req.ExternalReference, err)
	}
	return &biz.Preference{ID: string(reply.ID), InitPoint: reply.InitPoint}, nil
}
