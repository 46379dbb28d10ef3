package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/shopspring/decimal"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

type transferReceiver struct {
	AccountID  string `json:"account_id,omitempty"`
	Email      string `json:"email,omitempty"`
	HolderName string `json:"holder_name,omitempty"`
	Alias      string `json:"alias,omitempty"`
	CVU        string `json:"cvu,omitempty"`
}

type transferBody struct {
	ExternalReference string           `json:"external_reference"`
	Amount            decimal.Decimal  `json:"amount"`
	CurrencyID        string           `json:"currency_id"`
	Description       string           `json:"description"`
	Receiver          transferReceiver `json:"receiver"`
}

type transferReply struct {
	ID           gatewayID `json:"id"`
	Status       string    `json:"status"`
	StatusDetail string    `json:"status_detail"`
}

// transferClient 通过网关向供应商打款
type transferClient struct {
	client *khttp.Client
	// disabled 非空时不发起真实打款
	disabled string
	log      *log.Helper
}

// NewTransferClient 创建打款客户端；开关关闭或缺少凭证时返回只报 NotConfigured 的实现
func NewTransferClient(c *conf.Bootstrap, logger log.Logger) (biz.Transferer, func(), error) {
	helper := log.NewHelper(logger)
	noop := func() {}
	switch {
	case c == nil || c.Payout == nil || !c.Payout.TransfersEnabled:
		helper.Info("payout transfers disabled (PAYOUT_TRANSFERS_ENABLED is off)")
		return &transferClient{disabled: "transfers are disabled", log: helper}, noop, nil
	case c.Gateway == nil || c.Gateway.AccessToken == "":
		helper.Warn("payout transfers enabled but gateway access token is missing")
		return &transferClient{disabled: "gateway access token is missing", log: helper}, noop, nil
	}

	client, err := newHTTPClient(
		c.Gateway.BaseURL,
		c.Gateway.AccessToken,
		conf.Duration(c.Payout.TransferTimeout, constants.DefaultTransferTimeout),
		logger,
	)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			helper.Warnf("Failed to close transfer client: %v", err)
		}
	}
	return &transferClient{client: client, log: helper}, cleanup, nil
}

// Transfer 发起一次打款，幂等键为 payout id 加尝试序号
func (t *transferClient) Transfer(ctx context.Context, req *biz.TransferRequest) (*biz.TransferResponse, error) {
	if t.disabled != "" {
		return nil, fmt.Errorf("%w: %s", biz.ErrTransferNotConfigured, t.disabled)
	}

	body := &transferBody{
		ExternalReference: req.PayoutID,
		Amount:            req.Amount,
		CurrencyID:        req.Currency,
		Description:       "supplier payout " + req.PayoutID,
	}
	if d := req.Destination; d != nil {
		body.Receiver = transferReceiver{
			AccountID:  d.AccountID,
			Email:      d.Email,
			HolderName: d.HolderName,
			Alias:      d.Alias,
			CVU:        d.CVU,
		}
	}

	ctx = withRequestHeader(ctx, "X-Idempotency-Key", req.PayoutID+"-"+strconv.Itoa(req.Attempt))
	var reply transferReply
	if err := t.client.Invoke(ctx, "POST", "/v1/transfers", body, &reply); err != nil {
		return nil, classifyTransferError(ctx, err)
	}

	switch reply.Status {
	case "rejected", "cancelled":
		return nil, fmt.Errorf("%w: status=%s detail=%s", biz.ErrTransferRejected, reply.Status, reply.StatusDetail)
	}
	return &biz.TransferResponse{ID: string(reply.ID), Status: reply.Status}, nil
}

// classifyTransferError 4xx 视为网关拒绝，超时单独标记，其余按暂时失败处理
func classifyTransferError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", biz.ErrTransferTimeout, err)
	}
	if se := kerrors.FromError(err); se != nil {
		code := int(se.Code)
		if code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests {
			return fmt.Errorf("%w: http %d: %s", biz.ErrTransferRejected, code, se.Message)
		}
	}
	return fmt.Errorf("transfer request failed: %w", err)
}
