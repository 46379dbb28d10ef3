package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Noashop/test-pago-sub003/internal/constants"
)

// GatewayStatus 支付网关返回的支付状态
type GatewayStatus string

const (
	GatewayStatusApproved    GatewayStatus = "approved"
	GatewayStatusPending     GatewayStatus = "pending"
	GatewayStatusInProcess   GatewayStatus = "in_process"
	GatewayStatusInMediation GatewayStatus = "in_mediation"
	GatewayStatusRejected    GatewayStatus = "rejected"
	GatewayStatusCancelled   GatewayStatus = "cancelled"
	GatewayStatusRefunded    GatewayStatus = "refunded"
)

// ErrUnknownGatewayStatus 网关返回了未建模的状态
var ErrUnknownGatewayStatus = errors.New("unknown gateway payment status")

// MapGatewayStatus 将网关状态映射为订单支付状态，未知状态显式报错而不是回落到 pending
func MapGatewayStatus(s GatewayStatus) (string, error) {
	switch s {
	case GatewayStatusApproved:
		return constants.PaymentStatusApproved, nil
	case GatewayStatusPending, GatewayStatusInProcess, GatewayStatusInMediation:
		return constants.PaymentStatusPending, nil
	case GatewayStatusRejected:
		return constants.PaymentStatusRejected, nil
	case GatewayStatusCancelled:
		return constants.PaymentStatusCancelled, nil
	case GatewayStatusRefunded:
		return constants.PaymentStatusRefunded, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGatewayStatus, string(s))
	}
}

// GatewayPayment 网关上的权威支付对象
type GatewayPayment struct {
	ID                string          `json:"id"`
	Status            GatewayStatus   `json:"status"`
	StatusDetail      string          `json:"statusDetail,omitempty"`
	ExternalReference string          `json:"externalReference,omitempty"`
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
	Currency          string          `json:"currency,omitempty"`
}

// PreferenceItem checkout 行
type PreferenceItem struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Currency  string          `json:"currency"`
}

// PreferenceRequest 创建 checkout preference 请求
type PreferenceRequest struct {
	ExternalReference string            `json:"externalReference"`
	NotificationURL   string            `json:"notificationUrl,omitempty"`
	Items             []*PreferenceItem `json:"items"`
}

// Preference 网关返回的 checkout preference
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"initPoint"`
}

// PaymentGateway 支付网关客户端接口（防腐层）
type PaymentGateway interface {
	GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
	CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error)
}

// 打款错误分类
var (
	// ErrTransferNotConfigured 打款功能未开启或缺少凭证，属于永久性配置问题
	ErrTransferNotConfigured = errors.New("transfer integration not configured")
	// ErrTransferRejected 网关拒绝了打款
	ErrTransferRejected = errors.New("transfer rejected")
	// ErrTransferTimeout 打款请求超时，结果未知
	ErrTransferTimeout = errors.New("transfer timed out")
)

// TransferRequest 打款请求
type TransferRequest struct {
	PayoutID   string `json:"payoutId"`
	SupplierID string `json:"supplierId"`
	// Attempt 本次是第几次尝试，用于生成网关幂等键
	Attempt     int             `json:"attempt"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Destination *Destination    `json:"destination"`
}

// TransferResponse 打款结果
type TransferResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Transferer 打款执行器
type Transferer interface {
	Transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error)
}
