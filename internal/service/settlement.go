package service

import (
	"fmt"
	"time"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

// MaxProcessLimit 手工打款批次的数量上限
const MaxProcessLimit = 500

// WebhookRequest 原始通知，body 和 query 都可能携带字段
type WebhookRequest struct {
	Query map[string][]string
	Body  []byte
}

// WebhookReply 已处理或被忽略的通知都返回 ok
type WebhookReply struct {
	OK             bool   `json:"ok"`
	Ignored        bool   `json:"ignored,omitempty"`
	Reason         string `json:"reason,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	PaymentStatus  string `json:"paymentStatus,omitempty"`
	PayoutsCreated int    `json:"payoutsCreated,omitempty"`
}

type ListPayoutsRequest struct {
	Status     string `json:"status"`
	SupplierID string `json:"supplier_id"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

func (r *ListPayoutsRequest) Validate() error {
	if r.Page < 0 || r.PageSize < 0 {
		return fmt.Errorf("page and page_size must not be negative")
	}
	switch r.Status {
	case "", constants.PayoutStatusPending, constants.PayoutStatusProcessing,
		constants.PayoutStatusPaid, constants.PayoutStatusFailed:
		return nil
	}
	return fmt.Errorf("unknown payout status %q", r.Status)
}

type PayoutOrderInfo struct {
	OrderID string `json:"orderId"`
	Amount  string `json:"amount"`
}

type PayoutInfo struct {
	ID          string             `json:"id"`
	SupplierID  string             `json:"supplierId"`
	Amount      string             `json:"amount"`
	Currency    string             `json:"currency"`
	Status      string             `json:"status"`
	Attempts    int                `json:"attempts"`
	LastTriedAt *time.Time         `json:"lastTriedAt,omitempty"`
	LastError   string             `json:"lastError,omitempty"`
	PaidAt      *time.Time         `json:"paidAt,omitempty"`
	TransferID  string             `json:"transferId,omitempty"`
	Destination *biz.Destination   `json:"destination,omitempty"`
	Orders      []*PayoutOrderInfo `json:"orders"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type ListPayoutsReply struct {
	Payouts  []*PayoutInfo `json:"payouts"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

type GeneratePayoutsRequest struct {
	SupplierID string `json:"supplier_id"`
}

type GenerateResultItem struct {
	SupplierID string `json:"supplierId,omitempty"`
	PayoutID   string `json:"payoutId,omitempty"`
	OrderCount int    `json:"orderCount"`
	Amount     string `json:"amount"`
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

type GeneratePayoutsReply struct {
	Count   int                   `json:"count"`
	Payouts []*PayoutInfo         `json:"payouts"`
	Results []*GenerateResultItem `json:"results"`
}

type ProcessPayoutsRequest struct {
	RetryFailed bool `json:"retry_failed"`
	Limit       int  `json:"limit"`
}

func (r *ProcessPayoutsRequest) Validate() error {
	if r.Limit < 0 || r.Limit > MaxProcessLimit {
		return fmt.Errorf("limit must be between 0 and %d", MaxProcessLimit)
	}
	return nil
}

type ProcessResultItem struct {
	PayoutID   string `json:"payoutId"`
	SupplierID string `json:"supplierId"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ProcessPayoutsReply 即使 HTTP 200 也可能有失败项，需要检查 results
type ProcessPayoutsReply struct {
	Processed               int                  `json:"processed"`
	Total                   int                  `json:"total"`
	FailedCount             int                  `json:"failedCount"`
	ReachedMaxAttemptsCount int                  `json:"reachedMaxAttemptsCount"`
	Results                 []*ProcessResultItem `json:"results"`
}

type ListPaymentLogsRequest struct {
	Type     string `json:"type"`
	PayoutID string `json:"payout_id"`
	OrderID  string `json:"order_id"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

func (r *ListPaymentLogsRequest) Validate() error {
	if r.Page < 0 || r.PageSize < 0 {
		return fmt.Errorf("page and page_size must not be negative")
	}
	switch r.Type {
	case "", constants.LogTypeWebhook, constants.LogTypePayout, constants.LogTypePreference:
		return nil
	}
	return fmt.Errorf("unknown log type %q", r.Type)
}

type PaymentLogInfo struct {
	ID          uint64      `json:"id"`
	Type        string      `json:"type"`
	ReferenceID string      `json:"referenceId"`
	OrderID     string      `json:"orderId,omitempty"`
	PayoutID    string      `json:"payoutId,omitempty"`
	SupplierID  string      `json:"supplierId,omitempty"`
	Request     interface{} `json:"request,omitempty"`
	Response    interface{} `json:"response,omitempty"`
	Success     bool        `json:"success"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type ListPaymentLogsReply struct {
	Logs     []*PaymentLogInfo `json:"logs"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

type CreatePreferenceRequest struct {
	OrderID string `json:"order_id"`
}

func (r *CreatePreferenceRequest) Validate() error {
	if r.OrderID == "" {
		return fmt.Errorf("order_id is required")
	}
	return nil
}

type CreatePreferenceReply struct {
	PreferenceID string `json:"preferenceId"`
	InitPoint    string `json:"initPoint"`
}

func toPayoutInfo(p *biz.Payout) *PayoutInfo {
	info := &PayoutInfo{
		ID:          p.ID,
		SupplierID:  p.SupplierID,
		Amount:      p.Amount.StringFixed(2),
		Currency:    p.Currency,
		Status:      p.Status,
		Attempts:    p.Attempts,
		LastTriedAt: p.LastTriedAt,
		LastError:   p.LastError,
		PaidAt:      p.PaidAt,
		TransferID:  p.TransferID,
		Destination: p.Destination,
		Orders:      make([]*PayoutOrderInfo, 0, len(p.Orders)),
		CreatedAt:   p.CreatedAt,
	}
	for _, o := range p.Orders {
		info.Orders = append(info.Orders, &PayoutOrderInfo{OrderID: o.OrderID, Amount: o.Amount.StringFixed(2)})
	}
	return info
}

func toPayoutInfos(ps []*biz.Payout) []*PayoutInfo {
	out := make([]*PayoutInfo, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPayoutInfo(p))
	}
	return out
}

func toProcessReply(r *biz.ProcessResult) *ProcessPayoutsReply {
	reply := &ProcessPayoutsReply{
		Processed:               r.Processed,
		Total:                   r.Total,
		FailedCount:             r.FailedCount,
		ReachedMaxAttemptsCount: r.ReachedMaxAttemptsCount,
		Results:                 make([]*ProcessResultItem, 0, len(r.Results)),
	}
	for _, it := range r.Results {
		reply.Results = append(reply.Results, &ProcessResultItem{
			PayoutID:   it.PayoutID,
			SupplierID: it.SupplierID,
			Status:     it.Status,
			Attempts:   it.Attempts,
			Success:    it.Success,
			Skipped:    it.Skipped,
			Error:      it.ErrorMessage,
		})
	}
	return reply
}
