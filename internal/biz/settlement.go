package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

// SettlementOptions 结算用例的运行参数
type SettlementOptions struct {
	MaxAttempts     int
	Currency        string
	NotificationURL string
	GatewayTimeout  time.Duration
	TransferTimeout time.Duration
	AlertTimeout    time.Duration
}

// NewSettlementOptions 从配置构造运行参数
func NewSettlementOptions(c *conf.Bootstrap) *SettlementOptions {
	o := &SettlementOptions{
		MaxAttempts:     conf.DefaultMaxAttempts,
		Currency:        conf.DefaultCurrency,
		GatewayTimeout:  constants.DefaultGatewayTimeout,
		TransferTimeout: constants.DefaultTransferTimeout,
		AlertTimeout:    constants.DefaultAlertTimeout,
	}
	if c == nil {
		return o
	}
	if c.Payout != nil {
		if c.Payout.MaxAttempts > 0 {
			o.MaxAttempts = c.Payout.MaxAttempts
		}
		if c.Payout.Currency != "" {
			o.Currency = c.Payout.Currency
		}
		o.TransferTimeout = conf.Duration(c.Payout.TransferTimeout, o.TransferTimeout)
	}
	if c.Gateway != nil {
		o.NotificationURL = c.Gateway.NotificationURL
		o.GatewayTimeout = conf.Duration(c.Gateway.Timeout, o.GatewayTimeout)
	}
	if c.Alert != nil {
		o.AlertTimeout = conf.Duration(c.Alert.Timeout, o.AlertTimeout)
	}
	return o
}

// SettlementUsecase 订单支付对账与供应商结算
type SettlementUsecase struct {
	orderRepo   OrderRepo
	payoutRepo  PayoutRepo
	logRepo     PaymentLogRepo
	accountRepo SupplierAccountRepo
	gateway     PaymentGateway
	transferer  Transferer
	alerter     Alerter
	publisher   EventPublisher
	locker      Locker
	tm          Transaction
	opts        *SettlementOptions
	log         *log.Helper

	now func() time.Time
}

// NewSettlementUsecase 创建结算用例
func NewSettlementUsecase(
	orderRepo OrderRepo,
	payoutRepo PayoutRepo,
	logRepo PaymentLogRepo,
	accountRepo SupplierAccountRepo,
	gateway PaymentGateway,
	transferer Transferer,
	alerter Alerter,
	publisher EventPublisher,
	locker Locker,
	tm Transaction,
	opts *SettlementOptions,
	logger log.Logger,
) *SettlementUsecase {
	return &SettlementUsecase{
		orderRepo:   orderRepo,
		payoutRepo:  payoutRepo,
		logRepo:     logRepo,
		accountRepo: accountRepo,
		gateway:     gateway,
		transferer:  transferer,
		alerter:     alerter,
		publisher:   publisher,
		locker:      locker,
		tm:          tm,
		opts:        opts,
		log:         log.NewHelper(logger),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListPayouts 查询 payout 列表
func (uc *SettlementUsecase) ListPayouts(ctx context.Context, filter *PayoutFilter) ([]*Payout, int, error) {
	normalizePage(&filter.Page, &filter.PageSize)
	return uc.payoutRepo.ListPayouts(ctx, filter)
}

// ListPaymentLogs 查询审计日志
func (uc *SettlementUsecase) ListPaymentLogs(ctx context.Context, filter *PaymentLogFilter) ([]*PaymentLog, int, error) {
	normalizePage(&filter.Page, &filter.PageSize)
	return uc.logRepo.ListLogs(ctx, filter)
}

// ReleaseStalePayouts 将卡在 processing 的 payout 退回 failed，供人工处理后重试
func (uc *SettlementUsecase) ReleaseStalePayouts(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := uc.now().Add(-olderThan)
	n, err := uc.payoutRepo.ReleaseStale(ctx, cutoff, "released after staying in processing since before "+cutoff.Format(time.RFC3339))
	if err != nil {
		uc.log.Errorf("Failed to release stale payouts: %v", err)
		return 0, err
	}
	uc.log.Infof("Released %d stale processing payouts", n)
	return n, nil
}

// newPayout 构造 pending payout，收款目的地取供应商当前账户的快照
func (uc *SettlementUsecase) newPayout(ctx context.Context, supplierID string, orders []*PayoutOrder) (*Payout, error) {
	amount := decimal.Zero
	for _, o := range orders {
		amount = amount.Add(o.Amount)
	}
	account, err := uc.accountRepo.GetAccount(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	return &Payout{
		ID:          uuid.NewString(),
		SupplierID:  supplierID,
		Currency:    uc.opts.Currency,
		Amount:      amount,
		Status:      constants.PayoutStatusPending,
		Orders:      orders,
		Destination: account.Destination(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// writeLog 审计日志写入失败不影响主流程
func (uc *SettlementUsecase) writeLog(ctx context.Context, l *PaymentLog) {
	l.CreatedAt = uc.now()
	if err := uc.logRepo.CreateLog(ctx, l); err != nil {
		uc.log.Errorf("Failed to write payment log (type=%s, ref=%s): %v", l.Type, l.ReferenceID, err)
	}
}

// publish 事件发布失败只记录日志
func (uc *SettlementUsecase) publish(ctx context.Context, eventType string, p *Payout) {
	if uc.publisher == nil {
		return
	}
	event := &PayoutEvent{
		Type:       eventType,
		PayoutID:   p.ID,
		SupplierID: p.SupplierID,
		Amount:     p.Amount.StringFixed(2),
		Currency:   p.Currency,
		Status:     p.Status,
		Attempts:   p.Attempts,
		Error:      p.LastError,
		OccurredAt: uc.now(),
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.log.Warnf("Failed to publish %s for payout %s: %v", eventType, p.ID, err)
	}
}

func normalizePage(page, pageSize *int) {
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 || *pageSize > constants.MaxPageSize {
		*pageSize = constants.DefaultPageSize
	}
}
