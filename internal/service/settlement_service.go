package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/Noashop/test-pago-sub003/internal/auth"
	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

// SettlementService 结算服务：支付 webhook、管理端 payout 接口、cron 重试入口
type SettlementService struct {
	uc         *biz.SettlementUsecase
	cronSecret string
	cronLimit  int
	log        *log.Helper
}

// NewSettlementService 创建结算服务实例
func NewSettlementService(uc *biz.SettlementUsecase, c *conf.Bootstrap, logger log.Logger) *SettlementService {
	s := &SettlementService{uc: uc, cronLimit: conf.DefaultCronLimit, log: log.NewHelper(logger)}
	if c != nil && c.Payout != nil {
		s.cronSecret = c.Payout.CronSecret
		if c.Payout.CronLimit > 0 {
			s.cronLimit = c.Payout.CronLimit
		}
	}
	return s
}

// HandleWebhook 网关推送或 query 重放的支付通知
// 订单不存在、非 payment 类型都视为正常忽略
func (s *SettlementService) HandleWebhook(ctx context.Context, req *WebhookRequest) (*WebhookReply, error) {
	n := ParseNotification(req.Query, req.Body)
	res, err := s.uc.HandleNotification(ctx, n)
	if err != nil {
		return nil, err
	}
	return &WebhookReply{
		OK:             true,
		Ignored:        res.Ignored,
		Reason:         res.Reason,
		OrderID:        res.OrderID,
		PaymentStatus:  res.PaymentStatus,
		PayoutsCreated: len(res.Payouts),
	}, nil
}

// ListPayouts 管理端查询 payout
func (s *SettlementService) ListPayouts(ctx context.Context, req *ListPayoutsRequest) (*ListPayoutsReply, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	filter := &biz.PayoutFilter{Status: req.Status, SupplierID: req.SupplierID, Page: req.Page, PageSize: req.PageSize}
	payouts, total, err := s.uc.ListPayouts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListPayoutsReply{
		Payouts:  toPayoutInfos(payouts),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// GeneratePayouts 手工触发 payout 生成，supplier_id 为空时处理全部供应商
func (s *SettlementService) GeneratePayouts(ctx context.Context, req *GeneratePayoutsRequest) (*GeneratePayoutsReply, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	res, err := s.uc.GeneratePayouts(ctx, req.SupplierID)
	if err != nil {
		return nil, err
	}
	reply := &GeneratePayoutsReply{
		Count:   res.Count,
		Payouts: toPayoutInfos(res.Payouts),
		Results: make([]*GenerateResultItem, 0, len(res.Results)),
	}
	for _, it := range res.Results {
		reply.Results = append(reply.Results, &GenerateResultItem{
			SupplierID: it.SupplierID,
			PayoutID:   it.PayoutID,
			OrderCount: it.OrderCount,
			Amount:     it.Amount.StringFixed(2),
			Success:    it.Success,
			Skipped:    it.Skipped,
			Error:      it.ErrorMessage,
		})
	}
	return reply, nil
}

// ProcessPayouts 手工触发打款批次
func (s *SettlementService) ProcessPayouts(ctx context.Context, req *ProcessPayoutsRequest) (*ProcessPayoutsReply, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	res, err := s.uc.ProcessPayouts(ctx, biz.ProcessOptions{
		RetryFailed: req.RetryFailed,
		Limit:       req.Limit,
		Source:      constants.AlertSourceAdmin,
	})
	if err != nil {
		return nil, err
	}
	return toProcessReply(res), nil
}

// RetryPayouts cron 入口：重试 pending 和 failed，数量受 cron limit 限制
func (s *SettlementService) RetryPayouts(ctx context.Context) (*ProcessPayoutsReply, error) {
	if err := auth.RequireCronOrAdmin(ctx, s.cronSecret); err != nil {
		return nil, err
	}
	res, err := s.uc.ProcessPayouts(ctx, biz.ProcessOptions{
		RetryFailed: true,
		Limit:       s.cronLimit,
		Source:      constants.AlertSourceCron,
	})
	if err != nil {
		return nil, err
	}
	return toProcessReply(res), nil
}

// ListPaymentLogs 管理端查询审计日志
func (s *SettlementService) ListPaymentLogs(ctx context.Context, req *ListPaymentLogsRequest) (*ListPaymentLogsReply, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	filter := &biz.PaymentLogFilter{
		Type:     req.Type,
		OrderID:  req.OrderID,
		PayoutID: req.PayoutID,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	logs, total, err := s.uc.ListPaymentLogs(ctx, filter)
	if err != nil {
		return nil, err
	}
	reply := &ListPaymentLogsReply{
		Logs:     make([]*PaymentLogInfo, 0, len(logs)),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	for _, l := range logs {
		reply.Logs = append(reply.Logs, &PaymentLogInfo{
			ID:          l.ID,
			Type:        l.Type,
			ReferenceID: l.ReferenceID,
			OrderID:     l.OrderID,
			PayoutID:    l.PayoutID,
			SupplierID:  l.SupplierID,
			Request:     l.Request,
			Response:    l.Response,
			Success:     l.Success,
			Error:       l.Error,
			CreatedAt:   l.CreatedAt,
		})
	}
	return reply, nil
}

// CreatePreference 为订单创建网关 checkout preference
func (s *SettlementService) CreatePreference(ctx context.Context, req *CreatePreferenceRequest) (*CreatePreferenceReply, error) {
	if err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	pref, err := s.uc.CreatePreference(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	return &CreatePreferenceReply{PreferenceID: pref.ID, InitPoint: pref.InitPoint}, nil
}
