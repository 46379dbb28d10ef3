package biz

import (
	"context"

	"github.com/Noashop/test-pago-sub003/internal/constants"
	bizErrors "github.com/Noashop/test-pago-sub003/internal/errors"
)

// PaymentNotification 网关推送或手工重放的通知
type PaymentNotification struct {
	Type      string
	PaymentID string
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	Ignored        bool
	Reason         string
	OrderID        string
	PreviousStatus string
	PaymentStatus  string
	Payouts        []*Payout
}

// HandleNotification 处理支付通知：按 id 回查网关权威状态，更新订单，首次 approved 时准备 payout
func (uc *SettlementUsecase) HandleNotification(ctx context.Context, n *PaymentNotification) (*ReconcileResult, error) {
	if n == nil || n.Type != constants.NotificationTypePayment || n.PaymentID == "" {
		uc.log.Debugf("Ignoring notification: %+v", n)
		return &ReconcileResult{Ignored: true, Reason: "unsupported notification"}, nil
	}
	uc.log.Infof("HandleNotification: paymentID=%s", n.PaymentID)

	entry := &PaymentLog{
		Type:        constants.LogTypeWebhook,
		ReferenceID: n.PaymentID,
		Request:     n,
	}

	gctx, cancel := context.WithTimeout(ctx, uc.opts.GatewayTimeout)
	payment, err := uc.gateway.GetPayment(gctx, n.PaymentID)
	cancel()
	if err != nil {
		uc.log.Errorf("Failed to fetch payment %s: %v", n.PaymentID, err)
		entry.Error = err.Error()
		uc.writeLog(ctx, entry)
		return nil, bizErrors.Newf(bizErrors.ErrCodeGatewayUnavailable, "fetch payment %s: %v", n.PaymentID, err)
	}

	order, err := uc.resolveOrder(ctx, payment)
	if err != nil {
		uc.log.Errorf("Failed to resolve order for payment %s: %v", n.PaymentID, err)
		entry.Response = payment
		entry.Error = err.Error()
		uc.writeLog(ctx, entry)
		return nil, err
	}
	if order == nil {
		uc.log.Infof("No order matches payment %s (ref=%s), ignoring", payment.ID, payment.ExternalReference)
		entry.Response = map[string]interface{}{"payment": payment, "result": "order not found"}
		entry.Success = true
		uc.writeLog(ctx, entry)
		return &ReconcileResult{Ignored: true, Reason: "order not found"}, nil
	}
	if order.GatewayPaymentID != "" && order.GatewayPaymentID != payment.ID {
		// 订单已绑定其他支付，迟到的旧支付通知不能覆盖当前状态
		uc.log.Warnf("Payment %s references order %s already linked to payment %s, ignoring",
			payment.ID, order.ID, order.GatewayPaymentID)
		entry.OrderID = order.ID
		entry.Response = map[string]interface{}{"payment": payment, "result": "order linked to another payment"}
		entry.Success = true
		uc.writeLog(ctx, entry)
		return &ReconcileResult{Ignored: true, Reason: "order linked to another payment", OrderID: order.ID}, nil
	}
	entry.OrderID = order.ID

	status, err := MapGatewayStatus(payment.Status)
	if err != nil {
		uc.log.Errorf("Payment %s for order %s: %v", payment.ID, order.ID, err)
		entry.Response = payment
		entry.Error = err.Error()
		uc.writeLog(ctx, entry)
		return nil, bizErrors.New(bizErrors.ErrCodeGatewayStatusUnknown, err.Error())
	}

	result := &ReconcileResult{
		OrderID:        order.ID,
		PreviousStatus: order.PaymentStatus,
		PaymentStatus:  status,
	}

	trigger := status == constants.PaymentStatusApproved &&
		order.PaymentStatus != constants.PaymentStatusApproved &&
		!order.PayoutsPrepared

	if trigger {
		// 状态更新与 payout 准备在同一事务中，失败回滚后网关重推仍可再次触发
		result.Payouts, err = uc.approveAndPrepare(ctx, order, payment.ID)
	} else if order.PaymentStatus != status || order.GatewayPaymentID == "" {
		err = uc.orderRepo.UpdatePaymentStatus(ctx, order.ID, payment.ID, status)
	}
	if err != nil {
		uc.log.Errorf("Failed to reconcile order %s with payment %s: %v", order.ID, payment.ID, err)
		entry.Response = payment
		entry.Error = err.Error()
		uc.writeLog(ctx, entry)
		return nil, err
	}

	entry.Success = true
	entry.Response = map[string]interface{}{
		"payment":        payment,
		"previousStatus": result.PreviousStatus,
		"paymentStatus":  status,
		"payoutsCreated": len(result.Payouts),
	}
	uc.writeLog(ctx, entry)

	for _, p := range result.Payouts {
		uc.publish(ctx, constants.EventPayoutCreated, p)
	}
	uc.log.Infof("Order %s payment status %s -> %s, payouts created: %d",
		order.ID, result.PreviousStatus, status, len(result.Payouts))
	return result, nil
}

// resolveOrder 先按网关支付 id 查找，未命中再按订单号（external_reference）回退
func (uc *SettlementUsecase) resolveOrder(ctx context.Context, payment *GatewayPayment) (*Order, error) {
	order, err := uc.orderRepo.FindByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if order != nil || payment.ExternalReference == "" {
		return order, nil
	}
	return uc.orderRepo.FindByOrderNumber(ctx, payment.ExternalReference)
}

// approveAndPrepare 条件更新 payouts_prepared，并为每个供应商创建一个 pending payout
func (uc *SettlementUsecase) approveAndPrepare(ctx context.Context, order *Order, paymentID string) ([]*Payout, error) {
	if len(order.Items) == 0 {
		return nil, bizErrors.Newf(bizErrors.ErrCodeOrderInvalid, "order %s has no items", order.ID)
	}

	var created []*Payout
	err := uc.tm.Exec(ctx, func(ctx context.Context) error {
		created = nil
		if err := uc.orderRepo.UpdatePaymentStatus(ctx, order.ID, paymentID, constants.PaymentStatusApproved); err != nil {
			return err
		}

		c := ComputeCommission(order.Items)
		details := &CommissionDetails{
			AdminCommission:           c.AdminCommission,
			SupplierAmount:            c.SupplierAmount,
			AdminCommissionPercentage: c.AdminCommissionPercentage,
			CalculatedAt:              uc.now(),
		}
		ok, err := uc.orderRepo.MarkPayoutsPrepared(ctx, order.ID, details)
		if err != nil {
			return err
		}
		if !ok {
			uc.log.Infof("Order %s payouts already prepared, skipping (idempotent)", order.ID)
			return nil
		}

		covered, err := uc.payoutRepo.CoveredSuppliers(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, sa := range SupplierAmounts(order.Items) {
			if sa.SupplierID == "" {
				return bizErrors.Newf(bizErrors.ErrCodeOrderInvalid, "order %s has an item without supplier", order.ID)
			}
			if covered[sa.SupplierID] || !sa.Amount.IsPositive() {
				continue
			}
			p, err := uc.newPayout(ctx, sa.SupplierID, []*PayoutOrder{{OrderID: order.ID, Amount: sa.Amount}})
			if err != nil {
				return err
			}
			// 唯一索引冲突说明并发的生成批次刚写入，整体回滚等待网关重推
			if err := uc.payoutRepo.CreatePayout(ctx, p); err != nil {
				return err
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
