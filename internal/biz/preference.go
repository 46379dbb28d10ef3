package biz

import (
	"context"

	"github.com/Noashop/test-pago-sub003/internal/constants"
	bizErrors "github.com/Noashop/test-pago-sub003/internal/errors"
)

// CreatePreference 为订单在网关创建 checkout preference
func (uc *SettlementUsecase) CreatePreference(ctx context.Context, orderID string) (*Preference, error) {
	order, err := uc.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, bizErrors.Newf(bizErrors.ErrCodeOrderNotFound, "order %s not found", orderID)
	}
	if len(order.Items) == 0 {
		return nil, bizErrors.Newf(bizErrors.ErrCodeOrderInvalid, "order %s has no items", orderID)
	}

	req := &PreferenceRequest{
		ExternalReference: order.OrderNumber,
		NotificationURL:   uc.opts.NotificationURL,
	}
	for _, it := range order.Items {
		req.Items = append(req.Items, &PreferenceItem{
			ID:        it.ProductID,
			Title:     it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Currency:  uc.opts.Currency,
		})
	}

	entry := &PaymentLog{
		Type:        constants.LogTypePreference,
		ReferenceID: order.OrderNumber,
		OrderID:     order.ID,
		Request:     req,
	}

	gctx, cancel := context.WithTimeout(ctx, uc.opts.GatewayTimeout)
	pref, err := uc.gateway.CreatePreference(gctx, req)
	cancel()
	if err != nil {
		uc.log.Errorf("Failed to create preference for order %s: %v", order.ID, err)
		entry.Error = err.Error()
		uc.writeLog(ctx, entry)
		return nil, bizErrors.Newf(bizErrors.ErrCodeGatewayUnavailable, "create preference: %v", err)
	}
	entry.Response = pref
	entry.Success = true
	uc.writeLog(ctx, entry)

	if err := uc.orderRepo.SetPreference(ctx, order.ID, pref.ID); err != nil {
		uc.log.Errorf("Failed to store preference %s on order %s: %v", pref.ID, order.ID, err)
		return nil, err
	}
	uc.log.Infof("Created preference %s for order %s", pref.ID, order.ID)
	return pref, nil
}
