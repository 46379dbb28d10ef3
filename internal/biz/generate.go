package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Noashop/test-pago-sub003/internal/constants"
	bizErrors "github.com/Noashop/test-pago-sub003/internal/errors"
)

// GenerateItemResult 单个供应商的生成结果
type GenerateItemResult struct {
	SupplierID   string
	PayoutID     string
	OrderCount   int
	Amount       decimal.Decimal
	Success      bool
	Skipped      bool
	ErrorMessage string
}

// GenerateResult payout 生成批次结果
type GenerateResult struct {
	Count   int
	Payouts []*Payout
	Results []*GenerateItemResult
}

type supplierGroup struct {
	supplierID string
	orders     []*Order
}

// GeneratePayouts 扫描已送达且已支付、尚未被 payout 覆盖的订单，按供应商各生成一个 pending payout。
// supplierID 为空时处理全部供应商，并把完整覆盖的订单标记为 payouts_prepared。
func (uc *SettlementUsecase) GeneratePayouts(ctx context.Context, supplierID string) (*GenerateResult, error) {
	uc.log.Infof("GeneratePayouts: supplierID=%q", supplierID)

	orders, err := uc.orderRepo.ListPayoutEligible(ctx, supplierID)
	if err != nil {
		uc.log.Errorf("Failed to list payout eligible orders: %v", err)
		return nil, bizErrors.New(bizErrors.ErrCodePayoutGenerateFailed, "failed to list payout eligible orders")
	}

	result := &GenerateResult{}
	groups, invalid := groupBySupplier(orders, supplierID)
	for _, o := range invalid {
		uc.log.Warnf("Skipping order %s: missing items or supplier reference", o.ID)
		result.Results = append(result.Results, &GenerateItemResult{
			Skipped:      true,
			ErrorMessage: fmt.Sprintf("order %s has no items or an item without supplier", o.ID),
		})
	}

	failedSuppliers := make(map[string]bool)
	for _, g := range groups {
		item, p := uc.generateForSupplier(ctx, g)
		result.Results = append(result.Results, item)
		if !item.Success {
			failedSuppliers[g.supplierID] = true
			continue
		}
		if p != nil {
			result.Payouts = append(result.Payouts, p)
			uc.publish(ctx, constants.EventPayoutCreated, p)
		}
	}
	result.Count = len(result.Payouts)

	if supplierID == "" {
		uc.markCoveredOrders(ctx, orders, failedSuppliers)
	}

	uc.log.Infof("GeneratePayouts completed: eligible orders=%d, payouts created=%d", len(orders), result.Count)
	return result, nil
}

func (uc *SettlementUsecase) generateForSupplier(ctx context.Context, g *supplierGroup) (*GenerateItemResult, *Payout) {
	item := &GenerateItemResult{SupplierID: g.supplierID, Amount: decimal.Zero}

	unlock, err := uc.locker.TryLock(ctx, "payout_generate_lock:supplier:"+g.supplierID, constants.PayoutGenerateLockExpiration)
	if err != nil {
		item.Skipped = true
		if errors.Is(err, ErrLockBusy) {
			item.ErrorMessage = "another payout generation is running for this supplier"
		} else {
			item.ErrorMessage = "failed to acquire lock: " + err.Error()
		}
		uc.log.Infof("Skipping supplier %s: %s", g.supplierID, item.ErrorMessage)
		return item, nil
	}
	defer unlock()

	var payout *Payout
	err = uc.tm.Exec(ctx, func(ctx context.Context) error {
		payout = nil
		// 已覆盖集合每次在写入前重新计算，不做缓存
		covered, err := uc.payoutRepo.CoveredOrderIDs(ctx, g.supplierID)
		if err != nil {
			return err
		}
		var entries []*PayoutOrder
		for _, o := range g.orders {
			if covered[o.ID] {
				continue
			}
			amount := supplierAmountIn(o, g.supplierID)
			if !amount.IsPositive() {
				continue
			}
			entries = append(entries, &PayoutOrder{OrderID: o.ID, Amount: amount})
		}
		if len(entries) == 0 {
			return nil
		}
		p, err := uc.newPayout(ctx, g.supplierID, entries)
		if err != nil {
			return err
		}
		if err := uc.payoutRepo.CreatePayout(ctx, p); err != nil {
			return err
		}
		payout = p
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateInclusion) {
			item.Skipped = true
		}
		item.ErrorMessage = err.Error()
		uc.log.Errorf("Failed to generate payout for supplier %s: %v", g.supplierID, err)
		return item, nil
	}

	item.Success = true
	if payout != nil {
		item.PayoutID = payout.ID
		item.OrderCount = len(payout.Orders)
		item.Amount = payout.Amount
		uc.log.Infof("Created payout %s for supplier %s: orders=%d amount=%s",
			payout.ID, g.supplierID, item.OrderCount, payout.Amount.StringFixed(2))
	}
	return item, payout
}

// markCoveredOrders 订单涉及的所有供应商都处理成功后才标记 payouts_prepared
func (uc *SettlementUsecase) markCoveredOrders(ctx context.Context, orders []*Order, failedSuppliers map[string]bool) {
	for _, o := range orders {
		if len(o.Items) == 0 {
			continue
		}
		complete := true
		for _, sid := range o.SupplierIDs() {
			if sid == "" || failedSuppliers[sid] {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		c := ComputeCommission(o.Items)
		details := &CommissionDetails{
			AdminCommission:           c.AdminCommission,
			SupplierAmount:            c.SupplierAmount,
			AdminCommissionPercentage: c.AdminCommissionPercentage,
			CalculatedAt:              uc.now(),
		}
		if _, err := uc.orderRepo.MarkPayoutsPrepared(ctx, o.ID, details); err != nil {
			uc.log.Errorf("Failed to mark order %s payouts prepared: %v", o.ID, err)
		}
	}
}

// groupBySupplier 按供应商分组，顺序与订单首次出现一致；缺少订单行或供应商的订单单独返回
func groupBySupplier(orders []*Order, onlySupplier string) ([]*supplierGroup, []*Order) {
	index := make(map[string]*supplierGroup)
	var groups []*supplierGroup
	var invalid []*Order
	for _, o := range orders {
		ids := o.SupplierIDs()
		if len(ids) == 0 || containsEmpty(ids) {
			invalid = append(invalid, o)
			continue
		}
		for _, sid := range ids {
			if onlySupplier != "" && sid != onlySupplier {
				continue
			}
			g, ok := index[sid]
			if !ok {
				g = &supplierGroup{supplierID: sid}
				index[sid] = g
				groups = append(groups, g)
			}
			g.orders = append(g.orders, o)
		}
	}
	return groups, invalid
}

func supplierAmountIn(o *Order, supplierID string) decimal.Decimal {
	for _, sa := range SupplierAmounts(o.Items) {
		if sa.SupplierID == supplierID {
			return sa.Amount
		}
	}
	return decimal.Zero
}

func containsEmpty(ids []string) bool {
	for _, id := range ids {
		if id == "" {
			return true
		}
	}
	return false
}
