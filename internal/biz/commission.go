package biz

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Commission 平台佣金与供应商应得金额
type Commission struct {
	AdminCommission           decimal.Decimal
	SupplierAmount            decimal.Decimal
	TotalAmount               decimal.Decimal
	AdminCommissionPercentage decimal.Decimal
}

// ComputeCommission 按订单行计算佣金。
// 售价低于成本的行平台佣金记 0，但供应商仍按成本全额结算。
func ComputeCommission(items []*OrderItem) Commission {
	c := Commission{
		AdminCommission:           decimal.Zero,
		SupplierAmount:            decimal.Zero,
		TotalAmount:               decimal.Zero,
		AdminCommissionPercentage: decimal.Zero,
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		revenue, cost := lineAmounts(it)
		c.SupplierAmount = c.SupplierAmount.Add(cost)
		if margin := revenue.Sub(cost); margin.IsPositive() {
			c.AdminCommission = c.AdminCommission.Add(margin)
		}
		c.TotalAmount = c.TotalAmount.Add(revenue)
	}
	if c.TotalAmount.IsPositive() {
		c.AdminCommissionPercentage = c.AdminCommission.Div(c.TotalAmount).Mul(hundred).Round(2)
	}
	return c
}

// SupplierAmount 某个供应商在订单中的应得金额
type SupplierAmount struct {
	SupplierID string
	Amount     decimal.Decimal
}

// SupplierAmounts 按供应商汇总成本金额，顺序与订单行首次出现一致
func SupplierAmounts(items []*OrderItem) []SupplierAmount {
	index := make(map[string]int)
	var out []SupplierAmount
	for _, it := range items {
		if it == nil {
			continue
		}
		_, cost := lineAmounts(it)
		i, ok := index[it.SupplierID]
		if !ok {
			i = len(out)
			index[it.SupplierID] = i
			out = append(out, SupplierAmount{SupplierID: it.SupplierID, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(cost)
	}
	return out
}

func lineAmounts(it *OrderItem) (revenue, cost decimal.Decimal) {
	qty := decimal.NewFromInt(int64(it.Quantity))
	revenue = it.Price.Mul(qty)
	cost = decimal.Zero
	if it.CostPrice != nil {
		cost = it.CostPrice.Mul(qty)
	}
	return revenue, cost
}
