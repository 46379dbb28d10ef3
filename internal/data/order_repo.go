package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/constants"
	"github.com/Noashop/test-pago-sub003/internal/data/model"
)

// orderRepo 订单仓库实现
type orderRepo struct {
	data *Data
	log  *log.Helper
}

// NewOrderRepo 创建订单仓库
func NewOrderRepo(data *Data, logger log.Logger) biz.OrderRepo {
	return &orderRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetOrder 获取订单及订单行
func (r *orderRepo) GetOrder(ctx context.Context, orderID string) (*biz.Order, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

// FindByPaymentID 按网关支付 id 查找
func (r *orderRepo) FindByPaymentID(ctx context.Context, paymentID string) (*biz.Order, error) {
	if paymentID == "" {
		return nil, nil
	}
	return r.findOne(ctx, "gateway_payment_id = ?", paymentID)
}

// FindByOrderNumber 按订单号查找
func (r *orderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*biz.Order, error) {
	if orderNumber == "" {
		return nil, nil
	}
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

func (r *orderRepo) findOne(ctx context.Context, query string, arg interface{}) (*biz.Order, error) {
	var m model.Order
	err := r.data.DB(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where(query, arg).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("Failed to get order (%s %v): %v", query, arg, err)
		return nil, err
	}
	return toBizOrder(&m), nil
}

// UpdatePaymentStatus 更新支付状态，paymentID 非空时一并记录
func (r *orderRepo) UpdatePaymentStatus(ctx context.Context, orderID, paymentID, status string) error {
	updates := map[string]interface{}{
		"payment_status": status,
		"version":        gorm.Expr("version + 1"),
	}
	if paymentID != "" {
		updates["gateway_payment_id"] = paymentID
	}
	err := r.data.DB(ctx).Model(&model.Order{}).Where("order_id = ?", orderID).Updates(updates).Error
	if err != nil {
		r.log.Errorf("Failed to update payment status of order %s: %v", orderID, err)
		return err
	}
	return nil
}

// SetPreference 记录 checkout preference id
func (r *orderRepo) SetPreference(ctx context.Context, orderID, preferenceID string) error {
	err := r.data.DB(ctx).Model(&model.Order{}).Where("order_id = ?", orderID).
		Update("gateway_preference_id", preferenceID).Error
	if err != nil {
		r.log.Errorf("Failed to set preference of order %s: %v", orderID, err)
		return err
	}
	return nil
}

// MarkPayoutsPrepared 条件更新 payouts_prepared=false 的订单，影响行数为 0 时返回 false
func (r *orderRepo) MarkPayoutsPrepared(ctx context.Context, orderID string, details *biz.CommissionDetails) (bool, error) {
	updates := map[string]interface{}{
		"payouts_prepared": true,
		"version":          gorm.Expr("version + 1"),
	}
	if details != nil {
		// 佣金快照只在首次写入
		updates["admin_commission"] = gorm.Expr("COALESCE(admin_commission, ?)", details.AdminCommission)
		updates["supplier_amount"] = gorm.Expr("COALESCE(supplier_amount, ?)", details.SupplierAmount)
		updates["admin_commission_percentage"] = gorm.Expr("COALESCE(admin_commission_percentage, ?)", details.AdminCommissionPercentage)
		updates["commission_calculated_at"] = gorm.Expr("COALESCE(commission_calculated_at, ?)", details.CalculatedAt)
	}
	res := r.data.DB(ctx).Model(&model.Order{}).
		Where("order_id = ? AND payouts_prepared = ?", orderID, false).
		Updates(updates)
	if res.Error != nil {
		r.log.Errorf("Failed to mark payouts prepared for order %s: %v", orderID, res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListPayoutEligible 已支付、已送达且未准备 payout 的订单，按创建时间排序
func (r *orderRepo) ListPayoutEligible(ctx context.Context, supplierID string) ([]*biz.Order, error) {
	db := r.data.DB(ctx).Model(&model.Order{}).
		Where("payment_status IN ?", []string{constants.PaymentStatusApproved, constants.PaymentStatusPaid}).
		Where("status = ?", constants.OrderStatusDelivered).
		Where("payouts_prepared = ?", false)
	if supplierID != "" {
		db = db.Where("order_id IN (?)", r.data.DB(ctx).Model(&model.OrderItem{}).
			Select("order_id").Where("supplier_id = ?", supplierID))
	}

	var ms []model.Order
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Order("created_at ASC").Find(&ms).Error
	if err != nil {
		r.log.Errorf("Failed to list payout eligible orders: %v", err)
		return nil, err
	}
	orders := make([]*biz.Order, 0, len(ms))
	for i := range ms {
		orders = append(orders, toBizOrder(&ms[i]))
	}
	return orders, nil
}

func toBizOrder(m *model.Order) *biz.Order {
	o := &biz.Order{
		ID:                  m.ID,
		OrderNumber:         m.OrderNumber,
		UserID:              m.UserID,
		GatewayPaymentID:    m.GatewayPaymentID,
		GatewayPreferenceID: m.GatewayPreferenceID,
		Total:               m.Total,
		Subtotal:            m.Subtotal,
		Discount:            m.Discount,
		Tax:                 m.Tax,
		Shipping:            m.Shipping,
		PaymentStatus:       m.PaymentStatus,
		Status:              m.Status,
		PayoutsPrepared:     m.PayoutsPrepared,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		Items:               make([]*biz.OrderItem, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		item := &biz.OrderItem{
			ID:         it.ID,
			ProductID:  it.ProductID,
			SupplierID: it.SupplierID,
			Price:      it.Price,
			Quantity:   it.Quantity,
		}
		if it.CostPrice.Valid {
			cost := it.CostPrice.Decimal
			item.CostPrice = &cost
		}
		o.Items = append(o.Items, item)
	}
	if m.CommissionCalculatedAt != nil {
		o.CommissionDetails = &biz.CommissionDetails{
			AdminCommission:           m.AdminCommission.Decimal,
			SupplierAmount:            m.SupplierAmount.Decimal,
			AdminCommissionPercentage: m.AdminCommissionPercentage.Decimal,
			CalculatedAt:              *m.CommissionCalculatedAt,
		}
	}
	return o
}
