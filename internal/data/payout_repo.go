package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/constants"
	"github.com/Noashop/test-pago-sub003/internal/data/model"
)

// payoutRepo payout 仓库实现
type payoutRepo struct {
	data *Data
	log  *log.Helper
}

// NewPayoutRepo 创建 payout 仓库
func NewPayoutRepo(data *Data, logger log.Logger) biz.PayoutRepo {
	return &payoutRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreatePayout 写入 payout 和明细；明细单独插入，避免关联保存时 ON CONFLICT DO NOTHING 吞掉唯一索引冲突
func (r *payoutRepo) CreatePayout(ctx context.Context, p *biz.Payout) error {
	m, err := toModelPayout(p)
	if err != nil {
		return err
	}
	orders := m.Orders
	m.Orders = nil

	db := r.data.DB(ctx)
	if err := db.Omit(clause.Associations).Create(m).Error; err != nil {
		r.log.Errorf("Failed to create payout %s: %v", p.ID, err)
		return err
	}
	if len(orders) > 0 {
		if err := db.Create(&orders).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				r.log.Warnf("Payout %s overlaps an existing payout for supplier %s", p.ID, p.SupplierID)
				return biz.ErrDuplicateInclusion
			}
			r.log.Errorf("Failed to create payout orders for %s: %v", p.ID, err)
			return err
		}
	}
	return nil
}

// GetPayout 获取 payout，不存在时返回 nil, nil
func (r *payoutRepo) GetPayout(ctx context.Context, payoutID string) (*biz.Payout, error) {
	var m model.Payout
	err := r.data.DB(ctx).Preload("Orders").First(&m, "payout_id = ?", payoutID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("Failed to get payout %s: %v", payoutID, err)
		return nil, err
	}
	return toBizPayout(&m), nil
}

// ListPayouts 分页查询
func (r *payoutRepo) ListPayouts(ctx context.Context, filter *biz.PayoutFilter) ([]*biz.Payout, int, error) {
	db := r.data.DB(ctx).Model(&model.Payout{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != "" {
		db = db.Where("supplier_id = ?", filter.SupplierID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		r.log.Errorf("Failed to count payouts: %v", err)
		return nil, 0, err
	}

	var ms []model.Payout
	err := db.Preload("Orders").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&ms).Error
	if err != nil {
		r.log.Errorf("Failed to list payouts: %v", err)
		return nil, 0, err
	}
	return toBizPayouts(ms), int(total), nil
}

// CoveredOrderIDs 该供应商所有 payout 已覆盖的订单
func (r *payoutRepo) CoveredOrderIDs(ctx context.Context, supplierID string) (map[string]bool, error) {
	var ids []string
	err := r.data.DB(ctx).Model(&model.PayoutOrder{}).
		Where("supplier_id = ?", supplierID).
		Pluck("order_id", &ids).Error
	if err != nil {
		r.log.Errorf("Failed to load covered orders for supplier %s: %v", supplierID, err)
		return nil, err
	}
	covered := make(map[string]bool, len(ids))
	for _, id := range ids {
		covered[id] = true
	}
	return covered, nil
}

// CoveredSuppliers 已为该订单建立 payout 的供应商
func (r *payoutRepo) CoveredSuppliers(ctx context.Context, orderID string) (map[string]bool, error) {
	var ids []string
	err := r.data.DB(ctx).Model(&model.PayoutOrder{}).
		Where("order_id = ?", orderID).
		Pluck("supplier_id", &ids).Error
	if err != nil {
		r.log.Errorf("Failed to load covered suppliers for order %s: %v", orderID, err)
		return nil, err
	}
	covered := make(map[string]bool, len(ids))
	for _, id := range ids {
		covered[id] = true
	}
	return covered, nil
}

// ListProcessable 按创建时间升序返回可打款的 payout
func (r *payoutRepo) ListProcessable(ctx context.Context, statuses []string, maxAttempts, limit int) ([]*biz.Payout, error) {
	db := r.data.DB(ctx).
		Where("status IN ?", statuses).
		Where("attempts < ?", maxAttempts).
		Order("created_at ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	var ms []model.Payout
	if err := db.Preload("Orders").Find(&ms).Error; err != nil {
		r.log.Errorf("Failed to list processable payouts: %v", err)
		return nil, err
	}
	return toBizPayouts(ms), nil
}

// Claim 以版本号做 CAS，把 pending/failed 置为 processing
func (r *payoutRepo) Claim(ctx context.Context, p *biz.Payout) (bool, error) {
	now := time.Now().UTC()
	res := r.data.DB(ctx).Model(&model.Payout{}).
		Where("payout_id = ? AND version = ?", p.ID, p.Version).
		Where("status IN ?", []string{constants.PayoutStatusPending, constants.PayoutStatusFailed}).
		Updates(map[string]interface{}{
			"status":     constants.PayoutStatusProcessing,
			"version":    p.Version + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		r.log.Errorf("Failed to claim payout %s: %v", p.ID, res.Error)
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	p.Status = constants.PayoutStatusProcessing
	p.Version++
	p.UpdatedAt = now
	return true, nil
}

// SaveAttempt 仅更新 processing 且版本号一致的记录
func (r *payoutRepo) SaveAttempt(ctx context.Context, p *biz.Payout) error {
	dest, err := marshalJSON(p.Destination)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res := r.data.DB(ctx).Model(&model.Payout{}).
		Where("payout_id = ? AND version = ? AND status = ?", p.ID, p.Version, constants.PayoutStatusProcessing).
		Updates(map[string]interface{}{
			"status":        p.Status,
			"attempts":      p.Attempts,
			"last_tried_at": p.LastTriedAt,
			"last_error":    p.LastError,
			"paid_at":       p.PaidAt,
			"transfer_id":   p.TransferID,
			"destination":   dest,
			"version":       p.Version + 1,
			"updated_at":    now,
		})
	if res.Error != nil {
		r.log.Errorf("Failed to save attempt for payout %s: %v", p.ID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return biz.ErrPayoutVersionConflict
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}

// ReleaseStale 把停留在 processing 超过截止时间的 payout 退回 failed
func (r *payoutRepo) ReleaseStale(ctx context.Context, olderThan time.Time, reason string) (int, error) {
	res := r.data.DB(ctx).Model(&model.Payout{}).
		Where("status = ? AND updated_at < ?", constants.PayoutStatusProcessing, olderThan).
		Updates(map[string]interface{}{
			"status":     constants.PayoutStatusFailed,
			"last_error": reason,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		r.log.Errorf("Failed to release stale payouts: %v", res.Error)
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func toModelPayout(p *biz.Payout) (*model.Payout, error) {
	dest, err := marshalJSON(p.Destination)
	if err != nil {
		return nil, err
	}
	m := &model.Payout{
		ID:          p.ID,
		SupplierID:  p.SupplierID,
		Currency:    p.Currency,
		Amount:      p.Amount,
		Status:      p.Status,
		Attempts:    p.Attempts,
		LastTriedAt: p.LastTriedAt,
		LastError:   p.LastError,
		PaidAt:      p.PaidAt,
		Destination: dest,
		TransferID:  p.TransferID,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, o := range p.Orders {
		m.Orders = append(m.Orders, model.PayoutOrder{
			PayoutID:   p.ID,
			OrderID:    o.OrderID,
			SupplierID: p.SupplierID,
			Amount:     o.Amount,
			CreatedAt:  p.CreatedAt,
		})
	}
	return m, nil
}

func toBizPayout(m *model.Payout) *biz.Payout {
	p := &biz.Payout{
		ID:          m.ID,
		SupplierID:  m.SupplierID,
		Currency:    m.Currency,
		Amount:      m.Amount,
		Status:      m.Status,
		Attempts:    m.Attempts,
		LastTriedAt: m.LastTriedAt,
		LastError:   m.LastError,
		PaidAt:      m.PaidAt,
		TransferID:  m.TransferID,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Orders:      make([]*biz.PayoutOrder, 0, len(m.Orders)),
	}
	for _, o := range m.Orders {
		p.Orders = append(p.Orders, &biz.PayoutOrder{OrderID: o.OrderID, Amount: o.Amount})
	}
	if len(m.Destination) > 0 && string(m.Destination) != "null" {
		var d biz.Destination
		if err := json.Unmarshal(m.Destination, &d); err == nil {
			p.Destination = &d
		}
	}
	return p
}

func toBizPayouts(ms []model.Payout) []*biz.Payout {
	out := make([]*biz.Payout, 0, len(ms))
	for i := range ms {
		out = append(out, toBizPayout(&ms[i]))
	}
	return out
}
