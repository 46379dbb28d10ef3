package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/datatypes"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/data/model"
)

// paymentLogRepo 审计日志仓库，只提供写入和查询
type paymentLogRepo struct {
	data *Data
	log  *log.Helper
}

// NewPaymentLogRepo 创建审计日志仓库
func NewPaymentLogRepo(data *Data, logger log.Logger) biz.PaymentLogRepo {
	return &paymentLogRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CreateLog 追加一条日志。不使用 ctx 中的事务，事务回滚时日志仍然保留
func (r *paymentLogRepo) CreateLog(ctx context.Context, l *biz.PaymentLog) error {
	req, err := marshalJSON(l.Request)
	if err != nil {
		return err
	}
	resp, err := marshalJSON(l.Response)
	if err != nil {
		return err
	}
	m := &model.PaymentLog{
		Type:        l.Type,
		ReferenceID: l.ReferenceID,
		OrderID:     l.OrderID,
		PayoutID:    l.PayoutID,
		SupplierID:  l.SupplierID,
		Request:     req,
		Response:    resp,
		Success:     l.Success,
		Error:       l.Error,
		CreatedAt:   l.CreatedAt,
	}
	if err := r.data.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	l.ID = m.ID
	return nil
}

// ListLogs 按创建时间倒序分页查询
func (r *paymentLogRepo) ListLogs(ctx context.Context, filter *biz.PaymentLogFilter) ([]*biz.PaymentLog, int, error) {
	db := r.data.db.WithContext(ctx).Model(&model.PaymentLog{})
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.OrderID != "" {
		db = db.Where("order_id = ?", filter.OrderID)
	}
	if filter.PayoutID != "" {
		db = db.Where("payout_id = ?", filter.PayoutID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		r.log.Errorf("Failed to count payment logs: %v", err)
		return nil, 0, err
	}

	var ms []model.PaymentLog
	err := db.Order("id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&ms).Error
	if err != nil {
		r.log.Errorf("Failed to list payment logs: %v", err)
		return nil, 0, err
	}

	logs := make([]*biz.PaymentLog, 0, len(ms))
	for _, m := range ms {
		logs = append(logs, &biz.PaymentLog{
			ID:          m.ID,
			Type:        m.Type,
			ReferenceID: m.ReferenceID,
			OrderID:     m.OrderID,
			PayoutID:    m.PayoutID,
			SupplierID:  m.SupplierID,
			Request:     rawJSON(m.Request),
			Response:    rawJSON(m.Response),
			Success:     m.Success,
			Error:       m.Error,
			CreatedAt:   m.CreatedAt,
		})
	}
	return logs, int(total), nil
}

func marshalJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return datatypes.JSON(raw), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}
	if string(b) == "null" {
		return nil, nil
	}
	return datatypes.JSON(b), nil
}

// rawJSON 读出时保持原始 JSON，接口层直接透传
func rawJSON(j datatypes.JSON) interface{} {
	if len(j) == 0 {
		return nil
	}
	return json.RawMessage(j)
}
