package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/data/model"
)

type supplierAccountRepo struct {
	data *Data
	log  *log.Helper
}

// NewSupplierAccountRepo 创建供应商收款账户仓库（只读）
func NewSupplierAccountRepo(data *Data, logger log.Logger) biz.SupplierAccountRepo {
	return &supplierAccountRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *supplierAccountRepo) GetAccount(ctx context.Context, supplierID string) (*biz.SupplierPaymentAccount, error) {
	var m model.SupplierPaymentAccount
	err := r.data.DB(ctx).Preload("Wallets", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&m, "supplier_id = ?", supplierID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Errorf("Failed to get payment account of supplier %s: %v", supplierID, err)
		return nil, err
	}

	a := &biz.SupplierPaymentAccount{
		SupplierID: m.SupplierID,
		Provider:   m.Provider,
		AccountID:  m.AccountID,
		Email:      m.Email,
		HolderName: m.HolderName,
	}
	for _, w := range m.Wallets {
		a.Wallets = append(a.Wallets, &biz.SupplierWallet{Alias: w.Alias, CVU: w.CVU, Primary: w.IsPrimary})
	}
	return a, nil
}
