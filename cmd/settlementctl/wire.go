//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/data"
)

// wireUsecase 组装结算用例
func wireUsecase(*conf.Bootstrap, log.Logger) (*biz.SettlementUsecase, func(), error) {
	panic(wire.Build(data.ProviderSet, biz.ProviderSet))
}
