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

// wireApp 初始化应用
func wireApp(*conf.Bootstrap, log.Logger) (*CronApp, func(), error) {
	panic(wire.Build(
		// Data 层
		data.ProviderSet,

		// Biz 层
		biz.ProviderSet,

		// App 结构
		newCronApp,
	))
}
