package main

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
)

// CronApp Cron 应用结构
type CronApp struct {
	uc   *biz.SettlementUsecase
	conf *conf.Bootstrap
	log  *log.Helper
}

func newCronApp(uc *biz.SettlementUsecase, c *conf.Bootstrap, logger log.Logger) *CronApp {
	return &CronApp{uc: uc, conf: c, log: log.NewHelper(logger)}
}
