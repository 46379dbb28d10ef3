package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/constants"
	"github.com/Noashop/test-pago-sub003/internal/logger"
)

var (
	// Name is the name of the compiled software.
	Name string = "settlement-cron"
	// Version is the version of the compiled software.
	Version string

	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 初始化配置
	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}
	if err := conf.Prepare(&bc); err != nil {
		panic(err)
	}
	if err := bc.Validate(); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}

	l := logger.WithService(logger.NewLogger(bc.Log), id, Name, Version)
	helper := log.NewHelper(l)

	// 初始化应用
	app, cleanup, err := wireApp(&bc, l)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// 秒级调度；上一轮未结束时跳过本轮，避免同一进程内批次重叠
	cl := &cronLogger{log: helper}
	cronScheduler := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := cronScheduler.AddFunc(bc.Cron.DisburseSpec, app.disburse); err != nil {
		panic(fmt.Sprintf("add disburse job: %v", err))
	}
	if _, err := cronScheduler.AddFunc(bc.Cron.GenerateSpec, app.generate); err != nil {
		panic(fmt.Sprintf("add generate job: %v", err))
	}

	cronScheduler.Start()
	helper.Infof("Cron jobs started: disburse=%q generate=%q", bc.Cron.DisburseSpec, bc.Cron.GenerateSpec)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	helper.Info("Shutting down gracefully...")
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		helper.Info("Cron jobs stopped gracefully")
	case <-time.After(30 * time.Second):
		helper.Warn("Cron jobs forced to stop after timeout")
	}
}

// disburse 重试 pending 和 failed payout，单轮数量受 cron limit 限制
func (a *CronApp) disburse() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := a.uc.ProcessPayouts(ctx, biz.ProcessOptions{
		RetryFailed: true,
		Limit:       a.conf.Payout.CronLimit,
		Source:      constants.AlertSourceCron,
	})
	if err != nil {
		a.log.Errorf("[CRON] Disbursement run failed: %v", err)
		return
	}
	a.log.Infof("[CRON] Disbursement run: total=%d processed=%d failed=%d reachedMaxAttempts=%d",
		res.Total, res.Processed, res.FailedCount, res.ReachedMaxAttemptsCount)
}

// generate 扫描遗漏的已送达订单并生成 payout
func (a *CronApp) generate() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := a.uc.GeneratePayouts(ctx, "")
	if err != nil {
		a.log.Errorf("[CRON] Payout sweep failed: %v", err)
		return
	}
	for _, r := range res.Results {
		if !r.Success {
			a.log.Warnf("[CRON] Payout sweep skipped supplier=%s: %s", r.SupplierID, r.ErrorMessage)
		}
	}
	a.log.Infof("[CRON] Payout sweep created %d payouts", res.Count)
}

// cronLogger 把 robfig/cron 的日志接到 kratos logger
type cronLogger struct {
	log *log.Helper
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(append([]interface{}{"msg", msg}, keysAndValues...)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(append([]interface{}{"msg", msg, "error", err}, keysAndValues...)...)
}
