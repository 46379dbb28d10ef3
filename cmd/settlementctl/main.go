package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/conf"
	"github.com/Noashop/test-pago-sub003/internal/logger"
)

var Version = "dev"

var flagconf string

func main() {
	// Ctrl-C 取消正在进行的批次，已完成的打款结果已落库
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "settlementctl",
		Short:         "Operator tool for order payment reconciliation and supplier payouts",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flagconf, "conf", "c", "configs/config.yaml", "config path")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(releaseCmd())
	rootCmd.AddCommand(migrateCmd())
	return rootCmd
}

// loadConfig 读取配置文件并叠加环境变量
func loadConfig() (*conf.Bootstrap, log.Logger, error) {
	c, err := conf.Load(flagconf)
	if err != nil {
		return nil, nil, err
	}
	if c.Data == nil || c.Data.Database.Source == "" {
		return nil, nil, fmt.Errorf("data.database.source is required")
	}
	l := log.With(logger.NewLogger(c.Log), "ts", log.DefaultTimestamp, "service.name", "settlementctl")
	return c, l, nil
}

// withUsecase 组装用例并在结束后释放资源
func withUsecase(fn func(uc *biz.SettlementUsecase) error) error {
	c, l, err := loadConfig()
	if err != nil {
		return err
	}
	uc, cleanup, err := wireUsecase(c, l)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(uc)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
