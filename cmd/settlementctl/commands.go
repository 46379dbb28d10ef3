package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/constants"
	"github.com/Noashop/test-pago-sub003/internal/data"
)

func generateCmd() *cobra.Command {
	var supplierID string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create pending payouts for delivered, paid orders not yet covered",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsecase(func(uc *biz.SettlementUsecase) error {
				res, err := uc.GeneratePayouts(cmd.Context(), supplierID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVarP(&supplierID, "supplier", "s", "", "only generate for this supplier")
	return cmd
}

func processCmd() *cobra.Command {
	var (
		retryFailed bool
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Attempt transfers for pending (and optionally failed) payouts",
		Long: `Attempt transfers for pending payouts, oldest first.

Every attempt is recorded in the payment log. Payouts that reached the
configured max attempts are never selected again.

Examples:
  settlementctl process
  settlementctl process --retry-failed --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			return withUsecase(func(uc *biz.SettlementUsecase) error {
				res, err := uc.ProcessPayouts(cmd.Context(), biz.ProcessOptions{
					RetryFailed: retryFailed,
					Limit:       limit,
					Source:      constants.AlertSourceAdmin,
				})
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
				if res.FailedCount > 0 {
					return fmt.Errorf("%d of %d payouts failed", res.FailedCount, res.Processed)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "also retry failed payouts below the max attempts")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum payouts to process, 0 for all")
	return cmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [payment-id]",
		Short: "Re-fetch a gateway payment and reconcile its order (manual webhook replay)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsecase(func(uc *biz.SettlementUsecase) error {
				res, err := uc.HandleNotification(cmd.Context(), &biz.PaymentNotification{
					Type:      constants.NotificationTypePayment,
					PaymentID: args[0],
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func releaseCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Move payouts stuck in processing back to failed",
		Long: `Move payouts stuck in processing back to failed so they can be retried.

Check the gateway for the payout's transfer before releasing: a transfer that
succeeded but whose response was lost will otherwise be sent again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return withUsecase(func(uc *biz.SettlementUsecase) error {
				n, err := uc.ReleaseStalePayouts(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "released %d payouts\n", n)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "only release payouts processing for longer than this")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the settlement tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := data.NewDB(c)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := data.Migrate(db.WithContext(cmd.Context())); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
			return nil
		},
	}
}
