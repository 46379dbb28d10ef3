package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/Noashop/test-pago-sub003/internal/constants"
	bizErrors "github.com/Noashop/test-pago-sub003/internal/errors"
)

// errMissingDestination 供应商没有可用的收款账户
var errMissingDestination = errors.New(constants.MsgMissingDestination)

// ProcessOptions 打款批次参数
type ProcessOptions struct {
	// RetryFailed 同时重试 failed 状态（仍受最大次数限制）
	RetryFailed bool
	// Limit 单次最多处理数量，<=0 不限制
	Limit int
	// Source 告警来源，admin 或 cron
	Source string
}

// PayoutAttemptResult 单个 payout 的处理结果
type PayoutAttemptResult struct {
	PayoutID     string
	SupplierID   string
	Status       string
	Attempts     int
	Success      bool
	Skipped      bool
	ErrorMessage string
}

// ProcessResult 打款批次汇总，调用方需要检查 Results 而不是只看 HTTP 状态
type ProcessResult struct {
	Processed               int
	Total                   int
	FailedCount             int
	ReachedMaxAttemptsCount int
	Results                 []*PayoutAttemptResult
}

// ProcessPayouts 对 pending（以及可选的 failed）payout 按创建顺序逐个尝试打款
func (uc *SettlementUsecase) ProcessPayouts(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	maxAttempts := uc.opts.MaxAttempts
	statuses := []string{constants.PayoutStatusPending}
	if opts.RetryFailed {
		statuses = append(statuses, constants.PayoutStatusFailed)
	}
	uc.log.Infof("ProcessPayouts: statuses=%v, maxAttempts=%d, limit=%d", statuses, maxAttempts, opts.Limit)

	payouts, err := uc.payoutRepo.ListProcessable(ctx, statuses, maxAttempts, opts.Limit)
	if err != nil {
		uc.log.Errorf("Failed to list processable payouts: %v", err)
		return nil, bizErrors.New(bizErrors.ErrCodePayoutProcessFailed, "failed to list processable payouts")
	}

	result := &ProcessResult{Total: len(payouts), Results: make([]*PayoutAttemptResult, 0, len(payouts))}
	for _, p := range payouts {
		r := uc.processPayout(ctx, p)
		result.Results = append(result.Results, r)
		if r.Skipped {
			continue
		}
		result.Processed++
		if !r.Success {
			result.FailedCount++
			if r.Attempts >= maxAttempts {
				result.ReachedMaxAttemptsCount++
			}
		}
	}

	uc.log.Infof("ProcessPayouts completed: total=%d, processed=%d, failed=%d, reachedMaxAttempts=%d",
		result.Total, result.Processed, result.FailedCount, result.ReachedMaxAttemptsCount)

	if result.FailedCount > 0 || result.ReachedMaxAttemptsCount > 0 {
		source := opts.Source
		if source == "" {
			source = constants.AlertSourceAdmin
		}
		uc.notify(ctx, &Alert{
			Source:                  source,
			Processed:               result.Processed,
			Total:                   result.Total,
			FailedCount:             result.FailedCount,
			ReachedMaxAttemptsCount: result.ReachedMaxAttemptsCount,
			Timestamp:               uc.now(),
		})
	}
	return result, nil
}

// processPayout 占用 -> 解析收款目的地 -> 打款 -> 记录结果，attempts 每次逻辑尝试只加一
func (uc *SettlementUsecase) processPayout(ctx context.Context, p *Payout) *PayoutAttemptResult {
	r := &PayoutAttemptResult{PayoutID: p.ID, SupplierID: p.SupplierID, Status: p.Status, Attempts: p.Attempts}

	claimed, err := uc.payoutRepo.Claim(ctx, p)
	if err != nil {
		uc.log.Errorf("Failed to claim payout %s: %v", p.ID, err)
		r.Skipped = true
		r.ErrorMessage = "claim failed: " + err.Error()
		return r
	}
	if !claimed {
		uc.log.Infof("Payout %s claimed by another run, skipping", p.ID)
		r.Skipped = true
		r.ErrorMessage = "payout is being processed by another run"
		return r
	}

	dest, err := uc.resolveDestination(ctx, p)
	req := &TransferRequest{
		PayoutID:    p.ID,
		SupplierID:  p.SupplierID,
		Attempt:     p.Attempts + 1,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Destination: dest,
	}

	var resp *TransferResponse
	if err == nil {
		resp, err = uc.transfer(ctx, req)
	}

	now := uc.now()
	p.Attempts++
	p.LastTriedAt = &now
	if err == nil {
		p.Status = constants.PayoutStatusPaid
		p.PaidAt = &now
		p.LastError = ""
		if resp != nil {
			p.TransferID = resp.ID
		}
	} else {
		p.Status = constants.PayoutStatusFailed
		p.LastError = err.Error()
	}

	saveErr := uc.payoutRepo.SaveAttempt(ctx, p)
	if saveErr != nil {
		uc.log.Errorf("Failed to save attempt for payout %s: %v", p.ID, saveErr)
	}

	entry := &PaymentLog{
		Type:        constants.LogTypePayout,
		ReferenceID: p.ID,
		PayoutID:    p.ID,
		SupplierID:  p.SupplierID,
		Request:     req,
		Success:     err == nil && saveErr == nil,
	}
	if resp != nil {
		entry.Response = resp
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if saveErr != nil {
		// 结果未落库，行仍为 processing，需要 settlementctl release 人工处理
		entry.Error = joinMessages(entry.Error, fmt.Sprintf("attempt outcome not recorded (transfer %s): %v", attemptOutcome(err), saveErr))
	}
	uc.writeLog(ctx, entry)

	r.Attempts = p.Attempts
	if saveErr != nil {
		r.Status = constants.PayoutStatusProcessing
		r.Success = false
		r.ErrorMessage = joinMessages(errMessage(err), "attempt outcome not recorded: "+saveErr.Error())
		return r
	}

	r.Status = p.Status
	r.Success = err == nil
	if err != nil {
		r.ErrorMessage = err.Error()
		uc.log.Warnf("Payout %s attempt %d failed: %v", p.ID, p.Attempts, err)
		uc.publish(ctx, constants.EventPayoutFailed, p)
	} else {
		uc.log.Infof("Payout %s paid (transfer=%s)", p.ID, p.TransferID)
		uc.publish(ctx, constants.EventPayoutPaid, p)
	}
	return r
}

func attemptOutcome(err error) string {
	if err == nil {
		return "succeeded"
	}
	return "failed"
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func joinMessages(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}

// resolveDestination 优先使用创建时的快照，缺失时再读取供应商当前账户
func (uc *SettlementUsecase) resolveDestination(ctx context.Context, p *Payout) (*Destination, error) {
	if p.Destination != nil {
		return p.Destination, nil
	}
	account, err := uc.accountRepo.GetAccount(ctx, p.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("lookup supplier account: %w", err)
	}
	if account == nil {
		return nil, errMissingDestination
	}
	p.Destination = account.Destination()
	return p.Destination, nil
}

// transfer 有界超时；超时视为暂时失败，不记为成功
func (uc *SettlementUsecase) transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error) {
	tctx, cancel := context.WithTimeout(ctx, uc.opts.TransferTimeout)
	defer cancel()

	resp, err := uc.transferer.Transfer(tctx, req)
	if err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTransferTimeout) {
		err = fmt.Errorf("%w: %v", ErrTransferTimeout, err)
	}
	return resp, err
}

// notify 告警失败不影响批次结果，也不重试
func (uc *SettlementUsecase) notify(ctx context.Context, alert *Alert) {
	if uc.alerter == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.opts.AlertTimeout)
	defer cancel()
	if err := uc.alerter.Notify(actx, alert); err != nil {
		uc.log.Warnf("Failed to send payout alert: %v", err)
	}
}
