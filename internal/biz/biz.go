package biz

import (
	"context"
	"errors"
	"time"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(NewSettlementUsecase, NewSettlementOptions)

// Transaction 事务接口，由 data 层实现，事务对象通过 ctx 传递
type Transaction interface {
	Exec(ctx context.Context, fn func(ctx context.Context) error) error
}

// ErrLockBusy 锁已被其他进程持有
var ErrLockBusy = errors.New("lock busy")

// Locker 分布式锁（防腐层），拿不到锁返回 ErrLockBusy
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// Alert 打款批次告警内容
type Alert struct {
	Source                  string    `json:"source"`
	Processed               int       `json:"processed"`
	Total                   int       `json:"total"`
	FailedCount             int       `json:"failedCount"`
	ReachedMaxAttemptsCount int       `json:"reachedMaxAttemptsCount"`
	Timestamp               time.Time `json:"timestamp"`
}

// Alerter 告警出口，尽力而为
type Alerter interface {
	Notify(ctx context.Context, alert *Alert) error
}

// PayoutEvent payout 生命周期事件
type PayoutEvent struct {
	Type       string    `json:"type"`
	PayoutID   string    `json:"payoutId"`
	SupplierID string    `json:"supplierId"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher 事件发布，失败只记录日志
type EventPublisher interface {
	Publish(ctx context.Context, event *PayoutEvent) error
}
