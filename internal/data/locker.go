package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

// redisLocker 基于 redsync 的分布式锁，只尝试一次
type redisLocker struct {
	rs  *redsync.Redsync
	log *log.Helper
}

// NewLocker 创建锁；未配置 redis 时使用进程内锁，只能保护单实例部署
func NewLocker(rs *redsync.Redsync, logger log.Logger) biz.Locker {
	helper := log.NewHelper(logger)
	if rs == nil {
		helper.Warn("redis not configured, falling back to in-process locks")
		return newLocalLocker()
	}
	return &redisLocker{rs: rs, log: helper}
}

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(constants.PayoutGenerateLockRetries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
			return nil, biz.ErrLockBusy
		}
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	return func() {
		if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
			l.log.Warnf("Failed to unlock %s: %v", key, err)
		}
	}, nil
}

// localLocker 进程内锁，ttl 到期后视为释放
type localLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func newLocalLocker() *localLocker {
	return &localLocker{held: make(map[string]time.Time)}
}

func (l *localLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, biz.ErrLockBusy
	}
	exp := now.Add(ttl)
	l.held[key] = exp
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(exp) {
			delete(l.held, key)
		}
	}, nil
}
