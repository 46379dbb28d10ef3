package biztest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/Noashop/test-pago-sub003/internal/biz"
)

// Gateway 可编程的网关替身
type Gateway struct {
	mu       sync.Mutex
	Payments map[string]*biz.GatewayPayment

	GetPaymentFunc       func(ctx context.Context, paymentID string) (*biz.GatewayPayment, error)
	CreatePreferenceFunc func(ctx context.Context, req *biz.PreferenceRequest) (*biz.Preference, error)

	Fetches     int
	Preferences []*biz.PreferenceRequest
}

func NewGateway(payments ...*biz.GatewayPayment) *Gateway {
	g := &Gateway{Payments: make(map[string]*biz.GatewayPayment)}
	for _, p := range payments {
		g.Payments[p.ID] = p
	}
	return g
}

func (g *Gateway) GetPayment(ctx context.Context, paymentID string) (*biz.GatewayPayment, error) {
	g.mu.Lock()
	g.Fetches++
	fn := g.GetPaymentFunc
	p, ok := g.Payments[paymentID]
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, paymentID)
	}
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	c := *p
	return &c, nil
}

func (g *Gateway) CreatePreference(ctx context.Context, req *biz.PreferenceRequest) (*biz.Preference, error) {
	g.mu.Lock()
	g.Preferences = append(g.Preferences, req)
	fn := g.CreatePreferenceFunc
	n := len(g.Preferences)
	g.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &biz.Preference{ID: fmt.Sprintf("pref-%d", n), InitPoint: "https://checkout.example/" + req.ExternalReference}, nil
}

// Transferer 打款替身，默认全部成功
type Transferer struct {
	mu       sync.Mutex
	Requests []*biz.TransferRequest

	TransferFunc func(ctx context.Context, req *biz.TransferRequest) (*biz.TransferResponse, error)
}

func (t *Transferer) Transfer(ctx context.Context, req *biz.TransferRequest) (*biz.TransferResponse, error) {
	t.mu.Lock()
	t.Requests = append(t.Requests, req)
	n := len(t.Requests)
	fn := t.TransferFunc
	t.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &biz.TransferResponse{ID: fmt.Sprintf("tr-%d", n), Status: "approved"}, nil
}

// Calls 打款调用次数
func (t *Transferer) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Requests)
}

// Alerter 记录收到的告警
type Alerter struct {
	mu     sync.Mutex
	Alerts []*biz.Alert
	Err    error
}

func (a *Alerter) Notify(_ context.Context, alert *biz.Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Alerts = append(a.Alerts, alert)
	return a.Err
}

// Publisher 记录发布的事件
type Publisher struct {
	mu     sync.Mutex
	Events []*biz.PayoutEvent
}

func (p *Publisher) Publish(_ context.Context, event *biz.PayoutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}

// Types 按顺序返回事件类型
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Type)
	}
	return out
}

// Locker 进程内锁，Busy 中的 key 始终返回 ErrLockBusy
type Locker struct {
	mu   sync.Mutex
	held map[string]bool
	Busy map[string]bool
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]bool), Busy: make(map[string]bool)}
}

func (l *Locker) TryLock(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Busy[key] || l.held[key] {
		return nil, biz.ErrLockBusy
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}

// Env 组装好的用例及其全部替身
type Env struct {
	Orders     *OrderStore
	Payouts    *PayoutStore
	Logs       *LogStore
	Accounts   *AccountStore
	Gateway    *Gateway
	Transferer *Transferer
	Alerter    *Alerter
	Publisher  *Publisher
	Locker     *Locker
	Options    *biz.SettlementOptions
}

// NewEnv 使用默认参数创建测试环境
func NewEnv() *Env {
	orders := NewOrderStore()
	payouts := NewPayoutStore()
	return &Env{
		Orders:     orders,
		Payouts:    payouts,
		Logs:       NewLogStore(),
		Accounts:   NewAccountStore(),
		Gateway:    NewGateway(),
		Transferer: &Transferer{},
		Alerter:    &Alerter{},
		Publisher:  &Publisher{},
		Locker:     NewLocker(),
		Options:    biz.NewSettlementOptions(nil),
	}
}

// Usecase 以当前替身构造 SettlementUsecase
func (e *Env) Usecase() *biz.SettlementUsecase {
	return biz.NewSettlementUsecase(
		e.Orders,
		e.Payouts,
		e.Logs,
		e.Accounts,
		e.Gateway,
		e.Transferer,
		e.Alerter,
		e.Publisher,
		e.Locker,
		&Tx{Orders: e.Orders, Payouts: e.Payouts},
		e.Options,
		log.NewFilter(log.DefaultLogger, log.FilterLevel(log.LevelWarn)),
	)
}
