// Package biztest provides in-memory implementations of the biz interfaces
// for tests.
package biztest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Noashop/test-pago-sub003/internal/biz"
	"github.com/Noashop/test-pago-sub003/internal/constants"
)

// OrderStore 内存订单仓库
type OrderStore struct {
	mu     sync.Mutex
	orders map[string]*biz.Order
	seq    []string

	// UpdateErr 非空时 UpdatePaymentStatus 返回该错误
	UpdateErr error
	// ListErr 非空时 ListPayoutEligible 返回该错误
	ListErr error
}

func NewOrderStore(orders ...*biz.Order) *OrderStore {
	s := &OrderStore{orders: make(map[string]*biz.Order)}
	for _, o := range orders {
		s.Put(o)
	}
	return s
}

// Put 写入或覆盖订单
func (s *OrderStore) Put(o *biz.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		s.seq = append(s.seq, o.ID)
	}
	s.orders[o.ID] = cloneOrder(o)
}

// Get 读取订单快照，测试断言用
func (s *OrderStore) Get(id string) *biz.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return cloneOrder(o)
	}
	return nil
}

func (s *OrderStore) GetOrder(_ context.Context, orderID string) (*biz.Order, error) {
	return s.Get(orderID), nil
}

func (s *OrderStore) FindByPaymentID(_ context.Context, paymentID string) (*biz.Order, error) {
	return s.find(func(o *biz.Order) bool { return paymentID != "" && o.GatewayPaymentID == paymentID }), nil
}

func (s *OrderStore) FindByOrderNumber(_ context.Context, orderNumber string) (*biz.Order, error) {
	return s.find(func(o *biz.Order) bool { return o.OrderNumber == orderNumber }), nil
}

func (s *OrderStore) UpdatePaymentStatus(_ context.Context, orderID, paymentID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if o, ok := s.orders[orderID]; ok {
		o.PaymentStatus = status
		if paymentID != "" {
			o.GatewayPaymentID = paymentID
		}
	}
	return nil
}

func (s *OrderStore) SetPreference(_ context.Context, orderID, preferenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok {
		o.GatewayPreferenceID = preferenceID
	}
	return nil
}

func (s *OrderStore) MarkPayoutsPrepared(_ context.Context, orderID string, details *biz.CommissionDetails) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.PayoutsPrepared {
		return false, nil
	}
	o.PayoutsPrepared = true
	if o.CommissionDetails == nil && details != nil {
		d := *details
		o.CommissionDetails = &d
	}
	return true, nil
}

func (s *OrderStore) ListPayoutEligible(_ context.Context, supplierID string) ([]*biz.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []*biz.Order
	for _, id := range s.seq {
		o := s.orders[id]
		if o.PayoutsPrepared || o.Status != constants.OrderStatusDelivered {
			continue
		}
		if o.PaymentStatus != constants.PaymentStatusApproved && o.PaymentStatus != constants.PaymentStatusPaid {
			continue
		}
		if supplierID != "" && !hasSupplier(o, supplierID) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (s *OrderStore) find(match func(*biz.Order) bool) *biz.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.seq {
		if o := s.orders[id]; match(o) {
			return cloneOrder(o)
		}
	}
	return nil
}

func (s *OrderStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[string]*biz.Order, len(s.orders))
	for id, o := range s.orders {
		saved[id] = cloneOrder(o)
	}
	seq := append([]string(nil), s.seq...)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.orders, s.seq = saved, seq
	}
}

func hasSupplier(o *biz.Order, supplierID string) bool {
	for _, it := range o.Items {
		if it.SupplierID == supplierID {
			return true
		}
	}
	return false
}

func cloneOrder(o *biz.Order) *biz.Order {
	c := *o
	c.Items = make([]*biz.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		ci := *it
		c.Items = append(c.Items, &ci)
	}
	if o.CommissionDetails != nil {
		d := *o.CommissionDetails
		c.CommissionDetails = &d
	}
	return &c
}

// PayoutStore 内存 payout 仓库，(order, supplier) 唯一
type PayoutStore struct {
	mu      sync.Mutex
	payouts map[string]*biz.Payout
	seq     []string

	// CreateErr 非空时 CreatePayout 返回该错误
	CreateErr error
	// ListErr 非空时 ListProcessable 返回该错误
	ListErr error
	// SaveErr 非空时 SaveAttempt 返回该错误，行保持 processing
	SaveErr error
}

func NewPayoutStore(payouts ...*biz.Payout) *PayoutStore {
	s := &PayoutStore{payouts: make(map[string]*biz.Payout)}
	for _, p := range payouts {
		s.put(p)
	}
	return s
}

func (s *PayoutStore) put(p *biz.Payout) {
	if _, ok := s.payouts[p.ID]; !ok {
		s.seq = append(s.seq, p.ID)
	}
	s.payouts[p.ID] = clonePayout(p)
}

// All 按写入顺序返回全部 payout
func (s *PayoutStore) All() []*biz.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*biz.Payout, 0, len(s.seq))
	for _, id := range s.seq {
		out = append(out, clonePayout(s.payouts[id]))
	}
	return out
}

// Get 读取 payout 快照
func (s *PayoutStore) Get(id string) *biz.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payouts[id]; ok {
		return clonePayout(p)
	}
	return nil
}

func (s *PayoutStore) CreatePayout(_ context.Context, p *biz.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	for _, existing := range s.payouts {
		if existing.SupplierID != p.SupplierID {
			continue
		}
		for _, eo := range existing.Orders {
			for _, po := range p.Orders {
				if eo.OrderID == po.OrderID {
					return biz.ErrDuplicateInclusion
				}
			}
		}
	}
	s.put(p)
	return nil
}

func (s *PayoutStore) GetPayout(_ context.Context, payoutID string) (*biz.Payout, error) {
	return s.Get(payoutID), nil
}

func (s *PayoutStore) ListPayouts(_ context.Context, filter *biz.PayoutFilter) ([]*biz.Payout, int, error) {
	var matched []*biz.Payout
	for _, p := range s.All() {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.SupplierID != "" && p.SupplierID != filter.SupplierID {
			continue
		}
		matched = append(matched, p)
	}
	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *PayoutStore) CoveredOrderIDs(_ context.Context, supplierID string) (map[string]bool, error) {
	covered := make(map[string]bool)
	for _, p := range s.All() {
		if p.SupplierID != supplierID {
			continue
		}
		for _, o := range p.Orders {
			covered[o.OrderID] = true
		}
	}
	return covered, nil
}

func (s *PayoutStore) CoveredSuppliers(_ context.Context, orderID string) (map[string]bool, error) {
	covered := make(map[string]bool)
	for _, p := range s.All() {
		for _, o := range p.Orders {
			if o.OrderID == orderID {
				covered[p.SupplierID] = true
			}
		}
	}
	return covered, nil
}

func (s *PayoutStore) ListProcessable(_ context.Context, statuses []string, maxAttempts, limit int) ([]*biz.Payout, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	allowed := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}
	var out []*biz.Payout
	for _, p := range s.All() {
		if allowed[p.Status] && p.Attempts < maxAttempts {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *PayoutStore) Claim(_ context.Context, p *biz.Payout) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.payouts[p.ID]
	if !ok || cur.Version != p.Version {
		return false, nil
	}
	if cur.Status != constants.PayoutStatusPending && cur.Status != constants.PayoutStatusFailed {
		return false, nil
	}
	cur.Status = constants.PayoutStatusProcessing
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()
	p.Status = cur.Status
	p.Version = cur.Version
	return true, nil
}

func (s *PayoutStore) SaveAttempt(_ context.Context, p *biz.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	cur, ok := s.payouts[p.ID]
	if !ok || cur.Version != p.Version || cur.Status != constants.PayoutStatusProcessing {
		return biz.ErrPayoutVersionConflict
	}
	p.Version++
	s.payouts[p.ID] = clonePayout(p)
	return nil
}

func (s *PayoutStore) ReleaseStale(_ context.Context, olderThan time.Time, reason string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.payouts {
		if p.Status == constants.PayoutStatusProcessing && p.UpdatedAt.Before(olderThan) {
			p.Status = constants.PayoutStatusFailed
			p.LastError = reason
			p.Version++
			n++
		}
	}
	return n, nil
}

func (s *PayoutStore) snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[string]*biz.Payout, len(s.payouts))
	for id, p := range s.payouts {
		saved[id] = clonePayout(p)
	}
	seq := append([]string(nil), s.seq...)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.payouts, s.seq = saved, seq
	}
}

func clonePayout(p *biz.Payout) *biz.Payout {
	c := *p
	c.Orders = make([]*biz.PayoutOrder, 0, len(p.Orders))
	for _, o := range p.Orders {
		co := *o
		c.Orders = append(c.Orders, &co)
	}
	if p.Destination != nil {
		d := *p.Destination
		c.Destination = &d
	}
	return &c
}

// LogStore 内存审计日志
type LogStore struct {
	mu   sync.Mutex
	logs []*biz.PaymentLog
	// CreateErr 非空时 CreateLog 返回该错误
	CreateErr error
}

func NewLogStore() *LogStore { return &LogStore{} }

func (s *LogStore) CreateLog(_ context.Context, l *biz.PaymentLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	c := *l
	c.ID = uint64(len(s.logs) + 1)
	s.logs = append(s.logs, &c)
	return nil
}

func (s *LogStore) ListLogs(_ context.Context, filter *biz.PaymentLogFilter) ([]*biz.PaymentLog, int, error) {
	var out []*biz.PaymentLog
	for _, l := range s.All() {
		if filter.Type != "" && l.Type != filter.Type {
			continue
		}
		if filter.OrderID != "" && l.OrderID != filter.OrderID {
			continue
		}
		if filter.PayoutID != "" && l.PayoutID != filter.PayoutID {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

// All 返回全部日志
func (s *LogStore) All() []*biz.PaymentLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*biz.PaymentLog(nil), s.logs...)
}

// ByType 按类型过滤
func (s *LogStore) ByType(typ string) []*biz.PaymentLog {
	var out []*biz.PaymentLog
	for _, l := range s.All() {
		if l.Type == typ {
			out = append(out, l)
		}
	}
	return out
}

// AccountStore 内存供应商账户
type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]*biz.SupplierPaymentAccount
}

func NewAccountStore(accounts ...*biz.SupplierPaymentAccount) *AccountStore {
	s := &AccountStore{accounts: make(map[string]*biz.SupplierPaymentAccount)}
	for _, a := range accounts {
		s.accounts[a.SupplierID] = a
	}
	return s
}

func (s *AccountStore) GetAccount(_ context.Context, supplierID string) (*biz.SupplierPaymentAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[supplierID], nil
}

// Tx 事务实现：失败时把各内存仓库恢复到事务开始前
type Tx struct {
	Orders  *OrderStore
	Payouts *PayoutStore
}

func (t *Tx) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	var restores []func()
	if t.Orders != nil {
		restores = append(restores, t.Orders.snapshot())
	}
	if t.Payouts != nil {
		restores = append(restores, t.Payouts.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, r := range restores {
			r()
		}
		return err
	}
	return nil
}

// Put 写入或覆盖供应商账户
func (s *AccountStore) Put(a *biz.SupplierPaymentAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.SupplierID] = a
}
