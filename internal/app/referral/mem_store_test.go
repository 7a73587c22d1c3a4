package referral

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"server-invest-app/internal/model"
)

var errInjected = errors.New("injected storage failure")

type memUser struct {
	code       string
	referredBy string
}

// memStore is a transactional in-memory ledger. Writes are staged per transaction
// and applied on commit; package locks are held until the transaction ends.
type memStore struct {
	mu        sync.Mutex
	locks     map[int64]*sync.Mutex
	users     map[int64]memUser
	packages  map[int64]model.Package
	positions map[int64][]model.BotActivation
	balances  map[int64]decimal.Decimal

	earnings []model.Earning
	losts    []model.LostCommission
	txs      []model.Transaction
	marks    map[int64]model.Distribution
	nextID   int64

	failOp   string
	failCall int
	calls    map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		locks:     make(map[int64]*sync.Mutex),
		users:     make(map[int64]memUser),
		packages:  make(map[int64]model.Package),
		positions: make(map[int64][]model.BotActivation),
		balances:  make(map[int64]decimal.Decimal),
		marks:     make(map[int64]model.Distribution),
		calls:     make(map[string]int),
	}
}

func (s *memStore) addUser(id int64, code, referredBy string) {
	s.users[id] = memUser{code: code, referredBy: referredBy}
}

func (s *memStore) addPackage(id, userID int64, amount string) {
	s.packages[id] = model.Package{
		ID:     id,
		UserID: userID,
		Amount: decimal.RequireFromString(amount),
		Status: model.PackageActive,
	}
}

func (s *memStore) addPosition(userID int64, status string, expiresAt time.Time) {
	s.positions[userID] = append(s.positions[userID], model.BotActivation{
		UserID:    userID,
		Status:    status,
		ExpiresAt: expiresAt,
	})
}

// failOn makes the n-th call of op fail.
func (s *memStore) failOn(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOp, s.failCall = op, n
}

func (s *memStore) rowsFor(packageID int64) (earnings, losts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.earnings {
		if e.PackageID == packageID {
			earnings++
		}
	}
	for _, l := range s.losts {
		if l.PackageID == packageID {
			losts++
		}
	}
	return
}

func (s *memStore) marker(packageID int64) (model.Distribution, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.marks[packageID]
	return m, ok
}

func (s *memStore) balance(userID int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID]
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memTx{s: s, credits: make(map[int64]decimal.Decimal)}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx.txs...)
	s.earnings = append(s.earnings, tx.earnings...)
	s.losts = append(s.losts, tx.losts...)
	for id, amount := range tx.credits {
		s.balances[id] = s.balances[id].Add(amount)
	}
	for _, m := range tx.marks {
		s.marks[m.PackageID] = m
	}
	return nil
}

type memTx struct {
	s      *memStore
	locked []*sync.Mutex

	txs      []model.Transaction
	earnings []model.Earning
	losts    []model.LostCommission
	credits  map[int64]decimal.Decimal
	marks    []model.Distribution
}

func (t *memTx) release() {
	for _, l := range t.locked {
		l.Unlock()
	}
}

func (t *memTx) step(op string) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.calls[op]++
	if op == t.s.failOp && t.s.calls[op] == t.s.failCall {
		return 0, errInjected
	}
	t.s.nextID++
	return t.s.nextID, nil
}

func (t *memTx) ReferrerOf(ctx context.Context, userID int64) (string, int64, error) {
	if _, err := t.step("ReferrerOf"); err != nil {
		return "", 0, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	u, ok := t.s.users[userID]
	if !ok {
		return "", 0, ErrUserNotFound
	}
	if u.referredBy == "" {
		return "", 0, nil
	}
	for id, r := range t.s.users {
		if r.code == u.referredBy {
			return u.referredBy, id, nil
		}
	}
	return u.referredBy, 0, nil
}

func (t *memTx) HasActivePosition(ctx context.Context, userID int64, at time.Time) (bool, error) {
	if _, err := t.step("HasActivePosition"); err != nil {
		return false, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, p := range t.s.positions[userID] {
		if p.Status == model.ActivationActive && p.ExpiresAt.After(at) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) LockPackage(ctx context.Context, packageID int64) (model.Package, error) {
	t.s.mu.Lock()
	l, ok := t.s.locks[packageID]
	if !ok {
		l = new(sync.Mutex)
		t.s.locks[packageID] = l
	}
	t.s.mu.Unlock()

	l.Lock()
	t.locked = append(t.locked, l)

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.packages[packageID]
	if !ok {
		return p, ErrPackageNotFound
	}
	return p, nil
}

func (t *memTx) DistributionState(ctx context.Context, packageID int64) (LedgerState, error) {
	var state LedgerState
	if _, err := t.step("DistributionState"); err != nil {
		return state, err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	_, state.Marked = t.s.marks[packageID]
	for _, e := range t.s.earnings {
		if e.PackageID == packageID {
			state.Earnings++
		}
	}
	for _, l := range t.s.losts {
		if l.PackageID == packageID {
			state.Lost++
		}
	}
	return state, nil
}

func (t *memTx) CreateTransaction(ctx context.Context, tr *model.Transaction) (err error) {
	if tr.ID, err = t.step("CreateTransaction"); err != nil {
		return err
	}
	t.txs = append(t.txs, *tr)
	return nil
}

func (t *memTx) CreateEarning(ctx context.Context, e *model.Earning) (err error) {
	if e.ID, err = t.step("CreateEarning"); err != nil {
		return err
	}
	t.earnings = append(t.earnings, *e)
	return nil
}

func (t *memTx) Credit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	if _, err := t.step("Credit"); err != nil {
		return err
	}
	t.credits[userID] = t.credits[userID].Add(amount)
	return nil
}

func (t *memTx) CreateLostCommission(ctx context.Context, l *model.LostCommission) (err error) {
	if l.ID, err = t.step("CreateLostCommission"); err != nil {
		return err
	}
	t.losts = append(t.losts, *l)
	return nil
}

func (t *memTx) MarkDistributed(ctx context.Context, d model.Distribution) error {
	if _, err := t.step("MarkDistributed"); err != nil {
		return err
	}
	t.marks = append(t.marks, d)
	return nil
}
