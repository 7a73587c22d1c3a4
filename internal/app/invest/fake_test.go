package invest

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"server-invest-app/internal/app/referral"
	"server-invest-app/internal/model"
)

type fakePackages struct {
	mu      sync.Mutex
	pkgs    map[int64]model.Package
	pending []model.Package
	err     error
}

func newFakePackages(pkgs ...model.Package) *fakePackages {
	f := &fakePackages{pkgs: make(map[int64]model.Package)}
	for _, p := range pkgs {
		f.pkgs[p.ID] = p
	}
	return f
}

func (f *fakePackages) GetByID(ctx context.Context, id int64) (model.Package, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Package{}, f.err
	}
	p, ok := f.pkgs[id]
	if !ok {
		return p, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakePackages) Activate(ctx context.Context, id int64, activatedAt time.Time, expiresAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pkgs[id]
	if !ok || p.Status != model.PackagePending {
		return false, nil
	}
	p.Status = model.PackageActive
	p.ActivatedAt = &activatedAt
	p.ExpiresAt = expiresAt
	f.pkgs[id] = p
	return true, nil
}

func (f *fakePackages) ListUndistributed(ctx context.Context, before time.Time, limit int) ([]model.Package, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

type distCall struct {
	packageID, buyerID int64
	principal          decimal.Decimal
}

type fakeDistributor struct {
	mu    sync.Mutex
	calls []distCall
	done  map[int64]bool
	fail  map[int64]error
}

func newFakeDistributor() *fakeDistributor {
	return &fakeDistributor{done: make(map[int64]bool), fail: make(map[int64]error)}
}

func (f *fakeDistributor) Distribute(ctx context.Context, packageID, buyerID int64, principal decimal.Decimal) (referral.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, distCall{packageID, buyerID, principal})
	if err := f.fail[packageID]; err != nil {
		return referral.Result{}, err
	}
	if f.done[packageID] {
		return referral.Result{PackageID: packageID, BuyerID: buyerID, WasNoOp: true}, nil
	}
	f.done[packageID] = true
	return referral.Result{
		PackageID: packageID,
		BuyerID:   buyerID,
		Earnings: []model.Earning{
			{UserID: 1, FromUserID: buyerID, PackageID: packageID, Level: 1, Amount: principal.Mul(decimal.New(2, -2))},
		},
		LostCommissions: []model.LostCommission{},
	}, nil
}
