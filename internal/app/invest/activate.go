package invest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"server-invest-app/internal/app/referral"
	"server-invest-app/internal/model"
)

type PackageRepo interface {
	GetByID(ctx context.Context, id int64) (model.Package, error)
	Activate(ctx context.Context, id int64, activatedAt time.Time, expiresAt *time.Time) (bool, error)
	ListUndistributed(ctx context.Context, before time.Time, limit int) ([]model.Package, error)
}

type Distributor interface {
	Distribute(ctx context.Context, packageID, buyerID int64, principal decimal.Decimal) (referral.Result, error)
}

// Activator moves packages to ACTIVE and distributes their referral earnings.
type Activator struct {
	Packages    PackageRepo
	Distributor Distributor
	// Days is the package lifetime; zero means no expiry.
	Days int
	Now  func() time.Time
}

// Activate is safe to call repeatedly: an ACTIVE package is distributed again,
// which is a no-op once its earnings are committed.
func (a *Activator) Activate(ctx context.Context, packageID int64) (referral.Result, error) {
	p, err := a.Packages.GetByID(ctx, packageID)
	if err == sql.ErrNoRows {
		return referral.Result{}, referral.ErrPackageNotFound
	}
	if err != nil {
		return referral.Result{}, &referral.StorageError{Op: "get package", Err: err}
	}

	if p.Status == model.PackagePending {
		now := a.now()
		var expiresAt *time.Time
		if a.Days > 0 {
			t := now.AddDate(0, 0, a.Days)
			expiresAt = &t
		}
		ok, err := a.Packages.Activate(ctx, p.ID, now, expiresAt)
		if err != nil {
			return referral.Result{}, &referral.StorageError{Op: "activate package", Err: err}
		}
		if ok {
			log.Infof("package %d activated, user: %d, amount: %s", p.ID, p.UserID, p.Amount)
			p.Status = model.PackageActive
		} else if p, err = a.Packages.GetByID(ctx, packageID); err != nil {
			return referral.Result{}, &referral.StorageError{Op: "get package", Err: err}
		}
	}

	if p.Status != model.PackageActive {
		return referral.Result{}, &referral.ValidationError{Reason: fmt.Sprintf("package %d is %s", p.ID, p.Status)}
	}
	return a.Distributor.Distribute(ctx, p.ID, p.UserID, p.Amount)
}

func (a *Activator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Sweeper retries distribution of ACTIVE packages that never got a marker.
type Sweeper struct {
	Packages    PackageRepo
	Distributor Distributor
	Grace       time.Duration
	Batch       int
}

// SweepUndistributed distributes one batch and reports how many packages were
// committed. A failing package is logged and left for the next run.
func (s *Sweeper) SweepUndistributed(ctx context.Context) (int, error) {
	pkgs, err := s.Packages.ListUndistributed(ctx, time.Now().Add(-s.Grace), s.Batch)
	if err != nil {
		return 0, errors.Wrap(err, "list undistributed packages")
	}

	var done int
	for _, p := range pkgs {
		res, err := s.Distributor.Distribute(ctx, p.ID, p.UserID, p.Amount)
		if err != nil {
			log.Errorf("err: %+v", errors.WithMessagef(err, "sweep package %d", p.ID))
			continue
		}
		if !res.WasNoOp {
			done++
		}
	}
	if len(pkgs) > 0 {
		log.Infof("sweep finished, found: %d, distributed: %d", len(pkgs), done)
	}
	return done, nil
}
