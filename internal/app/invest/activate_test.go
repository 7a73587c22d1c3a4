package invest

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-invest-app/internal/app/referral"
	"server-invest-app/internal/model"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pkg(id, userID int64, amount, status string) model.Package {
	return model.Package{ID: id, UserID: userID, Amount: decimal.RequireFromString(amount), Status: status}
}

func TestActivatePending(t *testing.T) {
	pkgs := newFakePackages(pkg(1, 4, "1000", model.PackagePending))
	dist := newFakeDistributor()
	a := &Activator{Packages: pkgs, Distributor: dist, Days: 30, Now: func() time.Time { return now }}

	res, err := a.Activate(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, res.WasNoOp)
	require.Len(t, dist.calls, 1)
	assert.Equal(t, int64(4), dist.calls[0].buyerID)
	assert.True(t, decimal.RequireFromString("1000").Equal(dist.calls[0].principal))

	p := pkgs.pkgs[1]
	assert.Equal(t, model.PackageActive, p.Status)
	require.NotNil(t, p.ExpiresAt)
	assert.Equal(t, now.AddDate(0, 0, 30), *p.ExpiresAt)

	// a second activation retries the distribution, which is a no-op now
	res, err = a.Activate(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, res.WasNoOp)
	assert.Len(t, dist.calls, 2)
}

func TestActivateNoExpiry(t *testing.T) {
	pkgs := newFakePackages(pkg(1, 4, "10", model.PackagePending))
	a := &Activator{Packages: pkgs, Distributor: newFakeDistributor()}

	_, err := a.Activate(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, pkgs.pkgs[1].ExpiresAt)
}

func TestActivateRejects(t *testing.T) {
	pkgs := newFakePackages(pkg(2, 4, "10", model.PackageExpired))
	dist := newFakeDistributor()
	a := &Activator{Packages: pkgs, Distributor: dist}

	_, err := a.Activate(context.Background(), 2)
	assert.True(t, referral.IsValidation(err))

	_, err = a.Activate(context.Background(), 3)
	assert.Equal(t, referral.ErrPackageNotFound, errors.Cause(err))

	pkgs.err = errors.New("db down")
	_, err = a.Activate(context.Background(), 2)
	assert.True(t, referral.IsStorage(err))

	assert.Empty(t, dist.calls)
}

func TestSweepUndistributed(t *testing.T) {
	pkgs := newFakePackages()
	pkgs.pending = []model.Package{
		pkg(1, 4, "100", model.PackageActive),
		pkg(2, 5, "200", model.PackageActive),
		pkg(3, 6, "300", model.PackageActive),
	}
	dist := newFakeDistributor()
	dist.fail[2] = &referral.StorageError{Op: "distribute", Err: errors.New("deadlock")}
	dist.done[3] = true

	s := &Sweeper{Packages: pkgs, Distributor: dist, Grace: time.Minute, Batch: 10}
	n, err := s.SweepUndistributed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, dist.calls, 3)

	s.Batch = 1
	dist.calls = nil
	_, err = s.SweepUndistributed(context.Background())
	require.NoError(t, err)
	assert.Len(t, dist.calls, 1)

	pkgs.err = errors.New("db down")
	_, err = s.SweepUndistributed(context.Background())
	assert.Error(t, err)
}
