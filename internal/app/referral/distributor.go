package referral

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"server-invest-app/internal/app/metrics"
	"server-invest-app/internal/model"
)

const ReasonNotEligible = "not eligible at distribution time"

// Result lists the rows one distribution created. WasNoOp is set when the package
// had already been distributed; both slices are empty then.
type Result struct {
	PackageID       int64                  `json:"package_id"`
	BuyerID         int64                  `json:"buyer_id"`
	Earnings        []model.Earning        `json:"earnings"`
	LostCommissions []model.LostCommission `json:"lost_commissions"`
	WasNoOp         bool                   `json:"was_no_op"`
}

// Notifier is told about a committed distribution. It runs after the commit; its
// failure is logged and never affects the ledger.
type Notifier interface {
	Notify(ctx context.Context, res Result) error
}

type Option func(*Distributor)

// WithChainSource resolves uplines through l before the ledger transaction. A hop
// l does not know, or whose code it can not resolve, is read from the ledger.
func WithChainSource(l ReferrerLookup) Option {
	return func(d *Distributor) {
		d.chain = l
	}
}

func WithNotifier(n Notifier) Option {
	return func(d *Distributor) {
		d.notifiers = append(d.notifiers, n)
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Distributor) {
		d.now = now
	}
}

// Distributor pays referral commissions for activated packages.
type Distributor struct {
	store     Store
	rates     RateSource
	chain     ReferrerLookup
	notifiers []Notifier
	now       func() time.Time
}

func NewDistributor(store Store, rates RateSource, opts ...Option) *Distributor {
	d := &Distributor{
		store: store,
		rates: rates,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Distribute writes the earnings and lost commissions of one package in a single
// transaction. A package is distributed at most once; later calls return a no-op
// result. The error is a *ValidationError for bad input and a *StorageError when
// the transaction did not commit.
func (d *Distributor) Distribute(ctx context.Context, packageID, buyerID int64, principal decimal.Decimal) (Result, error) {
	start := time.Now()
	logger := log.WithFields(log.Fields{
		"package_id": packageID,
		"buyer_id":   buyerID,
	})

	if err := validateRequest(packageID, buyerID, principal); err != nil {
		metrics.ObserveDistribution(metrics.OutcomeValidation, start)
		return Result{}, err
	}

	table, err := d.rates.Table(ctx)
	if err != nil {
		metrics.ObserveDistribution(metrics.OutcomeStorage, start)
		return Result{}, &StorageError{Op: "read commission table", Err: err}
	}

	var res Result
	err = d.store.InTx(ctx, func(tx Tx) error {
		res = Result{PackageID: packageID, BuyerID: buyerID}
		return d.distribute(ctx, tx, table, packageID, buyerID, principal, &res)
	})
	if err != nil {
		if IsValidation(err) {
			metrics.ObserveDistribution(metrics.OutcomeValidation, start)
			logger.Warnf("distribution rejected: %v", err)
			return Result{}, err
		}
		metrics.ObserveDistribution(metrics.OutcomeStorage, start)
		logger.Errorf("distribution rolled back: %+v", err)
		return Result{}, &StorageError{Op: "distribute package " + strconv.FormatInt(packageID, 10), Err: err}
	}

	if res.WasNoOp {
		metrics.ObserveDistribution(metrics.OutcomeNoop, start)
		logger.Info("package already distributed")
		return res, nil
	}

	metrics.ObserveDistribution(metrics.OutcomeCommitted, start)
	observeAmounts(res)
	logger.Infof("distribution committed, earnings: %d, lost: %d", len(res.Earnings), len(res.LostCommissions))

	d.notify(ctx, res)
	return res, nil
}

func validateRequest(packageID, buyerID int64, principal decimal.Decimal) error {
	if packageID <= 0 {
		return invalid("missing package reference")
	}
	if buyerID <= 0 {
		return invalid("missing buyer reference")
	}
	if !principal.IsPositive() {
		return invalid("principal must be positive, got %s", principal)
	}
	return nil
}

func (d *Distributor) distribute(ctx context.Context, tx Tx, table Table, packageID, buyerID int64,
	principal decimal.Decimal, res *Result) error {
	p, err := tx.LockPackage(ctx, packageID)
	if errors.Cause(err) == ErrPackageNotFound {
		return invalid("package %d not found", packageID)
	}
	if err != nil {
		return err
	}
	if p.UserID != buyerID {
		return invalid("package %d belongs to user %d, not %d", packageID, p.UserID, buyerID)
	}
	if !p.Amount.Equal(principal) {
		return invalid("principal %s does not match package amount %s", principal, p.Amount)
	}

	state, err := tx.DistributionState(ctx, packageID)
	if err != nil {
		return err
	}
	if state.Distributed() {
		res.WasNoOp = true
		if state.Marked {
			return nil
		}
		// ledger rows without a marker: record the marker so sweeps stop returning it
		return tx.MarkDistributed(ctx, model.Distribution{
			PackageID:    packageID,
			EarningCount: state.Earnings,
			LostCount:    state.Lost,
			CreatedAt:    d.now(),
		})
	}

	var lookup ReferrerLookup = tx
	if d.chain != nil {
		lookup = mirrorLookup{mirror: d.chain, ledger: tx}
	}
	chain, err := ResolveChain(ctx, lookup, buyerID)
	if err != nil {
		return err
	}

	now := d.now()
	res.Earnings = make([]model.Earning, 0, len(chain))
	res.LostCommissions = make([]model.LostCommission, 0)
	for _, up := range chain {
		pct := table.Percentage(up.Level)
		amount := table.Amount(up.Level, principal)

		eligible, err := IsEligible(ctx, tx, up.UserID, now)
		if err != nil {
			return err
		}

		if !eligible {
			lost := model.LostCommission{
				UserID:     up.UserID,
				FromUserID: buyerID,
				PackageID:  packageID,
				Level:      up.Level,
				Percentage: pct,
				Amount:     amount,
				Reason:     ReasonNotEligible,
				CreatedAt:  now,
			}
			if err := tx.CreateLostCommission(ctx, &lost); err != nil {
				return err
			}
			res.LostCommissions = append(res.LostCommissions, lost)
			continue
		}

		typ := model.EarningLevelIncome
		if up.Level == 1 {
			typ = model.EarningDirectReferral
		}
		t := model.Transaction{
			UserID:      up.UserID,
			Type:        typ,
			Amount:      amount,
			Status:      model.TransactionCompleted,
			Reference:   fmt.Sprintf("package:%d", packageID),
			Description: fmt.Sprintf("level %d referral commission from user %d", up.Level, buyerID),
			CreatedAt:   now,
		}
		if err := tx.CreateTransaction(ctx, &t); err != nil {
			return err
		}
		e := model.Earning{
			UserID:        up.UserID,
			FromUserID:    buyerID,
			PackageID:     packageID,
			TransactionID: t.ID,
			Level:         up.Level,
			Percentage:    pct,
			Amount:        amount,
			Type:          typ,
			CreatedAt:     now,
		}
		if err := tx.CreateEarning(ctx, &e); err != nil {
			return err
		}
		if err := tx.Credit(ctx, up.UserID, amount); err != nil {
			return err
		}
		res.Earnings = append(res.Earnings, e)
	}

	return tx.MarkDistributed(ctx, model.Distribution{
		PackageID:    packageID,
		EarningCount: len(res.Earnings),
		LostCount:    len(res.LostCommissions),
		CreatedAt:    now,
	})
}

func (d *Distributor) notify(ctx context.Context, res Result) {
	for _, n := range d.notifiers {
		func() {
			defer func() {
				if p := recover(); p != nil {
					metrics.NotifyFailures.Inc()
					log.Errorf("notify package %d panic: %v", res.PackageID, p)
				}
			}()
			if err := n.Notify(ctx, res); err != nil {
				metrics.NotifyFailures.Inc()
				log.Errorf("err: %+v", err)
			}
		}()
	}
}

func observeAmounts(res Result) {
	for _, e := range res.Earnings {
		f, _ := e.Amount.Float64()
		metrics.CommissionAmount.WithLabelValues("paid", strconv.Itoa(e.Level)).Add(f)
	}
	for _, l := range res.LostCommissions {
		f, _ := l.Amount.Float64()
		metrics.CommissionAmount.WithLabelValues("lost", strconv.Itoa(l.Level)).Add(f)
	}
}
