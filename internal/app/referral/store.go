package referral

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"server-invest-app/internal/dao"
	"server-invest-app/internal/model"
)

// ReferrerLookup follows one hop of the referred-by pointer. code is empty for a
// root user; referrerID is 0 when code does not resolve to any user.
type ReferrerLookup interface {
	ReferrerOf(ctx context.Context, userID int64) (code string, referrerID int64, err error)
}

// PositionLookup answers whether a user holds a qualifying position at a time.
type PositionLookup interface {
	HasActivePosition(ctx context.Context, userID int64, at time.Time) (bool, error)
}

// Tx is the unit of work a distribution runs in. Every write becomes visible
// only if the enclosing InTx call commits.
type Tx interface {
	ReferrerLookup
	PositionLookup

	// LockPackage returns ErrPackageNotFound for an unknown id. The lock serializes
	// concurrent distributions of the same package.
	LockPackage(ctx context.Context, packageID int64) (model.Package, error)
	DistributionState(ctx context.Context, packageID int64) (LedgerState, error)

	CreateTransaction(ctx context.Context, t *model.Transaction) error
	CreateEarning(ctx context.Context, e *model.Earning) error
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) error
	CreateLostCommission(ctx context.Context, l *model.LostCommission) error
	MarkDistributed(ctx context.Context, d model.Distribution) error
}

// LedgerState is what a package already has in the ledger.
type LedgerState struct {
	Marked   bool
	Earnings int
	Lost     int
}

// Distributed reports whether anything was committed for the package.
func (s LedgerState) Distributed() bool {
	return s.Marked || s.Earnings+s.Lost > 0
}

type Store interface {
	// InTx runs fn in one transaction, committing when fn returns nil and rolling
	// back otherwise. fn's error is returned as is.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// SQLStore is the MySQL ledger store.
type SQLStore struct {
	DB      *sql.DB
	Timeout time.Duration
}

func NewSQLStore(conn *sql.DB, timeout time.Duration) *SQLStore {
	return &SQLStore{DB: conn, Timeout: timeout}
}

func (s *SQLStore) InTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.Wrap(err, "tx begin")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(&sqlTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "tx commit")
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) ReferrerOf(ctx context.Context, userID int64) (string, int64, error) {
	code, id, err := dao.User.ReferrerOf(ctx, t.tx, userID)
	if err == sql.ErrNoRows {
		return "", 0, ErrUserNotFound
	}
	return code, id, errors.Wrap(err, "get referrer")
}

func (t *sqlTx) HasActivePosition(ctx context.Context, userID int64, at time.Time) (bool, error) {
	ok, err := dao.Activation.HasActive(ctx, t.tx, userID, at)
	return ok, errors.Wrap(err, "check active position")
}

func (t *sqlTx) LockPackage(ctx context.Context, packageID int64) (model.Package, error) {
	p, err := dao.Package.LockByID(ctx, t.tx, packageID)
	if err == sql.ErrNoRows {
		return p, ErrPackageNotFound
	}
	return p, errors.Wrap(err, "lock package")
}

func (t *sqlTx) DistributionState(ctx context.Context, packageID int64) (LedgerState, error) {
	marked, earnings, losts, err := dao.Distribution.State(ctx, t.tx, packageID)
	return LedgerState{Marked: marked, Earnings: earnings, Lost: losts}, errors.Wrap(err, "check distribution")
}

func (t *sqlTx) CreateTransaction(ctx context.Context, tr *model.Transaction) error {
	return errors.Wrap(dao.Transaction.CreateWithTx(ctx, t.tx, tr), "insert transaction")
}

func (t *sqlTx) CreateEarning(ctx context.Context, e *model.Earning) error {
	return errors.Wrap(dao.Earning.CreateWithTx(ctx, t.tx, e), "insert earning")
}

func (t *sqlTx) Credit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	return errors.Wrap(dao.User.Credit(ctx, t.tx, userID, amount), "credit user")
}

func (t *sqlTx) CreateLostCommission(ctx context.Context, l *model.LostCommission) error {
	return errors.Wrap(dao.LostCommission.CreateWithTx(ctx, t.tx, l), "insert lost commission")
}

func (t *sqlTx) MarkDistributed(ctx context.Context, d model.Distribution) error {
	return errors.Wrap(dao.Distribution.CreateWithTx(ctx, t.tx, d), "insert distribution marker")
}
