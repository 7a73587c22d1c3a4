package dao

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"server-invest-app/internal/db"
	"server-invest-app/internal/model"
)

type transaction struct {
}

var Transaction = new(transaction)

func (*transaction) CreateWithTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) (err error) {
	res, err := tx.ExecContext(ctx, "insert into transactions (user_id,type,amount,status,reference,description,created_at) "+
		"values (?,?,?,?,?,?,?)",
		t.UserID, t.Type, t.Amount, t.Status, t.Reference, t.Description, t.CreatedAt)
	if err != nil {
		return
	}
	t.ID, err = res.LastInsertId()
	return
}

type earning struct {
}

var Earning = new(earning)

func (*earning) CreateWithTx(ctx context.Context, tx *sql.Tx, e *model.Earning) (err error) {
	res, err := tx.ExecContext(ctx, "insert into earnings (user_id,from_user_id,package_id,transaction_id,level,percentage,"+
		"amount,type,created_at) values (?,?,?,?,?,?,?,?,?)",
		e.UserID, e.FromUserID, e.PackageID, e.TransactionID, e.Level, e.Percentage, e.Amount, e.Type, e.CreatedAt)
	if err != nil {
		return
	}
	e.ID, err = res.LastInsertId()
	return
}

func (*earning) ListByUser(ctx context.Context, userID int64, lastID int64, pageSize int) (earnings []model.Earning, err error) {
	var rows *sql.Rows
	if lastID == 0 {
		rows, err = db.MysqlCli.QueryContext(ctx, "select id,user_id,from_user_id,package_id,transaction_id,level,percentage,"+
			"amount,type,created_at from earnings where user_id = ? order by id desc limit ?", userID, pageSize)
	} else {
		rows, err = db.MysqlCli.QueryContext(ctx, "select id,user_id,from_user_id,package_id,transaction_id,level,percentage,"+
			"amount,type,created_at from earnings where user_id = ? and id < ? order by id desc limit ?", userID, lastID, pageSize)
	}
	if err != nil {
		return
	}
	defer rows.Close()

	earnings = make([]model.Earning, 0)
	for rows.Next() {
		var e model.Earning
		err = rows.Scan(&e.ID, &e.UserID, &e.FromUserID, &e.PackageID, &e.TransactionID, &e.Level, &e.Percentage,
			&e.Amount, &e.Type, &e.CreatedAt)
		if err != nil {
			return
		}
		earnings = append(earnings, e)
	}
	err = rows.Err()
	return
}

type lostCommission struct {
}

var LostCommission = new(lostCommission)

func (*lostCommission) CreateWithTx(ctx context.Context, tx *sql.Tx, l *model.LostCommission) (err error) {
	res, err := tx.ExecContext(ctx, "insert into lost_commissions (user_id,from_user_id,package_id,level,percentage,amount,"+
		"reason,created_at) values (?,?,?,?,?,?,?,?)",
		l.UserID, l.FromUserID, l.PackageID, l.Level, l.Percentage, l.Amount, l.Reason, l.CreatedAt)
	if err != nil {
		return
	}
	l.ID, err = res.LastInsertId()
	return
}

func (*lostCommission) ListByUser(ctx context.Context, userID int64, lastID int64, pageSize int) (losts []model.LostCommission, err error) {
	var rows *sql.Rows
	if lastID == 0 {
		rows, err = db.MysqlCli.QueryContext(ctx, "select id,user_id,from_user_id,package_id,level,percentage,amount,reason,"+
			"created_at from lost_commissions where user_id = ? order by id desc limit ?", userID, pageSize)
	} else {
		rows, err = db.MysqlCli.QueryContext(ctx, "select id,user_id,from_user_id,package_id,level,percentage,amount,reason,"+
			"created_at from lost_commissions where user_id = ? and id < ? order by id desc limit ?", userID, lastID, pageSize)
	}
	if err != nil {
		return
	}
	defer rows.Close()

	losts = make([]model.LostCommission, 0)
	for rows.Next() {
		var l model.LostCommission
		err = rows.Scan(&l.ID, &l.UserID, &l.FromUserID, &l.PackageID, &l.Level, &l.Percentage, &l.Amount, &l.Reason,
			&l.CreatedAt)
		if err != nil {
			return
		}
		losts = append(losts, l)
	}
	err = rows.Err()
	return
}

// LostSummary is the per-user total of forfeited commissions.
type LostSummary struct {
	UserID int64
	Count  int
	Amount decimal.Decimal
}

func (*lostCommission) SumGroupByUser(ctx context.Context) ([]LostSummary, error) {
	rows, err := db.MysqlCli.QueryContext(ctx, `
select
	user_id, count(*), sum(amount)
from
	lost_commissions
group by user_id
order by user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]LostSummary, 0)
	for rows.Next() {
		var s LostSummary
		if err := rows.Scan(&s.UserID, &s.Count, &s.Amount); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

type distribution struct {
}

var Distribution = new(distribution)

// State counts what is already committed for a package: its marker and the
// ledger rows written for it.
func (*distribution) State(ctx context.Context, tx *sql.Tx, packageID int64) (marked bool, earnings, losts int, err error) {
	var n int
	err = tx.QueryRowContext(ctx, `
select
	(select count(*) from referral_distributions where package_id = ?),
	(select count(*) from earnings where package_id = ?),
	(select count(*) from lost_commissions where package_id = ?)`,
		packageID, packageID, packageID).Scan(&n, &earnings, &losts)
	return n > 0, earnings, losts, err
}

func (*distribution) CreateWithTx(ctx context.Context, tx *sql.Tx, d model.Distribution) error {
	_, err := tx.ExecContext(ctx, "insert into referral_distributions (package_id,earning_count,lost_count,created_at) "+
		"values (?,?,?,?)", d.PackageID, d.EarningCount, d.LostCount, d.CreatedAt)
	return err
}
