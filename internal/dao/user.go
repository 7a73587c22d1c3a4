package dao

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"server-invest-app/internal/db"
	"server-invest-app/internal/model"
)

var ErrSelfReferral = errors.New("user can not be referred by own code")

type user struct {
}

var User = new(user)

// ReferrerOf returns the referral code the user registered with and the id of the
// user who owns that code. code is empty for root users, referrerID is 0 when the
// code does not resolve to anyone.
func (*user) ReferrerOf(ctx context.Context, tx *sql.Tx, userID int64) (code string, referrerID int64, err error) {
	row := tx.QueryRowContext(ctx, `
select
	u.referred_by, r.id
from
	users u left join users r on r.referral_code = u.referred_by
where u.id = ?`, userID)

	var (
		referredBy sql.NullString
		rid        sql.NullInt64
	)
	err = row.Scan(&referredBy, &rid)
	if err != nil {
		return "", 0, err
	}
	return referredBy.String, rid.Int64, nil
}

// Credit adds amount to the user's earning balance.
func (*user) Credit(ctx context.Context, tx *sql.Tx, userID int64, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, "update users set earning_balance = earning_balance + ? where id = ?",
		amount, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return errors.Errorf("credit user %d affected %d rows", userID, n)
	}
	return nil
}

func (*user) Create(ctx context.Context, tx *sql.Tx, u *model.User) error {
	if u.ReferredBy != nil && *u.ReferredBy == u.ReferralCode {
		return ErrSelfReferral
	}
	res, err := tx.ExecContext(ctx, "insert into users (referral_code,referred_by,earning_balance,created_at) values (?,?,?,?)",
		u.ReferralCode, u.ReferredBy, decimal.Zero, u.CreatedAt)
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

// CodeExists reports whether a referral code belongs to any user.
func (*user) CodeExists(ctx context.Context, tx *sql.Tx, code string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, "select count(*) from users where referral_code = ?", code).Scan(&n)
	return n > 0, err
}

func (*user) GetByID(ctx context.Context, id int64) (u model.User, err error) {
	var referredBy sql.NullString
	err = db.MysqlCli.QueryRowContext(ctx,
		"select id,referral_code,referred_by,earning_balance,created_at from users where id = ?", id).
		Scan(&u.ID, &u.ReferralCode, &referredBy, &u.EarningBalance, &u.CreatedAt)
	if referredBy.Valid {
		u.ReferredBy = &referredBy.String
	}
	return
}

// ListReferred returns the users who registered with code.
func (*user) ListReferred(ctx context.Context, code string) ([]model.User, error) {
	rows, err := db.MysqlCli.QueryContext(ctx,
		"select id,referral_code,earning_balance,created_at from users where referred_by = ? order by id", code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u := model.User{ReferredBy: &code}
		if err := rows.Scan(&u.ID, &u.ReferralCode, &u.EarningBalance, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
