package dao

import (
	"context"
	"database/sql"
	"time"

	"server-invest-app/internal/db"
	"server-invest-app/internal/model"
)

type activation struct {
}

var Activation = new(activation)

// HasActive reports whether the user holds an ACTIVE bot activation that has not
// expired at the given time.
func (*activation) HasActive(ctx context.Context, tx *sql.Tx, userID int64, at time.Time) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"select count(*) from bot_activations where user_id = ? and status = ? and expires_at > ?",
		userID, model.ActivationActive, at).Scan(&n)
	return n > 0, err
}

// ExpireDue marks ACTIVE bot activations past their expiry as EXPIRED.
func (*activation) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.MysqlCli.ExecContext(ctx,
		"update bot_activations set status = ? where status = ? and expires_at <= ?",
		model.ActivationExpired, model.ActivationActive, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
