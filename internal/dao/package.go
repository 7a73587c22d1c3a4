package dao

import (
	"context"
	"database/sql"
	"time"

	"server-invest-app/internal/db"
	"server-invest-app/internal/model"
)

type pkg struct {
}

var Package = new(pkg)

const packageColumns = "id,user_id,amount,status,activated_at,expires_at,created_at"

func scanPackage(row interface{ Scan(...interface{}) error }) (p model.Package, err error) {
	var activatedAt, expiresAt sql.NullTime
	err = row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Status, &activatedAt, &expiresAt, &p.CreatedAt)
	if err != nil {
		return
	}
	if activatedAt.Valid {
		p.ActivatedAt = &activatedAt.Time
	}
	if expiresAt.Valid {
		p.ExpiresAt = &expiresAt.Time
	}
	return
}

// LockByID reads the package row with an exclusive row lock held until tx ends.
func (*pkg) LockByID(ctx context.Context, tx *sql.Tx, id int64) (model.Package, error) {
	row := tx.QueryRowContext(ctx, "select "+packageColumns+" from packages where id = ? for update", id)
	return scanPackage(row)
}

func (*pkg) GetByID(ctx context.Context, id int64) (model.Package, error) {
	row := db.MysqlCli.QueryRowContext(ctx, "select "+packageColumns+" from packages where id = ?", id)
	return scanPackage(row)
}

// Activate moves a PENDING package to ACTIVE. It reports false when the package
// was not PENDING.
func (*pkg) Activate(ctx context.Context, id int64, activatedAt time.Time, expiresAt *time.Time) (bool, error) {
	res, err := db.MysqlCli.ExecContext(ctx, `
update packages
set
	status = ?, activated_at = ?, expires_at = ?
where
	id = ? and status = ?`,
		model.PackageActive, activatedAt, expiresAt, id, model.PackagePending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ListUndistributed returns ACTIVE packages activated before the given time that
// have no distribution marker yet.
func (*pkg) ListUndistributed(ctx context.Context, before time.Time, limit int) ([]model.Package, error) {
	rows, err := db.MysqlCli.QueryContext(ctx, `
select
	p.id,p.user_id,p.amount,p.status,p.activated_at,p.expires_at,p.created_at
from
	packages p left join referral_distributions d on d.package_id = p.id
where
	p.status = ?
	and p.activated_at < ?
	and d.package_id is null
order by p.id
limit ?`, model.PackageActive, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]model.Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// ExpireDue marks ACTIVE packages past their expiry as EXPIRED.
func (*pkg) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.MysqlCli.ExecContext(ctx,
		"update packages set status = ? where status = ? and expires_at is not null and expires_at <= ?",
		model.PackageExpired, model.PackageActive, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
