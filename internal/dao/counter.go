package dao

import (
	"context"
	"database/sql"
)

type counter struct {
}

var Counter = new(counter)

// Next atomically increments the named sequence and returns the new value. The
// row is created on first use; the increment holds the row lock until tx ends.
func (*counter) Next(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	_, err := tx.ExecContext(ctx, `
insert into counters
	(name, value)
values
	(?, last_insert_id(1))
on duplicate key update value = last_insert_id(value + 1)`, name)
	if err != nil {
		return 0, err
	}

	var value int64
	err = tx.QueryRowContext(ctx, "select last_insert_id()").Scan(&value)
	return value, err
}
