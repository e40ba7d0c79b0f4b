package repositories

import (
	"context"
	"database/sql"

	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
)

// requireAffected turns a zero-row UPDATE into ErrNotFound, re-checking
// existence because MySQL reports 0 rows when values did not change.
func requireAffected(ctx context.Context, ex intdb.Executor, res sql.Result, table string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var count int
	if err := ex.GetContext(ctx, &count, ex.Rebind(`SELECT COUNT(*) FROM `+table+` WHERE id = ?`), id); err != nil {
		return err
	}
	if count == 0 {
		return intdb.ErrNotFound
	}
	return nil
}
