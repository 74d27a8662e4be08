package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// fakeRow scans canned values into the destinations used by this package.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *float64:
			*p = r.values[i].(float64)
		case **float64:
			if r.values[i] == nil {
				*p = nil
			} else {
				v := r.values[i].(float64)
				*p = &v
			}
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type call struct {
	sql  string
	args []any
}

// fakeTx replays one row per QueryRow call.
type fakeTx struct {
	pgx.Tx

	rows       []fakeRow
	calls      []call
	committed  bool
	rolledBack bool
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	t.calls = append(t.calls, call{sql: sql, args: args})
	row := t.rows[0]
	t.rows = t.rows[1:]
	return row
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx       *fakeTx
	began    int
	queryErr error
	row      fakeRow
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	d.began++
	return d.tx, nil
}

func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, d.queryErr
}

func (d *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return d.row
}

type recordingInvalidator struct {
	userID  int64
	balance float64
	calls   int
	err     error
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, userID int64, balance float64) error {
	r.calls++
	r.userID = userID
	r.balance = balance
	return r.err
}
