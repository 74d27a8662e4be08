package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

// Querier is the read surface of a pgx pool or transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RecordStore reads projection rows from PostgreSQL. It never writes.
type RecordStore struct {
	db     Querier
	logger *logger.Logger
}

// NewRecordStore creates a RecordStore over a pool.
func NewRecordStore(db Querier, logger *logger.Logger) *RecordStore {
	return &RecordStore{db: db, logger: logger}
}

// FetchEntities returns every row of entity that matches filter, ordered by
// primary key.
func (s *RecordStore) FetchEntities(ctx context.Context, entity models.EntityType, filter store.Filter) ([]models.SourceRow, error) {
	q, ok := queries[entity]
	if !ok {
		return nil, fmt.Errorf("%w: unknown entity %q", store.ErrInvalidArgument, entity)
	}

	rows, err := s.db.Query(ctx, q.sql, q.args(filter)...)
	if err != nil {
		s.logger.Errorf("Failed to query %s rows: %v", entity, err)
		return nil, store.NewSourceError("fetch "+string(entity), err)
	}

	result, err := q.collect(rows)
	if err != nil {
		s.logger.Errorf("Failed to read %s rows: %v", entity, err)
		return nil, store.NewSourceError("fetch "+string(entity), err)
	}

	s.logger.Debugf("Fetched %d %s rows", len(result), entity)
	return result, nil
}

// Balance returns the stored real balance of a user.
func (s *RecordStore) Balance(ctx context.Context, userID int64) (float64, error) {
	var balance *float64
	err := s.db.QueryRow(ctx, balanceQuery, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user %d: %w", userID, store.ErrNotFound)
		}
		return 0, store.NewSourceError("balance", err)
	}
	if balance == nil {
		return 0, nil
	}
	return *balance, nil
}

func collectAs[T models.SourceRow](rows pgx.Rows) ([]models.SourceRow, error) {
	typed, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, err
	}
	out := make([]models.SourceRow, len(typed))
	for i, r := range typed {
		out[i] = r
	}
	return out, nil
}

// isForeignKeyViolation reports a write referencing a missing parent row.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
