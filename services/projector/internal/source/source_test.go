package source

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

func testLogger() *logger.Logger {
	log := logger.New("source-test", "1.0.0")
	log.SetOutput(nil)
	return log
}

func TestEveryEntityHasAQuery(t *testing.T) {
	for _, entity := range models.EntityTypes {
		t.Run(string(entity), func(t *testing.T) {
			q, ok := queries[entity]
			require.True(t, ok)
			assert.NotEmpty(t, q.sql)
			assert.NotNil(t, q.collect)
		})
	}
}

func TestFilterArguments(t *testing.T) {
	filter := store.Filter{UserID: 3, TableID: 8}

	assert.Equal(t, []any{int64(3)}, queries[models.EntityUser].args(filter))
	assert.Equal(t, []any{int64(8)}, queries[models.EntityHand].args(filter))
	assert.Equal(t, []any{int64(3)}, queries[models.EntityTransaction].args(filter))
	assert.Equal(t, []any{int64(3), int64(8)}, queries[models.EntitySeat].args(filter))
	assert.Nil(t, queries[models.EntityTournament].args(filter))
}

func TestFetchEntitiesReportsSourceUnavailable(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("dial tcp: connection refused")}
	rs := NewRecordStore(db, testLogger())

	rows, err := rs.FetchEntities(context.Background(), models.EntityHand, store.Filter{})
	assert.Nil(t, rows)
	assert.True(t, store.IsSourceUnavailable(err))
}

func TestFetchEntitiesRejectsUnknownEntity(t *testing.T) {
	rs := NewRecordStore(&fakeDB{}, testLogger())

	_, err := rs.FetchEntities(context.Background(), models.EntityType("jugada"), store.Filter{})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name    string
		row     fakeRow
		want    float64
		wantErr error
	}{
		{"stored balance", fakeRow{values: []any{125.5}}, 125.5, nil},
		{"null balance", fakeRow{values: []any{nil}}, 0, nil},
		{"missing user", fakeRow{err: pgx.ErrNoRows}, 0, store.ErrNotFound},
		{"connection lost", fakeRow{err: errors.New("conn closed")}, 0, store.ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewRecordStore(&fakeDB{row: tt.row}, testLogger())
			got, err := rs.Balance(context.Background(), 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
