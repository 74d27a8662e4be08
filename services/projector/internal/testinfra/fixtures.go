//go:build integration

package testinfra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store/memstore"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/orchestrator"
)

// SeatPairs is the number of distinct user and table pairs in the fixture.
// The fixture repeats one seat, so it holds one more seat row than pairs.
const SeatPairs = 3

var day = time.Date(2025, 9, 14, 20, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// QuietLogger returns a logger that discards output.
func QuietLogger(name string) *logger.Logger {
	l := logger.New(name, "integration")
	l.SetOutput(nil)
	return l
}

// Source returns a record store with two users seated at two tables, their
// hands and transactions, and one tournament.
func Source() *memstore.Source {
	src := memstore.NewSource()
	src.Add(
		models.User{ID: 1, Name: ptr("ana"), Country: ptr("AR"), KYCVerified: ptr(true), RegisteredAt: ptr(day.AddDate(-1, 0, 0)), Balance: ptr(250.0), HandsPlayed: 3, HandsWon: 2},
		models.User{ID: 2, Name: ptr("bruno"), Country: ptr("UY"), KYCVerified: ptr(false), RegisteredAt: ptr(day.AddDate(0, -2, 0)), Balance: ptr(40.0), HandsPlayed: 2},

		models.Table{ID: 10, Modality: ptr("holdem"), Type: ptr("cash"), MaxPlayers: ptr(int32(9)), Blinds: ptr("1/2")},
		models.Table{ID: 11, Modality: ptr("omaha"), Type: ptr("tournament"), MaxPlayers: ptr(int32(6)), TournamentID: ptr(int64(900))},

		models.Seat{UserID: 1, UserName: ptr("ana"), TableID: 10, TableModality: ptr("holdem"), TableType: ptr("cash")},
		models.Seat{UserID: 2, UserName: ptr("bruno"), TableID: 10, TableModality: ptr("holdem"), TableType: ptr("cash")},
		models.Seat{UserID: 1, UserName: ptr("ana"), TableID: 11, TableModality: ptr("omaha"), TableType: ptr("tournament")},
		models.Seat{UserID: 1, UserName: ptr("ana"), TableID: 10, TableModality: ptr("holdem"), TableType: ptr("cash")},

		models.Hand{ID: 100, TableID: 10, Pot: ptr(120.0), Rake: ptr(6.0), PlayedAt: ptr(day), WinnerID: ptr(int64(1)), Modality: ptr("holdem"), TableType: ptr("cash")},
		models.Hand{ID: 101, TableID: 10, Pot: ptr(80.0), Rake: ptr(4.0), PlayedAt: ptr(day.Add(10 * time.Minute)), WinnerID: ptr(int64(2)), Modality: ptr("holdem"), TableType: ptr("cash")},
		models.Hand{ID: 102, TableID: 11, Pot: ptr(300.0), Rake: ptr(0.0), PlayedAt: ptr(day.Add(time.Hour)), WinnerID: ptr(int64(1)), Modality: ptr("omaha"), TableType: ptr("tournament")},

		models.Transaction{ID: 500, UserID: 1, UserName: ptr("ana"), Method: ptr("card"), OccurredAt: ptr(day.Add(-time.Hour)), Amount: ptr(200.0), Status: ptr("approved"), Type: ptr("deposit"), AMLCompliance: ptr(true)},
		models.Transaction{ID: 501, UserID: 2, UserName: ptr("bruno"), Method: ptr("wallet"), OccurredAt: ptr(day), Amount: ptr(50.0), Status: ptr("pending"), Type: ptr("withdrawal"), AMLCompliance: ptr(true)},

		models.Tournament{ID: 900, Name: ptr("Sunday Million"), StartsAt: ptr(day.Add(24 * time.Hour)), Type: ptr("mtt"), Modality: ptr("omaha"), BuyIn: ptr(109.0), MaxPlayers: ptr(int32(600))},
	)
	return src
}

// SyncTwice projects every entity into target twice. The first run must
// reflect every row; the second must find every row already in place.
func SyncTwice(ctx context.Context, t *testing.T, target store.Target, entities ...models.EntityType) {
	t.Helper()

	orch := orchestrator.New(Source(), QuietLogger("integration"), orchestrator.Options{RowTimeout: 30 * time.Second})

	for _, entity := range entities {
		first, err := orch.Sync(ctx, entity, target)
		require.NoError(t, err, "first %s run", entity)
		require.Empty(t, first.Failures, "first %s run", entity)
		require.Equal(t, first.TotalSourceRows, first.Processed(), "first %s run", entity)
		require.Positive(t, first.Inserted, "first %s run", entity)
	}

	for _, entity := range entities {
		second, err := orch.Sync(ctx, entity, target)
		require.NoError(t, err, "second %s run", entity)
		assert.Empty(t, second.Failures, "second %s run", entity)
		assert.Zero(t, second.Inserted, "second %s run inserted", entity)
		assert.Zero(t, second.Updated, "second %s run updated", entity)
		assert.Equal(t, second.TotalSourceRows, second.Unchanged, "second %s run unchanged", entity)
	}
}
