package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store/memstore"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/cacheaside"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/orchestrator"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/projection"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/source"
)

func ptr[T any](v T) *T { return &v }

var playedAt = time.Date(2025, 9, 14, 20, 0, 0, 0, time.UTC)

// fakeLedger applies transactions to the in-memory source.
type fakeLedger struct {
	source      *memstore.Source
	balances    map[int64]float64
	invalidator source.BalanceInvalidator
	nextID      int64
}

func (l *fakeLedger) RecordTransaction(ctx context.Context, in source.TransactionInput) (source.TransactionReceipt, error) {
	if err := in.Validate(); err != nil {
		return source.TransactionReceipt{}, err
	}
	balance, ok := l.balances[in.UserID]
	if !ok {
		return source.TransactionReceipt{}, store.ErrNotFound
	}
	if in.Type == models.TransactionWithdrawal {
		balance -= in.Amount
	} else {
		balance += in.Amount
	}
	l.balances[in.UserID] = balance
	l.source.SetBalance(in.UserID, balance)
	l.nextID++

	receipt := source.TransactionReceipt{TransactionID: l.nextID, NewBalance: balance, AMLCompliant: in.AMLCompliant()}
	return receipt, l.invalidator.Invalidate(ctx, in.UserID, balance)
}

type harness struct {
	engine *Engine
	source *memstore.Source
	docs   *memstore.DocumentStore
	parts  *memstore.PartitionedStore
	graph  *memstore.GraphStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := logger.New("engine-test", "test")
	log.SetOutput(nil)

	h := &harness{
		source: memstore.NewSource(),
		docs:   memstore.NewDocumentStore(),
		parts:  memstore.NewPartitionedStore(),
		graph:  memstore.NewGraphStore(),
	}
	reader := cacheaside.NewReader(memstore.NewCache(nil), h.source, cacheaside.DefaultTTL, log)

	h.source.Add(
		models.User{ID: 1, Name: ptr("U1"), Balance: ptr(100.0)},
		models.User{ID: 2, Name: ptr("U2"), Balance: ptr(50.0)},
		models.Table{ID: 1, Modality: ptr("holdem"), Type: ptr("cash")},
		models.Seat{UserID: 1, UserName: ptr("U1"), TableID: 1, TableModality: ptr("holdem"), TableType: ptr("cash")},
		models.Seat{UserID: 2, UserName: ptr("U2"), TableID: 1, TableModality: ptr("holdem"), TableType: ptr("cash")},
		models.Hand{ID: 1, TableID: 1, Pot: ptr(300.0), WinnerID: ptr(int64(1)), PlayedAt: ptr(playedAt), Modality: ptr("holdem")},
	)

	h.engine = New(Dependencies{
		Source:  h.source,
		Docs:    h.docs,
		Parts:   h.parts,
		Graph:   h.graph,
		Cache:   reader,
		Ranking: memstore.NewRanking(),
		Ledger: &fakeLedger{
			source:      h.source,
			balances:    map[int64]float64{1: 100, 2: 50},
			invalidator: reader,
		},
		Logger: log,
		Now:    func() time.Time { return playedAt.Add(24 * time.Hour) },
	})
	return h
}

func TestEndToEndScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	results, err := h.engine.Sync(ctx, models.EntityHand)
	require.NoError(t, err)
	require.Len(t, results, 2)

	doc, ok := h.docs.Get(projection.CollectionHands, "1")
	require.True(t, ok)
	assert.Equal(t, 300.0, doc["pot"])
	assert.Equal(t, int64(1), doc["winner_id"])
	assert.Equal(t, 1, h.docs.Count(projection.CollectionHands))

	top, err := h.engine.TopBalances(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top.Rows, 2)
	assert.Equal(t, int64(1), top.Rows[0].UserID)
	assert.Equal(t, int64(2), top.Rows[1].UserID)
	assert.Zero(t, top.NotReflected())

	multi, err := h.engine.PlayersAtMultipleTables(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, multi.Rows)
	assert.Equal(t, 2, h.graph.NodeCount(projection.LabelUser))
	assert.Equal(t, 1, h.graph.NodeCount(projection.LabelTable))
	assert.Equal(t, 2, h.graph.EdgeCount(projection.EdgePlayedAt))

	h.source.Add(
		models.Table{ID: 2, Modality: ptr("omaha"), Type: ptr("cash")},
		models.Seat{UserID: 1, UserName: ptr("U1"), TableID: 2, TableModality: ptr("omaha"), TableType: ptr("cash")},
	)
	multi, err = h.engine.PlayersAtMultipleTables(ctx, 2)
	require.NoError(t, err)
	require.Len(t, multi.Rows, 1)
	assert.Equal(t, int64(1), multi.Rows[0].ID)
	assert.Equal(t, "U1", multi.Rows[0].Name)
	assert.Equal(t, 3, h.graph.EdgeCount(projection.EdgePlayedAt))
}

func TestReadUseCasesReportSkippedRows(t *testing.T) {
	h := newHarness(t)
	h.source.Add(models.Hand{ID: 2, TableID: 1, Pot: ptr(50.0), Modality: ptr("holdem")})

	report, err := h.engine.HandsByTableAndDate(context.Background(), 1, playedAt)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, 1, report.NotReflected())

	volume, err := h.engine.VolumeByModality(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, volume.Rows, 1)
	assert.Equal(t, 300.0, volume.Rows[0].Volume)
}

func TestReadUseCaseAbortsOnSourceFailure(t *testing.T) {
	h := newHarness(t)
	h.source.SetDown(true)

	_, err := h.engine.HighPotHands(context.Background(), 100, 2025, time.September)
	assert.True(t, store.IsSourceUnavailable(err))
}

func TestBalanceAndTransactions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	balance, err := h.engine.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balance)
	reads := h.source.Reads()

	receipt, err := h.engine.RecordTransaction(ctx, source.TransactionInput{
		UserID: 1, MethodID: 1, Amount: 2500, Type: models.TransactionDeposit,
	})
	require.NoError(t, err)
	assert.False(t, receipt.AMLCompliant)
	assert.Equal(t, 2600.0, receipt.NewBalance)

	balance, err = h.engine.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2600.0, balance)
	assert.Equal(t, reads, h.source.Reads(), "served from the overwritten cache entry")

	_, err = h.engine.Balance(ctx, 99)
	assert.True(t, store.IsNotFound(err))

	_, err = h.engine.RecordTransaction(ctx, source.TransactionInput{UserID: 1, MethodID: 1, Amount: -1, Type: models.TransactionDeposit})
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestDepositsUseCase(t *testing.T) {
	h := newHarness(t)
	h.source.Add(models.Transaction{
		ID: 7, UserID: 1, Method: ptr("paypal"), Amount: ptr(80.0),
		Type: ptr(models.TransactionDeposit), OccurredAt: ptr(playedAt),
	})

	report, err := h.engine.DepositsByMethod(context.Background(), 1, "paypal")
	require.NoError(t, err)
	assert.Equal(t, 80.0, report.Rows.Total)

	byDay, err := h.engine.TransactionsByUserAndDate(context.Background(), 1, playedAt)
	require.NoError(t, err)
	require.Len(t, byDay.Rows, 1)
	assert.Equal(t, int64(7), byDay.Rows[0].TransactionID)
}

func TestActivityRanking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 2, 3, 2, 1} {
		_, err := h.engine.RecordActivity(ctx, id)
		require.NoError(t, err)
	}

	top, err := h.engine.TopActive(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []store.RankEntry{{Member: "2", Score: 3}, {Member: "1", Score: 2}}, top)

	_, err = h.engine.TopActive(ctx, 0)
	assert.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestSharedTablePairsUseCase(t *testing.T) {
	h := newHarness(t)

	report, err := h.engine.SharedTablePairs(context.Background(), 0, 5)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, int64(1), report.Rows[0].FromID)
	assert.Equal(t, int64(2), report.Rows[0].ToID)
}

func TestEnsureSchema(t *testing.T) {
	var ran []string
	step := func(name string, kind orchestrator.Kind, err error) SchemaStep {
		return SchemaStep{Store: name, Kind: kind, Run: func(ctx context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}

	log := logger.New("engine-test", "test")
	log.SetOutput(nil)
	e := New(Dependencies{
		Source: memstore.NewSource(),
		Logger: log,
		Schema: []SchemaStep{
			step("mongodb", orchestrator.KindDocuments, nil),
			step("neo4j", orchestrator.KindGraph, errors.New("auth failed")),
			step("cassandra", orchestrator.KindPartitioned, nil),
		},
	})

	err := e.EnsureSchema(context.Background())
	assert.ErrorContains(t, err, "neo4j")
	assert.Equal(t, []string{"mongodb", "neo4j", "cassandra"}, ran)
}

func TestFailedSchemaStepIsolatesTarget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.engine.deps.Schema = []SchemaStep{
		{Store: "memory-partitioned", Kind: orchestrator.KindPartitioned, Run: func(ctx context.Context) error {
			return errors.New("keyspace missing")
		}},
	}
	require.Error(t, h.engine.EnsureSchema(ctx))

	results, err := h.engine.Sync(ctx, models.EntityHand)
	require.Len(t, results, 2)
	assert.True(t, store.IsTargetUnavailable(err))

	assert.Equal(t, h.docs.Name(), results[0].Target)
	assert.Equal(t, 1, results[0].Inserted)
	assert.Equal(t, "memory-partitioned", results[1].Target)
	assert.Equal(t, 0, results[1].Processed())
	assert.Equal(t, 0, h.parts.Count(projection.TableHandsByTableDate))

	_, err = h.engine.HandsByTableAndDate(ctx, 1, playedAt)
	assert.True(t, store.IsTargetUnavailable(err))

	report, err := h.engine.VolumeByModality(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, report.Rows, 1)
}

func TestUnconnectedTargetIsReportedUnavailable(t *testing.T) {
	log := logger.New("engine-test", "test")
	log.SetOutput(nil)

	source := memstore.NewSource()
	source.Add(models.Seat{UserID: 1, TableID: 1}, models.Seat{UserID: 2, TableID: 1})
	graph := memstore.NewGraphStore()

	e := New(Dependencies{
		Source:  source,
		Graph:   graph,
		Offline: []OfflineTarget{{Store: "cassandra", Kind: orchestrator.KindPartitioned, Err: errors.New("no hosts available")}},
		Logger:  log,
	})

	results, err := e.Sync(context.Background(), models.EntitySeat)
	require.NoError(t, err, "seats never project into the partitioned store")
	require.Len(t, results, 1)
	assert.Equal(t, 2, graph.EdgeCount(projection.EdgePlayedAt))

	results, err = e.Sync(context.Background(), models.EntityTransaction)
	assert.True(t, store.IsTargetUnavailable(err))
	require.Len(t, results, 1)
	assert.Equal(t, "cassandra", results[0].Target)
}
