package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store/memstore"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/projection"
)

func quietLogger() *logger.Logger {
	l := logger.New("orchestrator-test", "test")
	l.SetOutput(nil)
	return l
}

func ptr[T any](v T) *T { return &v }

var playedAt = time.Date(2025, 9, 14, 20, 30, 0, 0, time.UTC)

func hand(id, tableID int64, pot float64) models.Hand {
	return models.Hand{
		ID:       id,
		TableID:  tableID,
		Pot:      ptr(pot),
		Rake:     ptr(pot * 0.05),
		PlayedAt: ptr(playedAt),
		WinnerID: ptr(int64(1)),
		Modality: ptr("holdem"),
	}
}

func seat(userID, tableID int64) models.Seat {
	return models.Seat{
		UserID:        userID,
		UserName:      ptr("player"),
		TableID:       tableID,
		TableModality: ptr("holdem"),
		TableType:     ptr("cash"),
	}
}

func newOrchestrator(source store.RecordSource) *Orchestrator {
	return New(source, quietLogger(), Options{RowTimeout: time.Second, ConcurrentTargets: true})
}

func TestSupports(t *testing.T) {
	docs := memstore.NewDocumentStore()
	graph := memstore.NewGraphStore()
	parts := memstore.NewPartitionedStore()

	tests := []struct {
		entity models.EntityType
		target store.Target
		want   bool
	}{
		{models.EntityHand, docs, true},
		{models.EntityTournament, docs, true},
		{models.EntitySeat, docs, false},
		{models.EntitySeat, graph, true},
		{models.EntityHand, graph, false},
		{models.EntityTransaction, parts, true},
		{models.EntityUser, parts, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.entity)+"/"+tt.target.Name(), func(t *testing.T) {
			assert.Equal(t, tt.want, Supports(tt.entity, tt.target))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindDocuments, KindOf(memstore.NewDocumentStore()))
	assert.Equal(t, KindGraph, KindOf(memstore.NewGraphStore()))
	assert.Equal(t, KindPartitioned, KindOf(memstore.NewPartitionedStore()))
	assert.True(t, SupportsKind(models.EntitySeat, KindGraph))
	assert.False(t, SupportsKind(models.EntitySeat, ""))
}

func TestSyncIsIdempotent(t *testing.T) {
	source := memstore.NewSource()
	source.Add(hand(1, 10, 300), hand(2, 10, 120), hand(3, 11, 80))
	docs := memstore.NewDocumentStore()
	o := newOrchestrator(source)
	ctx := context.Background()

	first, err := o.Sync(ctx, models.EntityHand, docs)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 3, first.TotalSourceRows)
	assert.False(t, first.Incomplete())
	assert.NotEmpty(t, first.RunID)

	second, err := o.Sync(ctx, models.EntityHand, docs)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 3, second.Unchanged)
	assert.Equal(t, 3, docs.Count(projection.CollectionHands))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestSyncCountsUpdates(t *testing.T) {
	source := memstore.NewSource()
	source.Add(hand(1, 10, 300))
	docs := memstore.NewDocumentStore()
	o := newOrchestrator(source)
	ctx := context.Background()

	_, err := o.Sync(ctx, models.EntityHand, docs)
	require.NoError(t, err)

	changed := memstore.NewSource()
	changed.Add(hand(1, 10, 450))
	result, err := newOrchestrator(changed).Sync(ctx, models.EntityHand, docs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	doc, ok := docs.Get(projection.CollectionHands, "1")
	require.True(t, ok)
	assert.Equal(t, 450.0, doc["pot"])
}

func TestSyncPartialFailureAccounting(t *testing.T) {
	source := memstore.NewSource()
	for i := int64(1); i <= 8; i++ {
		source.Add(hand(i, 10, float64(i*10)))
	}
	// Two rows without a usable primary key
	source.Add(hand(0, 10, 5), hand(-4, 10, 5))

	result, err := newOrchestrator(source).Sync(context.Background(), models.EntityHand, memstore.NewDocumentStore())
	require.NoError(t, err)

	assert.Equal(t, 10, result.TotalSourceRows)
	assert.Equal(t, 8, result.Processed())
	assert.Equal(t, 2, result.NotReflected())
	assert.True(t, result.Incomplete())
	require.Len(t, result.Failures, 2)
	for _, f := range result.Failures {
		assert.True(t, store.IsRowMapping(f.Err))
	}
}

func TestSyncSkipsRowWriteFailures(t *testing.T) {
	source := memstore.NewSource()
	source.Add(hand(1, 10, 1), hand(2, 10, 2), hand(3, 10, 3))
	docs := memstore.NewDocumentStore()
	docs.FailOn(func(key string) error {
		if key == "2" {
			return errors.New("document too large")
		}
		return nil
	})

	result, err := newOrchestrator(source).Sync(context.Background(), models.EntityHand, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "2", result.Failures[0].RowID)
}

func TestSyncPartitionedRejectsMissingTimestamp(t *testing.T) {
	source := memstore.NewSource()
	undated := hand(2, 10, 50)
	undated.PlayedAt = nil
	source.Add(hand(1, 10, 100), undated)
	parts := memstore.NewPartitionedStore()

	result, err := newOrchestrator(source).Sync(context.Background(), models.EntityHand, parts)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 2, result.TotalSourceRows)
	assert.Equal(t, 1, parts.Count(projection.TableHandsByTableDate))

	again, err := newOrchestrator(source).Sync(context.Background(), models.EntityHand, parts)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Unchanged)
	assert.Equal(t, 1, parts.Count(projection.TableHandsByTableDate))
}

func TestSyncSourceUnavailable(t *testing.T) {
	source := memstore.NewSource()
	source.Add(hand(1, 10, 100))
	source.SetDown(true)
	docs := memstore.NewDocumentStore()

	result, err := newOrchestrator(source).Sync(context.Background(), models.EntityHand, docs)
	assert.True(t, store.IsSourceUnavailable(err))
	assert.Equal(t, 0, result.TotalSourceRows)
	assert.Equal(t, 0, result.Processed())
	assert.Equal(t, 0, docs.Count(projection.CollectionHands))
}

func TestSyncTargetUnavailable(t *testing.T) {
	source := memstore.NewSource()
	source.Add(hand(1, 10, 100))
	docs := memstore.NewDocumentStore()
	docs.SetDown(true)

	result, err := newOrchestrator(source).Sync(context.Background(), models.EntityHand, docs)
	assert.True(t, store.IsTargetUnavailable(err))
	assert.Equal(t, 1, result.TotalSourceRows)
	assert.True(t, result.Incomplete())
}

// dropsAfter goes offline after a number of successful writes.
type dropsAfter struct {
	*memstore.DocumentStore
	mu   sync.Mutex
	left int
}

func (d *dropsAfter) UpsertByKey(ctx context.Context, doc store.Document) (store.UpsertOutcome, error) {
	d.mu.Lock()
	if d.left == 0 {
		d.mu.Unlock()
		return 0, store.NewUnavailableError(d.Name(), "upsert", errors.New("connection reset"))
	}
	d.left--
	d.mu.Unlock()
	return d.DocumentStore.UpsertByKey(ctx, doc)
}

func TestSyncAbortsWhenTargetDropsMidRun(t *testing.T) {
	source := memstore.NewSource()
	for i := int64(1); i <= 5; i++ {
		source.Add(hand(i, 10, 10))
	}
	target := &dropsAfter{DocumentStore: memstore.NewDocumentStore(), left: 2}

	result, err := newOrchestrator(source).Sync(context.Background(), models.EntityHand, target)
	assert.True(t, store.IsTargetUnavailable(err))
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 5, result.TotalSourceRows)
	assert.Equal(t, 3, result.NotReflected())
}

func TestSyncUnsupportedProjection(t *testing.T) {
	source := memstore.NewSource()
	_, err := newOrchestrator(source).Sync(context.Background(), models.EntitySeat, memstore.NewDocumentStore())
	assert.ErrorIs(t, err, store.ErrUnsupportedProjection)
	assert.Equal(t, 0, source.Reads())
}

func TestSyncCancelledStopsAtRowBoundary(t *testing.T) {
	source := memstore.NewSource()
	source.Add(hand(1, 10, 10))
	docs := memstore.NewDocumentStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newOrchestrator(source).Sync(ctx, models.EntityHand, docs)
	assert.Error(t, err)
	assert.Equal(t, 0, docs.Count(projection.CollectionHands))
}

func TestGraphSyncEdgeUniqueness(t *testing.T) {
	source := memstore.NewSource()
	source.Add(seat(1, 10), seat(2, 10))
	graph := memstore.NewGraphStore()
	o := newOrchestrator(source)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.Sync(ctx, models.EntitySeat, graph)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, graph.EdgeCount(projection.EdgePlayedAt))
	assert.Equal(t, 2, graph.NodeCount(projection.LabelUser))
	assert.Equal(t, 1, graph.NodeCount(projection.LabelTable))

	result, err := o.Sync(ctx, models.EntitySeat, graph)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Unchanged)
}

func TestMergeGraphOutcome(t *testing.T) {
	graph := memstore.NewGraphStore()
	ctx := context.Background()

	elements, err := projection.BuildGraphElements(seat(1, 10))
	require.NoError(t, err)

	outcome, err := mergeGraph(ctx, graph, elements)
	require.NoError(t, err)
	assert.Equal(t, store.OutcomeInserted, outcome)

	outcome, err = mergeGraph(ctx, graph, elements)
	require.NoError(t, err)
	assert.Equal(t, store.OutcomeUnchanged, outcome)

	renamed := seat(1, 10)
	renamed.UserName = ptr("renamed")
	elements, err = projection.BuildGraphElements(renamed)
	require.NoError(t, err)
	outcome, err = mergeGraph(ctx, graph, elements)
	require.NoError(t, err)
	assert.Equal(t, store.OutcomeUpdated, outcome)
}

func TestSyncTargetsIsolatesFailures(t *testing.T) {
	source := memstore.NewSource()
	source.Add(hand(1, 10, 100), hand(2, 11, 40))
	docs := memstore.NewDocumentStore()
	parts := memstore.NewPartitionedStore()
	parts.SetDown(true)

	results, err := newOrchestrator(source).SyncTargets(context.Background(), models.EntityHand, docs, parts)
	require.Len(t, results, 2)
	assert.True(t, store.IsTargetUnavailable(err))

	assert.Equal(t, docs.Name(), results[0].Target)
	assert.Equal(t, 2, results[0].Inserted)
	assert.Equal(t, results[0].RunID, results[1].RunID)
	assert.Equal(t, 0, results[1].Processed())
	assert.Equal(t, 1, source.Reads())
}

func TestSyncTargetsSequential(t *testing.T) {
	source := memstore.NewSource()
	source.Add(hand(1, 10, 100))
	docs := memstore.NewDocumentStore()
	parts := memstore.NewPartitionedStore()
	o := New(source, quietLogger(), Options{})

	results, err := o.SyncTargets(context.Background(), models.EntityHand, docs, parts)
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Inserted)
	assert.Equal(t, 1, results[1].Inserted)
}
