// Package orchestrator pulls rows from the record store and projects them
// into target stores with idempotent upserts.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/metrics"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/projection"
)

// DefaultRowTimeout bounds each target write when Options leave it unset.
const DefaultRowTimeout = 5 * time.Second

// Options tune an Orchestrator.
type Options struct {
	RowTimeout time.Duration
	// ConcurrentTargets runs the targets of SyncTargets in parallel. Every
	// store client in this module is safe for concurrent use.
	ConcurrentTargets bool
}

// Orchestrator syncs entity types from a record source into targets.
type Orchestrator struct {
	source     store.RecordSource
	logger     *logger.Logger
	rowTimeout time.Duration
	concurrent bool
}

// New creates an Orchestrator.
func New(source store.RecordSource, logger *logger.Logger, opts Options) *Orchestrator {
	if opts.RowTimeout <= 0 {
		opts.RowTimeout = DefaultRowTimeout
	}
	return &Orchestrator{
		source:     source,
		logger:     logger,
		rowTimeout: opts.RowTimeout,
		concurrent: opts.ConcurrentTargets,
	}
}

// Kind is the shape of data a target store holds.
type Kind string

const (
	KindDocuments   Kind = "documents"
	KindPartitioned Kind = "partitioned"
	KindGraph       Kind = "graph"
)

// KindOf returns the kind of target, or "" for an unknown store.
func KindOf(target store.Target) Kind {
	switch target.(type) {
	case store.DocumentStore:
		return KindDocuments
	case store.GraphStore:
		return KindGraph
	case store.PartitionedStore:
		return KindPartitioned
	}
	return ""
}

// SupportsKind reports whether stores of kind can hold a projection of entity.
func SupportsKind(entity models.EntityType, kind Kind) bool {
	switch kind {
	case KindDocuments:
		switch entity {
		case models.EntityUser, models.EntityHand, models.EntityTransaction, models.EntityTournament:
			return true
		}
	case KindGraph:
		switch entity {
		case models.EntityUser, models.EntityTable, models.EntitySeat:
			return true
		}
	case KindPartitioned:
		switch entity {
		case models.EntityHand, models.EntityTransaction:
			return true
		}
	}
	return false
}

// Supports reports whether target can hold a projection of entity.
func Supports(entity models.EntityType, target store.Target) bool {
	return SupportsKind(entity, KindOf(target))
}

// Sync projects every row of entity into target. Per-row failures are
// recorded in the result and do not abort the run. A source failure returns
// a zero result; a target that becomes unreachable aborts with the counts
// reached so far.
func (o *Orchestrator) Sync(ctx context.Context, entity models.EntityType, target store.Target) (Result, error) {
	result := Result{RunID: uuid.NewString(), Entity: entity, Target: target.Name()}

	if !Supports(entity, target) {
		return result, fmt.Errorf("%w: %s cannot be projected into %s", store.ErrUnsupportedProjection, entity, target.Name())
	}

	rows, err := o.fetch(ctx, entity)
	if err != nil {
		metrics.RecordSyncError(target.Name(), err)
		return result, err
	}

	return o.syncRows(ctx, result, rows, target)
}

// SyncTargets reads entity once and projects it into each target. Targets are
// independent: an unreachable target fails its own result only. The returned
// error joins the per-target errors.
func (o *Orchestrator) SyncTargets(ctx context.Context, entity models.EntityType, targets ...store.Target) ([]Result, error) {
	runID := uuid.NewString()
	results := make([]Result, len(targets))
	for i, t := range targets {
		results[i] = Result{RunID: runID, Entity: entity, Target: t.Name()}
		if !Supports(entity, t) {
			return results, fmt.Errorf("%w: %s cannot be projected into %s", store.ErrUnsupportedProjection, entity, t.Name())
		}
	}

	rows, err := o.fetch(ctx, entity)
	if err != nil {
		return results, err
	}

	errs := make([]error, len(targets))
	var g errgroup.Group
	if !o.concurrent {
		g.SetLimit(1)
	}
	for i, t := range targets {
		g.Go(func() error {
			results[i], errs[i] = o.syncRows(ctx, results[i], rows, t)
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

func (o *Orchestrator) fetch(ctx context.Context, entity models.EntityType) ([]models.SourceRow, error) {
	rows, err := o.source.FetchEntities(ctx, entity, store.Filter{})
	if err != nil {
		o.logger.Errorf("Failed to read %s rows from record store: %v", entity, err)
		return nil, err
	}
	return rows, nil
}

func (o *Orchestrator) syncRows(ctx context.Context, result Result, rows []models.SourceRow, target store.Target) (Result, error) {
	start := time.Now()
	result.TotalSourceRows = len(rows)
	entity := string(result.Entity)

	defer func() {
		metrics.RecordRows(entity, result.Target, result.Inserted, result.Updated, result.Unchanged, len(result.Failures))
		metrics.RecordSyncDuration(entity, result.Target, time.Since(start))
	}()

	if err := target.Ping(ctx); err != nil {
		o.logger.Errorf("Skipping %s sync into %s: %v", entity, result.Target, err)
		metrics.RecordSyncError(result.Target, err)
		return result, err
	}

	o.logger.Infof("Syncing %d %s rows into %s (run %s)", len(rows), entity, result.Target, result.RunID)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			o.logger.Warnf("Sync of %s into %s cancelled after %d of %d rows", entity, result.Target, result.Processed()+len(result.Failures), len(rows))
			return result, err
		}

		outcome, err := o.syncRow(ctx, row, target)
		if err != nil {
			if store.IsTargetUnavailable(err) {
				o.logger.Errorf("Aborting %s sync: %v", entity, err)
				metrics.RecordSyncError(result.Target, err)
				return result, err
			}

			o.logger.WithFields(map[string]string{
				"entity": entity,
				"target": result.Target,
				"row":    row.RowID(),
				"run":    result.RunID,
			}).Warn("Skipping row: " + err.Error())
			metrics.RecordSyncError(result.Target, err)
			result.fail(row, err)
			continue
		}
		result.count(outcome)
	}

	if result.Incomplete() {
		o.logger.Warnf("Synced %s with %d rows not reflected", result, result.NotReflected())
	} else {
		o.logger.Infof("Synced %s", result)
	}
	return result, nil
}

// syncRow builds and writes one row within the per-row timeout.
func (o *Orchestrator) syncRow(ctx context.Context, row models.SourceRow, target store.Target) (store.UpsertOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, o.rowTimeout)
	defer cancel()

	switch t := target.(type) {
	case store.DocumentStore:
		doc, err := projection.BuildDocument(row)
		if err != nil {
			return 0, err
		}
		return t.UpsertByKey(ctx, doc)

	case store.PartitionedStore:
		doc, err := projection.BuildPartitionedDocument(row)
		if err != nil {
			return 0, err
		}
		return t.UpsertPartitioned(ctx, doc)

	case store.GraphStore:
		elements, err := projection.BuildGraphElements(row)
		if err != nil {
			return 0, err
		}
		return mergeGraph(ctx, t, elements)
	}

	return 0, fmt.Errorf("%w: target %s", store.ErrUnsupportedProjection, target.Name())
}

// mergeGraph merges every node before any edge. The row counts as inserted
// when it created an edge or a node, updated when it only changed node
// attributes, unchanged otherwise.
func mergeGraph(ctx context.Context, g store.GraphStore, elements projection.GraphElements) (store.UpsertOutcome, error) {
	outcome := store.OutcomeUnchanged
	note := func(o store.UpsertOutcome) {
		switch {
		case o == store.OutcomeInserted:
			outcome = store.OutcomeInserted
		case o == store.OutcomeUpdated && outcome == store.OutcomeUnchanged:
			outcome = store.OutcomeUpdated
		}
	}

	for _, n := range elements.Nodes {
		o, err := g.MergeNode(ctx, n)
		if err != nil {
			return 0, err
		}
		note(o)
	}
	for _, e := range elements.Edges {
		o, err := g.MergeEdge(ctx, e)
		if err != nil {
			return 0, err
		}
		note(o)
	}
	return outcome, nil
}
