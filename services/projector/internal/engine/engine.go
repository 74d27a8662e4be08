// Package engine exposes the projector's use cases. Each read use case
// syncs the entity types it depends on and then queries the projection.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/analytics"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/cacheaside"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/orchestrator"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/source"
)

// ActivityBoard is the ranking that counts played hands per user.
const ActivityBoard = "ranking_activos"

// TransactionRecorder is the balance-affecting write path.
type TransactionRecorder interface {
	RecordTransaction(ctx context.Context, in source.TransactionInput) (source.TransactionReceipt, error)
}

// SchemaStep prepares one target store. Steps run once at startup.
type SchemaStep struct {
	Store string
	Kind  orchestrator.Kind
	Run   func(ctx context.Context) error
}

// OfflineTarget is a target store that could not be connected or prepared.
// Syncs into it are reported as unavailable while other targets proceed.
type OfflineTarget struct {
	Store string
	Kind  orchestrator.Kind
	Err   error
}

// Dependencies are the collaborators an Engine is built from.
type Dependencies struct {
	Source  store.RecordSource
	Docs    store.DocumentStore
	Parts   store.PartitionedStore
	Graph   store.GraphStore
	Cache   *cacheaside.Reader
	Ranking store.Ranking
	Ledger  TransactionRecorder
	Schema  []SchemaStep
	Offline []OfflineTarget
	Logger  *logger.Logger
	Now     func() time.Time
	Sync    orchestrator.Options
}

// Engine runs use cases against the record store and its projections.
type Engine struct {
	orchestrator *orchestrator.Orchestrator
	queries      *analytics.Queries
	deps         Dependencies
	offline      map[orchestrator.Kind]OfflineTarget
	logger       *logger.Logger
}

// New creates an Engine.
func New(deps Dependencies) *Engine {
	e := &Engine{
		orchestrator: orchestrator.New(deps.Source, deps.Logger, deps.Sync),
		queries:      analytics.New(deps.Docs, deps.Parts, deps.Graph, deps.Now),
		deps:         deps,
		offline:      make(map[orchestrator.Kind]OfflineTarget),
		logger:       deps.Logger,
	}
	for _, o := range deps.Offline {
		e.offline[o.Kind] = o
	}
	return e
}

// Report is a query result together with the syncs that preceded it.
type Report[T any] struct {
	Rows  T
	Syncs []orchestrator.Result
}

// NotReflected is the number of source rows the queried projection missed.
func (r Report[T]) NotReflected() int {
	n := 0
	for _, s := range r.Syncs {
		n += s.NotReflected()
	}
	return n
}

// EnsureSchema prepares every target store. A store whose step fails is
// taken offline and the remaining steps still run; the returned error joins
// the failures.
func (e *Engine) EnsureSchema(ctx context.Context) error {
	var errs []error
	for _, step := range e.deps.Schema {
		if err := step.Run(ctx); err != nil {
			err = fmt.Errorf("failed to prepare %s schema: %w", step.Store, err)
			e.logger.Errorf("Taking %s offline: %v", step.Store, err)
			e.offline[step.Kind] = OfflineTarget{Store: step.Store, Kind: step.Kind, Err: err}
			errs = append(errs, err)
			continue
		}
		e.logger.Debugf("Prepared %s schema", step.Store)
	}
	return errors.Join(errs...)
}

func (e *Engine) unavailable(o OfflineTarget) error {
	return store.NewUnavailableError(o.Store, "connect", o.Err)
}

// targets splits the stores that can hold entity into reachable targets and
// offline ones.
func (e *Engine) targets(entity models.EntityType) ([]store.Target, []OfflineTarget) {
	var (
		online  []store.Target
		offline []OfflineTarget
	)
	candidates := []struct {
		kind   orchestrator.Kind
		target store.Target
	}{
		{orchestrator.KindDocuments, e.deps.Docs},
		{orchestrator.KindPartitioned, e.deps.Parts},
		{orchestrator.KindGraph, e.deps.Graph},
	}
	for _, c := range candidates {
		if !orchestrator.SupportsKind(entity, c.kind) {
			continue
		}
		if o, down := e.offline[c.kind]; down {
			offline = append(offline, o)
			continue
		}
		if c.target != nil {
			online = append(online, c.target)
		}
	}
	return online, offline
}

// Sync projects entity into every target that supports it. Offline targets
// yield an empty result and an unavailable error without stopping the others.
func (e *Engine) Sync(ctx context.Context, entity models.EntityType) ([]orchestrator.Result, error) {
	online, offline := e.targets(entity)
	if len(online) == 0 && len(offline) == 0 {
		return nil, fmt.Errorf("%w: no configured target holds %s", store.ErrUnsupportedProjection, entity)
	}

	var (
		results []orchestrator.Result
		errs    []error
	)
	if len(online) > 0 {
		synced, err := e.orchestrator.SyncTargets(ctx, entity, online...)
		results = append(results, synced...)
		errs = append(errs, err)
	}
	for _, o := range offline {
		results = append(results, orchestrator.Result{Entity: entity, Target: o.Store})
		errs = append(errs, e.unavailable(o))
	}
	return results, errors.Join(errs...)
}

// syncInto runs the syncs a query depends on. Any store error aborts the
// use case; skipped rows are reported through the results.
func (e *Engine) syncInto(ctx context.Context, kind orchestrator.Kind, target store.Target, entities ...models.EntityType) ([]orchestrator.Result, error) {
	if o, down := e.offline[kind]; down {
		return nil, e.unavailable(o)
	}
	if target == nil {
		return nil, errors.New("query target is not configured")
	}

	results := make([]orchestrator.Result, 0, len(entities))
	for _, entity := range entities {
		result, err := e.orchestrator.Sync(ctx, entity, target)
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (e *Engine) VolumeByModality(ctx context.Context, days int) (Report[[]analytics.ModalityVolume], error) {
	var report Report[[]analytics.ModalityVolume]
	syncs, err := e.syncInto(ctx, orchestrator.KindDocuments, e.deps.Docs, models.EntityHand)
	report.Syncs = syncs
	if err != nil {
		return report, err
	}
	report.Rows, err = e.queries.VolumeByModality(ctx, days)
	return report, err
}

func (e *Engine) TopBalances(ctx context.Context, k int) (Report[[]analytics.UserBalance], error) {
	var report Report[[]analytics.UserBalance]
	syncs, err := e.syncInto(ctx, orchestrator.KindDocuments, e.deps.Docs, models.EntityUser)
	report.Syncs = syncs
	if err != nil {
		return report, err
	}
	report.Rows, err = e.queries.TopBalances(ctx, k)
	return report, err
}

func (e *Engine) HighPotHands(ctx context.Context, minPot float64, year int, month time.Month) (Report[[]analytics.HandSummary], error) {
	var report Report[[]analytics.HandSummary]
	syncs, err := e.syncInto(ctx, orchestrator.KindDocuments, e.deps.Docs, models.EntityHand)
	report.Syncs = syncs
	if err != nil {
		return report, err
	}
	report.Rows, err = e.queries.HighPotHands(ctx, minPot, year, month)
	return report, err
}

func (e *Engine) DepositsByMethod(ctx context.Context, userID int64, method string) (Report[analytics.Deposits], error) {
	var report Report[analytics.Deposits]
	syncs, err := e.syncInto(ctx, orchestrator.KindDocuments, e.deps.Docs, models.EntityTransaction)
	report.Syncs = syncs
	if err != nil {
		return report, err
	}
	report.Rows, err = e.queries.DepositsByMethod(ctx, userID, method)
	return report, err
}

func (e *Engine) HandsByTableAndDate(ctx context.Context, tableID int64, day time.Time) (Report[[]analytics.HandSummary], error) {
	var report Report[[]analytics.HandSummary]
	syncs, err := e.syncInto(ctx, orchestrator.KindPartitioned, e.deps.Parts, models.EntityHand)
	report.Syncs = syncs
	if err != nil {
		return report, err
	}
	report.Rows, err = e.queries.HandsByTableAndDate(ctx, tableID, day)
	return report, err
}

func (e *Engine) TransactionsByUserAndDate(ctx context.Context, userID int64, day time.Time) (Report[[]analytics.TransactionSummary], error) {
	var report Report[[]analytics.TransactionSummary]
	syncs, err := e.syncInto(ctx, orchestrator.KindPartitioned, e.deps.Parts, models.EntityTransaction)
	report.Syncs = syncs
	if err != nil {
		return report, err
	}
	report.Rows, err = e.queries.TransactionsByUserAndDate(ctx, userID, day)
	return report, err
}

// Graph use cases sync users and tables before seats so nodes carry their
// full attributes.

func (e *Engine) PlayersAtMultipleTables(ctx context.Context, min int) (Report[[]store.NeighborCount], error) {
	var report Report[[]store.NeighborCount]
	syncs, err := e.syncInto(ctx, orchestrator.KindGraph, e.deps.Graph, models.EntityUser, models.EntityTable, models.EntitySeat)
	report.Syncs = syncs
	if err != nil {
		return report, err
	}
	report.Rows, err = e.queries.PlayersAtMultipleTables(ctx, min)
	return report, err
}

func (e *Engine) SharedTablePairs(ctx context.Context, minShared, limit int) (Report[[]store.NeighborPair], error) {
	var report Report[[]store.NeighborPair]
	syncs, err := e.syncInto(ctx, orchestrator.KindGraph, e.deps.Graph, models.EntityUser, models.EntityTable, models.EntitySeat)
	report.Syncs = syncs
	if err != nil {
		return report, err
	}
	report.Rows, err = e.queries.SharedTablePairs(ctx, minShared, limit)
	return report, err
}

// Balance reads a user's balance through the cache.
func (e *Engine) Balance(ctx context.Context, userID int64) (float64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: user id must be positive", store.ErrInvalidArgument)
	}
	return e.deps.Cache.Read(ctx, userID)
}

// RecordTransaction applies a deposit or withdrawal and refreshes the cached balance.
func (e *Engine) RecordTransaction(ctx context.Context, in source.TransactionInput) (source.TransactionReceipt, error) {
	return e.deps.Ledger.RecordTransaction(ctx, in)
}

// RecordActivity counts one played hand for the user and returns the new score.
func (e *Engine) RecordActivity(ctx context.Context, userID int64) (float64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: user id must be positive", store.ErrInvalidArgument)
	}
	return e.deps.Ranking.Increment(ctx, ActivityBoard, strconv.FormatInt(userID, 10), 1)
}

// TopActive returns the n most active users.
func (e *Engine) TopActive(ctx context.Context, n int) ([]store.RankEntry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive", store.ErrInvalidArgument)
	}
	return e.deps.Ranking.Top(ctx, ActivityBoard, n)
}
