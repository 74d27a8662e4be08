package main

import (
	"context"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/database"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/cacheaside"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/engine"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/orchestrator"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/projection"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/source"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/target/cassandra"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/target/mongodb"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/target/neo4j"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/target/redis"
)

// needs selects the stores a command connects to. PostgreSQL is always used.
type needs struct {
	documents   bool
	partitioned bool
	graph       bool
	cache       bool
}

// allTargets selects every projection target; syncs never touch the cache.
var allTargets = needs{documents: true, partitioned: true, graph: true}

// offline records a target that could not be connected so its syncs are
// reported as unavailable while the other targets proceed.
func offline(deps *engine.Dependencies, name string, kind orchestrator.Kind, err error) {
	log.Errorf("Failed to connect to %s, continuing without it: %v", name, err)
	deps.Offline = append(deps.Offline, engine.OfflineTarget{Store: name, Kind: kind, Err: err})
}

// runWithEngine connects the needed stores, runs fn and closes every
// connection it opened. PostgreSQL and the cache are required; a target
// store that cannot be connected or prepared is taken offline instead.
func runWithEngine(ctx context.Context, n needs, fn func(ctx context.Context, e *engine.Engine) error) error {
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	pg, err := database.NewPostgreSQL(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	closers = append(closers, pg.Close)

	records := source.NewRecordStore(pg.Pool(), log)
	deps := engine.Dependencies{
		Source: records,
		Logger: log,
		Sync: orchestrator.Options{
			RowTimeout:        cfg.Sync.RowTimeout,
			ConcurrentTargets: cfg.Sync.ConcurrentTargets,
		},
	}

	if n.documents {
		if m, err := database.NewMongoDB(ctx, cfg.MongoDB); err != nil {
			offline(&deps, "mongodb", orchestrator.KindDocuments, err)
		} else {
			closers = append(closers, func() { _ = m.Close(context.Background()) })

			docs := mongodb.New(m.Database(), log)
			deps.Docs = docs
			deps.Schema = append(deps.Schema, engine.SchemaStep{Store: docs.Name(), Kind: orchestrator.KindDocuments, Run: func(ctx context.Context) error {
				return docs.EnsureIndexes(ctx, map[string][]string{
					projection.CollectionHands:        {"played_at", "modality", "pot"},
					projection.CollectionUsers:        {"balance"},
					projection.CollectionTransactions: {"user_id", "type", "method"},
				})
			}})
		}
	}

	if n.partitioned {
		if c, err := database.NewCassandra(cfg.Cassandra); err != nil {
			offline(&deps, "cassandra", orchestrator.KindPartitioned, err)
		} else {
			closers = append(closers, c.Close)

			parts := cassandra.New(c.Session(), log)
			deps.Parts = parts
			deps.Schema = append(deps.Schema, engine.SchemaStep{Store: parts.Name(), Kind: orchestrator.KindPartitioned, Run: func(ctx context.Context) error {
				return parts.EnsureTables(ctx, projection.TableHandsByTableDate, projection.TableTransactionsByUserDate)
			}})
		}
	}

	if n.graph {
		if n4, err := database.NewNeo4j(ctx, cfg.Neo4j); err != nil {
			offline(&deps, "neo4j", orchestrator.KindGraph, err)
		} else {
			closers = append(closers, func() { _ = n4.Close(context.Background()) })

			graph := neo4j.New(n4.Driver(), n4.DatabaseName(), log)
			deps.Graph = graph
			deps.Schema = append(deps.Schema, engine.SchemaStep{Store: graph.Name(), Kind: orchestrator.KindGraph, Run: func(ctx context.Context) error {
				return graph.EnsureConstraints(ctx, projection.KindUser, projection.KindTable)
			}})
		}
	}

	if n.cache {
		r, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		closers = append(closers, r.Close)

		cache := redis.New(r.Client())
		reader := cacheaside.NewReader(cache, records, cfg.Cache.TTL, log)
		deps.Cache = reader
		deps.Ranking = cache
		deps.Ledger = source.NewLedger(pg.Pool(), reader, log)
	}

	e := engine.New(deps)
	if err := e.EnsureSchema(ctx); err != nil {
		log.Warnf("Continuing with the stores that were prepared: %v", err)
	}
	return fn(ctx, e)
}
