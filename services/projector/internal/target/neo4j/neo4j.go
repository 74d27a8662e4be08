// Package neo4j projects nodes and edges into Neo4j using MERGE so repeated
// syncs never duplicate a node or an edge.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

const storeName = "neo4j"

// Store is a store.GraphStore backed by a Neo4j driver.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *logger.Logger
}

// New creates a Store. An empty database uses the server default.
func New(driver neo4j.DriverWithContext, database string, logger *logger.Logger) *Store {
	return &Store{driver: driver, database: database, logger: logger}
}

func (s *Store) Name() string { return storeName }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return store.NewUnavailableError(storeName, "ping", err)
	}
	return nil
}

func isConnectivity(err error) bool {
	return neo4j.IsConnectivityError(err)
}

// quote renders an identifier as a backtick-quoted Cypher name.
func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (s *Store) execute(ctx context.Context, query string, params map[string]any, routing neo4j.ExecuteQueryConfigurationOption) (*neo4j.EagerResult, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{routing}
	if s.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(s.database))
	}
	return neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer, opts...)
}

func mergeNodeQuery(ref store.NodeRef) string {
	return fmt.Sprintf(`MERGE (n:%s {%s: $id})
WITH n, properties(n) AS before
SET n += $attrs
RETURN before = properties(n) AS unchanged`, quote(ref.Label), quote(ref.KeyProperty))
}

// MergeNode creates the node if absent and sets its attributes.
func (s *Store) MergeNode(ctx context.Context, node store.Node) (store.UpsertOutcome, error) {
	attrs := map[string]any(node.Attributes)
	if attrs == nil {
		attrs = map[string]any{}
	}

	result, err := s.execute(ctx, mergeNodeQuery(node.NodeRef), map[string]any{
		"id":    node.ID,
		"attrs": attrs,
	}, neo4j.ExecuteQueryWithWritersRouting())
	if err != nil {
		return 0, store.WrapTargetError(storeName, "merge node", err, isConnectivity)
	}

	if result.Summary.Counters().NodesCreated() > 0 {
		return store.OutcomeInserted, nil
	}
	if len(result.Records) == 1 {
		if unchanged, _, err := neo4j.GetRecordValue[bool](result.Records[0], "unchanged"); err == nil && unchanged {
			return store.OutcomeUnchanged, nil
		}
	}
	return store.OutcomeUpdated, nil
}

func mergeEdgeQuery(edge store.Edge) string {
	return fmt.Sprintf(`MATCH (a:%s {%s: $from})
MATCH (b:%s {%s: $to})
MERGE (a)-[r:%s]->(b)
RETURN count(r) AS edges`,
		quote(edge.From.Label), quote(edge.From.KeyProperty),
		quote(edge.To.Label), quote(edge.To.KeyProperty),
		quote(edge.Type))
}

// MergeEdge creates the edge if absent. Both endpoints must already exist.
func (s *Store) MergeEdge(ctx context.Context, edge store.Edge) (store.UpsertOutcome, error) {
	result, err := s.execute(ctx, mergeEdgeQuery(edge), map[string]any{
		"from": edge.From.ID,
		"to":   edge.To.ID,
	}, neo4j.ExecuteQueryWithWritersRouting())
	if err != nil {
		return 0, store.WrapTargetError(storeName, "merge edge", err, isConnectivity)
	}

	if len(result.Records) == 1 {
		if n, _, err := neo4j.GetRecordValue[int64](result.Records[0], "edges"); err == nil && n == 0 {
			return 0, store.NewTargetError(storeName, "merge edge",
				fmt.Errorf("%s %d or %s %d does not exist", edge.From.Label, edge.From.ID, edge.To.Label, edge.To.ID))
		}
	}

	if result.Summary.Counters().RelationshipsCreated() > 0 {
		return store.OutcomeInserted, nil
	}
	return store.OutcomeUnchanged, nil
}

// RunReadQuery runs a read-only Cypher query and returns its records as maps.
func (s *Store) RunReadQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	result, err := s.execute(ctx, query, params, neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, store.WrapTargetError(storeName, "read query", err, isConnectivity)
	}

	rows := make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}

func neighborCountsQuery(kind store.NodeKind, edgeType string) string {
	key := quote(kind.KeyProperty)
	return fmt.Sprintf(`MATCH (n:%s)-[:%s]->(m)
WITH n, count(DISTINCT m) AS neighbors
WHERE neighbors >= $min
RETURN n.%s AS id, coalesce(n.name, '') AS name, neighbors
ORDER BY neighbors DESC, id ASC`, quote(kind.Label), quote(edgeType), key)
}

func (s *Store) NeighborCounts(ctx context.Context, kind store.NodeKind, edgeType string, min int) ([]store.NeighborCount, error) {
	rows, err := s.RunReadQuery(ctx, neighborCountsQuery(kind, edgeType), map[string]any{"min": int64(min)})
	if err != nil {
		return nil, err
	}

	out := make([]store.NeighborCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.NeighborCount{
			ID:        asInt64(row["id"]),
			Name:      asString(row["name"]),
			Neighbors: asInt64(row["neighbors"]),
		})
	}
	return out, nil
}

func sharedNeighborPairsQuery(kind store.NodeKind, edgeType string, limit int) string {
	label, key, rel := quote(kind.Label), quote(kind.KeyProperty), quote(edgeType)
	query := fmt.Sprintf(`MATCH (a:%s)-[:%s]->(m)<-[:%s]-(b:%s)
WHERE a.%s < b.%s
WITH a, b, count(DISTINCT m) AS shared
WHERE shared > $minShared
RETURN a.%s AS from_id, coalesce(a.name, '') AS from_name,
       b.%s AS to_id, coalesce(b.name, '') AS to_name, shared
ORDER BY shared DESC, from_id ASC, to_id ASC`,
		label, rel, rel, label, key, key, key, key)
	if limit > 0 {
		query += "\nLIMIT $limit"
	}
	return query
}

func (s *Store) SharedNeighborPairs(ctx context.Context, kind store.NodeKind, edgeType string, minShared, limit int) ([]store.NeighborPair, error) {
	rows, err := s.RunReadQuery(ctx, sharedNeighborPairsQuery(kind, edgeType, limit), map[string]any{
		"minShared": int64(minShared),
		"limit":     int64(limit),
	})
	if err != nil {
		return nil, err
	}

	out := make([]store.NeighborPair, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.NeighborPair{
			FromID:   asInt64(row["from_id"]),
			FromName: asString(row["from_name"]),
			ToID:     asInt64(row["to_id"]),
			ToName:   asString(row["to_name"]),
			Shared:   asInt64(row["shared"]),
		})
	}
	return out, nil
}

// EnsureConstraints makes the key property of every kind unique.
func (s *Store) EnsureConstraints(ctx context.Context, kinds ...store.NodeKind) error {
	for _, kind := range kinds {
		name := strings.ToLower(kind.Label) + "_" + kind.KeyProperty + "_unique"
		query := fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
			quote(name), quote(kind.Label), quote(kind.KeyProperty))
		if _, err := s.execute(ctx, query, nil, neo4j.ExecuteQueryWithWritersRouting()); err != nil {
			return store.WrapTargetError(storeName, "create constraint "+name, err, isConnectivity)
		}
	}
	s.logger.Infof("Ensured %d graph uniqueness constraints", len(kinds))
	return nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

var _ store.GraphStore = (*Store)(nil)
