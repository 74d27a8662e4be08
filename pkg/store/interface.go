package store

import (
	"context"
	"fmt"
	"time"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
)

// ============================================================================
// Shared value types
// ============================================================================

// Fields is the flat field set of a projected document. Values are limited to
// string, float64, int64, bool and time.Time (UTC, millisecond precision).
type Fields map[string]any

// UpsertOutcome classifies the effect of an idempotent write.
type UpsertOutcome int

const (
	OutcomeInserted UpsertOutcome = iota
	OutcomeUpdated
	OutcomeUnchanged
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Document is one entity rendered for a document collection.
type Document struct {
	Collection string
	// Key is the derived key; for entity mirrors it is the source primary key.
	Key    string
	Fields Fields
}

// PartitionKey is the composite key of a partitioned document.
type PartitionKey struct {
	OwnerID  int64
	Day      string // yyyy-mm-dd, UTC
	EntityID int64
}

// String renders the key as "<owner>_<day>_<entity>".
func (k PartitionKey) String() string {
	return fmt.Sprintf("%d_%s_%d", k.OwnerID, k.Day, k.EntityID)
}

// PartitionedDocument is one entity rendered for a partitioned table.
type PartitionedDocument struct {
	Table  string
	Key    PartitionKey
	Fields Fields
}

// NodeKind is a node label and the property holding its business key.
type NodeKind struct {
	Label       string
	KeyProperty string
}

// NodeRef identifies a graph node by label and business key.
type NodeRef struct {
	Label string
	// KeyProperty is the node property holding the business key.
	KeyProperty string
	ID          int64
}

// Kind returns the label and key property of the node.
func (r NodeRef) Kind() NodeKind {
	return NodeKind{Label: r.Label, KeyProperty: r.KeyProperty}
}

// Node is a graph node with display attributes.
type Node struct {
	NodeRef
	Attributes Fields
}

// Edge is a directed relationship between two nodes.
type Edge struct {
	Type string
	From NodeRef
	To   NodeRef
}

// ============================================================================
// Record store
// ============================================================================

// Filter narrows a fetch by foreign key. Zero values mean no filter.
type Filter struct {
	TableID int64
	UserID  int64
}

// RecordSource reads typed rows from the system of record.
type RecordSource interface {
	// FetchEntities returns all rows of entity matching filter. Failures are
	// reported as ErrSourceUnavailable.
	FetchEntities(ctx context.Context, entity models.EntityType, filter Filter) ([]models.SourceRow, error)
}

// BalanceSource reads the authoritative balance of one user.
type BalanceSource interface {
	// Balance returns ErrNotFound when the user does not exist.
	Balance(ctx context.Context, userID int64) (float64, error)
}

// ============================================================================
// Projection targets
// ============================================================================

// Target is the part every projection store shares.
type Target interface {
	// Name identifies the store in logs, metrics and results.
	Name() string
	// Ping fails with ErrTargetUnavailable when the store cannot be reached.
	Ping(ctx context.Context) error
}

// Operator is a comparison used in a Condition.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

// Condition compares a document field against a value.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Query is a conjunctive filter with optional ordering and limit.
type Query struct {
	Conditions []Condition
	SortField  string
	Descending bool
	// Limit of zero means no limit.
	Limit int
}

// Group is one bucket of a grouped sum.
type Group struct {
	Key   string
	Total float64
	Count int64
}

// DocumentStore holds denormalized documents keyed by derived key.
type DocumentStore interface {
	Target
	// UpsertByKey atomically inserts or replaces the document at its key.
	UpsertByKey(ctx context.Context, doc Document) (UpsertOutcome, error)
	Find(ctx context.Context, collection string, query Query) ([]Fields, error)
	// SumBy sums sumField over matching documents grouped by groupField,
	// ordered by descending total.
	SumBy(ctx context.Context, collection string, query Query, groupField, sumField string) ([]Group, error)
}

// PartitionedStore holds documents bucketed by owner and day. It only offers
// check-then-write, so upserts are at-least-once with the key as the
// de-duplication mechanism.
type PartitionedStore interface {
	Target
	UpsertPartitioned(ctx context.Context, doc PartitionedDocument) (UpsertOutcome, error)
	// FindPartition returns the documents of one (owner, day) partition
	// ordered by entity id.
	FindPartition(ctx context.Context, table string, ownerID int64, day string) ([]Fields, error)
}

// NeighborCount is the number of distinct neighbours of one node.
type NeighborCount struct {
	ID        int64
	Name      string
	Neighbors int64
}

// NeighborPair is an unordered pair of nodes sharing neighbours; FromID < ToID.
type NeighborPair struct {
	FromID   int64
	FromName string
	ToID     int64
	ToName   string
	Shared   int64
}

// GraphStore holds nodes and edges with merge semantics.
type GraphStore interface {
	Target
	// MergeNode creates the node if absent and sets its attributes.
	MergeNode(ctx context.Context, node Node) (UpsertOutcome, error)
	// MergeEdge creates the edge if absent. Both endpoints must exist.
	MergeEdge(ctx context.Context, edge Edge) (UpsertOutcome, error)
	// NeighborCounts returns nodes of kind having at least min distinct
	// neighbours over edgeType, ordered by descending count.
	NeighborCounts(ctx context.Context, kind NodeKind, edgeType string, min int) ([]NeighborCount, error)
	// SharedNeighborPairs returns unordered pairs of kind nodes sharing more
	// than minShared neighbours over edgeType, ordered by descending count.
	// Self pairs are excluded and each pair appears once.
	SharedNeighborPairs(ctx context.Context, kind NodeKind, edgeType string, minShared, limit int) ([]NeighborPair, error)
}

// ============================================================================
// Cache
// ============================================================================

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	Name() string
	// Get reports ok=false for absent or expired keys.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value unconditionally.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Add stores value only when key is absent or expired and reports
	// whether it did.
	Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// RankEntry is one member of a ranking.
type RankEntry struct {
	Member string
	Score  float64
}

// Ranking keeps sorted scores per board.
type Ranking interface {
	Increment(ctx context.Context, board, member string, by float64) (float64, error)
	// Top returns the n highest scores in descending order.
	Top(ctx context.Context, board string, n int) ([]RankEntry, error)
}
