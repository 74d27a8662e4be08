// Package memstore provides in-memory implementations of the store
// boundaries. They honour the same upsert and merge semantics as the driver
// backed targets and can be taken offline to simulate connectivity loss.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

var errOffline = errors.New("connection refused")

// availability is embedded by every store to simulate outages.
type availability struct {
	mu   sync.RWMutex
	down bool
}

// SetDown takes the store offline or brings it back.
func (a *availability) SetDown(down bool) {
	a.mu.Lock()
	a.down = down
	a.mu.Unlock()
}

func (a *availability) isDown() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.down
}

// ============================================================================
// Record source
// ============================================================================

// Source is a static record store.
type Source struct {
	availability

	mu    sync.RWMutex
	rows  map[models.EntityType][]models.SourceRow
	reads int
}

// NewSource creates an empty Source.
func NewSource() *Source {
	return &Source{rows: make(map[models.EntityType][]models.SourceRow)}
}

// Add appends rows; each row is filed under its own entity type.
func (s *Source) Add(rows ...models.SourceRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.rows[r.Entity()] = append(s.rows[r.Entity()], r)
	}
}

// SetBalance replaces the stored balance of a user.
func (s *Source) SetBalance(userID int64, balance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows[models.EntityUser] {
		if u, ok := r.(models.User); ok && u.ID == userID {
			u.Balance = &balance
			s.rows[models.EntityUser][i] = u
		}
	}
}

// Reads returns how many queries the source has served.
func (s *Source) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

func (s *Source) FetchEntities(ctx context.Context, entity models.EntityType, filter store.Filter) ([]models.SourceRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.NewSourceError("fetch "+string(entity), err)
	}
	if s.isDown() {
		return nil, store.NewSourceError("fetch "+string(entity), errOffline)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	var out []models.SourceRow
	for _, r := range s.rows[entity] {
		if keep(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

func keep(r models.SourceRow, f store.Filter) bool {
	switch row := r.(type) {
	case models.Hand:
		return f.TableID == 0 || row.TableID == f.TableID
	case models.Transaction:
		return f.UserID == 0 || row.UserID == f.UserID
	case models.Seat:
		return (f.TableID == 0 || row.TableID == f.TableID) && (f.UserID == 0 || row.UserID == f.UserID)
	case models.User:
		return f.UserID == 0 || row.ID == f.UserID
	}
	return true
}

func (s *Source) Balance(ctx context.Context, userID int64) (float64, error) {
	if s.isDown() {
		return 0, store.NewSourceError("balance", errOffline)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	for _, r := range s.rows[models.EntityUser] {
		if u, ok := r.(models.User); ok && u.ID == userID {
			if u.Balance == nil {
				return 0, nil
			}
			return *u.Balance, nil
		}
	}
	return 0, fmt.Errorf("user %d: %w", userID, store.ErrNotFound)
}

// ============================================================================
// Document store
// ============================================================================

// FailFunc returns a non-nil error to make a write to key fail.
type FailFunc func(key string) error

// DocumentStore keeps collections of documents by key.
type DocumentStore struct {
	availability

	mu          sync.RWMutex
	collections map[string]map[string]store.Fields
	failOn      FailFunc
}

// NewDocumentStore creates an empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{collections: make(map[string]map[string]store.Fields)}
}

// FailOn installs a per-key write failure hook.
func (d *DocumentStore) FailOn(f FailFunc) {
	d.mu.Lock()
	d.failOn = f
	d.mu.Unlock()
}

func (d *DocumentStore) Name() string { return "memory-documents" }

func (d *DocumentStore) Ping(ctx context.Context) error {
	if d.isDown() {
		return store.NewUnavailableError(d.Name(), "ping", errOffline)
	}
	return nil
}

func (d *DocumentStore) UpsertByKey(ctx context.Context, doc store.Document) (store.UpsertOutcome, error) {
	if d.isDown() {
		return 0, store.NewUnavailableError(d.Name(), "upsert", errOffline)
	}
	if err := ctx.Err(); err != nil {
		return 0, store.NewTargetError(d.Name(), "upsert", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failOn != nil {
		if err := d.failOn(doc.Key); err != nil {
			return 0, store.NewTargetError(d.Name(), "upsert", err)
		}
	}

	coll, ok := d.collections[doc.Collection]
	if !ok {
		coll = make(map[string]store.Fields)
		d.collections[doc.Collection] = coll
	}

	existing, found := coll[doc.Key]
	switch {
	case !found:
		coll[doc.Key] = clone(doc.Fields)
		return store.OutcomeInserted, nil
	case reflect.DeepEqual(existing, doc.Fields):
		return store.OutcomeUnchanged, nil
	default:
		coll[doc.Key] = clone(doc.Fields)
		return store.OutcomeUpdated, nil
	}
}

// Get returns a copy of one document.
func (d *DocumentStore) Get(collection, key string) (store.Fields, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.collections[collection][key]
	if !ok {
		return nil, false
	}
	return clone(f), true
}

// Count returns the number of documents in a collection.
func (d *DocumentStore) Count(collection string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.collections[collection])
}

func (d *DocumentStore) snapshot(collection string) []store.Fields {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.collections[collection]))
	for k := range d.collections[collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	docs := make([]store.Fields, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, clone(d.collections[collection][k]))
	}
	return docs
}

func (d *DocumentStore) Find(ctx context.Context, collection string, query store.Query) ([]store.Fields, error) {
	if d.isDown() {
		return nil, store.NewUnavailableError(d.Name(), "find", errOffline)
	}
	return applyQuery(d.snapshot(collection), query), nil
}

func (d *DocumentStore) SumBy(ctx context.Context, collection string, query store.Query, groupField, sumField string) ([]store.Group, error) {
	if d.isDown() {
		return nil, store.NewUnavailableError(d.Name(), "aggregate", errOffline)
	}

	matched := applyQuery(d.snapshot(collection), store.Query{Conditions: query.Conditions})

	index := make(map[string]int)
	var groups []store.Group
	for _, doc := range matched {
		k := fmt.Sprint(doc[groupField])
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, store.Group{Key: k})
		}
		v, _ := toFloat(doc[sumField])
		groups[i].Total += v
		groups[i].Count++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Total != groups[j].Total {
			return groups[i].Total > groups[j].Total
		}
		return groups[i].Key < groups[j].Key
	})
	if query.Limit > 0 && len(groups) > query.Limit {
		groups = groups[:query.Limit]
	}
	return groups, nil
}

// ============================================================================
// Partitioned store
// ============================================================================

// PartitionedStore keeps documents by table and composite key.
type PartitionedStore struct {
	availability

	mu     sync.RWMutex
	tables map[string]map[store.PartitionKey]store.Fields
}

// NewPartitionedStore creates an empty PartitionedStore.
func NewPartitionedStore() *PartitionedStore {
	return &PartitionedStore{tables: make(map[string]map[store.PartitionKey]store.Fields)}
}

func (p *PartitionedStore) Name() string { return "memory-partitioned" }

func (p *PartitionedStore) Ping(ctx context.Context) error {
	if p.isDown() {
		return store.NewUnavailableError(p.Name(), "ping", errOffline)
	}
	return nil
}

func (p *PartitionedStore) UpsertPartitioned(ctx context.Context, doc store.PartitionedDocument) (store.UpsertOutcome, error) {
	if p.isDown() {
		return 0, store.NewUnavailableError(p.Name(), "upsert", errOffline)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	table, ok := p.tables[doc.Table]
	if !ok {
		table = make(map[store.PartitionKey]store.Fields)
		p.tables[doc.Table] = table
	}

	existing, found := table[doc.Key]
	switch {
	case !found:
		table[doc.Key] = clone(doc.Fields)
		return store.OutcomeInserted, nil
	case reflect.DeepEqual(existing, doc.Fields):
		return store.OutcomeUnchanged, nil
	default:
		table[doc.Key] = clone(doc.Fields)
		return store.OutcomeUpdated, nil
	}
}

// Count returns the number of documents in a table.
func (p *PartitionedStore) Count(table string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tables[table])
}

func (p *PartitionedStore) FindPartition(ctx context.Context, table string, ownerID int64, day string) ([]store.Fields, error) {
	if p.isDown() {
		return nil, store.NewUnavailableError(p.Name(), "find", errOffline)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var keys []store.PartitionKey
	for k := range p.tables[table] {
		if k.OwnerID == ownerID && k.Day == day {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].EntityID < keys[j].EntityID })

	out := make([]store.Fields, 0, len(keys))
	for _, k := range keys {
		out = append(out, clone(p.tables[table][k]))
	}
	return out, nil
}

// ============================================================================
// Graph store
// ============================================================================

type edgeKey struct {
	Type string
	From store.NodeRef
	To   store.NodeRef
}

// GraphStore keeps nodes by label and key and edges by endpoint pair.
type GraphStore struct {
	availability

	mu    sync.RWMutex
	nodes map[store.NodeRef]store.Fields
	edges map[edgeKey]struct{}
}

// NewGraphStore creates an empty GraphStore.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		nodes: make(map[store.NodeRef]store.Fields),
		edges: make(map[edgeKey]struct{}),
	}
}

func (g *GraphStore) Name() string { return "memory-graph" }

func (g *GraphStore) Ping(ctx context.Context) error {
	if g.isDown() {
		return store.NewUnavailableError(g.Name(), "ping", errOffline)
	}
	return nil
}

func (g *GraphStore) MergeNode(ctx context.Context, node store.Node) (store.UpsertOutcome, error) {
	if g.isDown() {
		return 0, store.NewUnavailableError(g.Name(), "merge node", errOffline)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	existing, found := g.nodes[node.NodeRef]
	if !found {
		g.nodes[node.NodeRef] = clone(node.Attributes)
		return store.OutcomeInserted, nil
	}

	merged := clone(existing)
	for k, v := range node.Attributes {
		merged[k] = v
	}
	if reflect.DeepEqual(existing, merged) {
		return store.OutcomeUnchanged, nil
	}
	g.nodes[node.NodeRef] = merged
	return store.OutcomeUpdated, nil
}

func (g *GraphStore) MergeEdge(ctx context.Context, edge store.Edge) (store.UpsertOutcome, error) {
	if g.isDown() {
		return 0, store.NewUnavailableError(g.Name(), "merge edge", errOffline)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	_, fromOK := g.nodes[edge.From]
	_, toOK := g.nodes[edge.To]
	if !fromOK || !toOK {
		return 0, store.NewTargetError(g.Name(), "merge edge", fmt.Errorf("%s endpoints missing", edge.Type))
	}

	k := edgeKey(edge)
	if _, found := g.edges[k]; found {
		return store.OutcomeUnchanged, nil
	}
	g.edges[k] = struct{}{}
	return store.OutcomeInserted, nil
}

// NodeCount returns the number of nodes with label.
func (g *GraphStore) NodeCount(label string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for ref := range g.nodes {
		if ref.Label == label {
			n++
		}
	}
	return n
}

// EdgeCount returns the number of edges of edgeType.
func (g *GraphStore) EdgeCount(edgeType string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for k := range g.edges {
		if k.Type == edgeType {
			n++
		}
	}
	return n
}

// neighbours returns, for every node of kind, the set of distinct nodes it
// points to over edgeType.
func (g *GraphStore) neighbours(kind store.NodeKind, edgeType string) map[store.NodeRef]map[store.NodeRef]struct{} {
	out := make(map[store.NodeRef]map[store.NodeRef]struct{})
	for k := range g.edges {
		if k.Type != edgeType || k.From.Kind() != kind {
			continue
		}
		if out[k.From] == nil {
			out[k.From] = make(map[store.NodeRef]struct{})
		}
		out[k.From][k.To] = struct{}{}
	}
	return out
}

func (g *GraphStore) name(ref store.NodeRef) string {
	if v, ok := g.nodes[ref]["name"].(string); ok {
		return v
	}
	return strconv.FormatInt(ref.ID, 10)
}

func (g *GraphStore) NeighborCounts(ctx context.Context, kind store.NodeKind, edgeType string, min int) ([]store.NeighborCount, error) {
	if g.isDown() {
		return nil, store.NewUnavailableError(g.Name(), "neighbor counts", errOffline)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []store.NeighborCount
	for ref, set := range g.neighbours(kind, edgeType) {
		if len(set) >= min {
			out = append(out, store.NeighborCount{ID: ref.ID, Name: g.name(ref), Neighbors: int64(len(set))})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Neighbors != out[j].Neighbors {
			return out[i].Neighbors > out[j].Neighbors
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (g *GraphStore) SharedNeighborPairs(ctx context.Context, kind store.NodeKind, edgeType string, minShared, limit int) ([]store.NeighborPair, error) {
	if g.isDown() {
		return nil, store.NewUnavailableError(g.Name(), "shared neighbor pairs", errOffline)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	sets := g.neighbours(kind, edgeType)
	refs := make([]store.NodeRef, 0, len(sets))
	for ref := range sets {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })

	var out []store.NeighborPair
	for i, a := range refs {
		for _, b := range refs[i+1:] {
			shared := 0
			for n := range sets[a] {
				if _, ok := sets[b][n]; ok {
					shared++
				}
			}
			if shared > minShared {
				out = append(out, store.NeighborPair{
					FromID: a.ID, FromName: g.name(a),
					ToID: b.ID, ToName: g.name(b),
					Shared: int64(shared),
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Shared > out[j].Shared })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ============================================================================
// Cache and ranking
// ============================================================================

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Cache is a TTL cache with check-on-read expiry and an injectable clock.
type Cache struct {
	availability

	mu      sync.Mutex
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewCache creates a Cache; a nil clock uses time.Now.
func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{now: now, entries: make(map[string]cacheEntry)}
}

func (c *Cache) Name() string { return "memory-cache" }

func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.isDown() {
		return "", false, store.NewUnavailableError(c.Name(), "get", errOffline)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.isDown() {
		return store.NewUnavailableError(c.Name(), "set", errOffline)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *Cache) Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if c.isDown() {
		return false, store.NewUnavailableError(c.Name(), "add", errOffline)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

// Ranking keeps scores per board.
type Ranking struct {
	mu     sync.Mutex
	boards map[string]map[string]float64
}

// NewRanking creates an empty Ranking.
func NewRanking() *Ranking {
	return &Ranking{boards: make(map[string]map[string]float64)}
}

func (r *Ranking) Increment(ctx context.Context, board, member string, by float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.boards[board] == nil {
		r.boards[board] = make(map[string]float64)
	}
	r.boards[board][member] += by
	return r.boards[board][member], nil
}

func (r *Ranking) Top(ctx context.Context, board string, n int) ([]store.RankEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]store.RankEntry, 0, len(r.boards[board]))
	for m, s := range r.boards[board] {
		out = append(out, store.RankEntry{Member: m, Score: s})
	}
	// Ties break on descending member like a sorted set's reverse range
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Member > out[j].Member
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
