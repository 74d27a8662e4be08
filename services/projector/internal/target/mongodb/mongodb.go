// Package mongodb projects documents into MongoDB collections keyed by the
// derived key in _id.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

const storeName = "mongodb"

// Store is a store.DocumentStore backed by one MongoDB database.
type Store struct {
	db     *mongo.Database
	logger *logger.Logger
}

// New creates a Store. The database handle is safe for concurrent use.
func New(db *mongo.Database, logger *logger.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Name() string { return storeName }

// Ping treats any failure to reach the primary as unavailability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return store.NewUnavailableError(storeName, "ping", err)
	}
	return nil
}

func isConnectivity(err error) bool {
	return mongo.IsNetworkError(err) || errors.Is(err, mongo.ErrClientDisconnected)
}

// UpsertByKey replaces the document at its key, inserting it if absent. The
// server skips identical replacements, which is reported as unchanged. A
// duplicate key error means a concurrent writer inserted first; the write is
// retried as a plain replacement.
func (s *Store) UpsertByKey(ctx context.Context, doc store.Document) (store.UpsertOutcome, error) {
	coll := s.db.Collection(doc.Collection)
	filter := bson.D{{Key: "_id", Value: doc.Key}}
	body := toBSON(doc.Fields)

	res, err := coll.ReplaceOne(ctx, filter, body, options.Replace().SetUpsert(true))
	if err != nil && mongo.IsDuplicateKeyError(err) {
		s.logger.Debugf("Upsert race on %s/%s, retrying as replacement", doc.Collection, doc.Key)
		res, err = coll.ReplaceOne(ctx, filter, body)
		if err == nil && res.MatchedCount == 0 {
			return 0, store.NewTargetError(storeName, "upsert", fmt.Errorf("%s/%s: %w", doc.Collection, doc.Key, store.ErrStaleWrite))
		}
		if err == nil && res.ModifiedCount == 0 {
			// The concurrent writer already stored identical content
			return store.OutcomeUpdated, nil
		}
	}
	if err != nil {
		return 0, store.WrapTargetError(storeName, "upsert", err, isConnectivity)
	}
	return outcomeOf(res), nil
}

func outcomeOf(res *mongo.UpdateResult) store.UpsertOutcome {
	switch {
	case res.UpsertedCount > 0:
		return store.OutcomeInserted
	case res.ModifiedCount > 0:
		return store.OutcomeUpdated
	default:
		return store.OutcomeUnchanged
	}
}

// toBSON orders fields by name so identical documents encode identically.
func toBSON(fields store.Fields) bson.D {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: fields[k]})
	}
	return doc
}

var operators = map[store.Operator]string{
	store.OpEq:  "$eq",
	store.OpGt:  "$gt",
	store.OpGte: "$gte",
	store.OpLt:  "$lt",
	store.OpLte: "$lte",
}

// buildFilter renders conditions as a query document; conditions on the same
// field are combined into one operator document.
func buildFilter(conds []store.Condition) (bson.D, error) {
	filter := bson.D{}
	index := make(map[string]int)

	for _, c := range conds {
		op, ok := operators[c.Op]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported operator %q", store.ErrInvalidArgument, c.Op)
		}
		i, seen := index[c.Field]
		if !seen {
			index[c.Field] = len(filter)
			filter = append(filter, bson.E{Key: c.Field, Value: bson.D{{Key: op, Value: c.Value}}})
			continue
		}
		ops := filter[i].Value.(bson.D)
		filter[i].Value = append(ops, bson.E{Key: op, Value: c.Value})
	}
	return filter, nil
}

func (s *Store) Find(ctx context.Context, collection string, query store.Query) ([]store.Fields, error) {
	filter, err := buildFilter(query.Conditions)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 0}})
	if query.SortField != "" {
		dir := 1
		if query.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: query.SortField, Value: dir}})
	}
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, store.WrapTargetError(storeName, "find "+collection, err, isConnectivity)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.WrapTargetError(storeName, "decode "+collection, err, isConnectivity)
	}

	out := make([]store.Fields, 0, len(docs))
	for _, d := range docs {
		out = append(out, normalize(d))
	}
	return out, nil
}

// buildPipeline groups matching documents by groupField summing sumField.
func buildPipeline(query store.Query, groupField, sumField string) (mongo.Pipeline, error) {
	filter, err := buildFilter(query.Conditions)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + groupField},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$" + sumField}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if query.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: query.Limit}})
	}
	return pipeline, nil
}

type groupResult struct {
	ID    any     `bson:"_id"`
	Total float64 `bson:"total"`
	Count int64   `bson:"count"`
}

func (s *Store) SumBy(ctx context.Context, collection string, query store.Query, groupField, sumField string) ([]store.Group, error) {
	pipeline, err := buildPipeline(query, groupField, sumField)
	if err != nil {
		return nil, err
	}

	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, store.WrapTargetError(storeName, "aggregate "+collection, err, isConnectivity)
	}
	defer cursor.Close(ctx)

	var results []groupResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, store.WrapTargetError(storeName, "decode "+collection, err, isConnectivity)
	}

	groups := make([]store.Group, 0, len(results))
	for _, r := range results {
		groups = append(groups, store.Group{Key: fmt.Sprint(r.ID), Total: r.Total, Count: r.Count})
	}
	return groups, nil
}

// normalize maps decoded BSON values back to the projection value types.
func normalize(doc bson.M) store.Fields {
	out := make(store.Fields, len(doc))
	for k, v := range doc {
		switch val := v.(type) {
		case bson.DateTime:
			out[k] = val.Time().UTC()
		case int32:
			out[k] = int64(val)
		case int:
			out[k] = int64(val)
		case bson.Decimal128:
			out[k] = val.String()
		default:
			out[k] = v
		}
	}
	return out
}

// EnsureIndexes creates the secondary indexes the analytical queries use.
func (s *Store) EnsureIndexes(ctx context.Context, collections map[string][]string) error {
	for collection, fields := range collections {
		models := make([]mongo.IndexModel, 0, len(fields))
		for _, f := range fields {
			models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
		}
		if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return store.WrapTargetError(storeName, "create indexes on "+collection, err, isConnectivity)
		}
	}
	s.logger.Infof("Ensured indexes on %d collections", len(collections))
	return nil
}

var _ store.DocumentStore = (*Store)(nil)
