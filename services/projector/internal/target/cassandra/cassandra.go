// Package cassandra projects partitioned documents into Cassandra tables
// partitioned by (owner_id, day) and clustered by entity_id.
package cassandra

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/goccy/go-json"
	"github.com/gocql/gocql"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

const storeName = "cassandra"

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store is a store.PartitionedStore backed by a gocql session.
type Store struct {
	session *gocql.Session
	logger  *logger.Logger
}

// New creates a Store. Sessions are safe for concurrent use.
func New(session *gocql.Session, logger *logger.Logger) *Store {
	return &Store{session: session, logger: logger}
}

func (s *Store) Name() string { return storeName }

func (s *Store) Ping(ctx context.Context) error {
	var version string
	if err := s.session.Query(`SELECT release_version FROM system.local`).WithContext(ctx).Scan(&version); err != nil {
		return store.NewUnavailableError(storeName, "ping", err)
	}
	return nil
}

func isConnectivity(err error) bool {
	var unavailable *gocql.RequestErrUnavailable
	return errors.Is(err, gocql.ErrNoConnections) ||
		errors.Is(err, gocql.ErrConnectionClosed) ||
		errors.Is(err, gocql.ErrSessionClosed) ||
		errors.As(err, &unavailable)
}

func checkTable(table string) error {
	if !identifier.MatchString(table) {
		return fmt.Errorf("%w: invalid table name %q", store.ErrInvalidArgument, table)
	}
	return nil
}

func createTableStatement(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	owner_id bigint,
	day text,
	entity_id bigint,
	doc_key text,
	body text,
	PRIMARY KEY ((owner_id, day), entity_id)
) WITH CLUSTERING ORDER BY (entity_id ASC)`, table)
}

func selectOneStatement(table string) string {
	return fmt.Sprintf(`SELECT body FROM %s WHERE owner_id = ? AND day = ? AND entity_id = ?`, table)
}

func insertStatement(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (owner_id, day, entity_id, doc_key, body) VALUES (?, ?, ?, ?, ?)`, table)
}

func selectPartitionStatement(table string) string {
	return fmt.Sprintf(`SELECT body FROM %s WHERE owner_id = ? AND day = ?`, table)
}

// encodeBody renders fields as JSON with sorted keys so identical documents
// produce identical bodies.
func encodeBody(fields store.Fields) (string, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeBody(body string) (store.Fields, error) {
	var fields store.Fields
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// UpsertPartitioned reads the current body at the key and writes only when it
// differs. Cassandra inserts are upserts by primary key, so a concurrent run
// can at worst double count an insert; it cannot create a second row.
func (s *Store) UpsertPartitioned(ctx context.Context, doc store.PartitionedDocument) (store.UpsertOutcome, error) {
	if err := checkTable(doc.Table); err != nil {
		return 0, err
	}

	body, err := encodeBody(doc.Fields)
	if err != nil {
		return 0, store.NewTargetError(storeName, "encode", err)
	}

	k := doc.Key
	outcome := store.OutcomeUpdated

	var existing string
	err = s.session.Query(selectOneStatement(doc.Table), k.OwnerID, k.Day, k.EntityID).WithContext(ctx).Scan(&existing)
	switch {
	case errors.Is(err, gocql.ErrNotFound):
		outcome = store.OutcomeInserted
	case err != nil:
		return 0, store.WrapTargetError(storeName, "read "+doc.Table, err, isConnectivity)
	case existing == body:
		return store.OutcomeUnchanged, nil
	}

	err = s.session.Query(insertStatement(doc.Table), k.OwnerID, k.Day, k.EntityID, k.String(), body).WithContext(ctx).Exec()
	if err != nil {
		return 0, store.WrapTargetError(storeName, "write "+doc.Table, err, isConnectivity)
	}
	return outcome, nil
}

func (s *Store) FindPartition(ctx context.Context, table string, ownerID int64, day string) ([]store.Fields, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	iter := s.session.Query(selectPartitionStatement(table), ownerID, day).WithContext(ctx).Iter()

	var (
		body string
		out  []store.Fields
	)
	for iter.Scan(&body) {
		fields, err := decodeBody(body)
		if err != nil {
			s.logger.Warnf("Skipping undecodable row in %s partition %d/%s: %v", table, ownerID, day, err)
			continue
		}
		out = append(out, fields)
	}
	if err := iter.Close(); err != nil {
		return nil, store.WrapTargetError(storeName, "read "+table, err, isConnectivity)
	}
	return out, nil
}

// EnsureTables creates the partitioned tables if they do not exist.
func (s *Store) EnsureTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if err := checkTable(table); err != nil {
			return err
		}
		if err := s.session.Query(createTableStatement(table)).WithContext(ctx).Exec(); err != nil {
			return store.WrapTargetError(storeName, "create table "+table, err, isConnectivity)
		}
	}
	s.logger.Infof("Ensured %d partitioned tables", len(tables))
	return nil
}

var _ store.PartitionedStore = (*Store)(nil)
