package cassandra

import (
	"fmt"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

func TestEncodeBodyIsDeterministic(t *testing.T) {
	fields := store.Fields{
		"pot":       300.0,
		"hand_id":   int64(1),
		"day":       "2025-09-14",
		"played_at": time.Date(2025, 9, 14, 20, 0, 0, 0, time.UTC),
	}

	first, err := encodeBody(fields)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := encodeBody(fields)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, `{"day":"2025-09-14","hand_id":1,"played_at":"2025-09-14T20:00:00Z","pot":300}`, first)
}

func TestDecodeBody(t *testing.T) {
	fields, err := decodeBody(`{"hand_id":1,"pot":300.5,"modality":"holdem"}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, fields["hand_id"])
	assert.Equal(t, 300.5, fields["pot"])
	assert.Equal(t, "holdem", fields["modality"])

	_, err = decodeBody("{")
	assert.Error(t, err)
}

func TestStatements(t *testing.T) {
	assert.Contains(t, createTableStatement("hands_by_table_date"), "PRIMARY KEY ((owner_id, day), entity_id)")
	assert.Equal(t,
		"INSERT INTO hands_by_table_date (owner_id, day, entity_id, doc_key, body) VALUES (?, ?, ?, ?, ?)",
		insertStatement("hands_by_table_date"))
	assert.Equal(t,
		"SELECT body FROM transactions_by_user_date WHERE owner_id = ? AND day = ?",
		selectPartitionStatement("transactions_by_user_date"))
}

func TestCheckTable(t *testing.T) {
	assert.NoError(t, checkTable("hands_by_table_date"))
	assert.ErrorIs(t, checkTable("hands; DROP TABLE x"), store.ErrInvalidArgument)
	assert.ErrorIs(t, checkTable(""), store.ErrInvalidArgument)
}

func TestIsConnectivity(t *testing.T) {
	assert.True(t, isConnectivity(gocql.ErrNoConnections))
	assert.True(t, isConnectivity(fmt.Errorf("query: %w", gocql.ErrSessionClosed)))
	assert.False(t, isConnectivity(gocql.ErrNotFound))
}
