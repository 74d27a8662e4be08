package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestResolvePassword(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, StorePassword("neo4j", "s3cret"))

	tests := []struct {
		name       string
		store      string
		configured string
		useKeyring bool
		want       string
	}{
		{"configured wins", "neo4j", "plain", true, "plain"},
		{"keyring disabled", "neo4j", "", false, ""},
		{"keyring lookup", "neo4j", "", true, "s3cret"},
		{"missing entry", "cassandra", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePassword(tt.store, tt.configured, tt.useKeyring)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostgreSQLConfigValidate(t *testing.T) {
	assert.NoError(t, PostgreSQLConfig{URL: "postgres://u@h/db"}.Validate())
	assert.NoError(t, DefaultPostgreSQLConfig().Validate())

	cfg := DefaultPostgreSQLConfig()
	cfg.Host = ""
	assert.EqualError(t, cfg.Validate(), "postgres host is required")
}

func TestPostgreSQLPoolConfigFromFields(t *testing.T) {
	cfg := DefaultPostgreSQLConfig()
	cfg.Password = "p@ss:/word"

	pc, err := cfg.poolConfig()
	require.NoError(t, err)
	assert.Equal(t, "localhost", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5432), pc.ConnConfig.Port)
	assert.Equal(t, "p@ss:/word", pc.ConnConfig.Password)
	assert.Equal(t, int32(10), pc.MaxConns)
}

func TestParseConsistency(t *testing.T) {
	c, err := ParseConsistency("local_quorum")
	require.NoError(t, err)
	assert.Equal(t, "LOCAL_QUORUM", c.String())

	_, err = ParseConsistency("sometimes")
	assert.Error(t, err)
}

func TestRedisAddrs(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, []string{"localhost:6379"}, cfg.addrs())

	cfg.Addrs = []string{"cache-a:6379", "cache-b:6379"}
	cfg.MasterName = "primary"
	opts := cfg.universalOptions()
	assert.Equal(t, cfg.Addrs, opts.Addrs)
	assert.Equal(t, "primary", opts.MasterName)
	assert.Equal(t, 5*time.Minute, opts.ConnMaxIdleTime)
}
