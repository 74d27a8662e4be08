package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

// CassandraConfig holds the partitioned store connection configuration
type CassandraConfig struct {
	Hosts       []string      `yaml:"hosts"`
	Port        int           `yaml:"port"`
	Keyspace    string        `yaml:"keyspace"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Consistency string        `yaml:"consistency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DefaultCassandraConfig returns a default configuration for local development
func DefaultCassandraConfig() CassandraConfig {
	return CassandraConfig{
		Hosts:       []string{"localhost"},
		Port:        9042,
		Keyspace:    "pokerstars",
		Consistency: "quorum",
		Timeout:     10 * time.Second,
	}
}

// Cassandra wraps a gocql session. Sessions are safe for concurrent use.
type Cassandra struct {
	session *gocql.Session
}

// ParseConsistency maps a configuration value to a gocql consistency level.
func ParseConsistency(s string) (gocql.Consistency, error) {
	if s == "" {
		return gocql.Quorum, nil
	}
	c, err := gocql.ParseConsistencyWrapper(strings.ToUpper(s))
	if err != nil {
		return gocql.Quorum, fmt.Errorf("invalid cassandra consistency %q: %w", s, err)
	}
	return c, nil
}

// NewCassandra creates a session against the configured keyspace.
func NewCassandra(cfg CassandraConfig) (*Cassandra, error) {
	if len(cfg.Hosts) == 0 {
		return nil, fmt.Errorf("at least one cassandra host is required")
	}
	if cfg.Keyspace == "" {
		return nil, fmt.Errorf("cassandra keyspace is required")
	}

	consistency, err := ParseConsistency(cfg.Consistency)
	if err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	if cfg.Port > 0 {
		cluster.Port = cfg.Port
	}
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = consistency
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
		cluster.ConnectTimeout = cfg.Timeout
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	return &Cassandra{session: session}, nil
}

// Session returns the underlying session
func (c *Cassandra) Session() *gocql.Session {
	return c.session
}

// Close closes the session
func (c *Cassandra) Close() {
	if c.session != nil {
		c.session.Close()
	}
}
