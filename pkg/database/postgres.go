package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL represents a PostgreSQL database connection
type PostgreSQL struct {
	pool *pgxpool.Pool
}

// PostgreSQLConfig describes the system-of-record connection. When URL is set
// it takes precedence over the individual fields.
type PostgreSQLConfig struct {
	URL               string        `yaml:"url"`
	User              string        `yaml:"user"`
	Password          string        `yaml:"password"`
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	Database          string        `yaml:"database"`
	SSLMode           string        `yaml:"sslmode"`
	MaxConnections    int32         `yaml:"max_connections"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// DefaultPostgreSQLConfig returns a configuration for local development
func DefaultPostgreSQLConfig() PostgreSQLConfig {
	return PostgreSQLConfig{
		User:              "postgres",
		Host:              "localhost",
		Port:              5432,
		Database:          "pokerstars",
		SSLMode:           "disable",
		MaxConnections:    10,
		ConnectionTimeout: 5 * time.Second,
	}
}

// Validate reports the first missing required setting.
func (cfg PostgreSQLConfig) Validate() error {
	if cfg.URL != "" {
		return nil
	}
	if cfg.Database == "" {
		return fmt.Errorf("postgres database name is required")
	}
	if cfg.Host == "" {
		return fmt.Errorf("postgres host is required")
	}
	if cfg.User == "" {
		return fmt.Errorf("postgres user is required")
	}
	return nil
}

func (cfg PostgreSQLConfig) poolConfig() (*pgxpool.Config, error) {
	if cfg.URL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database url: %w", err)
		}
		if cfg.MaxConnections > 0 {
			poolConfig.MaxConns = cfg.MaxConnections
		}
		return poolConfig, nil
	}

	// Set fields individually so special characters in passwords survive
	poolConfig, err := pgxpool.ParseConfig("")
	if err != nil {
		return nil, fmt.Errorf("failed to create connection config: %w", err)
	}

	poolConfig.ConnConfig.Host = cfg.Host
	poolConfig.ConnConfig.Port = uint16(cfg.Port)
	poolConfig.ConnConfig.Database = cfg.Database
	poolConfig.ConnConfig.User = cfg.User
	poolConfig.ConnConfig.Password = cfg.Password
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectionTimeout

	if cfg.SSLMode == "disable" {
		poolConfig.ConnConfig.TLSConfig = nil
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	return poolConfig, nil
}

// NewPostgreSQL opens a pool and verifies it with a ping.
func NewPostgreSQL(ctx context.Context, cfg PostgreSQLConfig) (*PostgreSQL, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgreSQL{pool: pool}, nil
}

// Pool returns the underlying connection pool
func (db *PostgreSQL) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection
func (db *PostgreSQL) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
