package database

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jConfig holds the graph store connection configuration
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DefaultNeo4jConfig returns a default configuration for local development
func DefaultNeo4jConfig() Neo4jConfig {
	return Neo4jConfig{
		URI:      "neo4j://localhost:7687",
		Username: "neo4j",
		Database: "neo4j",
	}
}

// Neo4j wraps a verified driver. The driver is safe for concurrent use;
// sessions are not and are opened per operation.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4j creates a driver and verifies connectivity.
func NewNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4j, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j uri is required")
	}

	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	return &Neo4j{driver: driver, database: cfg.Database}, nil
}

// Driver returns the underlying driver
func (n *Neo4j) Driver() neo4j.DriverWithContext {
	return n.driver
}

// DatabaseName returns the target database, empty for the server default.
func (n *Neo4j) DatabaseName() string {
	return n.database
}

// Close closes the driver
func (n *Neo4j) Close(ctx context.Context) error {
	if n.driver == nil {
		return nil
	}
	return n.driver.Close(ctx)
}
