//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/gocql/gocql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/database"
)

const (
	DefaultMongoDBImage   = "mongo:7.0"
	DefaultCassandraImage = "cassandra:4.1"
	DefaultNeo4jImage     = "neo4j:5.26-community"

	mongoPort     nat.Port = "27017/tcp"
	cassandraPort nat.Port = "9042/tcp"
	boltPort      nat.Port = "7687/tcp"

	testDatabase = "pokerstars_it"
	neo4jPass    = "integration-secret"
)

// SkipIfNoDocker skips the test when no Docker daemon is reachable.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable checks if the Docker daemon is running and accessible.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// CleanupContainer terminates container, logging instead of failing.
func CleanupContainer(t *testing.T, container testcontainers.Container) {
	t.Helper()

	if container == nil {
		return
	}
	if err := container.Terminate(context.Background()); err != nil {
		t.Logf("Warning: failed to terminate container: %v", err)
	}
}

// Option tunes a container before it starts.
type Option func(*containerConfig)

type containerConfig struct {
	image        string
	startTimeout time.Duration
}

// WithImage overrides the default image.
func WithImage(image string) Option {
	return func(c *containerConfig) {
		c.image = image
	}
}

// WithStartTimeout bounds how long the container may take to become ready.
func WithStartTimeout(timeout time.Duration) Option {
	return func(c *containerConfig) {
		c.startTimeout = timeout
	}
}

func configure(image string, timeout time.Duration, opts []Option) containerConfig {
	cfg := containerConfig{image: image, startTimeout: timeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func start(ctx context.Context, req testcontainers.ContainerRequest) (testcontainers.Container, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s container: %w", req.Image, err)
	}
	return container, nil
}

func hostPort(ctx context.Context, container testcontainers.Container, port nat.Port) (string, int, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("get container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", 0, fmt.Errorf("get mapped port: %w", err)
	}
	n, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return "", 0, fmt.Errorf("parse mapped port %q: %w", mapped.Port(), err)
	}
	return host, n, nil
}

// MongoDBContainer is a running document store.
type MongoDBContainer struct {
	testcontainers.Container
	Config database.MongoDBConfig
}

// NewMongoDBContainer starts a single MongoDB server.
func NewMongoDBContainer(ctx context.Context, opts ...Option) (*MongoDBContainer, error) {
	cfg := configure(DefaultMongoDBImage, 90*time.Second, opts)

	container, err := start(ctx, testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{string(mongoPort)},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(mongoPort),
			wait.ForLog("Waiting for connections"),
		).WithStartupTimeout(cfg.startTimeout),
	})
	if err != nil {
		return nil, err
	}

	host, port, err := hostPort(ctx, container, mongoPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	mc := database.DefaultMongoDBConfig()
	mc.URI = fmt.Sprintf("mongodb://%s:%d/?directConnection=true", host, port)
	mc.Database = testDatabase
	return &MongoDBContainer{Container: container, Config: mc}, nil
}

// CassandraContainer is a running single-node cluster with the test keyspace.
type CassandraContainer struct {
	testcontainers.Container
	Config database.CassandraConfig
}

// NewCassandraContainer starts a single Cassandra node and creates the test
// keyspace with replication factor one.
func NewCassandraContainer(ctx context.Context, opts ...Option) (*CassandraContainer, error) {
	cfg := configure(DefaultCassandraImage, 3*time.Minute, opts)

	container, err := start(ctx, testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{string(cassandraPort)},
		Env: map[string]string{
			"MAX_HEAP_SIZE":  "512M",
			"HEAP_NEWSIZE":   "128M",
			"CASSANDRA_DC":   "datacenter1",
			"CASSANDRA_RACK": "rack1",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(cassandraPort),
			wait.ForLog("Starting listening for CQL clients"),
		).WithStartupTimeout(cfg.startTimeout),
	})
	if err != nil {
		return nil, err
	}

	host, port, err := hostPort(ctx, container, cassandraPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	if err := createKeyspace(ctx, host, port, testDatabase); err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	cc := database.DefaultCassandraConfig()
	cc.Hosts = []string{host}
	cc.Port = port
	cc.Keyspace = testDatabase
	cc.Consistency = "one"
	cc.Timeout = 30 * time.Second
	return &CassandraContainer{Container: container, Config: cc}, nil
}

func createKeyspace(ctx context.Context, host string, port int, keyspace string) error {
	cluster := gocql.NewCluster(host)
	cluster.Port = port
	cluster.Consistency = gocql.One
	cluster.Timeout = 30 * time.Second
	cluster.ConnectTimeout = 30 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("connect to cassandra: %w", err)
	}
	defer session.Close()

	stmt := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, keyspace)
	if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create keyspace %s: %w", keyspace, err)
	}
	return nil
}

// Neo4jContainer is a running graph store.
type Neo4jContainer struct {
	testcontainers.Container
	Config database.Neo4jConfig
}

// NewNeo4jContainer starts a Neo4j community server. The bolt scheme is used
// because the server advertises its in-container port for routing.
func NewNeo4jContainer(ctx context.Context, opts ...Option) (*Neo4jContainer, error) {
	cfg := configure(DefaultNeo4jImage, 2*time.Minute, opts)

	container, err := start(ctx, testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{string(boltPort)},
		Env: map[string]string{
			"NEO4J_AUTH": "neo4j/" + neo4jPass,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(boltPort),
			wait.ForLog("Started."),
		).WithStartupTimeout(cfg.startTimeout),
	})
	if err != nil {
		return nil, err
	}

	host, port, err := hostPort(ctx, container, boltPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}

	nc := database.DefaultNeo4jConfig()
	nc.URI = fmt.Sprintf("bolt://%s:%d", host, port)
	nc.Password = neo4jPass
	return &Neo4jContainer{Container: container, Config: nc}, nil
}
