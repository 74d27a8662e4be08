package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/database"
)

// Config is the projector configuration. It is loaded from YAML, completed
// with defaults and then overridden from the environment.
type Config struct {
	Postgres  database.PostgreSQLConfig `yaml:"postgres"`
	MongoDB   database.MongoDBConfig    `yaml:"mongodb"`
	Neo4j     database.Neo4jConfig      `yaml:"neo4j"`
	Cassandra database.CassandraConfig  `yaml:"cassandra"`
	Redis     database.RedisConfig      `yaml:"redis"`
	Sync      SyncConfig                `yaml:"sync"`
	Cache     CacheConfig               `yaml:"cache"`
	Logging   LoggingConfig             `yaml:"logging"`
	Metrics   MetricsConfig             `yaml:"metrics"`
	Keyring   KeyringConfig             `yaml:"keyring"`
}

type SyncConfig struct {
	// RowTimeout bounds each target write; a timeout is a per-row failure.
	RowTimeout        time.Duration `yaml:"row_timeout"`
	ConcurrentTargets bool          `yaml:"concurrent_targets"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Address string `yaml:"address"`
}

// KeyringConfig enables password lookup in the system keyring for stores
// whose password is not set in the file or environment.
type KeyringConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Default returns a configuration pointing every store at localhost.
func Default() *Config {
	return &Config{
		Postgres:  database.DefaultPostgreSQLConfig(),
		MongoDB:   database.DefaultMongoDBConfig(),
		Neo4j:     database.DefaultNeo4jConfig(),
		Cassandra: database.DefaultCassandraConfig(),
		Redis:     database.DefaultRedisConfig(),
		Sync: SyncConfig{
			RowTimeout:        5 * time.Second,
			ConcurrentTargets: true,
		},
		Cache:   CacheConfig{TTL: 5 * time.Minute},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the file at path (optional) and applies process environment overrides.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment source.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.applyDefaults()
	if err := config.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults fills zero values that a partial YAML file may leave behind.
func (c *Config) applyDefaults() {
	if c.Sync.RowTimeout <= 0 {
		c.Sync.RowTimeout = 5 * time.Second
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Cassandra.Port == 0 {
		c.Cassandra.Port = 9042
	}
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	// The public URL is preferred when both are present
	str("DATABASE_URL", &c.Postgres.URL)
	str("DATABASE_PUBLIC_URL", &c.Postgres.URL)

	str("MONGO_URI", &c.MongoDB.URI)
	str("MONGO_DATABASE", &c.MongoDB.Database)

	str("NEO4J_URI", &c.Neo4j.URI)
	str("NEO4J_USERNAME", &c.Neo4j.Username)
	str("NEO4J_PASSWORD", &c.Neo4j.Password)

	if v, ok := lookup("CASSANDRA_HOSTS"); ok && v != "" {
		var hosts []string
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hosts = append(hosts, h)
			}
		}
		c.Cassandra.Hosts = hosts
	}
	str("CASSANDRA_KEYSPACE", &c.Cassandra.Keyspace)
	str("CASSANDRA_USERNAME", &c.Cassandra.Username)
	str("CASSANDRA_PASSWORD", &c.Cassandra.Password)

	str("REDIS_HOST", &c.Redis.Host)
	str("REDIS_PASSWORD", &c.Redis.Password)
	if v, ok := lookup("REDIS_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_PORT %q: %w", v, err)
		}
		c.Redis.Port = port
	}

	str("PROJECTOR_LOG_LEVEL", &c.Logging.Level)
	str("PROJECTOR_METRICS_ADDR", &c.Metrics.Address)
	return nil
}

// ResolveSecrets fills empty store passwords from the system keyring when enabled.
func (c *Config) ResolveSecrets() error {
	targets := []struct {
		store string
		dst   *string
	}{
		{"postgres", &c.Postgres.Password},
		{"neo4j", &c.Neo4j.Password},
		{"cassandra", &c.Cassandra.Password},
		{"redis", &c.Redis.Password},
	}

	for _, t := range targets {
		password, err := database.ResolvePassword(t.store, *t.dst, c.Keyring.Enabled)
		if err != nil {
			return err
		}
		*t.dst = password
	}
	return nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if err := c.Postgres.Validate(); err != nil {
		return err
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Sync.RowTimeout <= 0 {
		return fmt.Errorf("sync.row_timeout must be positive")
	}
	return nil
}
