package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the cache server. Setting Addrs switches to a
// cluster client, or to a failover client when MasterName is also set;
// otherwise Host and Port name a single server.
type RedisConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Addrs        []string      `yaml:"addrs"`
	MasterName   string        `yaml:"master_name"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
}

// DefaultRedisConfig returns a default configuration for local development
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         "localhost",
		Port:         6379,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxIdleTime:  5 * time.Minute,
		DialTimeout:  5 * time.Second,
	}
}

// addrs returns the seed addresses the client connects to.
func (cfg RedisConfig) addrs() []string {
	if len(cfg.Addrs) > 0 {
		return cfg.Addrs
	}
	return []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))}
}

func (cfg RedisConfig) universalOptions() *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:           cfg.addrs(),
		MasterName:      cfg.MasterName,
		Username:        cfg.Username,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxIdleTime: cfg.MaxIdleTime,
		DialTimeout:     cfg.DialTimeout,
	}
}

// Redis holds a connected cache client
type Redis struct {
	client redis.UniversalClient
}

// NewRedis connects to the cache and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewUniversalClient(cfg.universalOptions())

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %v: %w", cfg.addrs(), err)
	}

	return &Redis{client: client}, nil
}

// Client returns the underlying client
func (r *Redis) Client() redis.UniversalClient {
	return r.client
}

// Close closes the client and its pool.
func (r *Redis) Close() {
	if r.client != nil {
		_ = r.client.Close()
	}
}
