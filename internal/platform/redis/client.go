package redis

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"leasekeeper/internal/platform/config"
)

// Client is the go-redis client used for the scheduler's run lock.
type Client struct {
	*redis.Client
}

// New parses cfg.URL, applies pool settings and pings the server. It returns
// nil, nil when no URL is configured. Pool statistics are exported on reg as
// gauges read at scrape time.
func New(ctx context.Context, cfg config.RedisConfig, reg prometheus.Registerer) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	applyPool(opts, cfg)

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	c := &Client{Client: client}
	if reg != nil {
		c.exportPoolStats(reg)
	}
	return c, nil
}

// applyPool overrides only the settings that are configured.
func applyPool(opts *redis.Options, cfg config.RedisConfig) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

func (c *Client) exportPoolStats(reg prometheus.Registerer) {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "leasekeeper_redis_pool_total_conns",
		Help: "Connections currently held by the redis pool",
	}, func() float64 { return float64(c.PoolStats().TotalConns) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "leasekeeper_redis_pool_idle_conns",
		Help: "Idle connections in the redis pool",
	}, func() float64 { return float64(c.PoolStats().IdleConns) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "leasekeeper_redis_pool_timeouts_total",
		Help: "Times a redis connection could not be obtained before the pool timeout",
	}, func() float64 { return float64(c.PoolStats().Timeouts) })
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
