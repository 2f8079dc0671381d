package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/adapters/config"
	"github.com/hat3ck/cryptosense/pkg/logger"
)

// Client wraps a RedLock manager used to serialize scheduled jobs across
// replicas, plus a plain Redis client for health checks
type Client struct {
	lockManager *redlock.RedLock
	conn        *redis.Client
}

// New creates new Redis client with RedLock support
func New(cfg *config.RedisConfig) (*Client, error) {
	addr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lockManager, err := redlock.NewRedLock(ctx, []string{addr})
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	conn := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis connection established (redlock)",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return &Client{lockManager: lockManager, conn: conn}, nil
}

// Health checks the Redis connection
func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.conn.Ping(ctx).Err()
}

// NewJobLock returns a lock for the named scheduled job
func (c *Client) NewJobLock(jobName string, ttl time.Duration) *JobLock {
	return &JobLock{
		lockManager: c.lockManager,
		lockName:    fmt.Sprintf("job:lock:%s", jobName),
		ttl:         ttl,
	}
}

// Close closes redis connections
func (c *Client) Close() error {
	if c.conn != nil {
		logger.Info("closing redis connection")
		return c.conn.Close()
	}
	return nil
}
