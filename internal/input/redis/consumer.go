// Package redis consumes star event snapshots from a Redis list.
package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"starguard/internal/snapshot"
	"starguard/pkg/models"
)

// Config configures the Redis consumer.
type Config struct {
	Addr         string
	Password     string
	DB           int
	Key          string
	BlockTimeout time.Duration
}

// Consumer pops star events pushed by the collect pipeline.
type Consumer struct {
	client       *redis.Client
	key          string
	blockTimeout time.Duration
}

// NewConsumer creates a Redis consumer for list-based queues.
func NewConsumer(cfg Config) (*Consumer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	if cfg.BlockTimeout == 0 {
		cfg.BlockTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Consumer{
		client:       client,
		key:          cfg.Key,
		blockTimeout: cfg.BlockTimeout,
	}, nil
}

// Pop pops one raw message from the list. A nil result with nil error
// means the list stayed empty for the block timeout.
func (c *Consumer) Pop(ctx context.Context) ([]byte, error) {
	res, err := c.client.BLPop(ctx, c.blockTimeout, c.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// Drain pops until the list stays empty for one block timeout and parses
// every message into a star event. The whole snapshot must parse; a bad
// record aborts the drain with that record's error.
func (c *Consumer) Drain(ctx context.Context) ([]*models.StarEvent, error) {
	var out []*models.StarEvent
	for {
		raw, err := c.Pop(ctx)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return out, nil
		}
		ev, err := snapshot.ParseRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		out = append(out, ev)
	}
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.client.Close()
}
