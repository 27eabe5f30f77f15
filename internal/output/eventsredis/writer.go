// Package eventsredis pushes collected star events onto a Redis list for
// a downstream analysis run to drain.
package eventsredis

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"starguard/pkg/models"
)

// Config configures the Redis event writer.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Writer pushes star events onto a Redis list.
type Writer struct {
	client *redis.Client
	key    string
}

// NewWriter creates a Redis event writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Writer{client: client, key: cfg.Key}, nil
}

// WriteEvents pushes a batch of events in one pipeline round trip.
func (w *Writer) WriteEvents(events []*models.StarEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx := context.Background()
	pipe := w.client.Pipeline()
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		pipe.RPush(ctx, w.key, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis push failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (w *Writer) Close() error {
	return w.client.Close()
}
