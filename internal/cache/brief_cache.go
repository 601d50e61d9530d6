// Package cache provides a Redis-backed cache for assembled briefs.
// Entries are invalidated on every successful mutation for the
// project, so a hit is always consistent with the confirmed graph.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"briefforge/api/internal/brief"
)

// BriefCache caches assembled brief documents keyed by project.
type BriefCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBriefCache connects to Redis and verifies the connection.
func NewBriefCache(redisURL string, ttl time.Duration) (*BriefCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewBriefCacheWithClient(client, ttl), nil
}

// NewBriefCacheWithClient wraps an existing client.
func NewBriefCacheWithClient(client *redis.Client, ttl time.Duration) *BriefCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &BriefCache{client: client, ttl: ttl}
}

func (c *BriefCache) key(projectID string) string {
	return "brief:" + projectID
}

// Get returns the cached document for the project, ok=false on miss.
// Redis being down reads as a miss, never an error.
func (c *BriefCache) Get(ctx context.Context, projectID string) (brief.Document, bool) {
	payload, err := c.client.Get(ctx, c.key(projectID)).Bytes()
	if err != nil {
		return brief.Document{}, false
	}
	var doc brief.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return brief.Document{}, false
	}
	return doc, true
}

// Set stores the document under the cache TTL.
func (c *BriefCache) Set(ctx context.Context, projectID string, doc brief.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cached brief: %w", err)
	}
	if err := c.client.Set(ctx, c.key(projectID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache brief: %w", err)
	}
	return nil
}

// Invalidate drops the project's cached brief. Missing keys are fine.
func (c *BriefCache) Invalidate(ctx context.Context, projectID string) error {
	if err := c.client.Del(ctx, c.key(projectID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidate brief cache: %w", err)
	}
	return nil
}

// Ping reports cache availability.
func (c *BriefCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
