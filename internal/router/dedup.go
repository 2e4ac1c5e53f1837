package router

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper suppresses redeliveries of provider messages that already went
// through the pipeline.
type Deduper interface {
	// MarkProcessed returns true when this is the first time the message
	// id is seen.
	MarkProcessed(ctx context.Context, providerMessageID string) (bool, error)
	// Unmark drops the marker so a queue redelivery runs the pipeline
	// again; called when processing fails transiently.
	Unmark(ctx context.Context, providerMessageID string) error
}

const dedupTTL = 24 * time.Hour

type redisDeduper struct {
	client *redis.Client
}

// NewRedisDeduper keys processed markers by provider message id. Markers
// expire after a day; the conversation store's unique index backstops
// anything redelivered later than that.
func NewRedisDeduper(client *redis.Client) Deduper {
	if client == nil {
		panic("router: redis client cannot be nil")
	}
	return &redisDeduper{client: client}
}

func (d *redisDeduper) MarkProcessed(ctx context.Context, providerMessageID string) (bool, error) {
	key := "processed:msg:" + providerMessageID
	first, err := d.client.SetNX(ctx, key, "1", dedupTTL).Result()
	if err != nil {
		return false, fmt.Errorf("router: mark processed: %w", err)
	}
	return first, nil
}

func (d *redisDeduper) Unmark(ctx context.Context, providerMessageID string) error {
	if err := d.client.Del(ctx, "processed:msg:"+providerMessageID).Err(); err != nil {
		return fmt.Errorf("router: unmark processed: %w", err)
	}
	return nil
}

// NoopDeduper lets every message through; the store-level unique index
// still prevents duplicate history entries.
type NoopDeduper struct{}

func (NoopDeduper) MarkProcessed(context.Context, string) (bool, error) { return true, nil }

func (NoopDeduper) Unmark(context.Context, string) error { return nil }
