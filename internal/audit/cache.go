package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vigil/internal/constants"
	"vigil/internal/quality"
	"vigil/pkg/metrics"
)

const latestRunKey = constants.SummaryCacheKeyPrefix + "run"

// SummaryCache keeps the newest run in Redis so latest-run reads skip
// the audit backend. A miss is not an error; the history remains the
// source of truth.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = constants.DefaultSummaryCacheTTLSecs * time.Second
	}
	return &SummaryCache{client: client, ttl: ttl}
}

func (c *SummaryCache) StoreLatest(ctx context.Context, batch *quality.Batch) error {
	cached := quality.LatestRunView{
		Run:      batch.Info(),
		Failures: quality.Sorted(quality.FailedOnly(batch.Results)),
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		metrics.IncCacheWrite("error")
		return fmt.Errorf("failed to marshal cached run: %w", err)
	}

	if err := c.client.Set(ctx, latestRunKey, payload, c.ttl).Err(); err != nil {
		metrics.IncCacheWrite("error")
		return fmt.Errorf("failed to cache latest run: %w", err)
	}

	metrics.IncCacheWrite("success")
	return nil
}

// Latest returns the cached newest run, or nil on a cache miss.
func (c *SummaryCache) Latest(ctx context.Context) (*quality.LatestRunView, error) {
	payload, err := c.client.Get(ctx, latestRunKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached run: %w", err)
	}

	var cached quality.LatestRunView
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached run: %w", err)
	}

	return &cached, nil
}
