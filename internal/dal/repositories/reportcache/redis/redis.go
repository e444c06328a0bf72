package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "fulfillment:report:"
	generationKey = keyPrefix + "revenue:generation"
)

// ReportCache is a cache-aside store for revenue reports.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *ReportCache) GetRevenue(ctx context.Context, key string) (report.RevenueReport, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return report.RevenueReport{}, false, nil
	}
	if err != nil {
		return report.RevenueReport{}, false, fmt.Errorf("failed to get cached report: %w", err)
	}

	var r report.RevenueReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return report.RevenueReport{}, false, fmt.Errorf("failed to decode cached report: %w", err)
	}

	return r, true, nil
}

func (c *ReportCache) SetRevenue(ctx context.Context, key string, r report.RevenueReport) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}

	return nil
}

func (c *ReportCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get report generation: %w", err)
	}

	return gen, nil
}

// InvalidateRevenue bumps the generation. The counter has no TTL; entries of
// older generations expire on their own.
func (c *ReportCache) InvalidateRevenue(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump report generation: %w", err)
	}

	return nil
}
