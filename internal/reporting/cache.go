package reporting

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reports"
	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// Cache memoizes built reports in Redis. Keys are content hashes, so any change
// to the data version, settings, filters or calendar day misses.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a report cache. A non-positive ttl uses the default.
func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	if redisClient == nil {
		panic("reporting: redis client required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{redis: redisClient, ttl: ttl}
}

// cacheKey hashes everything a report depends on. day is the current date in
// the shop timezone because rolling presets move with it.
func cacheKey(orgID, dataVersion string, settings reports.Settings, filters reports.Filters, day string) (string, error) {
	payload, err := json.Marshal(struct {
		OrgID    string           `json:"org_id"`
		Version  string           `json:"version"`
		Settings reports.Settings `json:"settings"`
		Filters  reports.Filters  `json:"filters"`
		Day      string           `json:"day"`
	}{orgID, dataVersion, settings, filters, day})
	if err != nil {
		return "", fmt.Errorf("reporting: cache key: %w", err)
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("reports:cache:%s:%s", orgID, hex.EncodeToString(sum[:])), nil
}

// Get returns the cached report, or nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) (*reports.Report, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reporting: cache get: %w", err)
	}
	var r reports.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("reporting: cache decode: %w", err)
	}
	return &r, nil
}

// Set stores a report under key until the TTL lapses.
func (c *Cache) Set(ctx context.Context, key string, r *reports.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("reporting: cache encode: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("reporting: cache set: %w", err)
	}
	return nil
}
