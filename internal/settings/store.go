// Package settings persists per-org report settings in Redis and serves them
// over HTTP.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/reports"
	"github.com/redis/go-redis/v9"
)

// Store provides persistence for report settings.
type Store struct {
	redis           *redis.Client
	defaultTimezone string
}

// NewStore creates a settings store. defaultTimezone is used for orgs that
// have never saved a timezone.
func NewStore(redisClient *redis.Client, defaultTimezone string) *Store {
	if redisClient == nil {
		panic("settings: redis client required")
	}
	return &Store{redis: redisClient, defaultTimezone: strings.TrimSpace(defaultTimezone)}
}

func (s *Store) key(orgID string) string {
	return fmt.Sprintf("reports:settings:%s", orgID)
}

// Get returns the org's settings with defaults applied. Orgs without saved
// settings get the defaults.
func (s *Store) Get(ctx context.Context, orgID string) (reports.Settings, error) {
	var cfg reports.Settings
	data, err := s.redis.Get(ctx, s.key(orgID)).Bytes()
	switch {
	case err == redis.Nil:
	case err != nil:
		return reports.Settings{}, fmt.Errorf("settings: get: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return reports.Settings{}, fmt.Errorf("settings: unmarshal: %w", err)
		}
	}
	if cfg.Timezone == "" {
		cfg.Timezone = s.defaultTimezone
	}
	return cfg.WithDefaults(), nil
}

// Set saves the org's settings.
func (s *Store) Set(ctx context.Context, orgID string, cfg reports.Settings) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(orgID), data, 0).Err(); err != nil {
		return fmt.Errorf("settings: set: %w", err)
	}
	return nil
}
