package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const ledgerTTL = 48 * time.Hour

// RedisLedger claims one digest per recipient per org per day with SETNX.
type RedisLedger struct {
	redis *redis.Client
}

// NewRedisLedger creates a ledger on client. It panics on a nil client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	if client == nil {
		panic("digest: redis client required")
	}
	return &RedisLedger{redis: client}
}

func ledgerKey(orgID, day, recipient string) string {
	return fmt.Sprintf("digest:sent:%s:%s:%s", orgID, day, strings.ToLower(strings.TrimSpace(recipient)))
}

// Claim reports whether this caller owns the recipient's digest for day.
func (l *RedisLedger) Claim(ctx context.Context, orgID, day, recipient string) (bool, error) {
	ok, err := l.redis.SetNX(ctx, ledgerKey(orgID, day, recipient), time.Now().UTC().Format(time.RFC3339), ledgerTTL).Result()
	if err != nil {
		return false, fmt.Errorf("digest: claim: %w", err)
	}
	return ok, nil
}

// Release drops a claim so a failed digest can be retried.
func (l *RedisLedger) Release(ctx context.Context, orgID, day, recipient string) error {
	if err := l.redis.Del(ctx, ledgerKey(orgID, day, recipient)).Err(); err != nil {
		return fmt.Errorf("digest: release: %w", err)
	}
	return nil
}
