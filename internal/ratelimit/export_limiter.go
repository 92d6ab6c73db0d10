package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/folio/internal/config"
)

const keyExportActor = "folio:export:%s:%s"

// ExportLimiter throttles report exports per actor. A nil limiter allows everything.
type ExportLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewExportLimiter(client *redis.Client, cfg config.Config) *ExportLimiter {
	if client == nil || cfg.ExportRatePerMinute <= 0 || cfg.ExportBurst <= 0 {
		return nil
	}
	return &ExportLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.ExportRatePerMinute / 60,
		burst:  cfg.ExportBurst,
	}
}

func (l *ExportLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *ExportLimiter) Allow(ctx context.Context, role, actorID string) (bool, time.Duration, error) {
	if !l.Enabled() {
		return true, 0, nil
	}
	key := fmt.Sprintf(keyExportActor, strings.TrimSpace(role), strings.TrimSpace(actorID))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		return false, 0, err
	}
	return res.Allowed, res.RetryAfter, nil
}
