package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// InterviewKey is the cache key for an interview document.
func InterviewKey(interviewID string) string {
	return "interview:" + interviewID
}
