package fetcher

import (
	"context"
	"time"
)

// SetSleeper replaces the politeness wait
func SetSleeper(f *Fetcher, fn func(ctx context.Context, d time.Duration) error) {
	f.sleep = fn
}
