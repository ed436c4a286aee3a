package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kajell/pacterm/internal/index"
)

const (
	defaultRefreshInterval = 6 * time.Hour
	retryBase              = 30 * time.Second
	maxBackoff             = 10 * time.Minute
)

// StartRefresher launches a background goroutine that rebuilds the official
// package index at a fixed cadence, persisting each successful snapshot and
// signalling notify so the UI can re-run its current query. A failed refresh
// retries with exponential backoff instead of waiting a full interval. It
// returns immediately.
func StartRefresher(ctx context.Context, store *index.Store, fetcher *index.Fetcher, path string, logger *log.Logger, interval time.Duration, notify chan<- index.RefreshNote) {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	send := func(note index.RefreshNote) {
		if notify == nil {
			return
		}
		select {
		case notify <- note:
		default:
		}
	}
	go func() {
		failures := 0
		for {
			changed, err := store.Refresh(ctx, fetcher)
			wait := interval
			if err != nil {
				failures++
				wait = calculateBackoff(failures, retryBase)
				logger.Warn("index refresh failed", "err", err, "retry_in", wait)
				send(index.RefreshNote{Err: err, Empty: store.Len() == 0})
			} else {
				failures = 0
				if changed {
					if err := store.SaveToDisk(path); err != nil {
						logger.Warn("index persist failed", "err", err)
					}
					logger.Debug("index refreshed", "packages", store.Len())
					send(index.RefreshNote{})
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
}

// calculateBackoff doubles the base delay per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
