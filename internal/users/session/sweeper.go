// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	stdctx "context"
	"log/slog"
	"time"

	"github.com/taibuivan/crm/internal/platform/constants"
	"github.com/taibuivan/crm/internal/platform/metrics"
)

// Purge run results recorded by the sweeper.
const (
	purgeResultPurged  = "purged"
	purgeResultSkipped = "skipped"
	purgeResultFailed  = "failed"
)

// Purger deletes expired sessions. [*Store] satisfies it.
type Purger interface {
	PurgeExpired(context stdctx.Context) (int, error)
}

// Locker is the distributed lock the sweeper takes before each purge.
// It matches the redis package's Locker.
type Locker interface {
	TryLock(context stdctx.Context, key string, ttl time.Duration) (string, bool, error)
	Release(context stdctx.Context, key, token string) error
}

// Sweeper periodically removes expired and revoked sessions.
// With several replicas the lock keeps a tick to a single purge.
type Sweeper struct {
	purger   Purger
	locker   Locker
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewSweeper constructs a [Sweeper]. A nil locker purges without coordination.
func NewSweeper(purger Purger, locker Locker, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = constants.DefaultPurgeInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{purger: purger, locker: locker, interval: interval, metrics: m, logger: logger}
}

// Run sweeps once immediately and then on every tick until context is cancelled.
func (sweeper *Sweeper) Run(context stdctx.Context) {
	sweeper.logger.Info("session_sweeper_started", slog.Duration("interval", sweeper.interval))

	ticker := time.NewTicker(sweeper.interval)
	defer ticker.Stop()

	for {
		sweeper.Sweep(context)

		select {
		case <-context.Done():
			sweeper.logger.Info("session_sweeper_stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs a single purge and returns the number of rows removed.
// A lock that is held elsewhere or unreachable skips the tick.
func (sweeper *Sweeper) Sweep(context stdctx.Context) int {
	if context.Err() != nil {
		return 0
	}

	if sweeper.locker != nil {
		token, acquired, err := sweeper.locker.TryLock(context, constants.RedisKeyPurgeLock, constants.PurgeLockTTL)
		if err != nil {
			sweeper.logger.Warn("session_purge_lock_failed", slog.Any("error", err))
			sweeper.metrics.PurgeRun(purgeResultSkipped)
			return 0
		}
		if !acquired {
			sweeper.logger.Debug("session_purge_lock_held_elsewhere")
			sweeper.metrics.PurgeRun(purgeResultSkipped)
			return 0
		}

		defer func() {
			if err := sweeper.locker.Release(stdctx.WithoutCancel(context), constants.RedisKeyPurgeLock, token); err != nil {
				sweeper.logger.Warn("session_purge_unlock_failed", slog.Any("error", err))
			}
		}()
	}

	purgeCtx, cancel := stdctx.WithTimeout(context, constants.PurgeTimeout)
	defer cancel()

	count, err := sweeper.purger.PurgeExpired(purgeCtx)
	if err != nil {
		sweeper.logger.Error("session_purge_failed", slog.Any("error", err))
		sweeper.metrics.PurgeRun(purgeResultFailed)
		return 0
	}

	sweeper.logger.Info("sessions_purged", slog.Int("count", count))
	sweeper.metrics.SessionsPurged(count)
	sweeper.metrics.PurgeRun(purgeResultPurged)

	return count
}
