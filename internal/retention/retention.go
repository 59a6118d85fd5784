// Package retention deletes expired promotion records on a cron schedule.
package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"chatrelay/pkg/config"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/models"
	"chatrelay/pkg/store"
)

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg *config.Config, st store.ContentStore) (context.CancelFunc, error) {
	if !cfg.Retention.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	// default: daily at 03:00
	cronExpr := cfg.Retention.Cron
	if cronExpr == "" {
		cronExpr = "0 3 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cronExpr)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cronExpr)
	}

	logger.Info("retention_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, st)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string, st store.ContentStore) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "err", err.Error())
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if n, err := SweepOnce(st, time.Now().UTC()); err != nil {
				logger.Error("retention_run_error", "err", err.Error())
			} else if n > 0 {
				logger.Info("retention_swept", "removed", n)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// SweepOnce deletes promotions whose expiry lies before now and returns the
// number removed. Records that do not parse are left alone.
func SweepOnce(st store.ContentStore, now time.Time) (int, error) {
	recs, err := st.List("promotions")
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, rec := range recs {
		var p models.Promotion
		if err := json.Unmarshal(rec.Data, &p); err != nil {
			continue
		}
		if !p.Expired(now) {
			continue
		}
		if err := st.Delete("promotions", rec.ID); err != nil {
			logger.Warn("retention_delete_failed", "id", rec.ID, "err", err.Error())
			continue
		}
		removed++
	}
	return removed, nil
}
