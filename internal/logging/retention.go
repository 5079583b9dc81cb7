package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Retention purges old system_logs on a cron schedule.
type Retention struct {
	cron    *cron.Cron
	db      *gorm.DB
	keep    time.Duration
	baseCtx context.Context
	now     func() time.Time
}

func NewRetention(ctx context.Context, db *gorm.DB, days int) *Retention {
	if ctx == nil {
		ctx = context.Background()
	}
	if days <= 0 {
		days = 30
	}
	return &Retention{
		cron:    cron.New(cron.WithSeconds()),
		db:      db,
		keep:    time.Duration(days) * 24 * time.Hour,
		baseCtx: ctx,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the purge; schedule is a six-field cron expression.
func (r *Retention) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, func() {
		if _, err := r.Purge(r.baseCtx); err != nil {
			slog.Error("log cleanup failed", "error", err)
		}
	}); err != nil {
		return err
	}
	r.cron.Start()
	slog.Info("log retention scheduled", "schedule", schedule, "keep", r.keep.String())
	return nil
}

func (r *Retention) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// Purge deletes system_logs older than the retention window.
func (r *Retention) Purge(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.keep)
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
