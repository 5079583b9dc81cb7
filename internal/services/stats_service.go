package services

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

const overviewRecent = 5

const overviewCountsSQL = `SELECT
	(SELECT COUNT(*) FROM signals) AS total_signals,
	(SELECT COUNT(*) FROM signals WHERE status = ?) AS pending_signals,
	(SELECT COUNT(*) FROM profiles) AS total_members,
	(SELECT COUNT(*) FROM profiles WHERE account_status = ?) AS pending_members,
	(SELECT COUNT(*) FROM reports WHERE status = ?) AS pending_reports`

type overviewCounts struct {
	TotalSignals   int64 `db:"total_signals"`
	PendingSignals int64 `db:"pending_signals"`
	TotalMembers   int64 `db:"total_members"`
	PendingMembers int64 `db:"pending_members"`
	PendingReports int64 `db:"pending_reports"`
}

// StatsService backs the moderation dashboard.
type StatsService struct {
	base
	x *sqlx.DB
}

func NewStatsService(db *gorm.DB, x *sqlx.DB, timeout time.Duration) *StatsService {
	return &StatsService{base: newBase(db, timeout), x: x}
}

// Overview returns queue sizes plus the newest items waiting in each queue.
func (s *StatsService) Overview(ctx context.Context, caller principal.Caller) (*dto.AdminOverview, error) {
	if !caller.Moderator() {
		return nil, apperr.Forbidden()
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var counts overviewCounts
	if err := s.x.GetContext(db.Statement.Context, &counts, s.x.Rebind(overviewCountsSQL),
		string(models.StatusUnderReview), string(models.AccountPending), string(models.ReportPending)); err != nil {
		return nil, storage(err, "overview_counts")
	}

	var signals []models.Signal
	if err := db.Where("status = ?", models.StatusUnderReview).
		Order("created_at DESC").
		Limit(overviewRecent).
		Find(&signals).Error; err != nil {
		return nil, storage(err, "overview_signals")
	}
	var members []models.Profile
	if err := db.Where("account_status = ?", models.AccountPending).
		Order("created_at DESC").
		Limit(overviewRecent).
		Find(&members).Error; err != nil {
		return nil, storage(err, "overview_members")
	}

	out := &dto.AdminOverview{
		TotalSignals:   counts.TotalSignals,
		PendingSignals: counts.PendingSignals,
		TotalMembers:   counts.TotalMembers,
		PendingMembers: counts.PendingMembers,
		PendingReports: counts.PendingReports,
		RecentSignals:  make([]dto.ModerationSignalView, 0, len(signals)),
		RecentMembers:  make([]dto.PendingMember, 0, len(members)),
	}
	for i := range signals {
		out.RecentSignals = append(out.RecentSignals, dto.NewModerationSignalView(&signals[i]))
	}
	for _, m := range members {
		out.RecentMembers = append(out.RecentMembers, dto.PendingMember{ID: m.ID, Email: m.Email, CreatedAt: m.CreatedAt})
	}
	return out, nil
}
