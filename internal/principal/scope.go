package principal

import (
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"gorm.io/gorm"
)

// ActiveSignals limits a signal query to the public path. Role does not
// widen it; moderators read other statuses through the moderation queries.
func ActiveSignals(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", models.StatusActive)
}

// Paginate applies offset paging. limit is clamped to [1, max].
func Paginate(page, limit, max int) func(db *gorm.DB) *gorm.DB {
	page, limit = Clamp(page, limit, max)
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}

// Clamp normalizes page and limit; a non-positive limit falls back to 20.
func Clamp(page, limit, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > max {
		limit = max
	}
	return page, limit
}
