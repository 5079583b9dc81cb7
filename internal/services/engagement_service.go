package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/screening"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxCommentRunes = 500
	voteAttempts    = 3
	commentsPageMax = 50
)

const voteNone = "none"

// EngagementService maintains votes, comments and views together with the
// denormalized counters on signals.
type EngagementService struct {
	base
	screener *screening.Screener
	metrics  *metrics.Registry
}

func NewEngagementService(db *gorm.DB, cfg *config.Config, screener *screening.Screener, reg *metrics.Registry) *EngagementService {
	return &EngagementService{
		base:     newBase(db, cfg.DBQueryTimeout),
		screener: screener,
		metrics:  reg,
	}
}

func (s *EngagementService) WithClock(now func() time.Time) *EngagementService {
	s.now = now
	return s
}

// CastVote toggles the caller's vote. Same type again removes it, a
// different type switches it. The signal row is locked for the duration so
// counters always match the live votes.
func (s *EngagementService) CastVote(ctx context.Context, caller principal.Caller, signalID uuid.UUID, voteType models.VoteType) (*dto.VoteResponse, error) {
	if !caller.Author() {
		return nil, apperr.Forbidden()
	}
	if !voteType.Valid() {
		return nil, apperr.Validation("vote type must be green or red")
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var resp *dto.VoteResponse
	var err error
	for attempt := 0; attempt < voteAttempts; attempt++ {
		resp, err = s.toggleVote(db, caller.ID, signalID, voteType)
		if err == nil || !isDuplicate(err) {
			break
		}
	}
	if err != nil {
		return nil, storage(err, "cast_vote")
	}

	s.metrics.ObserveVote(resp.Vote)
	return resp, nil
}

func (s *EngagementService) toggleVote(db *gorm.DB, userID, signalID uuid.UUID, voteType models.VoteType) (*dto.VoteResponse, error) {
	resp := &dto.VoteResponse{SignalID: signalID}

	err := db.Transaction(func(tx *gorm.DB) error {
		var signal models.Signal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			First(&signal, "id = ?", signalID).Error; err != nil {
			return notFoundOr(err, "signal", "lock_signal")
		}
		if signal.Status != models.StatusActive {
			return apperr.NotFound("signal")
		}

		now := s.now()
		var existing models.Vote
		err := tx.Where("signal_id = ? AND user_id = ?", signalID, userID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{SignalID: signalID, UserID: userID, VoteType: voteType, CreatedAt: now, UpdatedAt: now}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if err := bumpCounters(tx, signalID, now, voteType.Column(), 1); err != nil {
				return err
			}
			resp.Vote = string(voteType)

		case err != nil:
			return err

		case existing.VoteType == voteType:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			if err := bumpCounters(tx, signalID, now, voteType.Column(), -1); err != nil {
				return err
			}
			resp.Vote = voteNone

		default:
			old := existing.VoteType
			if err := tx.Model(&existing).Updates(map[string]interface{}{"vote_type": voteType, "updated_at": now}).Error; err != nil {
				return err
			}
			if err := bumpCounters(tx, signalID, now, old.Column(), -1); err != nil {
				return err
			}
			if err := bumpCounters(tx, signalID, now, voteType.Column(), 1); err != nil {
				return err
			}
			resp.Vote = string(voteType)
		}

		var counts models.Signal
		if err := tx.Select("green_votes", "red_votes").First(&counts, "id = ?", signalID).Error; err != nil {
			return err
		}
		resp.GreenVotes, resp.RedVotes = counts.GreenVotes, counts.RedVotes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// bumpCounters moves one counter column by delta.
func bumpCounters(tx *gorm.DB, signalID uuid.UUID, now time.Time, column string, delta int) error {
	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		expr = gorm.Expr(column+" - ?", -delta)
	}
	return tx.Model(&models.Signal{}).
		Where("id = ?", signalID).
		Updates(map[string]interface{}{column: expr, "updated_at": now}).Error
}

// AddComment screens and appends a comment to an active signal.
func (s *EngagementService) AddComment(ctx context.Context, caller principal.Caller, signalID uuid.UUID, content string) (*dto.CommentView, error) {
	if !caller.Author() {
		return nil, apperr.Forbidden()
	}

	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < 1 || n > maxCommentRunes {
		return nil, apperr.Validation("comment must be 1-%d characters", maxCommentRunes)
	}

	result := s.screener.Screen(content)
	s.metrics.ObserveScreen("comment", result.Passed)
	if !result.Passed {
		return nil, apperr.Policy(result.Reasons)
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	now := s.now()
	comment := models.Comment{SignalID: signalID, UserID: caller.ID, Content: content, CreatedAt: now}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireActive(tx, signalID); err != nil {
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Signal{}).
			Where("id = ?", signalID).
			Updates(map[string]interface{}{"comment_count": gorm.Expr("comment_count + 1"), "updated_at": now}).Error
	})
	if err != nil {
		return nil, storage(err, "add_comment")
	}

	return &dto.CommentView{ID: comment.ID, SignalID: signalID, Content: comment.Content, CreatedAt: comment.CreatedAt}, nil
}

// ListComments returns comments on an active signal, newest first.
func (s *EngagementService) ListComments(ctx context.Context, caller principal.Caller, signalID uuid.UUID, page, limit int) ([]dto.CommentView, error) {
	if !caller.Approved() {
		return nil, apperr.Forbidden()
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	if err := requireActive(db, signalID); err != nil {
		return nil, storage(err, "list_comments")
	}

	var comments []models.Comment
	if err := db.Where("signal_id = ?", signalID).
		Order("created_at DESC").
		Scopes(principal.Paginate(page, limit, commentsPageMax)).
		Find(&comments).Error; err != nil {
		return nil, storage(err, "list_comments")
	}

	views := make([]dto.CommentView, len(comments))
	for i, c := range comments {
		views[i] = dto.CommentView{ID: c.ID, SignalID: c.SignalID, Content: c.Content, CreatedAt: c.CreatedAt}
	}
	return views, nil
}

// RecordView counts one view of an active signal. Any member who is not
// suspended or banned may record a view.
func (s *EngagementService) RecordView(ctx context.Context, caller principal.Caller, signalID uuid.UUID) (*dto.ViewResponse, error) {
	if !caller.Member() {
		return nil, apperr.Forbidden()
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	result := db.Model(&models.Signal{}).
		Where("id = ? AND status = ?", signalID, models.StatusActive).
		Updates(map[string]interface{}{"view_count": gorm.Expr("view_count + 1"), "updated_at": s.now()})
	if result.Error != nil {
		return nil, storage(result.Error, "record_view")
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFound("signal")
	}

	var signal models.Signal
	if err := db.Select("view_count").First(&signal, "id = ?", signalID).Error; err != nil {
		return nil, storage(err, "record_view")
	}
	return &dto.ViewResponse{SignalID: signalID, ViewCount: signal.ViewCount}, nil
}

func requireActive(db *gorm.DB, signalID uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Signal{}).
		Where("id = ? AND status = ?", signalID, models.StatusActive).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("signal")
	}
	return nil
}
