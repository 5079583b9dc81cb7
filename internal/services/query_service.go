package services

import (
	"context"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/identifier"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/jmoiron/sqlx"
)

const (
	feedPageMax    = 50
	searchLimit    = 20
	engagementExpr = "CAST(green_votes + red_votes + 2 * comment_count + 0.1 * view_count AS DOUBLE PRECISION)"
)

type FeedSort string

const (
	SortRecent     FeedSort = "recent"
	SortEngagement FeedSort = "engagement"
	SortOldest     FeedSort = "oldest"
)

var feedWindows = map[string]time.Duration{
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
	"all":   0,
}

// FeedQuery filters and orders the public feed. Zero values mean: any
// color, all time, most recent first, first page of 20.
type FeedQuery struct {
	Color  string
	Window string
	Sort   FeedSort
	Page   int
	Limit  int
}

// QueryService serves the read side (feed and search) over sqlx. Only
// active signals are ever returned, whoever asks.
type QueryService struct {
	x       *sqlx.DB
	timeout time.Duration
	now     func() time.Time
}

func NewQueryService(x *sqlx.DB, timeout time.Duration) *QueryService {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &QueryService{x: x, timeout: timeout, now: func() time.Time { return time.Now().UTC() }}
}

func (s *QueryService) WithClock(now func() time.Time) *QueryService {
	s.now = now
	return s
}

type scoredSignal struct {
	models.Signal
	Score float64 `db:"score"`
}

// Feed lists active signals. Approved members get full views; other members
// get redacted ones.
func (s *QueryService) Feed(ctx context.Context, caller principal.Caller, q FeedQuery) (*dto.FeedResponse, error) {
	if !caller.Member() {
		return nil, apperr.Forbidden()
	}

	var sb strings.Builder
	args := []interface{}{string(models.StatusActive)}
	sb.WriteString("SELECT signals.*, " + engagementExpr + " AS score FROM signals WHERE status = ?")

	if q.Color != "" {
		color := models.SignalColor(strings.ToLower(q.Color))
		if !color.Valid() {
			return nil, apperr.Validation("unknown color %q", q.Color)
		}
		sb.WriteString(" AND overall_signal = ?")
		args = append(args, string(color))
	}

	if q.Window != "" {
		window, ok := feedWindows[strings.ToLower(q.Window)]
		if !ok {
			return nil, apperr.Validation("time window must be week, month, year or all")
		}
		if window > 0 {
			sb.WriteString(" AND created_at >= ?")
			args = append(args, s.now().Add(-window))
		}
	}

	switch FeedSort(strings.ToLower(string(q.Sort))) {
	case "", SortRecent:
		sb.WriteString(" ORDER BY created_at DESC")
	case SortEngagement:
		sb.WriteString(" ORDER BY score DESC, created_at DESC")
	case SortOldest:
		sb.WriteString(" ORDER BY created_at ASC")
	default:
		return nil, apperr.Validation("sort must be recent, engagement or oldest")
	}

	page, limit := principal.Clamp(q.Page, q.Limit, feedPageMax)
	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit+1, (page-1)*limit)

	rows, err := s.selectSignals(ctx, sb.String(), args...)
	if err != nil {
		return nil, storage(err, "query_feed")
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	full := caller.Approved()
	items := make([]dto.SignalView, len(rows))
	for i := range rows {
		items[i] = dto.NewSignalView(&rows[i].Signal, full)
		score := rows[i].Score
		items[i].Score = &score
	}
	return &dto.FeedResponse{Items: items, Page: page, Limit: limit, HasMore: hasMore}, nil
}

// Search matches the hashed identifier exactly. Callers who are not approved
// get a locked response rather than an empty one.
func (s *QueryService) Search(ctx context.Context, caller principal.Caller, raw, color string) (*dto.SearchResponse, error) {
	if !caller.Approved() {
		return &dto.SearchResponse{Locked: true, Results: []dto.SignalView{}}, nil
	}

	raw = strings.TrimSpace(raw)
	if _, err := identifier.Validate(raw); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	query := "SELECT signals.*, " + engagementExpr + " AS score FROM signals WHERE subject_identifier_hash = ? AND status = ?"
	args := []interface{}{identifier.Hash(raw), string(models.StatusActive)}
	if color != "" {
		c := models.SignalColor(strings.ToLower(color))
		if !c.Valid() {
			return nil, apperr.Validation("unknown color %q", color)
		}
		query += " AND overall_signal = ?"
		args = append(args, string(c))
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, searchLimit)

	rows, err := s.selectSignals(ctx, query, args...)
	if err != nil {
		return nil, storage(err, "query_search")
	}

	results := make([]dto.SignalView, len(rows))
	for i := range rows {
		results[i] = dto.NewSignalView(&rows[i].Signal, true)
	}
	return &dto.SearchResponse{Results: results}, nil
}

func (s *QueryService) selectSignals(ctx context.Context, query string, args ...interface{}) ([]scoredSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []scoredSignal
	if err := s.x.SelectContext(ctx, &rows, s.x.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}
