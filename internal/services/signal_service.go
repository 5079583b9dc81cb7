package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/identifier"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/screening"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	minDescriptionRunes = 20
	maxFirstNameRunes   = 50
	maxPlatformRunes    = 50
	maxTagsPerSet       = 10
	maxTagRunes         = 40
	maxImageRefLen      = 512
	moderationPageMax   = 100
)

// SignalService owns signal creation, lookup and the moderation state machine.
type SignalService struct {
	base
	screener       *screening.Screener
	metrics        *metrics.Registry
	hooks          []events.TransitionHook
	descriptionMax int
}

func NewSignalService(db *gorm.DB, cfg *config.Config, screener *screening.Screener, reg *metrics.Registry, hooks ...events.TransitionHook) *SignalService {
	descMax := cfg.SignalDescriptionMax
	if descMax < minDescriptionRunes {
		descMax = 2000
	}
	return &SignalService{
		base:           newBase(db, cfg.DBQueryTimeout),
		screener:       screener,
		metrics:        reg,
		hooks:          hooks,
		descriptionMax: descMax,
	}
}

// WithClock replaces the UTC wall clock, for tests.
func (s *SignalService) WithClock(now func() time.Time) *SignalService {
	s.now = now
	return s
}

// Create validates, screens and persists a new signal in under_review.
// Nothing is written unless every check passes.
func (s *SignalService) Create(ctx context.Context, caller principal.Caller, req *dto.CreateSignalRequest) (*models.Signal, error) {
	if !caller.Author() {
		return nil, apperr.Forbidden()
	}

	signal, err := s.buildSignal(caller.ID, req)
	if err != nil {
		return nil, err
	}

	result := s.screener.Screen(signal.Description)
	s.metrics.ObserveScreen("signal", result.Passed)
	if !result.Passed {
		return nil, apperr.Policy(result.Reasons)
	}

	now := s.now()
	signal.Status = models.StatusUnderReview
	signal.CreatedAt = now
	signal.UpdatedAt = now

	db, cancel := s.conn(ctx)
	defer cancel()
	if err := db.Create(signal).Error; err != nil {
		return nil, storage(err, "create_signal")
	}

	slog.Info("signal created", "signal_id", signal.ID.String(), "user_id", caller.ID.String())
	return signal, nil
}

func (s *SignalService) buildSignal(authorID uuid.UUID, req *dto.CreateSignalRequest) (*models.Signal, error) {
	firstName := strings.TrimSpace(req.SubjectFirstName)
	if n := utf8.RuneCountInString(firstName); n < 1 || n > maxFirstNameRunes {
		return nil, apperr.Validation("subject first name must be 1-%d characters", maxFirstNameRunes)
	}

	signal := &models.Signal{
		AuthorID:         authorID,
		SubjectFirstName: firstName,
	}

	if initial := strings.TrimSpace(req.SubjectLastInitial); initial != "" {
		r, size := utf8.DecodeRuneInString(initial)
		if size != len(initial) || !unicode.IsLetter(r) {
			return nil, apperr.Validation("last initial must be a single letter")
		}
		upper := string(unicode.ToUpper(r))
		signal.SubjectLastInitial = &upper
	}

	if raw := strings.TrimSpace(req.SubjectIdentifier); raw != "" {
		if _, err := identifier.Validate(raw); err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		hash := identifier.Hash(raw)
		mask := identifier.Mask(raw)
		signal.SubjectIdentifierHash = &hash
		signal.SubjectIdentifierMask = &mask
	}

	if platform := strings.TrimSpace(req.SubjectPlatform); platform != "" {
		if utf8.RuneCountInString(platform) > maxPlatformRunes {
			return nil, apperr.Validation("platform must be at most %d characters", maxPlatformRunes)
		}
		signal.SubjectPlatform = &platform
	}

	color := models.SignalColor(strings.ToLower(strings.TrimSpace(req.OverallSignal)))
	if !color.Valid() {
		return nil, apperr.Validation("overall signal must be green, yellow or red")
	}
	signal.OverallSignal = color

	description := strings.TrimSpace(req.Description)
	if n := utf8.RuneCountInString(description); n < minDescriptionRunes || n > s.descriptionMax {
		return nil, apperr.Validation("description must be %d-%d characters", minDescriptionRunes, s.descriptionMax)
	}
	signal.Description = description

	green, err := normalizeTags("green flags", req.GreenFlags)
	if err != nil {
		return nil, err
	}
	red, err := normalizeTags("red flags", req.RedFlags)
	if err != nil {
		return nil, err
	}
	signal.GreenFlags, signal.RedFlags = green, red

	if ref := strings.TrimSpace(req.ImageRef); ref != "" {
		if len(ref) > maxImageRefLen {
			return nil, apperr.Validation("image reference must be at most %d characters", maxImageRefLen)
		}
		if strings.HasPrefix(strings.ToLower(ref), "data:") {
			return nil, apperr.Validation("images must be uploaded, not inlined")
		}
		signal.ImageRef = &ref
	}

	return signal, nil
}

// normalizeTags trims, drops blanks and deduplicates case-insensitively,
// keeping the first spelling seen.
func normalizeTags(field string, tags []string) (models.Tags, error) {
	out := make(models.Tags, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagRunes {
			return nil, apperr.Validation("%s must be at most %d characters each", field, maxTagRunes)
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxTagsPerSet {
		return nil, apperr.Validation("at most %d %s allowed", maxTagsPerSet, field)
	}
	return out, nil
}

// Get returns an active signal. Every caller, moderators included, gets
// NotFound for any other status.
func (s *SignalService) Get(ctx context.Context, caller principal.Caller, id uuid.UUID) (*models.Signal, error) {
	if !caller.Member() {
		return nil, apperr.Forbidden()
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	var signal models.Signal
	if err := db.Scopes(principal.ActiveSignals).First(&signal, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "signal", "get_signal")
	}
	return &signal, nil
}

// GetForModeration reads a signal in any status.
func (s *SignalService) GetForModeration(ctx context.Context, caller principal.Caller, id uuid.UUID) (*dto.ModerationSignalView, error) {
	if !caller.Moderator() {
		return nil, apperr.Forbidden()
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	var signal models.Signal
	if err := db.First(&signal, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "signal", "get_signal")
	}
	view := dto.NewModerationSignalView(&signal)
	return &view, nil
}

// ListByStatus is the moderation queue, newest first.
func (s *SignalService) ListByStatus(ctx context.Context, caller principal.Caller, status models.SignalStatus, page, limit int) ([]dto.ModerationSignalView, int64, error) {
	if !caller.Moderator() {
		return nil, 0, apperr.Forbidden()
	}
	if status == "" {
		status = models.StatusUnderReview
	}
	if !status.Valid() {
		return nil, 0, apperr.Validation("unknown status %q", status)
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var total int64
	if err := db.Model(&models.Signal{}).Where("status = ?", status).Count(&total).Error; err != nil {
		return nil, 0, storage(err, "count_signals")
	}

	var signals []models.Signal
	if err := db.Where("status = ?", status).
		Order("created_at DESC").
		Scopes(principal.Paginate(page, limit, moderationPageMax)).
		Find(&signals).Error; err != nil {
		return nil, 0, storage(err, "list_signals")
	}

	views := make([]dto.ModerationSignalView, len(signals))
	for i := range signals {
		views[i] = dto.NewModerationSignalView(&signals[i])
	}
	return views, total, nil
}

// Transition moves a signal through the moderation state machine. The
// request names either the target status or a moderation action.
func (s *SignalService) Transition(ctx context.Context, caller principal.Caller, id uuid.UUID, req *dto.TransitionRequest) (*models.Signal, error) {
	if !caller.Moderator() {
		return nil, apperr.Forbidden()
	}

	resolve, err := targetResolver(req)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) > 500 {
		return nil, apperr.Validation("reason must be at most 500 characters")
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var signal *models.Signal
	var ev events.TransitionEvent
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		signal, ev, err = s.applyTransition(tx, caller, id, resolve, reason, nil)
		return err
	})
	if err != nil {
		return nil, storage(err, "transition_signal")
	}

	s.notify(ctx, ev)
	return signal, nil
}

type targetFunc func(from models.SignalStatus) (models.SignalStatus, bool)

func targetResolver(req *dto.TransitionRequest) (targetFunc, error) {
	action := models.ModerationAction(strings.ToLower(strings.TrimSpace(req.Action)))
	to := models.SignalStatus(strings.ToLower(strings.TrimSpace(req.To)))

	switch {
	case action != "" && to != "":
		return nil, apperr.Validation("specify either a target status or an action, not both")
	case action != "":
		if !action.Valid() {
			return nil, apperr.Validation("unknown action %q", action)
		}
		return action.Target, nil
	case to != "":
		if !to.Valid() {
			return nil, apperr.Validation("unknown status %q", to)
		}
		return fixedTarget(to), nil
	default:
		return nil, apperr.Validation("a target status or action is required")
	}
}

func fixedTarget(to models.SignalStatus) targetFunc {
	return func(from models.SignalStatus) (models.SignalStatus, bool) {
		return to, from.CanTransitionTo(to)
	}
}

// applyTransition performs one conditional status update inside tx and
// writes its audit row. The returned event must only be dispatched after tx
// commits.
func (s *SignalService) applyTransition(tx *gorm.DB, actor principal.Caller, id uuid.UUID, resolve targetFunc, reason string, meta map[string]any) (*models.Signal, events.TransitionEvent, error) {
	var signal models.Signal
	if err := tx.First(&signal, "id = ?", id).Error; err != nil {
		return nil, events.TransitionEvent{}, notFoundOr(err, "signal", "load_signal")
	}
	if signal.AuthorID == actor.ID {
		return nil, events.TransitionEvent{}, apperr.Forbidden()
	}

	from := signal.Status
	to, ok := resolve(from)
	if !ok {
		return nil, events.TransitionEvent{}, apperr.Conflict("action not applicable")
	}

	now := s.now()
	result := tx.Model(&models.Signal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": now})
	if result.Error != nil {
		return nil, events.TransitionEvent{}, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, events.TransitionEvent{}, apperr.Conflict("action not applicable")
	}

	action := string(models.ActionFor(from, to))
	var metadata datatypes.JSON
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metadata = datatypes.JSON(b)
		}
	}
	if err := writeAudit(tx, auditEntry(actor.ID, action, "signal", id, string(from), string(to), reason, now, metadata)); err != nil {
		return nil, events.TransitionEvent{}, err
	}

	signal.Status = to
	signal.UpdatedAt = now
	slog.Info("signal transitioned", "signal_id", id.String(), "user_id", actor.ID.String(), "action", action, "from", from, "to", to)

	return &signal, events.TransitionEvent{
		SignalID: id,
		ActorID:  actor.ID,
		Action:   action,
		From:     string(from),
		To:       string(to),
		Reason:   reason,
		At:       now,
	}, nil
}

// notify runs every hook synchronously. Hook failures are logged; the
// transition has already committed.
func (s *SignalService) notify(ctx context.Context, ev events.TransitionEvent) {
	for _, h := range s.hooks {
		if err := h.OnTransition(ctx, ev); err != nil {
			slog.Error("transition hook failed", "signal_id", ev.SignalID.String(), "action", ev.Action, "error", err)
		}
	}
}

// ListAudit returns the latest audit entries, newest first.
func (s *SignalService) ListAudit(ctx context.Context, caller principal.Caller, targetID *uuid.UUID, limit int) ([]models.AuditLog, error) {
	if !caller.Moderator() {
		return nil, apperr.Forbidden()
	}
	if limit < 1 || limit > moderationPageMax {
		limit = moderationPageMax
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	q := db.Order("created_at DESC").Limit(limit)
	if targetID != nil {
		q = q.Where("target_id = ?", *targetID)
	}
	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, storage(err, "list_audit")
	}
	return logs, nil
}
