package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxReportReasonRunes  = 100
	maxReportDetailsRunes = 1000
	maxNotesRunes         = 1000
	minEvidenceRunes      = 20
	maxEvidenceRunes      = 2000
)

// ReportService handles member reports and subject claims. Resolving either
// can drive the signal through the moderation state machine, so it shares
// the transition path with SignalService.
type ReportService struct {
	base
	signals *SignalService
}

func NewReportService(signals *SignalService) *ReportService {
	return &ReportService{base: signals.base, signals: signals}
}

func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// FileReport flags a signal for moderator attention.
func (s *ReportService) FileReport(ctx context.Context, caller principal.Caller, signalID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	if !caller.Author() {
		return nil, apperr.Forbidden()
	}

	reason := strings.TrimSpace(req.Reason)
	if n := utf8.RuneCountInString(reason); n < 1 || n > maxReportReasonRunes {
		return nil, apperr.Validation("reason must be 1-%d characters", maxReportReasonRunes)
	}
	details := strings.TrimSpace(req.Details)
	if utf8.RuneCountInString(details) > maxReportDetailsRunes {
		return nil, apperr.Validation("details must be at most %d characters", maxReportDetailsRunes)
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	now := s.now()
	report := &models.Report{
		SignalID:   signalID,
		ReporterID: caller.ID,
		Reason:     reason,
		Details:    details,
		Status:     models.ReportPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireReportable(tx, signalID); err != nil {
			return err
		}
		if err := tx.Create(report).Error; err != nil {
			return err
		}
		return tx.Model(&models.Signal{}).
			Where("id = ?", signalID).
			UpdateColumn("flagged_count", gorm.Expr("flagged_count + 1")).Error
	})
	if err != nil {
		return nil, storage(err, "file_report")
	}

	slog.Info("report filed", "signal_id", signalID.String(), "user_id", caller.ID.String())
	return report, nil
}

// requireReportable checks the signal exists and is active.
func requireReportable(tx *gorm.DB, signalID uuid.UUID) error {
	var signal models.Signal
	if err := tx.Scopes(principal.ActiveSignals).
		Select("id", "status").
		First(&signal, "id = ?", signalID).Error; err != nil {
		return notFoundOr(err, "signal", "load_signal")
	}
	return nil
}

// ResolveReport closes a pending report. A resolved report may hide or
// remove its signal in the same transaction.
func (s *ReportService) ResolveReport(ctx context.Context, caller principal.Caller, reportID uuid.UUID, req *dto.ResolveReportRequest) (*models.Report, error) {
	if !caller.Moderator() {
		return nil, apperr.Forbidden()
	}

	outcome := models.ReportStatus(strings.ToLower(strings.TrimSpace(req.Outcome)))
	if outcome != models.ReportResolved && outcome != models.ReportDismissed {
		return nil, apperr.Validation("outcome must be resolved or dismissed")
	}

	var target models.SignalStatus
	switch strings.ToLower(strings.TrimSpace(req.SignalAction)) {
	case "", "none":
	case "hide":
		target = models.StatusHidden
	case "remove":
		target = models.StatusRemoved
	default:
		return nil, apperr.Validation("signal action must be none, hide or remove")
	}
	if target != "" && outcome == models.ReportDismissed {
		return nil, apperr.Validation("a dismissed report cannot change the signal")
	}

	notes := strings.TrimSpace(req.Notes)
	if utf8.RuneCountInString(notes) > maxNotesRunes {
		return nil, apperr.Validation("notes must be at most %d characters", maxNotesRunes)
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var report models.Report
	var ev *events.TransitionEvent
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&report, "id = ?", reportID).Error; err != nil {
			return notFoundOr(err, "report", "load_report")
		}

		now := s.now()
		result := tx.Model(&models.Report{}).
			Where("id = ? AND status = ?", reportID, models.ReportPending).
			Updates(map[string]interface{}{
				"status":           outcome,
				"resolved_by":      caller.ID,
				"resolution_notes": notes,
				"updated_at":       now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return apperr.Conflict("action not applicable")
		}

		if err := writeAudit(tx, auditEntry(caller.ID, "resolve_report", "report", reportID,
			string(models.ReportPending), string(outcome), notes, now, nil)); err != nil {
			return err
		}

		if target != "" {
			e, err := s.driveSignal(tx, caller, report.SignalID, target, notes, map[string]any{"report_id": reportID.String()})
			if err != nil {
				return err
			}
			ev = e
		}

		report.Status = outcome
		report.ResolvedBy = &caller.ID
		report.ResolutionNotes = notes
		report.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, storage(err, "resolve_report")
	}

	if ev != nil {
		s.signals.notify(ctx, *ev)
	}
	return &report, nil
}

// driveSignal moves the signal to target unless it already is there or has
// been removed. Any other inapplicable move is a conflict.
func (s *ReportService) driveSignal(tx *gorm.DB, actor principal.Caller, signalID uuid.UUID, target models.SignalStatus, reason string, meta map[string]any) (*events.TransitionEvent, error) {
	var current models.Signal
	if err := tx.Select("id", "status").First(&current, "id = ?", signalID).Error; err != nil {
		return nil, notFoundOr(err, "signal", "load_signal")
	}
	if current.Status == target || current.Status == models.StatusRemoved {
		return nil, nil
	}

	_, ev, err := s.signals.applyTransition(tx, actor, signalID, fixedTarget(target), reason, meta)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// FileClaim records a member's assertion that a signal is about them.
func (s *ReportService) FileClaim(ctx context.Context, caller principal.Caller, signalID uuid.UUID, req *dto.CreateClaimRequest) (*models.SubjectClaim, error) {
	if !caller.Member() || caller.ID == uuid.Nil {
		return nil, apperr.Forbidden()
	}

	evidence := strings.TrimSpace(req.EvidenceDescription)
	if n := utf8.RuneCountInString(evidence); n < minEvidenceRunes || n > maxEvidenceRunes {
		return nil, apperr.Validation("evidence must be %d-%d characters", minEvidenceRunes, maxEvidenceRunes)
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	now := s.now()
	claim := &models.SubjectClaim{
		SignalID:            signalID,
		ClaimantID:          caller.ID,
		EvidenceDescription: evidence,
		Status:              models.ClaimPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := requireReportable(tx, signalID); err != nil {
			return err
		}
		var pending int64
		if err := tx.Model(&models.SubjectClaim{}).
			Where("signal_id = ? AND claimant_id = ? AND status = ?", signalID, caller.ID, models.ClaimPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return apperr.Conflict("a claim for this signal is already pending")
		}
		return tx.Create(claim).Error
	})
	if err != nil {
		return nil, storage(err, "file_claim")
	}

	slog.Info("subject claim filed", "signal_id", signalID.String(), "user_id", caller.ID.String())
	return claim, nil
}

// ResolveClaim closes a pending claim. A verified claim removes the signal.
func (s *ReportService) ResolveClaim(ctx context.Context, caller principal.Caller, claimID uuid.UUID, req *dto.ResolveClaimRequest) (*models.SubjectClaim, error) {
	if !caller.Moderator() {
		return nil, apperr.Forbidden()
	}

	outcome := models.ClaimStatus(strings.ToLower(strings.TrimSpace(req.Outcome)))
	if outcome != models.ClaimVerified && outcome != models.ClaimRejected {
		return nil, apperr.Validation("outcome must be verified or rejected")
	}
	notes := strings.TrimSpace(req.Notes)
	if utf8.RuneCountInString(notes) > maxNotesRunes {
		return nil, apperr.Validation("notes must be at most %d characters", maxNotesRunes)
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var claim models.SubjectClaim
	var ev *events.TransitionEvent
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&claim, "id = ?", claimID).Error; err != nil {
			return notFoundOr(err, "claim", "load_claim")
		}

		now := s.now()
		result := tx.Model(&models.SubjectClaim{}).
			Where("id = ? AND status = ?", claimID, models.ClaimPending).
			Updates(map[string]interface{}{
				"status":           outcome,
				"resolved_by":      caller.ID,
				"resolution_notes": notes,
				"updated_at":       now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return apperr.Conflict("action not applicable")
		}

		if err := writeAudit(tx, auditEntry(caller.ID, "resolve_claim", "claim", claimID,
			string(models.ClaimPending), string(outcome), notes, now, nil)); err != nil {
			return err
		}

		if outcome == models.ClaimVerified {
			e, err := s.driveSignal(tx, caller, claim.SignalID, models.StatusRemoved, notes, map[string]any{"claim_id": claimID.String()})
			if err != nil {
				return err
			}
			ev = e
		}

		claim.Status = outcome
		claim.ResolvedBy = &caller.ID
		claim.ResolutionNotes = notes
		claim.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, storage(err, "resolve_claim")
	}

	if ev != nil {
		s.signals.notify(ctx, *ev)
	}
	return &claim, nil
}

// ListReports returns reports by status (default pending), newest first.
func (s *ReportService) ListReports(ctx context.Context, caller principal.Caller, status string, page, limit int) ([]models.Report, int64, error) {
	if !caller.Moderator() {
		return nil, 0, apperr.Forbidden()
	}
	st := models.ReportStatus(strings.ToLower(status))
	switch st {
	case "":
		st = models.ReportPending
	case models.ReportPending, models.ReportResolved, models.ReportDismissed:
	default:
		return nil, 0, apperr.Validation("unknown report status %q", status)
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var total int64
	if err := db.Model(&models.Report{}).Where("status = ?", st).Count(&total).Error; err != nil {
		return nil, 0, storage(err, "count_reports")
	}
	var reports []models.Report
	if err := db.Where("status = ?", st).
		Order("created_at DESC").
		Scopes(principal.Paginate(page, limit, moderationPageMax)).
		Find(&reports).Error; err != nil {
		return nil, 0, storage(err, "list_reports")
	}
	return reports, total, nil
}

// ListClaims returns claims by status (default pending), newest first.
func (s *ReportService) ListClaims(ctx context.Context, caller principal.Caller, status string, page, limit int) ([]models.SubjectClaim, int64, error) {
	if !caller.Moderator() {
		return nil, 0, apperr.Forbidden()
	}
	st := models.ClaimStatus(strings.ToLower(status))
	switch st {
	case "":
		st = models.ClaimPending
	case models.ClaimPending, models.ClaimVerified, models.ClaimRejected:
	default:
		return nil, 0, apperr.Validation("unknown claim status %q", status)
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var total int64
	if err := db.Model(&models.SubjectClaim{}).Where("status = ?", st).Count(&total).Error; err != nil {
		return nil, 0, storage(err, "count_claims")
	}
	var claims []models.SubjectClaim
	if err := db.Where("status = ?", st).
		Order("created_at DESC").
		Scopes(principal.Paginate(page, limit, moderationPageMax)).
		Find(&claims).Error; err != nil {
		return nil, 0, storage(err, "list_claims")
	}
	return claims, total, nil
}
