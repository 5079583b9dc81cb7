package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultQueryTimeout = 5 * time.Second

// base carries what every service needs to talk to the store: the handle,
// a per-call deadline and a UTC clock.
type base struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

func newBase(db *gorm.DB, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return base{
		db:      db,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// conn returns the handle bound to a bounded context.
func (b *base) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

// storage logs and wraps an unexpected datastore failure.
func storage(err error, op string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		slog.Error("datastore failure", "action", op, "error", err)
	}
	return apperr.Storage(err, op)
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound error.
func notFoundOr(err error, what, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what)
	}
	return storage(err, op)
}

func isDuplicate(err error) bool {
	return errors.Is(database.TranslateError(err), database.ErrDuplicateKey)
}

func writeAudit(tx *gorm.DB, entry *models.AuditLog) error {
	return tx.Create(entry).Error
}

func auditEntry(actor uuid.UUID, action, targetType string, target uuid.UUID, from, to, reason string, at time.Time, meta datatypes.JSON) *models.AuditLog {
	return &models.AuditLog{
		ActorID:    actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   target,
		FromState:  from,
		ToState:    to,
		Reason:     reason,
		Metadata:   meta,
		CreatedAt:  at,
	}
}
