package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const membersPageMax = 100

// ErrNoProfile is returned by Lookup when the subject never redeemed an
// invite.
var ErrNoProfile = errors.New("profile not found")

// ProfileService manages member profiles: the caller gate, admin status and
// role changes, and the bootstrap seed.
type ProfileService struct {
	base
	profiles *cache.Loader
}

func NewProfileService(db *gorm.DB, cfg *config.Config, profiles *cache.Loader) *ProfileService {
	return &ProfileService{base: newBase(db, cfg.DBQueryTimeout), profiles: profiles}
}

func (s *ProfileService) WithClock(now func() time.Time) *ProfileService {
	s.now = now
	return s
}

// Lookup returns the profile for id through the cache, or ErrNoProfile.
func (s *ProfileService) Lookup(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	load := func(ctx context.Context) (models.Profile, error) {
		db, cancel := s.conn(ctx)
		defer cancel()
		var p models.Profile
		if err := db.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Profile{}, ErrNoProfile
			}
			return models.Profile{}, storage(err, "load_profile")
		}
		return p, nil
	}
	if s.profiles == nil {
		return load(ctx)
	}
	return s.profiles.Load(ctx, id, load)
}

// Me returns the caller's own profile straight from the store, with the
// number of their signals on the public feed and their outstanding invite.
func (s *ProfileService) Me(ctx context.Context, caller principal.Caller) (*dto.MeResponse, error) {
	if !caller.Registered {
		return nil, apperr.NotFound("profile")
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	var p models.Profile
	if err := db.First(&p, "id = ?", caller.ID).Error; err != nil {
		return nil, notFoundOr(err, "profile", "get_profile")
	}
	resp := &dto.MeResponse{Profile: p}

	if err := db.Model(&models.Signal{}).
		Where("author_id = ? AND status = ?", caller.ID, models.StatusActive).
		Count(&resp.SignalsPosted).Error; err != nil {
		return nil, storage(err, "count_signals_posted")
	}

	var invite models.Invite
	err := db.Where("created_by = ? AND used_by IS NULL AND expires_at > ?", caller.ID, s.now()).
		Order("created_at DESC").
		First(&invite).Error
	switch {
	case err == nil:
		resp.ActiveInvite = &dto.InviteResponse{Code: invite.Code, ExpiresAt: invite.ExpiresAt, Reused: true}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, storage(err, "get_active_invite")
	}
	return resp, nil
}

// SetAccountStatus changes a member's status. Admins cannot change their own.
func (s *ProfileService) SetAccountStatus(ctx context.Context, caller principal.Caller, targetID uuid.UUID, status models.AccountStatus, reason string) (*models.Profile, error) {
	if !caller.Admin() {
		return nil, apperr.Forbidden()
	}
	if !status.Valid() {
		return nil, apperr.Validation("status must be pending, approved, suspended or banned")
	}
	if targetID == caller.ID {
		return nil, apperr.Conflict("action not applicable")
	}
	return s.update(ctx, caller, targetID, "set_account_status", "account_status", string(status), strings.TrimSpace(reason))
}

// SetRole changes a member's role. Admins cannot change their own.
func (s *ProfileService) SetRole(ctx context.Context, caller principal.Caller, targetID uuid.UUID, role models.Role) (*models.Profile, error) {
	if !caller.Admin() {
		return nil, apperr.Forbidden()
	}
	if !role.Valid() {
		return nil, apperr.Validation("role must be member, moderator or admin")
	}
	if targetID == caller.ID {
		return nil, apperr.Conflict("action not applicable")
	}
	return s.update(ctx, caller, targetID, "set_role", "role", string(role), "")
}

func (s *ProfileService) update(ctx context.Context, caller principal.Caller, targetID uuid.UUID, action, column, value, reason string) (*models.Profile, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var p models.Profile
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", targetID).Error; err != nil {
			return notFoundOr(err, "profile", "load_profile")
		}

		from := string(p.AccountStatus)
		if column == "role" {
			from = string(p.Role)
		}
		if from == value {
			return nil
		}

		now := s.now()
		if err := tx.Model(&models.Profile{}).
			Where("id = ?", targetID).
			Updates(map[string]interface{}{column: value, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := writeAudit(tx, auditEntry(caller.ID, action, "profile", targetID, from, value, reason, now, nil)); err != nil {
			return err
		}
		return tx.First(&p, "id = ?", targetID).Error
	})
	if err != nil {
		return nil, storage(err, action)
	}

	s.profiles.Invalidate(ctx, targetID)
	slog.Info("member updated", "user_id", caller.ID.String(), "action", action, "target_id", targetID.String(), "value", value)
	return &p, nil
}

// ListMembers filters by optional status and role, newest first.
func (s *ProfileService) ListMembers(ctx context.Context, caller principal.Caller, status, role string, page, limit int) ([]models.Profile, int64, error) {
	if !caller.Admin() {
		return nil, 0, apperr.Forbidden()
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	q := db.Model(&models.Profile{})
	if status != "" {
		if !models.AccountStatus(status).Valid() {
			return nil, 0, apperr.Validation("unknown status %q", status)
		}
		q = q.Where("account_status = ?", status)
	}
	if role != "" {
		if !models.Role(role).Valid() {
			return nil, 0, apperr.Validation("unknown role %q", role)
		}
		q = q.Where("role = ?", role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storage(err, "count_members")
	}
	var members []models.Profile
	if err := q.Order("created_at DESC").
		Scopes(principal.Paginate(page, limit, membersPageMax)).
		Find(&members).Error; err != nil {
		return nil, 0, storage(err, "list_members")
	}
	return members, total, nil
}

// BootstrapAdmins upserts each id as an approved admin. Running it again is
// harmless.
func (s *ProfileService) BootstrapAdmins(ctx context.Context, ids []uuid.UUID, email string) (int, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	now := s.now()
	for _, id := range ids {
		p := models.Profile{
			ID:            id,
			Email:         strings.TrimSpace(email),
			AccountStatus: models.AccountApproved,
			Role:          models.RoleAdmin,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"account_status", "role", "updated_at"}),
			}).Create(&p).Error; err != nil {
				return err
			}
			return writeAudit(tx, auditEntry(id, "bootstrap_admin", "profile", id, "", string(models.RoleAdmin), "", now, nil))
		})
		if err != nil {
			return 0, storage(err, "bootstrap_admin")
		}
		s.profiles.Invalidate(ctx, id)
		slog.Info("admin bootstrapped", "user_id", id.String())
	}
	return len(ids), nil
}
