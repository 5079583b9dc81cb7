package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InviteAlphabet leaves out glyphs that are easy to misread (0/O, 1/I).
const (
	InviteAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	InviteCodeLen    = 8
	inviteAttempts   = 5
	defaultInviteTTL = 7 * 24 * time.Hour
)

// InviteService issues and redeems single-use admission codes.
type InviteService struct {
	base
	ttl      time.Duration
	quota    int
	profiles *cache.Loader
	metrics  *metrics.Registry
	settings *SettingsService
	generate func() (string, error)
}

// NewInviteService wires invite issuance and redemption. A nil settings
// keeps admission invite-only.
func NewInviteService(db *gorm.DB, cfg *config.Config, profiles *cache.Loader, reg *metrics.Registry, settings *SettingsService) *InviteService {
	ttl := cfg.InviteTTL
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}
	return &InviteService{
		base:     newBase(db, cfg.DBQueryTimeout),
		ttl:      ttl,
		quota:    cfg.InvitesPerMember,
		profiles: profiles,
		metrics:  reg,
		settings: settings,
		generate: GenerateInviteCode,
	}
}

func (s *InviteService) WithClock(now func() time.Time) *InviteService {
	s.now = now
	return s
}

// GenerateInviteCode draws InviteCodeLen characters from InviteAlphabet
// using crypto/rand.
func GenerateInviteCode() (string, error) {
	size := big.NewInt(int64(len(InviteAlphabet)))
	b := make([]byte, InviteCodeLen)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		b[i] = InviteAlphabet[n.Int64()]
	}
	return string(b), nil
}

// NormalizeCode makes codes case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Issue returns the creator's outstanding invite if one exists, otherwise
// spends one invite from the creator's quota on a fresh code. Admins have
// no quota.
func (s *InviteService) Issue(ctx context.Context, caller principal.Caller) (*dto.InviteResponse, error) {
	if !caller.Author() {
		return nil, apperr.Forbidden()
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var resp *dto.InviteResponse
	err := db.Transaction(func(tx *gorm.DB) error {
		var creator models.Profile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&creator, "id = ?", caller.ID).Error; err != nil {
			return notFoundOr(err, "profile", "lock_profile")
		}

		now := s.now()
		var outstanding models.Invite
		err := tx.Where("created_by = ? AND used_by IS NULL AND expires_at > ?", caller.ID, now).
			Order("created_at DESC").
			First(&outstanding).Error
		if err == nil {
			resp = &dto.InviteResponse{Code: outstanding.Code, ExpiresAt: outstanding.ExpiresAt, Reused: true}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		unlimited := caller.Admin()
		if !unlimited && creator.InvitesRemaining <= 0 {
			return apperr.Conflict("no invites remaining")
		}

		invite, err := s.insertInvite(tx, caller.ID, now)
		if err != nil {
			return err
		}

		if !unlimited {
			if err := tx.Model(&models.Profile{}).
				Where("id = ?", caller.ID).
				Updates(map[string]interface{}{"invites_remaining": gorm.Expr("invites_remaining - 1"), "updated_at": now}).Error; err != nil {
				return err
			}
		}

		resp = &dto.InviteResponse{Code: invite.Code, ExpiresAt: invite.ExpiresAt}
		return nil
	})
	if err != nil {
		return nil, storage(err, "issue_invite")
	}

	if !resp.Reused {
		s.profiles.Invalidate(ctx, caller.ID)
		slog.Info("invite issued", "user_id", caller.ID.String())
	}
	return resp, nil
}

// insertInvite retries on code collisions inside a savepoint so a duplicate
// key does not abort the surrounding transaction.
func (s *InviteService) insertInvite(tx *gorm.DB, creatorID uuid.UUID, now time.Time) (*models.Invite, error) {
	for attempt := 0; attempt < inviteAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return nil, err
		}
		invite := &models.Invite{Code: code, CreatedBy: creatorID, ExpiresAt: now.Add(s.ttl), CreatedAt: now}

		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(invite).Error
		})
		if err == nil {
			return invite, nil
		}
		if !isDuplicate(err) {
			return nil, err
		}
	}
	return nil, errors.New("could not allocate a unique invite code")
}

// Validate reports whether a code can currently be redeemed. It changes
// nothing.
func (s *InviteService) Validate(ctx context.Context, code string) (bool, error) {
	code = NormalizeCode(code)
	if code == "" {
		return false, apperr.Validation("invite code is required")
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var invite models.Invite
	err := db.First(&invite, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storage(err, "validate_invite")
	}
	return invite.Redeemable(s.now()), nil
}

// Redeem claims code for newMemberID and creates the member's pending
// profile. The claim is a single conditional update; of any number of
// concurrent redeemers exactly one sees a row change. With invite codes
// switched off an empty code admits the member without a sponsor.
func (s *InviteService) Redeem(ctx context.Context, code string, newMemberID uuid.UUID, email string) (*models.Profile, error) {
	code = NormalizeCode(code)
	if newMemberID == uuid.Nil {
		return nil, apperr.Validation("member id is required")
	}
	if code == "" {
		required, err := s.inviteRequired(ctx)
		if err != nil {
			return nil, err
		}
		if required {
			return nil, apperr.Validation("invite code is required")
		}
		return s.admitWithoutInvite(ctx, newMemberID, email)
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var profile *models.Profile
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Profile{}).Where("id = ?", newMemberID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("member already registered")
		}

		now := s.now()
		claim := tx.Model(&models.Invite{}).
			Where("code = ? AND used_by IS NULL AND expires_at > ?", code, now).
			Updates(map[string]interface{}{"used_by": newMemberID, "used_at": now})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected != 1 {
			return apperr.Conflict("invite not redeemable")
		}

		var invite models.Invite
		if err := tx.First(&invite, "code = ?", code).Error; err != nil {
			return err
		}

		p := &models.Profile{
			ID:               newMemberID,
			Email:            strings.TrimSpace(email),
			AccountStatus:    models.AccountPending,
			Role:             models.RoleMember,
			InvitedBy:        &invite.CreatedBy,
			InviteCode:       &invite.Code,
			InvitesRemaining: s.quota,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.Create(p).Error; err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("member already registered")
			}
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		outcome := "failed"
		if errors.Is(err, apperr.ErrConflict) {
			outcome = "rejected"
		}
		s.metrics.ObserveRedemption(outcome)
		return nil, storage(err, "redeem_invite")
	}

	s.metrics.ObserveRedemption("redeemed")
	s.profiles.Invalidate(ctx, newMemberID)
	slog.Info("invite redeemed", "user_id", newMemberID.String())
	return profile, nil
}

func (s *InviteService) inviteRequired(ctx context.Context) (bool, error) {
	if s.settings == nil {
		return true, nil
	}
	return s.settings.RequireInviteCode(ctx)
}

func (s *InviteService) admitWithoutInvite(ctx context.Context, newMemberID uuid.UUID, email string) (*models.Profile, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	now := s.now()
	p := &models.Profile{
		ID:               newMemberID,
		Email:            strings.TrimSpace(email),
		AccountStatus:    models.AccountPending,
		Role:             models.RoleMember,
		InvitesRemaining: s.quota,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(p).Error; err != nil {
		if isDuplicate(err) {
			s.metrics.ObserveRedemption("rejected")
			return nil, apperr.Conflict("member already registered")
		}
		s.metrics.ObserveRedemption("failed")
		return nil, storage(err, "open_signup")
	}

	s.metrics.ObserveRedemption("open_signup")
	s.profiles.Invalidate(ctx, newMemberID)
	slog.Info("member admitted without invite", "user_id", newMemberID.String())
	return p, nil
}
