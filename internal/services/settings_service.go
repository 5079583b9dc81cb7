package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const settingsCacheTTL = 30 * time.Second

// SettingsService stores admin-editable switches. Reads are cached briefly
// in process; a write drops the cached value.
type SettingsService struct {
	base
	cache *gocache.Cache
}

func NewSettingsService(db *gorm.DB, cfg *config.Config) *SettingsService {
	return &SettingsService{
		base:  newBase(db, cfg.DBQueryTimeout),
		cache: gocache.New(settingsCacheTTL, 2*settingsCacheTTL),
	}
}

func (s *SettingsService) WithClock(now func() time.Time) *SettingsService {
	s.now = now
	return s
}

// RequireInviteCode reports whether admission needs an invite. It defaults
// to true until an admin opens signup.
func (s *SettingsService) RequireInviteCode(ctx context.Context) (bool, error) {
	raw, ok, err := s.get(ctx, models.SettingRequireInviteCode)
	if err != nil {
		return true, err
	}
	if !ok {
		return true, nil
	}
	required, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("ignoring malformed setting", "key", models.SettingRequireInviteCode, "value", raw)
		return true, nil
	}
	return required, nil
}

func (s *SettingsService) Signup(ctx context.Context) (*dto.SignupSettings, error) {
	required, err := s.RequireInviteCode(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SignupSettings{RequireInviteCode: required}, nil
}

// SetRequireInviteCode flips admission mode. Admins only; audited.
func (s *SettingsService) SetRequireInviteCode(ctx context.Context, caller principal.Caller, required bool) (*dto.SignupSettings, error) {
	if !caller.Admin() {
		return nil, apperr.Forbidden()
	}

	previous, err := s.RequireInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	now := s.now()
	row := models.AppSetting{
		Key:       models.SettingRequireInviteCode,
		Value:     strconv.FormatBool(required),
		UpdatedAt: now,
	}
	if caller.ID != uuid.Nil {
		row.UpdatedBy = &caller.ID
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return writeAudit(tx, auditEntry(caller.ID, "set_setting", "setting", uuid.Nil,
			strconv.FormatBool(previous), row.Value, "", now, datatypes.JSON(`{"key":"`+models.SettingRequireInviteCode+`"}`)))
	})
	if err != nil {
		return nil, storage(err, "set_setting")
	}

	s.cache.Delete(models.SettingRequireInviteCode)
	slog.Info("setting changed", "key", models.SettingRequireInviteCode, "value", row.Value, "user_id", caller.ID.String())
	return &dto.SignupSettings{RequireInviteCode: required}, nil
}

func (s *SettingsService) get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		raw := v.(string)
		return raw, raw != "", nil
	}

	db, cancel := s.conn(ctx)
	defer cancel()

	var row models.AppSetting
	err := db.First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.cache.SetDefault(key, "")
		return "", false, nil
	}
	if err != nil {
		return "", false, storage(err, "load_setting")
	}
	s.cache.SetDefault(key, row.Value)
	return row.Value, true, nil
}
