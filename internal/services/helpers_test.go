package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/principal"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/screening"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// testClock advances one second per reading so rows get distinct,
// ordered timestamps.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	db         *gorm.DB
	cfg        *config.Config
	clock      *testClock
	hooks      *recordingHook
	signals    *SignalService
	engagement *EngagementService
	query      *QueryService
	invites    *InviteService
	reports    *ReportService
	profiles   *ProfileService
	settings   *SettingsService
	stats      *StatsService
}

type recordingHook struct {
	mu     sync.Mutex
	events []events.TransitionEvent
}

func (h *recordingHook) OnTransition(_ context.Context, ev events.TransitionEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return nil
}

func (h *recordingHook) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	cfg := &config.Config{
		DBQueryTimeout:       5 * time.Second,
		SignalDescriptionMax: 2000,
		InviteTTL:            7 * 24 * time.Hour,
		InvitesPerMember:     3,
	}
	screener, err := screening.New(screening.DefaultRules())
	if err != nil {
		t.Fatalf("screening.New() error = %v", err)
	}
	x, err := database.NewReader(db)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	clock := newTestClock()
	hooks := &recordingHook{}
	loader := cache.NewLoader(cache.NewMemoryCache(time.Minute))

	signals := NewSignalService(db, cfg, screener, nil, hooks).WithClock(clock.Now)
	settings := NewSettingsService(db, cfg).WithClock(clock.Now)
	return &fixture{
		db:         db,
		cfg:        cfg,
		clock:      clock,
		hooks:      hooks,
		signals:    signals,
		engagement: NewEngagementService(db, cfg, screener, nil).WithClock(clock.Now),
		query:      NewQueryService(x, cfg.DBQueryTimeout).WithClock(clock.Now),
		invites:    NewInviteService(db, cfg, loader, nil, settings).WithClock(clock.Now),
		reports:    NewReportService(signals).WithClock(clock.Now),
		profiles:   NewProfileService(db, cfg, loader).WithClock(clock.Now),
		settings:   settings,
		stats:      NewStatsService(db, x, cfg.DBQueryTimeout),
	}
}

// member inserts a profile and returns the matching caller.
func (f *fixture) member(t *testing.T, status models.AccountStatus, role models.Role) principal.Caller {
	t.Helper()
	now := f.clock.Now()
	p := models.Profile{
		ID:               uuid.New(),
		AccountStatus:    status,
		Role:             role,
		InvitesRemaining: f.cfg.InvitesPerMember,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := f.db.Create(&p).Error; err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return principal.FromProfile(p)
}

func validSignalRequest() *dto.CreateSignalRequest {
	return &dto.CreateSignalRequest{
		SubjectFirstName:   "jordan",
		SubjectLastInitial: "k",
		SubjectIdentifier:  "+1 555-123-4567",
		SubjectPlatform:    "Hinge",
		Description:        "we met for coffee and the conversation was easy and kind.",
		GreenFlags:         []string{"punctual", "Kind", "kind"},
		RedFlags:           []string{},
		OverallSignal:      "green",
	}
}

// activeSignal creates a signal as author and approves it as mod.
func (f *fixture) activeSignal(t *testing.T, author, mod principal.Caller, req *dto.CreateSignalRequest) *models.Signal {
	t.Helper()
	ctx := t.Context()
	s, err := f.signals.Create(ctx, author, req)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s, err = f.signals.Transition(ctx, mod, s.ID, &dto.TransitionRequest{Action: "approve"})
	if err != nil {
		t.Fatalf("Transition(approve) error = %v", err)
	}
	return s
}
