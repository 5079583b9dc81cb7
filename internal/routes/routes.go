package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Health     *handlers.HealthHandler
	Screen     *handlers.ScreenHandler
	Signal     *handlers.SignalHandler
	Engagement *handlers.EngagementHandler
	Invite     *handlers.InviteHandler
	Report     *handlers.ReportHandler
	Moderation *handlers.ModerationHandler
	Profile    *handlers.ProfileHandler
	Admin      *handlers.AdminHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	reg *metrics.Registry,
	profiles middleware.ProfileLookup,
	h Handlers,
) {
	app.Get("/metrics", reg.Handler())

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Public
	api.Get("/health", h.Health.Check)
	api.Post("/screen", h.Screen.Screen)
	api.Get("/invites/:code", h.Invite.Validate)
	api.Get("/signup-settings", h.Admin.SignupSettings)

	// Identity required; the caller may not have a profile yet
	writes := middleware.NewWriteLimiter(cfg.WriteRatePerMin)
	authed := api.Group("", middleware.OpsToken(cfg), middleware.JWTProtected(cfg), middleware.LoadCaller(profiles), writes.Handler())

	authed.Post("/invites/redeem", h.Invite.Redeem)
	authed.Post("/invites", h.Invite.Issue)
	authed.Get("/me", h.Profile.Me)

	signals := authed.Group("/signals")
	signals.Get("/", h.Signal.Feed)
	signals.Get("/search", h.Signal.Search)
	signals.Post("/", h.Signal.Create)
	signals.Get("/:id", h.Signal.Get)
	signals.Post("/:id/votes", h.Engagement.Vote)
	signals.Get("/:id/comments", h.Engagement.ListComments)
	signals.Post("/:id/comments", h.Engagement.AddComment)
	signals.Post("/:id/views", h.Engagement.RecordView)
	signals.Post("/:id/reports", h.Report.FileReport)
	signals.Post("/:id/claims", h.Report.FileClaim)

	// Moderation panel
	admin := authed.Group("/admin", middleware.RequireModerator())
	admin.Get("/stats", h.Admin.Overview)
	admin.Get("/signals", h.Moderation.ListSignals)
	admin.Get("/signals/:id", h.Moderation.GetSignal)
	admin.Post("/signals/:id/transitions", h.Moderation.Transition)
	admin.Get("/reports", h.Report.ListReports)
	admin.Post("/reports/:id/resolve", h.Report.ResolveReport)
	admin.Get("/claims", h.Report.ListClaims)
	admin.Post("/claims/:id/resolve", h.Report.ResolveClaim)
	admin.Get("/audit", h.Moderation.ListAudit)

	// Member management (admin only)
	members := admin.Group("/members", middleware.RequireAdmin())
	members.Get("/", h.Profile.ListMembers)
	members.Put("/:id/status", h.Profile.SetStatus)
	members.Put("/:id/role", h.Profile.SetRole)

	settings := admin.Group("/settings", middleware.RequireAdmin())
	settings.Get("/", h.Admin.SignupSettings)
	settings.Put("/", h.Admin.UpdateSettings)
}
