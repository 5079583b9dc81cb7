// Command seed promotes one or more identity provider subjects to approved
// admins. Running it twice is harmless.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	"github.com/google/uuid"
)

func main() {
	admins := flag.String("admin", "", "comma-separated subject UUIDs to promote")
	email := flag.String("email", "", "contact email stored on new profiles")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(logging.ParseLevel(cfg.AppEnv))

	var ids []uuid.UUID
	for _, raw := range strings.Split(*admins, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			slog.Error("invalid admin id", "value", raw, "error", err)
			os.Exit(2)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		slog.Error("at least one -admin id is required")
		os.Exit(2)
	}

	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := services.NewProfileService(database.DB, cfg, nil).BootstrapAdmins(ctx, ids, *email)
	if err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("admins seeded", "count", n)
}
