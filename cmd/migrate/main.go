package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/leaseworks/lease-engine/internal/infrastructure/config"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version, force")
		steps  = flag.Int("steps", 0, "Number of migrations to apply (0 = all)")
		target = flag.Uint("target", 0, "Version to force (for force action)")
		dir    = flag.String("dir", "migrations", "Directory holding migration files")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	m, err := migrate.New("file://"+*dir, cfg.Database.URL)
	if err != nil {
		slog.Error("failed to initialize migrator", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch *action {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = m.Version()
		if err == nil {
			slog.Info("migration status", "version", version, "dirty", dirty)
		}
	case "force":
		err = m.Force(int(*target))
	default:
		slog.Error("unknown action", "action", *action)
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		slog.Error("migration failed", "action", *action, "error", err)
		os.Exit(1)
	}

	slog.Info("migration complete", "action", *action)
}
