package main

import (
	"go.uber.org/zap"

	"coachgate/internal/app"
	"coachgate/internal/config"
	"coachgate/internal/db"
	"coachgate/internal/seed"
)

// Bootstrap tool: migrates the schema and seeds the first admin account
// plus a couple of sample resources. Safe to run repeatedly.
func main() {
	cfg := config.Load()

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	gdb, err := db.Connect(cfg.DSN)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	if err := db.AutoMigrate(gdb); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	if err := seed.FirstSetup(gdb); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	logger.Info("bootstrap complete")
}
