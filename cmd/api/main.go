package main

import (
	"fmt"

	"go.uber.org/zap"

	"coachgate/internal/app"
	"coachgate/internal/config"
	"coachgate/internal/db"
	httpserver "coachgate/internal/http"
)

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

	r := httpserver.NewRouter(gdb, cfg, logger)

	logger.Info("server listening",
		zap.String("port", cfg.AppPort),
		zap.String("env", cfg.Environment))
	if err := r.Run(fmt.Sprintf(":%s", cfg.AppPort)); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
