package main

import (
	"fmt"
	"os"

	"procurement-portal/internal/config"
	"procurement-portal/internal/database"
	"procurement-portal/internal/logging"
	"procurement-portal/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if err := database.Init(cfg.DBDSN, logger); err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}

	r := server.NewRouter(cfg, database.NewWorkflowRepo(database.DB), logger)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", "addr", addr, "backend", cfg.BackendURL)
	if err := r.Run(addr); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
