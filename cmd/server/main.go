// Package main is the entry point for the notekeeper API server.
//
// main stays minimal: read configuration from the environment, build the
// logger, hand everything to internal/server. All actual logic lives in the
// imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sakif/notekeeper/internal/server"
)

func main() {
	logLevel := slog.LevelInfo
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if err := logLevel.UnmarshalText([]byte(lvl)); err != nil {
			logLevel = slog.LevelInfo
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/notekeeper.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// The signing secret is mandatory: a server that silently falls back to
	// an empty secret would mint tokens anyone can forge. Fail at startup,
	// not at the first login.
	// Generate one with: JWT_SECRET=$(openssl rand -hex 32)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is not set, refusing to start")
		os.Exit(1)
	}

	cfg := server.Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
