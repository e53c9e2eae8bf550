// Command server runs the code compiler HTTP API.
//
// Configuration comes from an optional TOML file named by CONFIG_FILE and
// environment variables (PORT, DB_PATH, WORKSPACE_ROOT, LOG_LEVEL,
// JWT_SECRET, CLIENT_ID, CLIENT_SECRET, TOKEN_TTL, OUTPUT_ENCODINGS,
// CSHARP_HOST). See internal/config.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/code-compiler/internal/config"
	"github.com/sakif/code-compiler/internal/executor/local"
	"github.com/sakif/code-compiler/internal/server"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	execCfg, _ := cfg.Executor()
	if err := os.MkdirAll(execCfg.WorkspaceRoot, 0o755); err != nil {
		logger.Error("failed to create workspace root",
			slog.String("dir", execCfg.WorkspaceRoot),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	exec, err := local.New(execCfg, logger)
	if err != nil {
		logger.Error("failed to create executor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for lang, missing := range exec.MissingToolchains() {
		logger.Warn("toolchain not found on PATH, requests will fail",
			slog.String("language", string(lang)),
			slog.Any("missing", missing),
		)
	}

	ttl, _ := cfg.TokenTTL()
	srv, err := server.New(server.Config{
		Port:         cfg.Port,
		DBPath:       cfg.DBPath,
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     ttl,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
	}, logger, exec)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
