// Package main is the entry point for the todo API server.
//
// The main package stays minimal. Its job is to:
// 1. Read configuration (.env, env vars, optionally a config file)
// 2. Build the logger
// 3. Create the server and run it until SIGINT/SIGTERM
//
// All actual logic lives in internal/.
package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sakif/todo-api/internal/config"
	"github.com/sakif/todo-api/internal/server"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		// No config means no log settings yet; fall back to a plain stderr logger.
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger builds the slog handler named by LOG_FORMAT. Text is easier to
// read in a terminal; JSON is what log shippers want.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadDotEnv reads path into the environment. A missing file is fine; a
// malformed one is an error. Real environment variables take precedence.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
