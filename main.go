// go_media — scrape-and-insert relay for mobile shortcuts.
//
// A single authenticated HTTP endpoint takes a search topic, queries
// YouTube, Openverse and Archive.org in parallel, normalizes and
// deduplicates the results and appends the new ones to an Airtable
// table. Built so an iOS/Android shortcut can do one POST and get a
// summary back.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/anatolykoptev/go_media/internal/engine"
	"github.com/anatolykoptev/go_media/internal/engine/airtable"
	"github.com/anatolykoptev/go_media/internal/engine/ingest"
	"github.com/anatolykoptev/go_media/internal/engine/providers"
	"github.com/anatolykoptev/go_media/internal/mediaserver"
)

var version = "dev"

func main() {
	cfg := engine.FromEnv()
	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		slog.Error("configuration invalid", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := providers.NewRegistry(cfg)
	store := airtable.NewClient(airtable.ClientConfig{
		APIKey:  cfg.AirtableAPIKey,
		BaseID:  cfg.AirtableBaseID,
		Table:   cfg.AirtableTable,
		BaseURL: cfg.AirtableBaseURL,
	}, cfg.HTTPClient)

	slog.Info("starting go_media",
		slog.String("version", version),
		slog.String("addr", cfg.ListenAddr),
		slog.Any("providers", registry.Names()),
	)

	server := mediaserver.New(cfg, registry, ingest.NewGateway(store, airtable.MaxBatchSize))
	if err := server.Run(ctx); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func setupLogger(cfg engine.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if dir := filepath.Dir(cfg.LogFile); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			slog.Warn("cannot create log directory, logging to stdout only", "error", err)
			cfg.LogFile = ""
		}
	}

	var w io.Writer = os.Stdout
	if cfg.LogFile != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	}).WithAttrs([]slog.Attr{slog.String("service", "go_media")})

	slog.SetDefault(slog.New(handler))
}
