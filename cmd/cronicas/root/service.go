package root

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/user/cronicas-do-japao/config"
	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/storage"
)

// openGame wires a game manager over the configured store
func openGame(ctx context.Context) (*game.GameManager, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cfg.Server.LogLevel)
	repo, err := storage.Open(ctx, cfg.Database, logger.Named("storage"))
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	table, err := game.LoadEventTable(cfg.Game.ContentDir)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}

	gm := game.NewGameManager(cfg, repo)
	gm.SetLogger(logger.Named("game"))
	gm.SetEventTable(table)

	cleanup := func() {
		repo.Close()
		logger.Sync()
	}
	return gm, cleanup, nil
}

// newLogger writes warnings and errors to stderr, keeping stdout for output
func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if lvl, err := zapcore.ParseLevel(level); err == nil && lvl > zapcore.WarnLevel {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
