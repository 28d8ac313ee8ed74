package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/cronicas-do-japao/config"
	"github.com/user/cronicas-do-japao/internal/dice"
	"github.com/user/cronicas-do-japao/internal/game"
	"github.com/user/cronicas-do-japao/internal/httpapi"
	"github.com/user/cronicas-do-japao/internal/storage"
	"github.com/user/cronicas-do-japao/internal/systems"
	"github.com/user/cronicas-do-japao/internal/whatsapp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		bootstrap := setupLogger("info")
		bootstrap.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	ctx := context.Background()

	repo, err := storage.Open(ctx, cfg.Database, logger.Named("storage"))
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer repo.Close()

	// Initialize game manager
	gameManager := game.NewGameManager(cfg, repo)
	gameManager.SetLogger(logger.Named("game"))

	table, err := game.LoadEventTable(cfg.Game.ContentDir)
	if err != nil {
		logger.Fatal("Failed to load age events", zap.Error(err))
	}
	gameManager.SetEventTable(table)
	logger.Info("Loaded age events", zap.Int("ages", len(table.Ages())))

	sys := systems.New(repo, dice.NewRoller(), logger)
	for _, src := range sys.OmenSources() {
		gameManager.AddOmenSource(src)
	}

	api := httpapi.NewServer(gameManager, sys, logger.Named("http"))

	var clientManager *whatsapp.ClientManager
	if cfg.WhatsApp.Enabled {
		clientManager = whatsapp.NewClientManager(gameManager, sys, cfg, logger.Named("whatsapp"))
		gameManager.SetMessageSender(clientManager)

		if err := clientManager.RestoreSessions(); err != nil {
			logger.Error("Failed to restore existing sessions", zap.Error(err))
		}
		api.SetPairing(whatsapp.NewQRCodeManager(clientManager, cfg, logger.Named("whatsapp")))
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.Router(),
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Start the event system after everything else is initialized
	gameManager.StartEventSystem()

	waitForShutdown(logger)

	gameManager.StopEventSystem()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if clientManager != nil {
		clientManager.DisconnectAll()
	}
	logger.Info("Shutdown complete")
}

func setupLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}

func waitForShutdown(logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
}
