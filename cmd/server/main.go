// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rideviz/internal/analysis"
	"rideviz/internal/chat"
	"rideviz/internal/common/config"
	"rideviz/internal/common/database"
	"rideviz/internal/common/logger"
	"rideviz/internal/common/observability"
	"rideviz/internal/genai"
	"rideviz/internal/geocode"
	"rideviz/internal/server"
)

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting rideviz server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	log = logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	obs := observability.New(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
	defer obs.Shutdown()

	// --- Collaborators ---
	chatClient := chat.NewClient(cfg.ChatBackend.BaseURL, cfg.ChatBackend.ChatTimeout(), log)
	genaiClient := genai.NewClient(cfg.GenAI.BaseURL, cfg.GenAI.APIKey, cfg.GenAI.Model)
	resolver := geocode.NewResolver(cfg.Geocoding.BaseURL, cfg.Geocoding.APIKey, log)

	// --- Analysis pipeline ---
	registry := analysis.NewGeocodeRegistry(resolver, log)
	orchestrator := analysis.NewOrchestrator(
		genaiClient,
		registry,
		cfg.Analysis.MaxCapabilityRounds,
		log,
		obs,
	)

	// --- Session store: Redis, falling back to memory for local runs ---
	var store server.Store
	redisClient, err := database.NewRedis(cfg.Redis)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err = redisClient.Ping(pingCtx)
		cancel()
	}
	if err != nil {
		log.WithError(err).Warn("redis unavailable, sessions held in memory", nil)
		store = server.NewMemoryStore()
	} else {
		defer redisClient.Close()
		store = server.NewRedisStore(redisClient, time.Duration(cfg.Server.SessionTTL)*time.Second)
	}

	srv := server.New(cfg, chatClient, orchestrator, store, log)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLog.Error("shutdown failed", zap.Error(err))
	}
}
