package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"passive-genius/internal/api"
	"passive-genius/internal/app"
	"passive-genius/internal/config"
	"passive-genius/internal/planner"
	"passive-genius/internal/telegram"
)

// Prompts above this many tokens trigger an admin alert.
const contextBloatTokens = 4000

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatalf("JWT_SECRET environment variable not set")
	}

	ctx := context.Background()

	// 2. Initialize Services
	var alerts *telegram.AlertRecorder
	opts := app.Options{}
	if cfg.TelegramEnabled() {
		opts.WrapRecorder = func(next planner.Recorder) planner.Recorder {
			alerts = telegram.NewAlertRecorder(next, contextBloatTokens)
			return alerts
		}
	}
	services, err := app.NewServices(ctx, cfg, opts)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Printf("Warning: failed to close services: %v", err)
		}
	}()

	// 3. HTTP API
	handler := api.NewHandler(
		services.Sessions,
		services.Hub,
		services.Feedback,
		api.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL),
		cfg.AIRequestTimeout,
		filepath.Dir(cfg.DatabasePath),
	)
	router := api.NewRouter(handler)

	// 4. Optional Telegram Bot
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg, services.Sessions, services.Feedback, services.Metrics)
		if err != nil {
			log.Fatalf("Failed to initialize Telegram Bot: %v", err)
		}
		alerts.SetAlerter(bot.SendAdminAlert)
		bot.RegisterHandlers(router)
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("PassiveGenius server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
