package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/NemoKam/VSrapInformer/internal/application/notifier"
	"github.com/NemoKam/VSrapInformer/internal/config"
	jwtinfra "github.com/NemoKam/VSrapInformer/internal/infrastructure/jwt"
	"github.com/NemoKam/VSrapInformer/internal/infrastructure/postgres"
	"github.com/NemoKam/VSrapInformer/internal/infrastructure/smtp"
	"github.com/NemoKam/VSrapInformer/internal/infrastructure/sns"
	transporthttp "github.com/NemoKam/VSrapInformer/internal/transport/http"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		logger.Error("postgres connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Bootstrap(ctx, pool); err != nil {
		logger.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		logger.Error("jwt key load failed", "err", err)
		os.Exit(1)
	}

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		logger.Warn("sns sender not available", "err", err)
	}

	dispatcher := notifier.New(smtp.NewMailer(cfg), smsSender, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	deps := &transporthttp.Deps{
		UserRepo:        postgres.NewUserRepo(pool),
		CodeRepo:        postgres.NewCodeRepo(pool),
		SessionRepo:     postgres.NewSessionRepo(pool),
		CollectionRepo:  postgres.NewCollectionRepo(pool),
		ProductRepo:     postgres.NewProductRepo(pool),
		CombinationRepo: postgres.NewCombinationRepo(pool),
		Notifier:        dispatcher,
		JWTProvider:     jwtProvider,
		Logger:          logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
