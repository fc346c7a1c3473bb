package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/NemoKam/VSrapInformer/internal/application/reconcile"
	"github.com/NemoKam/VSrapInformer/internal/application/user"
	"github.com/NemoKam/VSrapInformer/internal/config"
	"github.com/NemoKam/VSrapInformer/internal/infrastructure/postgres"
	s3infra "github.com/NemoKam/VSrapInformer/internal/infrastructure/s3"
	"github.com/NemoKam/VSrapInformer/internal/scraper"
)

func main() {
	once := flag.Bool("once", false, "run a single reconciliation pass and exit")
	interval := flag.Duration("interval", 0, "reconciliation interval (overrides RECONCILE_INTERVAL)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	if *interval > 0 {
		cfg.ReconcileInterval = *interval
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// Product images are mirrored to S3 when a bucket is configured.
	var images scraper.ImageStore
	if cfg.S3BucketName != "" {
		images = s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)
	}

	fetcher := scraper.NewFetcher(cfg, logger)
	crawler := scraper.New(cfg, fetcher, images, logger)

	collectionRepo := postgres.NewCollectionRepo(pool)
	reconciler := reconcile.NewService(
		crawler,
		collectionRepo,
		postgres.NewProductRepo(pool),
		postgres.NewCombinationRepo(pool),
		logger,
	)

	userSvc := user.NewService(user.ServiceDeps{
		UserRepo: postgres.NewUserRepo(pool),
		CodeRepo: postgres.NewCodeRepo(pool),
		Logger:   logger,
	})

	if *once {
		if err := reconciler.Run(ctx); err != nil {
			logger.Error("reconciliation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go runReconcileLoop(ctx, reconciler, cfg.ReconcileInterval, logger)
	go runPurgeLoop(ctx, userSvc, postgres.NewSessionRepo(pool), cfg.PurgeInterval, logger)

	<-quit
	logger.Info("shutting down scraper")
	cancel()
}

// runReconcileLoop runs one reconciliation immediately, then repeats on a
// fixed interval until the context is cancelled.
func runReconcileLoop(ctx context.Context, reconciler *reconcile.Service, interval time.Duration, logger *slog.Logger) {
	if err := reconciler.Run(ctx); err != nil {
		logger.Error("reconciliation failed", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := reconciler.Run(ctx); err != nil {
				logger.Error("reconciliation failed", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// runPurgeLoop periodically removes expired unverified accounts, expired
// verification codes and stale sessions.
func runPurgeLoop(ctx context.Context, userSvc user.Service, sessions *postgres.SessionRepo, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := userSvc.PurgeExpired(ctx); err != nil {
				logger.Error("purge failed", "err", err)
			}
			if _, err := sessions.DeleteExpired(ctx, time.Now().UTC()); err != nil {
				logger.Error("session cleanup failed", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
