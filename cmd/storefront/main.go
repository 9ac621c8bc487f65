package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agribasket/internal/api"
	"agribasket/internal/cart"
	"agribasket/internal/checkout"
	"agribasket/internal/config"
	"agribasket/internal/facade"
	"agribasket/internal/logger"
	"agribasket/internal/session"
	"agribasket/internal/storage"
	"agribasket/internal/syncer"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	durable, cleanup := buildDurableArea(cfg)
	defer cleanup()
	sessionArea := storage.NewMemory()

	client := api.NewClient(cfg.APIBaseURL, func() string {
		return session.StoredToken(context.Background(), durable, sessionArea)
	})

	mirror := syncer.NewBestEffort(client)
	cartStore := cart.NewStore(durable, mirror)
	defer cartStore.Close()

	staging, err := checkout.NewStaging(sessionArea, cartStore)
	if err != nil {
		log.Fatalf("failed to init checkout staging: %v", err)
	}

	bridge := session.NewBridge(client, durable, sessionArea, cartStore)

	bootCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if u := bridge.Boot(bootCtx); u != nil {
		logger.L().Info("booted authenticated", zap.String("email", u.Email))
	} else {
		logger.L().Info("booted anonymous")
	}
	cancel()

	srv := facade.New(":"+cfg.AppPort, facade.Deps{
		Cart:      cartStore,
		Staging:   staging,
		Bridge:    bridge,
		Backend:   client,
		SyncStats: mirror.Stats(),
	}, cfg.AllowedOrigins)

	go func() {
		logger.L().Info("🚀 storefront facade running", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil {
			logger.L().Warn("facade stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L().Warn("facade shutdown failed", zap.Error(err))
	}

	// let in-flight mirror calls finish before the process dies
	mirror.Flush()
}

func buildDurableArea(cfg *config.Config) (storage.Storage, func()) {
	switch cfg.StorageDriver {
	case "memory":
		return storage.NewMemory(), func() {}

	case "file":
		area, err := storage.NewFile(cfg.StateDir)
		if err != nil {
			log.Fatalf("failed to open state dir %s: %v", cfg.StateDir, err)
		}
		return area, func() {}

	case "postgres":
		area, err := storage.OpenSQL(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open state database: %v", err)
		}
		return area, func() { _ = area.Close() }

	case "redis":
		area := storage.NewRedis(cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := area.Start(ctx); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		return area, func() { _ = area.Stop(context.Background()) }

	default:
		log.Fatalf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
		return nil, nil
	}
}
