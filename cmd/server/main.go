package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/oni-tag/game-backend/internal/config"
	"github.com/oni-tag/game-backend/internal/httpapi"
	"github.com/oni-tag/game-backend/internal/notify"
	"github.com/oni-tag/game-backend/internal/session"
	"github.com/oni-tag/game-backend/internal/stats"
	"github.com/oni-tag/game-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := buildLogger(cfg.Dev)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	st := store.NewRedis(rdb)

	statsStore, err := buildStatsStore(cfg, st, logger)
	if err != nil {
		logger.Fatal("stats store", zap.Error(err))
	}

	hub := notify.NewHub(ctx)
	manager := session.New(session.Options{
		Store:    st,
		Logger:   logger,
		Notifier: hub,
		Stats:    statsStore,
	})

	go runSweeper(ctx, manager, cfg.SweepInterval, logger)

	handler := httpapi.SetupRoutes(manager, hub, logger)
	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildStatsStore(cfg config.Config, st store.Store, logger *zap.Logger) (stats.Store, error) {
	if cfg.PostgresDSN == "" {
		logger.Info("career stats on key-value store")
		return stats.NewKV(st), nil
	}
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	logger.Info("career stats on postgres")
	return stats.NewDB(db)
}

func runSweeper(ctx context.Context, m *session.Manager, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.SweepStaleSessions(ctx)
			if err != nil {
				logger.Warn("stale sweep", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("stale sweep", zap.Int("removed", removed))
			}
		}
	}
}
