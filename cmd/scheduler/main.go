package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gucnotify/config"
	"gucnotify/internal/db"
	"gucnotify/internal/mq"
	"gucnotify/internal/repository"
	"gucnotify/internal/service"
	"gucnotify/internal/util"
)

func main() {
	cfg := config.Load()

	logger := util.NewLogger()
	defer logger.Sync()

	logger.Info("Starting scheduler...",
		zap.Duration("interval", cfg.Scheduler.Interval),
		zap.Int("page_size", cfg.Scheduler.PageSize),
	)

	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	userRepo := repository.NewUserRepository(dbConn)
	feed := service.NewUserFeed(userRepo, publisher, cfg.Scheduler.PageSize, logger)

	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.Interval)
		defer cancel()

		published, err := feed.PublishAll(ctx)
		if err != nil {
			logger.Error("User sync cycle failed",
				zap.Int("published_before_failure", published),
				zap.Error(err),
			)
			return
		}
		logger.Info("User sync cycle complete", zap.Int("published", published))
	}

	// 启动时先跑一轮，然后按固定间隔触发
	runOnce()

	ticker := time.NewTicker(cfg.Scheduler.Interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runOnce()
		case <-quit:
			logger.Info("Scheduler shutting down")
			return
		}
	}
}
