package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gucnotify/config"
	mqcontracts "gucnotify/contracts/mq"
	"gucnotify/internal/db"
	"gucnotify/internal/factstore"
	"gucnotify/internal/mailer"
	"gucnotify/internal/mq"
	"gucnotify/internal/mqhandler"
	redisclient "gucnotify/internal/redis"
	"gucnotify/internal/scraper"
	"gucnotify/internal/service"
	"gucnotify/internal/todoist"
	"gucnotify/internal/util"
)

func main() {
	cfg := config.Load()

	logger := util.NewLogger()
	defer logger.Sync()

	logger.Info("Starting worker service...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("mq_url", cfg.MQ.URL),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis（webmail session 缓存；挂了也不致命）
	rdb, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()
	sessions := scraper.NewSessionCache(rdb, time.Hour, logger)

	// MQ Publisher（侦测到新条目时广播 course.item.new）
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Collaborators
	cmsClient := scraper.NewCMSClient(cfg.Scraper.CMSBaseURL)
	mailClient := scraper.NewMailClient(cfg.Scraper.MailBaseURL)
	todoistFactory := todoist.NewFactory(cfg.Todoist.BaseURL)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)

	// Core services
	facts := factstore.NewPostgresStore(dbConn)
	detector := service.NewDetector(facts, cmsClient, publisher, smtpMailer, logger)
	watcher := service.NewMailWatcher(facts, mailClient, sessions, logger)

	// Handlers
	cmsHandler := mqhandler.NewScrapeCMSHandler(detector, logger)
	mailHandler := mqhandler.NewScrapeMailHandler(watcher, logger)
	taskHandler := mqhandler.NewTodoistTaskHandler(todoistFactory, logger)
	emailHandler := mqhandler.NewEmailNotificationHandler(smtpMailer, logger)

	type consumerSpec struct {
		queue      string
		routingKey string
		handler    mq.MessageHandler
	}
	specs := []consumerSpec{
		{mqcontracts.QueueScrapeCMS, mqcontracts.RoutingKeyUserSync, cmsHandler.HandleUserSync},
		{mqcontracts.QueueScrapeMail, mqcontracts.RoutingKeyUserSync, mailHandler.HandleUserSync},
		{mqcontracts.QueueTodoistTask, mqcontracts.RoutingKeyCourseItemNew, taskHandler.HandleCourseItem},
		{mqcontracts.QueueEmailNotify, mqcontracts.RoutingKeyCourseItemNew, emailHandler.HandleCourseItem},
	}

	consumers := make([]*mq.Consumer, 0, len(specs))
	for _, spec := range specs {
		logger.Info("Initializing consumer",
			zap.String("queue", spec.queue),
			zap.String("routing_key", spec.routingKey),
		)
		consumer, err := mq.NewConsumer(cfg.MQ.URL, spec.queue, spec.routingKey, logger)
		if err != nil {
			logger.Fatal("Failed to init consumer",
				zap.String("queue", spec.queue),
				zap.Error(err),
			)
		}
		consumer.SetHandler(spec.handler)
		consumers = append(consumers, consumer)

		go func(c *mq.Consumer, queue string) {
			if err := c.StartConsuming(); err != nil {
				logger.Fatal("Consumer failed",
					zap.String("queue", queue),
					zap.Error(err),
				)
			}
		}(consumer, spec.queue)
	}
	defer func() {
		for _, c := range consumers {
			c.Close()
		}
	}()

	logger.Info("All consumers started, worker is ready to process messages")

	// HTTP server: health + metrics
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "worker"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	go func() {
		logger.Info("Worker HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker gracefully...")

	for _, c := range consumers {
		c.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("Worker shutdown complete")
}
