package main

import (
	"go.uber.org/zap"

	"gucnotify/config"
	"gucnotify/internal/db"
	"gucnotify/internal/handler"
	"gucnotify/internal/httpserver"
	"gucnotify/internal/mq"
	"gucnotify/internal/repository"
	"gucnotify/internal/scraper"
	"gucnotify/internal/service"
	"gucnotify/internal/todoist"
	"gucnotify/internal/util"
)

func main() {
	cfg := config.Load()

	logger := util.NewLogger()
	defer logger.Sync()

	logger.Info("Starting api service...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("port", cfg.Server.Port),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// MQ Publisher（注册成功后立即广播一次 user.sync）
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Collaborator clients
	cmsClient := scraper.NewCMSClient(cfg.Scraper.CMSBaseURL)
	todoistFactory := todoist.NewFactory(cfg.Todoist.BaseURL)

	// Repositories & services
	userRepo := repository.NewUserRepository(dbConn)
	registration := service.NewRegistration(userRepo, cmsClient, todoistFactory, publisher, cfg.JWT.Secret, logger)

	// HTTP
	accountHandler := handler.NewAccountHandler(registration)
	router := httpserver.NewRouter(accountHandler, cfg.JWT.Secret)

	logger.Info("api service listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
