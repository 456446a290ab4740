package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	apiHttp "github.com/inknote/backend/internal/api/http"
	"github.com/inknote/backend/internal/cache"
	"github.com/inknote/backend/internal/config"
	"github.com/inknote/backend/internal/db"
	"github.com/inknote/backend/internal/googleauth"
	"github.com/inknote/backend/internal/queue"
	"github.com/inknote/backend/internal/queue/asynqserver"
	"github.com/inknote/backend/internal/repository"
	"github.com/inknote/backend/internal/server"
	"github.com/inknote/backend/internal/service"
	"github.com/inknote/backend/internal/worker"
	"github.com/inknote/backend/pkg/auth"
	emailSmtp "github.com/inknote/backend/pkg/email/smtp"
	"github.com/inknote/backend/pkg/logger"
	"github.com/inknote/backend/pkg/otp"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	// Dependencies
	logger.MustSetup(cfg.Env, cfg.LogLevel)

	logger.Info("starting backend api", zap.String("env", cfg.Env))
	logger.Debug("debug messages are enabled")

	// Init database
	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		logger.Error("mysql connect problem", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := dbMySQL.Close(); err != nil {
			logger.Error("error when closing mysql", zap.Error(err))
		}
	}()
	logger.Info("mysql connection done")

	redisClient, err := cache.NewRedis(cfg.Cache)
	if err != nil {
		logger.Error("redis connect problem", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("error when closing redis", zap.Error(err))
		}
	}()
	logger.Info("redis connection done")

	emailSender, err := emailSmtp.NewSMTPSender(cfg.SMTP.From, cfg.SMTP.Pass, cfg.SMTP.Host, cfg.SMTP.Port)
	if err != nil {
		logger.Error("smtp sender creation failed", zap.Error(err))
		return
	}

	tokenManager, err := auth.NewManager(cfg.Auth.JWT)
	if err != nil {
		logger.Error("auth manager creation failed", zap.Error(err))
		return
	}

	otpGenerator := otp.NewRandomGenerator()
	googleClient := googleauth.NewClient(cfg.Google)

	// Queue client and workers
	queueClient := asynq.NewClient(asynqserver.RedisOptions(cfg.Cache))
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Error("error when closing queue client", zap.Error(err))
		}
	}()

	// Services, Repos & API Handlers
	repos := repository.NewRepositories(dbMySQL)
	services := service.NewServices(service.Deps{
		Config:         cfg,
		TokenManager:   tokenManager,
		OtpGenerator:   otpGenerator,
		GoogleVerifier: googleClient,
		Notifier:       queue.NewEmailNotifier(queueClient, cfg.Email),
		Repos:          repos,
	})

	workers := worker.NewWorkers(worker.Deps{
		EmailProvider: emailSender,
		Repos:         repos,
		Config:        cfg,
	})

	queueServer, queueMux := asynqserver.New(cfg.Cache, workers)
	go func() {
		if err := queueServer.Run(queueMux); err != nil {
			logger.Error("error occurred while running queue server", zap.Error(err))
		}
	}()

	scheduler, err := asynqserver.NewScheduler(cfg.Cache)
	if err != nil {
		logger.Error("scheduler creation failed", zap.Error(err))
		return
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("error occurred while running scheduler", zap.Error(err))
		}
	}()

	handlers := apiHttp.NewHandlers(services, tokenManager, cfg, apiHttp.NewHealthChecker(dbMySQL, redisClient))

	// HTTP Server
	srv := server.NewServer(cfg, handlers.Init(cfg))
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("error occurred while running http server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("port", cfg.HttpServer.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	scheduler.Shutdown()
	queueServer.Shutdown()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("failed to stop server", zap.Error(err))
	}

	logger.Info("app stopped")
}
