package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskhub/backend/api/handler"
	"github.com/taskhub/backend/internal/cascade"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/infrastructure/journal"
	"github.com/taskhub/backend/internal/infrastructure/monitor"
	pgInfra "github.com/taskhub/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskhub/backend/internal/infrastructure/redis"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/router"
	"github.com/taskhub/backend/internal/services/lifecycle"
	"github.com/taskhub/backend/pkg/httpcontext"
	"github.com/taskhub/backend/pkg/logger"
	"github.com/taskhub/backend/policy"
	"github.com/taskhub/backend/repository/postgres"
	redisRepo "github.com/taskhub/backend/repository/redis"
	authUC "github.com/taskhub/backend/usecase/auth"
	taskUC "github.com/taskhub/backend/usecase/task"
	userUC "github.com/taskhub/backend/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journalStore, err := journal.Open(cfg.Cascade.JournalPath)
	if err != nil {
		zapLogger.Fatal("failed to open cascade journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Auth.SessionTTL)

	accessPolicy := policy.New(policy.NewConfig(cfg.Auth.ProtectedEmails, cfg.Auth.ProtectedIDs))

	cascader := cascade.New(taskRepo, journalStore, mon, zapLogger, cascade.Config{
		Interval:   cfg.Cascade.RetryInterval,
		BatchSize:  cfg.Cascade.BatchSize,
		MaxRetries: cfg.Cascade.MaxRetries,
	})
	cascader.Start()
	manager.Register("cascader", func(ctx context.Context) error {
		cascader.Stop(ctx)
		return nil
	})

	// Out-of-band user deletions (psql, another service) reach the cascade
	// through a delete trigger that NOTIFYs the user id.
	listener := pgInfra.NewListener(pool, cfg.Cascade.ListenChannel, cascader.HandleDeletion, zapLogger)
	listener.Start(appCtx)
	manager.Register("pg_listener", func(ctx context.Context) error {
		listener.Stop()
		return nil
	})

	authUseCase := authUC.New(userRepo, sessionRepo, accessPolicy, authUC.Config{
		JWTSecret:  cfg.Auth.JWTSecret,
		JWTIssuer:  cfg.Auth.JWTIssuer,
		TokenTTL:   cfg.Auth.TokenTTL,
		SessionTTL: cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, zapLogger)
	taskUseCase := taskUC.New(taskRepo, userRepo, accessPolicy, zapLogger)
	userUseCase := userUC.New(userRepo, cascader, accessPolicy, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	secureCookies := cfg.Environment == "production"
	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.Auth.SessionCookie, cfg.Auth.SessionTTL, secureCookies),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		User:   apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Admin:  apiHandler.NewAdminHandler(userUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authenticate := middleware.Authenticate(authUseCase, cfg.Auth.SessionCookie, zapLogger)
	r := router.New(handlers, authenticate)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
