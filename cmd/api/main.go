package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/card-service/internal/config"
	"github.com/Dan9191/card-service/internal/database"
	"github.com/Dan9191/card-service/internal/handler"
	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/Dan9191/card-service/internal/middleware"
	"github.com/Dan9191/card-service/internal/notify"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/Dan9191/card-service/internal/scheduler"
	"github.com/Dan9191/card-service/internal/service"
	"github.com/Dan9191/card-service/internal/validation"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Open(ctx, database.Config{
		DSN:             cfg.DBConn,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		RetryAttempts:   cfg.DBRetryAttempts,
		RetryBackoff:    cfg.DBRetryBackoff,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	go db.LogStats(ctx, time.Minute)

	m := metrics.New()

	// Notifications
	var sender notify.Notifier = notify.Nop{}
	if cfg.NotificationsEnabled() {
		sender = notify.NewSender(cfg, logger)
	}
	notifier := notify.NewAsync(sender, 100, cfg.NotifyRatePerSecond, logger)
	notifyCtx, stopNotify := context.WithCancel(context.Background())
	defer stopNotify()
	notifier.Start(notifyCtx)

	// Initialize layers
	repo := repository.NewRepository(db)
	creds := service.NewCredentialService(cfg.JWTSecret, cfg.JWTExpiry, 0)
	users := service.NewUserService(repo, creds, notifier, logger)
	cards := service.NewCardService(repo, repo, creds, notifier, logger)
	h := handler.NewHandler(users, cards, validation.New(), db, logger)

	// Rate limits
	general := middleware.NewRateLimiter(middleware.Policy{
		Name: "general", Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax, Scope: middleware.ScopeGlobal,
	}, logger, m)
	authLimit := middleware.NewRateLimiter(middleware.Policy{
		Name: "auth", Window: cfg.RateLimitWindow, Max: cfg.AuthRateLimitMax, Scope: middleware.ScopeRoute,
	}, logger, m)
	cardLimit := middleware.NewRateLimiter(middleware.Policy{
		Name: "card", Window: cfg.RateLimitWindow, Max: cfg.CardRateLimitMax, Scope: middleware.ScopeGlobal,
	}, logger, m)
	for _, rl := range []*middleware.RateLimiter{general, authLimit, cardLimit} {
		rl.StartCleanup(ctx, cfg.RateLimitWindow)
	}

	// Setup router
	r := handler.NewRouter(h, handler.Middleware{
		Logging:   middleware.Logging(logger),
		Metrics:   middleware.Metrics(m),
		Auth:      middleware.Auth(creds, logger),
		General:   general.Handler,
		AuthLimit: authLimit.Handler,
		CardLimit: cardLimit.Handler,
	}, m.Handler())

	// Expired card sweeper
	sched := scheduler.New(logger, m)
	if err := sched.AddCardSweep(cfg.SweepSchedule, cards); err != nil {
		logger.Fatalf("Failed to schedule sweeper: %v", err)
	}
	sched.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	sched.Stop(shutdownCtx)

	// in-flight requests are done, so nothing enqueues after this
	stopNotify()
	notifier.Wait()
}
