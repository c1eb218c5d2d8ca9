package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"invoice-backend/internal/auth"
	"invoice-backend/internal/cache"
	"invoice-backend/internal/config"
	"invoice-backend/internal/db"
	"invoice-backend/internal/handlers"
	"invoice-backend/internal/health"
	h "invoice-backend/internal/http"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/middleware"
	"invoice-backend/internal/repositories"
	"invoice-backend/internal/services"
	"invoice-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWT.Secret == config.DefaultSecret && !cfg.Log.Development {
		logger.Warn("jwt.secret is the shipped default; set JWT_SECRET before exposing this server")
	}

	driver, err := db.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver), zap.String("dir", cfg.Storage.Dir))

	// Redis backs the cross-process lock and, optionally, the dashboard cache.
	var redisClient *cache.Redis
	if cfg.Lock.Driver == "redis" || cfg.Redis.DashboardCache {
		redisClient, err = cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			if cfg.Lock.Driver == "redis" {
				driver.Close()
				return err
			}
			logger.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	opts := []store.Option{store.WithLogger(logger)}
	if cfg.Lock.Driver == "redis" {
		opts = append(opts, store.WithLocker(redisClient.NewLocker(cfg.Lock.TTL, logger)))
	}
	st := store.New(driver, opts...)
	defer st.Close()

	events := logging.NewEvents(logger)

	var dashboardCache services.DashboardCache = services.NoCache()
	if cfg.Redis.DashboardCache && redisClient != nil {
		dashboardCache = redisClient
	}

	// Repositories
	userRepo := repositories.NewUserRepository(st)
	clientRepo := repositories.NewClientRepository(st)
	invoiceRepo := repositories.NewInvoiceRepository(st)

	// Services
	jwtManager := auth.NewJWTManager(cfg.JWT)
	authService, err := services.NewAuthService(userRepo, jwtManager, cfg.Admin, events)
	if err != nil {
		return err
	}
	if _, created, err := authService.EnsureAdmin(ctx); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	} else if created {
		logger.Info("admin user created", zap.String("email", cfg.Admin.Email))
	} else {
		logger.Info("admin user already exists", zap.String("email", cfg.Admin.Email))
	}

	userService := services.NewUserService(userRepo, events, dashboardCache)
	clientService := services.NewClientService(clientRepo, events, dashboardCache)
	invoiceService := services.NewInvoiceService(invoiceRepo, clientRepo, events, dashboardCache)
	statsService := services.NewStatsService(userRepo, clientRepo, invoiceRepo, dashboardCache, events)
	reportService := services.NewReportService(cfg.Company)

	var backupService *services.BackupService
	if cfg.Backup.Enabled {
		s3Client, err := services.NewS3Client(ctx, cfg.Backup)
		if err != nil {
			return fmt.Errorf("backup client: %w", err)
		}
		backupService = services.NewBackupService(s3Client, cfg.Backup, events,
			userRepo.Collection(), clientRepo.Collection(), invoiceRepo.Collection())
		logger.Info("backups enabled", zap.String("bucket", cfg.Backup.Bucket), zap.String("prefix", cfg.Backup.Prefix))
	}

	// Scheduled jobs
	scheduler := services.NewScheduler(logger)
	if cfg.Jobs.Enabled {
		if err := scheduler.AddOverdueJob(cfg.Jobs.OverdueSchedule, invoiceService); err != nil {
			return err
		}
	}
	if backupService != nil && cfg.Backup.Schedule != "" {
		if err := scheduler.AddBackupJob(cfg.Backup.Schedule, backupService); err != nil {
			return err
		}
	}
	if scheduler.Len() > 0 {
		scheduler.Start()
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("server.trusted_proxies: %w", err)
	}

	// Handlers
	dataDir := ""
	if cfg.Storage.Driver == "file" {
		dataDir = cfg.Storage.Dir
	}
	healthChecker := health.NewHealthChecker(st, cfg.Storage.Driver, dataDir)

	router := h.NewRouter(h.Handlers{
		Auth:      handlers.NewAuthHandler(authService, events),
		Users:     handlers.NewUserHandler(userService, events),
		Clients:   handlers.NewClientHandler(clientService, events),
		Invoices:  handlers.NewInvoiceHandler(invoiceService, clientService, reportService, events),
		Dashboard: handlers.NewDashboardHandler(statsService, events),
		Backups:   handlers.NewBackupHandler(backupService, events),
		Health:    handlers.NewHealthHandler(healthChecker, statsService, userRepo, cfg, events),
		Logs:      handlers.NewLogHandler(logger),
	},
		middleware.NewAuthMiddleware(authService),
		middleware.NewRateLimiter(cfg.Server.LoginRatePerMinute, cfg.Server.LoginBurst, proxies),
		logger,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg.Server)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
