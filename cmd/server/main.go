package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"smartpurse/backend/internal/cache"
	"smartpurse/backend/internal/config"
	"smartpurse/backend/internal/httpapi"
	"smartpurse/backend/internal/mailer"
	"smartpurse/backend/internal/service"
	"smartpurse/backend/internal/store"
	"smartpurse/backend/internal/store/memory"
	pgstore "smartpurse/backend/internal/store/postgres"
	sbstore "smartpurse/backend/internal/store/supabase"
	"smartpurse/backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	logger := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("startup failed: %v", err)
	}

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Infof("SmartPurse backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown error: %v", err)
	}

	app.close(logger)
	logger.Info("server stopped")
}

type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) close(logger logrus.FieldLogger) {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			logger.Errorf("close error: %v", err)
		}
	}
}

func build(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*app, error) {
	a := &app{}

	var client *supabase.Client
	if cfg.SupabaseURL != "" {
		c, err := supabase.New(supabase.Config{URL: cfg.SupabaseURL, APIKey: cfg.SupabaseServiceKey})
		if err != nil {
			return nil, fmt.Errorf("supabase client: %w", err)
		}
		client = c
	}

	var repo store.Repository
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres unavailable and DATABASE_URL is set: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		if cfg.AutoMigrate {
			if err := pgstore.Migrate(ctx, pg.DB()); err != nil {
				a.close(logger)
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		repo = pg
		logger.Info("repository: postgres")
	case client != nil:
		repo = sbstore.New(client)
		logger.Info("repository: supabase")
	default:
		repo = memory.NewSeeded()
		logger.Info("repository: in-memory")
	}

	var identity store.IdentityProvider
	if client != nil {
		identity = sbstore.NewIdentity(client)
		logger.Info("identity: supabase")
	} else {
		identity = memory.NewIdentity(cfg.ResetTokenSecret, newMailer(cfg, logger))
		logger.Info("identity: in-memory")
	}

	storeCache := cache.StoreCache(cache.NoopStoreCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisStoreCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warnf("redis unavailable (%v), using noop cache", err)
			_ = redisCache.Close()
		} else {
			storeCache = redisCache
			a.closers = append(a.closers, redisCache.Close)
			logger.Info("cache: redis")
		}
	} else {
		logger.Info("cache: noop")
	}

	svc := service.New(repo, identity, storeCache, service.Options{
		DefaultPassword: cfg.DefaultUserPassword,
		ResetRedirect:   cfg.PasswordResetRedirect,
		StoreCacheTTL:   cfg.StoreCacheTTL(),
		Logger:          logger,
	})
	if err := svc.Ping(ctx); err != nil {
		logger.Warnf("repository not reachable yet: %v", err)
	}
	api := httpapi.New(svc, httpapi.Options{
		AllowedOrigin:      cfg.AllowedOrigin,
		ResetRatePerMinute: cfg.ResetRatePerMinute,
		Logger:             logger,
	})
	a.handler = api.Handler()
	return a, nil
}

func newMailer(cfg config.Config, logger *logrus.Logger) mailer.Mailer {
	if cfg.SMTPHost == "" {
		return mailer.LogMailer{Logger: logger}
	}
	smtpMailer, err := mailer.NewSMTP(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Secure:   cfg.SMTPSecure,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		logger.Warnf("smtp disabled (%v), reset mails will only be logged", err)
		return mailer.LogMailer{Logger: logger}
	}
	return smtpMailer
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("unknown LOG_LEVEL %q, using info", level)
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
