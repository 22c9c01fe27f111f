package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tablewise/restaurant-backoffice/internal/api"
	"github.com/tablewise/restaurant-backoffice/internal/api/middleware"
	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
	"github.com/tablewise/restaurant-backoffice/internal/core/service"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/config"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/db/database"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/db/mongo"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/db/redis"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/db/repository"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/http/handlers"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/mail"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/payment"
	"github.com/tablewise/restaurant-backoffice/internal/infrastructure/queue"
	"github.com/tablewise/restaurant-backoffice/internal/jobs"
	"github.com/tablewise/restaurant-backoffice/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title Restaurant Back Office API
// @version 1.0
// @description Back office API for restaurant sites: pages, menus, job postings, staff and subscription billing.
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.New(logger.Options{Pretty: true, Service: "restaurant-backoffice"})
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.FromEnv(cfg.Env, cfg.LogLevel, "restaurant-backoffice")

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := database.New(database.Config{
		URL:        cfg.Database.URL,
		Mode:       database.Mode(cfg.Database.Mode),
		MaxConns:   cfg.Database.MaxConns,
		Production: cfg.IsProduction(),
	}, log)
	if err != nil {
		return err
	}
	if !cfg.IsServerless() {
		defer func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("close database")
			}
		}()
	}

	orm, err := db.ORM()
	if err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	mc, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mc.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("close mongo")
		}
	}()

	audit := mongo.NewBillingEventRepository(mc.Database())
	if err := audit.EnsureIndexes(ctx); err != nil {
		return err
	}

	users := repository.NewUserRepository(orm)
	staffRepo := repository.NewStaffRepository(orm)
	revocations := redis.NewRevocationStore(rdb)

	var mailer ports.Mailer
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn().Msg("SMTP_HOST not set, e-mails are written to the log")
		mailer = mail.NewLogMailer(log)
	}

	authService := service.NewAuthService(users, staffRepo, revocations, mailer, service.AuthConfig{
		JWTSecret: cfg.JWTSecret,
		PublicURL: cfg.PublicURL,
	}, log)

	prices := cfg.Stripe.PlanPrices()
	dedup := redis.NewEventDeduplicator(rdb)
	applier := service.NewBillingEventApplier(users, audit, dedup, prices, log)
	dispatcher := queue.NewDispatcher(cfg.Stripe.Workers, applier, log)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher.Start(workerCtx)

	billing := service.NewBillingService(service.BillingDeps{
		Users:   users,
		Gateway: payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
		Dedup:   dedup,
		Audit:   audit,
		Queue:   dispatcher,
	}, prices, cfg.PublicURL, log)

	scheduler := jobs.NewScheduler(log)
	if err := scheduler.Add(cfg.Maintenance.Schedule, jobs.NewMaintenanceJob(db, log)); err != nil {
		return err
	}
	scheduler.Start()

	e := api.NewRouter(api.Deps{
		Log:        log,
		Production: cfg.IsProduction(),
		Sessions:   middleware.NewJWTSessions(cfg.JWTSecret, revocations),
		Auth:       authService,
		Users:      service.NewUserService(users),
		Pages:      service.NewPageService(repository.NewPageRepository(orm)),
		Jobs:       service.NewCatalogService[domain.Job](repository.NewJobRepository(orm)),
		Slides:     service.NewCatalogService[domain.SlideShow](repository.NewSlideRepository(orm)),
		Staff:      service.NewStaffService(staffRepo),
		Billing:    billing,
		Checks: []handlers.Check{
			{Name: "postgres", Ping: db.Ping},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
			{Name: "mongo", Ping: mc.Ping},
		},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("database_mode", cfg.Database.Mode).
			Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	scheduler.Stop()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("billing queue not drained")
		stopWorkers()
		dispatcher.Wait()
	}

	log.Info().Msg("shutdown complete")
	return serveErr
}
