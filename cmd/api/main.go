package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lucasmoura/vitalstock-backend/api/routes"
	"github.com/lucasmoura/vitalstock-backend/internal/alerts"
	"github.com/lucasmoura/vitalstock-backend/internal/auth"
	"github.com/lucasmoura/vitalstock-backend/internal/inventory"
	"github.com/lucasmoura/vitalstock-backend/internal/movements"
	"github.com/lucasmoura/vitalstock-backend/internal/reports"
	"github.com/lucasmoura/vitalstock-backend/internal/requests"
	"github.com/lucasmoura/vitalstock-backend/internal/schedules"
	"github.com/lucasmoura/vitalstock-backend/internal/supplies"
	"github.com/lucasmoura/vitalstock-backend/internal/units"
	"github.com/lucasmoura/vitalstock-backend/internal/users"
	"github.com/lucasmoura/vitalstock-backend/pkg/config"
	"github.com/lucasmoura/vitalstock-backend/pkg/db"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
	"github.com/lucasmoura/vitalstock-backend/pkg/metrics"
	"github.com/lucasmoura/vitalstock-backend/pkg/migrate"
	"github.com/lucasmoura/vitalstock-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	stockMetrics := metrics.NewStockMetrics(registry)

	conn := dbClient.DB()
	usersRepo := users.NewRepository(conn)
	batchesRepo := inventory.NewRepository(conn)
	movementsRepo := movements.NewRepository(conn)

	movementsService, err := movements.NewService(movementsRepo, cfg.Inventory.MovementWindowDays)
	if err != nil {
		fatal(logg, "failed to create movements service", err)
	}
	alertsService, err := alerts.NewService(alerts.NewRepository(conn), cfg.Inventory.CriticalStockThreshold, stockMetrics)
	if err != nil {
		fatal(logg, "failed to create alerts service", err)
	}
	inventoryService, err := inventory.NewService(dbClient, batchesRepo, movementsService, alertsService, logg, stockMetrics)
	if err != nil {
		fatal(logg, "failed to create inventory service", err)
	}
	schedulesService, err := schedules.NewService(dbClient, schedules.NewRepository(conn), batchesRepo, movementsService, alertsService, logg, stockMetrics)
	if err != nil {
		fatal(logg, "failed to create schedules service", err)
	}
	requestsService, err := requests.NewService(dbClient, requests.NewRepository(conn), batchesRepo, movementsService, alertsService, cfg.Inventory.CentralUnit(), logg, stockMetrics)
	if err != nil {
		fatal(logg, "failed to create requests service", err)
	}
	unitsService, err := units.NewService(units.NewRepository(conn))
	if err != nil {
		fatal(logg, "failed to create units service", err)
	}
	suppliesService, err := supplies.NewService(supplies.NewRepository(conn))
	if err != nil {
		fatal(logg, "failed to create supplies service", err)
	}
	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		fatal(logg, "failed to create users service", err)
	}
	authService, err := auth.NewService(usersRepo, redisClient, cfg.JWT, cfg.AuthRateLimit, logg)
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}
	reportsService, err := reports.NewService(reports.NewRepository(conn), movementsRepo, cfg.Inventory.MovementWindowDays)
	if err != nil {
		fatal(logg, "failed to create reports service", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			authService,
			inventoryService,
			movementsService,
			schedulesService,
			requestsService,
			alertsService,
			unitsService,
			suppliesService,
			usersService,
			reportsService,
		),
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during shutdown", err)
		}
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
