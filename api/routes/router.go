package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucasmoura/vitalstock-backend/api/controllers"
	"github.com/lucasmoura/vitalstock-backend/api/middleware"
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
	"github.com/lucasmoura/vitalstock-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsGatherer prometheus.Gatherer,
	authService auth.Service,
	inventoryService inventory.Service,
	movementsService movements.Service,
	schedulesService schedules.Service,
	requestsService requests.Service,
	alertsService alerts.Service,
	unitsService units.Service,
	suppliesService supplies.Service,
	usersService users.Service,
	reportsService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/inventory/entries", controllers.InventoryRegisterEntries(inventoryService, logg))

		r.Route("/batches", func(r chi.Router) {
			r.Get("/", controllers.BatchesList(inventoryService, logg))
			r.Post("/{batchID}/deduct", controllers.BatchDeduct(inventoryService, logg))
			r.Patch("/{batchID}/status", controllers.BatchSetStatus(inventoryService, logg))
		})

		r.Get("/movements", controllers.MovementsList(movementsService, logg))

		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", controllers.ScheduleCreate(schedulesService, logg))
			r.Get("/", controllers.SchedulesList(schedulesService, logg))
			r.Get("/{scheduleID}", controllers.ScheduleGet(schedulesService, logg))
			r.Post("/{scheduleID}/dispatch", controllers.ScheduleDispatch(schedulesService, logg))
			r.Post("/{scheduleID}/complete", controllers.ScheduleComplete(schedulesService, logg))
			r.Post("/{scheduleID}/receive", controllers.ScheduleReceive(schedulesService, logg))
			r.Post("/{scheduleID}/cancel", controllers.ScheduleCancel(schedulesService, logg))
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", controllers.RequestCreate(requestsService, logg))
			r.Get("/", controllers.RequestsList(requestsService, logg))
			r.Get("/{requestID}", controllers.RequestGet(requestsService, logg))
			r.Post("/{requestID}/approve", controllers.RequestApprove(requestsService, logg))
			r.Post("/{requestID}/reject", controllers.RequestReject(requestsService, logg))
		})

		r.Get("/alerts", controllers.AlertsList(alertsService, logg))

		r.Route("/units", func(r chi.Router) {
			r.Post("/", controllers.UnitCreate(unitsService, logg))
			r.Get("/", controllers.UnitsList(unitsService, logg))
			r.Get("/{unitID}", controllers.UnitGet(unitsService, logg))
			r.Patch("/{unitID}", controllers.UnitUpdate(unitsService, logg))
			r.Delete("/{unitID}", controllers.UnitDelete(unitsService, logg))
		})

		r.Route("/supplies", func(r chi.Router) {
			r.Post("/", controllers.SupplyCreate(suppliesService, logg))
			r.Get("/", controllers.SuppliesList(suppliesService, logg))
			r.Get("/{supplyID}", controllers.SupplyGet(suppliesService, logg))
			r.Patch("/{supplyID}", controllers.SupplyUpdate(suppliesService, logg))
			r.Delete("/{supplyID}", controllers.SupplyDelete(suppliesService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", controllers.UserCreate(usersService, logg))
			r.Get("/", controllers.UsersList(usersService, logg))
			r.Get("/{userID}", controllers.UserGet(usersService, logg))
			r.Patch("/{userID}", controllers.UserUpdate(usersService, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/valuation", controllers.ReportStockValuation(reportsService, logg))
			r.Get("/movements", controllers.ReportMovementSummary(reportsService, logg))
		})
	})

	return r
}
