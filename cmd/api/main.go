package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/harsh17045/IssueTracker-sub000/internal/api/http"
	"github.com/harsh17045/IssueTracker-sub000/internal/api/http/handlers"
	"github.com/harsh17045/IssueTracker-sub000/internal/auth"
	"github.com/harsh17045/IssueTracker-sub000/internal/config"
	"github.com/harsh17045/IssueTracker-sub000/internal/events"
	"github.com/harsh17045/IssueTracker-sub000/internal/observability"
	"github.com/harsh17045/IssueTracker-sub000/internal/persistence"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository/memory"
	"github.com/harsh17045/IssueTracker-sub000/internal/service"
	"github.com/harsh17045/IssueTracker-sub000/internal/worker"
)

type repositories struct {
	tickets     repository.TicketRepository
	assignments repository.AssignmentRepository
	departments repository.DepartmentRepository
	staff       repository.StaffRepository
	buildings   repository.BuildingRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := openRepositories(pg)

	hub := events.NewHub(cfg.Fanout.SubscriberBuffer, logger, metrics)
	var (
		fanout events.Fanout = hub
		relay  *events.RedisFanout
	)
	if cfg.Fanout.Backend == config.FanoutBackendRedis {
		relay = events.NewRedisFanout(redis.Client, cfg.Fanout.RedisChannel, hub, logger, metrics)
		fanout = relay
	}

	registry := service.NewLocationRegistry(repos.buildings, repos.assignments, cfg.Registry.CacheTTL)
	router := service.NewRouter(repos.departments, repos.assignments, registry)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		AssignmentRepo: repos.assignments,
		StaffRepo:      repos.staff,
		DepartmentRepo: repos.departments,
		Registry:       registry,
		Logger:         logger,
	})
	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		DepartmentRepo: repos.departments,
		StaffRepo:      repos.staff,
		Assignments:    assignmentService,
		Logger:         logger,
	})

	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, router, fanout, logger)
	if err := worker.StartNotificationWorker(ctx, notificationService, relay, logger); err != nil {
		logger.Fatal("failed to start notification worker", zap.Error(err))
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repos.tickets,
		Router:     router,
		Dispatcher: dispatcher,
		IDPrefix:   cfg.Tickets.IDPrefix,
		Logger:     logger,
	})
	activityService := service.NewActivityService(repos.tickets, router, nil, cfg.Activity.GraceWindow)

	if cfg.Seed.File != "" {
		data, err := persistence.LoadReferenceData(cfg.Seed.File)
		if err != nil {
			logger.Fatal("failed to load reference data", zap.Error(err))
		}
		seeder := service.NewSeeder(directoryService, registry, assignmentService, logger)
		if err := seeder.Apply(ctx, data); err != nil {
			logger.Fatal("failed to apply reference data", zap.Error(err))
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	var limiter *auth.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = auth.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 0)
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, activityService),
		Staff:          handlers.NewStaffHandler(directoryService, assignmentService),
		Departments:    handlers.NewDepartmentsHandler(directoryService, assignmentService),
		Buildings:      handlers.NewBuildingsHandler(registry),
		Events:         handlers.NewEventsHandler(router, fanout, cfg.Fanout.PollTimeout, logger),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		RateLimiter:    limiter,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func openRepositories(pg *persistence.Postgres) repositories {
	if pg.Enabled() {
		return repositories{
			tickets:     repository.NewTicketRepository(pg.Pool),
			assignments: repository.NewAssignmentRepository(pg.Pool),
			departments: repository.NewDepartmentRepository(pg.Pool),
			staff:       repository.NewStaffRepository(pg.Pool),
			buildings:   repository.NewBuildingRepository(pg.Pool),
		}
	}
	return repositories{
		tickets:     memory.NewTicketRepository(),
		assignments: memory.NewAssignmentRepository(),
		departments: memory.NewDepartmentRepository(),
		staff:       memory.NewStaffRepository(),
		buildings:   memory.NewBuildingRepository(),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
