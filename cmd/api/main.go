package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)
	divisionRepo := repository.NewDivisionRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	refDataRepo := repository.NewRefDataRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	policyService := service.NewPolicyService(policyRepo, redis.ClientHandle(), logger)
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		DivisionRepo: divisionRepo,
		RefDataRepo:  refDataRepo,
		NoteRepo:     noteRepo,
		Policies:     policyService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CustomerRepo: customerRepo,
		EmployeeRepo: employeeRepo,
	})
	employeeService := service.NewEmployeeService(*cfg, service.RosterDependencies{
		EmployeeRepo: employeeRepo,
		DivisionRepo: divisionRepo,
	})

	notifier := service.NewPushNotifier(customerRepo, logger, cfg.Notification)
	notificationService := service.NewNotificationService(dispatcher, activityRepo, notifier, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	slaWorker := worker.NewSlaWorker(lifecycleService, dispatcher, logger, cfg.Sla.ScanInterval())
	slaWorker.Start(ctx)
	defer slaWorker.Stop()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), customerRepo, employeeRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(lifecycleService),
		OpsTickets:     handlers.NewOpsTicketsHandler(lifecycleService),
		Policies:       handlers.NewPoliciesHandler(policyService),
		Roster:         handlers.NewRosterHandler(employeeService),
		RefData:        handlers.NewRefDataHandler(refDataRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
