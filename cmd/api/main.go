package main

import (
	"context"
	"fmt"
	common_api "go-confops/internal/common/api"
	"go-confops/internal/config"
	"go-confops/internal/connectors"
	"go-confops/internal/database"
	"go-confops/internal/features/contact"
	cron_feature "go-confops/internal/features/cron"
	"go-confops/internal/features/sync"
	"go-confops/internal/features/system"
	"go-confops/internal/logger"
	"go-confops/internal/middleware"
	"go-confops/pkg/utils"
	"log"
	"time"

	_ "go-confops/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// RunMigrations brings the store schema up to date before anything reads it.
func RunMigrations(lc fx.Lifecycle, store *database.Store, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate %s: %w", store.Backend, err)
			}
			logger.Info("Store schema is up to date", zap.String("backend", store.Backend))
			return nil
		},
	})
}

// NewMetricsRegistry returns the registry served at /metrics, preloaded with
// the runtime collectors.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// @title           ConfOps Contact Sync API
// @version         1.0
// @description     Synchronizes the Notion contact database into the local store.

// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Database
			database.NewDatabase,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Metrics
			NewMetricsRegistry,
			func(reg *prometheus.Registry) prometheus.Registerer { return reg },
			func(reg *prometheus.Registry) prometheus.Gatherer { return reg },

			// Notion source
			connectors.NewNotionSource,

			// Initialize Repository
			contact.NewContactRepository,
			sync.NewSyncLogRepository,

			contact.NewContactService,
			sync.NewEventHub,
			sync.NewMetrics,
			sync.NewSyncService,
			cron_feature.NewCronService,

			// Initialize Controller
			contact.NewContactController,
			sync.NewSyncController,
			cron_feature.NewCronController,
			system.NewDebugController,
			func(store *database.Store) *system.HealthController {
				return system.NewHealthController(store, store.Backend)
			},

			// Initialize API Routes
			AsRoute(contact.NewContactApi),
			AsRoute(sync.NewSyncApi),
			AsRoute(cron_feature.NewCronApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewDebugApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			RunMigrations,

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, cronService cron_feature.CronService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return cronService.InitializeScheduler(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return cronService.StopScheduler()
					},
				})
			},
		),
	)

	app.Run()
}
