package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trip-planner/internal/api"
	"trip-planner/internal/config"
	"trip-planner/internal/modules/catalog"
	"trip-planner/internal/modules/itinerary"
	"trip-planner/internal/modules/sharing"
	"trip-planner/internal/sqlite"
	"trip-planner/internal/store"
	"trip-planner/pkg/email"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.Level())

	// 2. --- Middleware ---
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.ContextTimeout(cfg.RequestTimeout))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins(cfg.ClientOrigin),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Persistence ---
	ctx := context.Background()
	st, destinations, closeStore := openStore(ctx, cfg, e.Logger)
	defer closeStore()

	// 4. --- Dependency Injection (Wiring everything up) ---
	catalogService := catalog.NewService(destinations, cfg.CatalogCacheTTL, cfg.NewLogger("catalog"))

	itineraryService := itinerary.NewService(st, catalogService, cfg.ConflictRetries, cfg.NewLogger("itinerary"))
	itineraryHandler := itinerary.NewHandler(itineraryService)

	sharingService := newSharingService(ctx, cfg, itineraryService, e.Logger)
	sharingHandler := sharing.NewHandler(sharingService)

	// 5. --- Initialize Router ---
	api.SetupRoutes(e, cfg.JWTSecret, st, itineraryHandler, sharingHandler)

	// 6. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal("shutting down the server, an error occurred: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Error("Server forced to shutdown: ", err)
	}
	e.Logger.Info("Server exiting")
}

func allowedOrigins(clientOrigin string) []string {
	origins := []string{"http://localhost:5173"}
	if clientOrigin != "" {
		origins = append(origins, clientOrigin)
	}
	return origins
}

// openStore connects the configured database and returns the itinerary store,
// the destination reader backing the catalog and a cleanup func.
func openStore(ctx context.Context, cfg config.Config, logger echo.Logger) (store.Store, store.DestinationReader, func()) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			logger.Fatalf("Unable to open SQLite database: %v", err)
		}
		logger.Infof("Using SQLite store at %s", db.GetDBPath())
		if cfg.SeedDestinations != "" {
			n, err := db.SeedDestinations(ctx, cfg.SeedDestinations)
			if err != nil {
				logger.Fatalf("Unable to seed destinations: %v", err)
			}
			logger.Infof("Seeded %d destinations from %s", n, cfg.SeedDestinations)
		}
		return db, db, func() { db.Close() }

	default:
		dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Unable to parse database configuration: %v", err)
		}
		dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
		if err != nil {
			logger.Fatalf("Unable to create connection pool: %v", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			logger.Fatalf("Unable to ping database: %v", err)
		}
		logger.Info("Successfully connected to the database!")

		repo := itinerary.NewRepository(dbPool)
		if err := repo.Migrate(ctx); err != nil {
			logger.Fatalf("Unable to migrate database: %v", err)
		}
		return repo, catalog.NewRepository(dbPool), dbPool.Close
	}
}

// newSharingService wires SES when it is configured. Without it sharing answers unavailable.
func newSharingService(ctx context.Context, cfg config.Config, routes sharing.RouteReader, logger echo.Logger) *sharing.Service {
	templates, err := email.NewTemplateManager()
	if err != nil {
		logger.Fatalf("Unable to parse email templates: %v", err)
	}
	if !cfg.EmailEnabled() {
		logger.Warn("SES_REGION or EMAIL_FROM not set, route sharing is disabled")
		return sharing.NewService(routes, nil, templates, cfg.NewLogger("sharing"))
	}

	sender, err := email.NewSESV2Sender(ctx, cfg.SESRegion, cfg.EmailFrom)
	if err != nil {
		logger.Fatalf("Unable to configure SES: %v", err)
	}
	return sharing.NewService(routes, sender, templates, cfg.NewLogger("sharing"))
}
