package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/config"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/handler"
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/finora/finora-backend/internal/repository/postgres"
	"github.com/finora/finora-backend/internal/service"
	"github.com/finora/finora-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// @title Finora API
// @version 1.0
// @description Personal finance ledger, reports and balance forecasts.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	cardRepo := postgres.NewCardRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	simulationRepo := postgres.NewSimulationRepository(pool)

	// Initialize services
	authService := service.NewAuthService(userRepo)
	accountService := service.NewAccountService(accountRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	transactionService := service.NewTransactionService(transactionRepo, accountRepo, categoryRepo, cardRepo)
	cardService := service.NewCardService(cardRepo)
	transferService := service.NewTransferService(transferRepo, accountRepo)
	calculationService := service.NewCalculationService(accountRepo, transactionRepo, cardRepo)
	summaryService := service.NewSummaryService(transactionRepo, categoryRepo)
	dashboardService := service.NewDashboardService(summaryService, calculationService)
	forecastService := service.NewForecastService(transactionRepo, calculationService, service.ForecastConfig{
		TrailingMonths:   cfg.Forecast.TrailingMonths,
		IncomeVariation:  cfg.Forecast.IncomeVariation,
		ExpenseVariation: cfg.Forecast.ExpenseVariation,
	}, service.NewRandomSource(cfg.Forecast.Seed))
	simulationService := service.NewSimulationService(simulationRepo, forecastService)

	// Aggregate caches, evicted on every ledger write
	var invalidator *cache.Invalidator
	if cfg.Cache.Enabled {
		invalidator = cache.NewInvalidator()
		balances := cache.NewStore[decimal.Decimal]()
		usages := cache.NewStore[decimal.Decimal]()
		summaries := cache.NewStore[*domain.MonthlySummary]()
		invalidator.Register(cache.AggregateAccountBalance, balances)
		invalidator.Register(cache.AggregateCardUsage, usages)
		invalidator.Register(cache.AggregateMonthlySummary, summaries)
		calculationService.SetCaches(balances, usages)
		summaryService.SetCache(summaries)
		log.Info().Msg("Aggregate caching enabled")
	}

	// Initialize WebSocket hub and wire change notifications
	hub := websocket.NewHub()
	notifier := service.NewChangeNotifier(invalidator)
	notifier.SetEventPublisher(hub)
	accountService.SetNotifier(notifier)
	categoryService.SetNotifier(notifier)
	transactionService.SetNotifier(notifier)
	cardService.SetNotifier(notifier)
	transferService.SetNotifier(notifier)
	simulationService.SetNotifier(notifier)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket JWT validator")
	}

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Account:     handler.NewAccountHandler(accountService, calculationService),
		Category:    handler.NewCategoryHandler(categoryService),
		Transaction: handler.NewTransactionHandler(transactionService),
		Card:        handler.NewCardHandler(cardService, calculationService),
		Transfer:    handler.NewTransferHandler(transferService),
		Simulation:  handler.NewSimulationHandler(simulationService),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		Report:      handler.NewReportHandler(summaryService),
		Forecast:    handler.NewForecastHandler(forecastService, simulationService),
		WebSocket:   handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
		Docs:        handler.NewDocsHandler(cfg.Port, cfg.PublicURL),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Health check failed")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Int32("user_id", middleware.GetUserID(c)).
				Msg("request")

			return nil
		}
	}
}
