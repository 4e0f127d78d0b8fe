package handler

import (
	"github.com/finora/finora-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups every API handler registered by RegisterRoutes
type Handlers struct {
	Auth        *AuthHandler
	Account     *AccountHandler
	Category    *CategoryHandler
	Transaction *TransactionHandler
	Card        *CardHandler
	Transfer    *TransferHandler
	Simulation  *SimulationHandler
	Dashboard   *DashboardHandler
	Report      *ReportHandler
	Forecast    *ForecastHandler
	WebSocket   *WebSocketHandler
	Docs        *DocsHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", h.Docs.ServeOpenAPI3Spec)

	// WebSocket authenticates with a token query param
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}

	// API version 1
	api := e.Group("/api/v1")

	// Auth routes (protected). The callback runs before the user row exists.
	auth := api.Group("/auth")
	auth.Use(authMiddleware.Authenticate())
	auth.POST("/callback", h.Auth.Callback)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/logout", h.Auth.Logout)

	// Ledger routes (protected, resolved to a local user, rate limited)
	protected := []echo.MiddlewareFunc{
		authMiddleware.Authenticate(),
		authMiddleware.RequireUser(),
		middleware.RateLimitMiddleware(rateLimiter),
	}

	accounts := api.Group("/accounts", protected...)
	accounts.POST("", h.Account.CreateAccount)
	accounts.GET("", h.Account.GetAccounts)
	accounts.GET("/:id", h.Account.GetAccount)
	accounts.GET("/:id/balance", h.Account.GetAccountBalance)
	accounts.PUT("/:id", h.Account.UpdateAccount)
	accounts.DELETE("/:id", h.Account.DeleteAccount)

	categories := api.Group("/categories", protected...)
	categories.POST("", h.Category.CreateCategory)
	categories.GET("", h.Category.GetCategories)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)

	transactions := api.Group("/transactions", protected...)
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	cards := api.Group("/cards", protected...)
	cards.POST("", h.Card.CreateCard)
	cards.GET("", h.Card.GetCards)
	cards.GET("/:id", h.Card.GetCard)
	cards.PUT("/:id", h.Card.UpdateCard)
	cards.DELETE("/:id", h.Card.DeleteCard)

	transfers := api.Group("/transfers", protected...)
	transfers.POST("", h.Transfer.CreateTransfer)
	transfers.GET("", h.Transfer.GetTransfers)
	transfers.DELETE("/:id", h.Transfer.DeleteTransfer)

	simulations := api.Group("/simulations", protected...)
	simulations.POST("", h.Simulation.CreateSimulation)
	simulations.GET("", h.Simulation.GetSimulations)
	simulations.GET("/:id", h.Simulation.GetSimulation)
	simulations.PUT("/:id", h.Simulation.UpdateSimulation)
	simulations.PATCH("/:id/toggle", h.Simulation.ToggleSimulation)
	simulations.DELETE("/:id", h.Simulation.DeleteSimulation)

	dashboard := api.Group("/dashboard", protected...)
	dashboard.GET("/summary", h.Dashboard.GetSummary)

	reports := api.Group("/reports", protected...)
	reports.GET("/summary", h.Report.GetSummary)
	reports.GET("/trend", h.Report.GetTrend)

	forecasts := api.Group("/forecasts", protected...)
	forecasts.GET("", h.Forecast.GetForecast)
	forecasts.GET("/simulations", h.Forecast.GetSimulationOverlay)
}
