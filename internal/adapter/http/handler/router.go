package handler

import (
	"kantor-wallet/internal/adapter/http/middleware"
	"kantor-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	RateSvc        ports.RateService
	HistorySvc     ports.HistoryService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	ratesHandler := NewRatesHandler(deps.RateSvc)
	rates := v1.Group("/rates")
	{
		rates.GET("/latest", ratesHandler.Latest)
		rates.GET("/history", ratesHandler.History)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.LedgerSvc)
	exchangeHandler := NewExchangeHandler(deps.LedgerSvc)
	transactionsHandler := NewTransactionsHandler(deps.HistorySvc)

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("", walletHandler.GetWallet)
		wallet.POST("/deposit", walletHandler.Deposit)
	}

	exchange := v1.Group("/exchange", jwtAuth)
	{
		exchange.POST("/buy", exchangeHandler.Buy)
		exchange.POST("/sell", exchangeHandler.Sell)
	}

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", transactionsHandler.List)
	}

	return r
}
