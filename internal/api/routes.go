// Package api wires handlers, middleware and routes into a gin engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/coinsight/coinsight-go/internal/api/handlers"
	"github.com/coinsight/coinsight-go/internal/config"
	"github.com/coinsight/coinsight-go/internal/database"
	"github.com/coinsight/coinsight-go/internal/middleware"
	"github.com/coinsight/coinsight-go/internal/services"
)

// Dependencies groups everything the route table needs.
type Dependencies struct {
	Config      *config.Config
	Logger      *logrus.Logger
	DB          *database.PostgresDB
	Redis       *database.RedisClient
	Users       *database.UserRepository
	Analytics   *services.AnalyticsService
	Predictions *services.PredictionService
	Auth        *middleware.AuthMiddleware
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(deps.Logger))

	market := handlers.NewMarketHandler(deps.Analytics, deps.Config.Analytics, deps.Logger)
	reporting := handlers.NewReportingHandler(deps.Analytics, deps.Logger)
	regression := handlers.NewRegressionHandler(deps.Predictions, deps.Logger)
	users := handlers.NewUserHandler(deps.Users, deps.Auth, deps.Config.Security.BcryptCost, deps.Logger)
	health := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Logger)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"connection_status": http.StatusOK})
	})
	router.GET("/health", health.Health)

	router.GET("/query_coin", market.QueryCoin)
	router.GET("/daily_price_change", market.DailyPriceChange)
	router.GET("/daily_price_range", market.DailyPriceRange)
	router.GET("/moving_averages", market.MovingAverages)
	router.GET("/rsi", market.RSIChart)
	router.GET("/correlation_analysis", reporting.CorrelationAnalysis)
	router.GET("/coin_reporting", reporting.CoinReporting)
	router.GET("/coin_proportion", reporting.CoinProportion)
	router.POST("/run_regression_model", regression.RunRegressionModel)

	router.POST("/register", users.Register)
	router.POST("/login", users.Login)

	authed := router.Group("/", deps.Auth.RequireAuth())
	authed.POST("/update_username", users.UpdateUsername)
	authed.POST("/update_useremail", users.UpdateEmail)
	authed.POST("/update_password", users.UpdatePassword)

	return router
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Info("Request handled")
	}
}
