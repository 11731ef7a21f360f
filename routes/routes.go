package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"pushtrack/config"
	"pushtrack/controllers"
	"pushtrack/interfaces"
	"pushtrack/middleware"
	"pushtrack/models"
	"pushtrack/services"
	"pushtrack/storage"
)

// SetupRoutes wires controllers, services and middleware into a gin
// engine. The store and provider are constructed by the caller so tests
// can substitute their own.
func SetupRoutes(store storage.Store, provider interfaces.PushProvider, redisClient *redis.Client, cfg *config.Config) *gin.Engine {
	router := gin.New()

	dispatchService := services.NewDispatchService(store, provider)
	metricsService := services.NewMetricsService(store)

	notificationController := controllers.NewNotificationController(dispatchService)
	metricsController := controllers.NewMetricsController(metricsService)

	setupGlobalMiddleware(router, redisClient, cfg)
	RegisterAPIRoutes(router, notificationController, metricsController)

	return router
}

// RegisterAPIRoutes attaches the HTTP surface to an engine. Legacy paths
// and their versioned aliases point at the same handlers.
func RegisterAPIRoutes(router *gin.Engine, notificationController *controllers.NotificationController, metricsController *controllers.MetricsController) {
	router.GET("/health", healthCheck)

	api := router.Group("/api/notifications")
	{
		// Legacy routes, kept for backward compatibility.
		api.POST("/send", notificationController.Send)
		api.POST("/metrics", metricsController.RecordDeliveryEvent)
		api.GET("/metrics/:message_id", metricsController.GetNotificationMetrics)

		v1 := api.Group("/v1/message")
		{
			v1.POST("/send", notificationController.Send)
			v1.POST("/delivery", metricsController.RecordDeliveryEvent)
			v1.POST("/delivery/push", metricsController.RecordDeliveryEvent)
			v1.GET("/:message_id/analytics", metricsController.GetNotificationMetrics)
		}
	}
}

func setupGlobalMiddleware(router *gin.Engine, redisClient *redis.Client, cfg *config.Config) {
	errorHandler := middleware.NewErrorHandler(cfg.Environment, logrus.StandardLogger())
	router.Use(errorHandler.Handle())

	router.Use(middleware.LoggerMiddleware(middleware.LoggerConfig{
		Logger:    logrus.StandardLogger(),
		SkipPaths: []string{"/health"},
	}))

	router.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig()))

	if redisClient != nil {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Redis:     redisClient,
			Requests:  cfg.RateLimitRequest,
			Window:    time.Duration(cfg.RateLimitWindow) * time.Minute,
			SkipPaths: []string{"/health"},
		})
		router.Use(limiter.Middleware())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Message: "Push Notification Service is running",
	})
}
