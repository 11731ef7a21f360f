package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pushtrack/config"
	"pushtrack/database"
	"pushtrack/interfaces"
	"pushtrack/routes"
	"pushtrack/services"
	"pushtrack/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	setupLogger(cfg)

	store, err := openStore(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize storage: ", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			logrus.Errorf("Storage teardown failed: %v", err)
		}
	}()

	provider := initProvider(cfg)
	redisClient := initRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	router := routes.SetupRoutes(store, provider, redisClient, cfg)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.Infof("Push notification service listening on port %s", cfg.Port)
		logrus.Infof("Health check: http://localhost:%s/health", cfg.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatal("Server forced to shutdown: ", err)
	}

	logrus.Info("Server shutdown complete")
}

// openStore builds the storage backend selected by configuration.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendFile:
		logrus.Infof("Using file storage under %s", cfg.DataDir)
		return storage.NewFileStore(cfg.DataDir), nil
	default:
		conn, err := database.Connect(cfg.DatabaseURL, cfg.DatabaseName)
		if err != nil {
			return nil, err
		}
		return storage.NewMongoStore(conn.Database(), conn.Disconnect), nil
	}
}

// initProvider builds the FCM client, falling back to the disabled
// provider so the service still accepts delivery events and analytics
// queries when push credentials are missing.
func initProvider(cfg *config.Config) interfaces.PushProvider {
	if cfg.FirebaseCredentials == "" {
		logrus.Warn("FIREBASE_CREDENTIALS not set, push sending disabled")
		return services.NewDisabledPushService()
	}

	provider, err := services.NewFCMPushService(cfg.FirebaseCredentials)
	if err != nil {
		logrus.Warnf("Firebase initialization failed, push sending disabled: %v", err)
		return services.NewDisabledPushService()
	}
	return provider
}

func initRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Warnf("Invalid REDIS_URL, rate limiting disabled: %v", err)
		return nil
	}
	return redis.NewClient(opt)
}

func setupLogger(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if cfg.Environment == "development" {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}
