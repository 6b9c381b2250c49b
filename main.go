package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-svc/cache"
	"checkout-svc/database"
	"checkout-svc/gateway"
	"checkout-svc/handlers"
	"checkout-svc/kafka"
	"checkout-svc/middleware"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.InitDB(logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Kafka producer
	producer, err := kafka.InitProducer(logger)
	if err != nil {
		logger.Fatal("Failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	// Redis is an optimization, not a dependency: without it every replay
	// falls through to the payments table constraint.
	var finalizedCache handlers.FinalizedCache
	if rdb, err := cache.InitRedis(logger); err != nil {
		logger.Warn("Redis unavailable, continuing without finalization cache", zap.Error(err))
	} else {
		finalizedCache = cache.NewRedisCache(rdb)
	}

	// Initialize OpenTelemetry
	shutdown, err := middleware.InitTracing("checkout-service")
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdown()

	// Payment gateway client
	gw := gateway.NewClient(logger)

	// Setup REST API with Gin
	router := gin.New()
	router.Use(gin.Recovery())
	// OpenTelemetry middleware must be first to extract trace context
	router.Use(otelgin.Middleware("checkout-service"))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)

	// Metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	// Checkout endpoints
	checkoutHandler := handlers.NewCheckoutHandler(db, gw, producer, finalizedCache, logger)
	orderHandler := handlers.NewOrderHandler(db, logger)

	authorized := router.Group("/", middleware.AuthRequired(logger))
	authorized.POST("/checkout/finalize", checkoutHandler.FinalizeCheckout)
	authorized.GET("/orders/:id", orderHandler.GetOrder)

	srv := &http.Server{
		Addr:    ":8084",
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start REST server", zap.Error(err))
		}
	}()

	logger.Info("Checkout Service started on :8084")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
