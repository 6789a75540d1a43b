package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkravec/product-catalog/internal/config"
	"github.com/mkravec/product-catalog/internal/delivery/events"
	httpDelivery "github.com/mkravec/product-catalog/internal/delivery/http"
	"github.com/mkravec/product-catalog/internal/delivery/http/handler"
	"github.com/mkravec/product-catalog/internal/pkg/cache"
	"github.com/mkravec/product-catalog/internal/pkg/database"
	"github.com/mkravec/product-catalog/internal/pkg/logger"
	"github.com/mkravec/product-catalog/internal/pkg/token"
	cacheRepo "github.com/mkravec/product-catalog/internal/repository/cache"
	"github.com/mkravec/product-catalog/internal/repository/postgres"
	"github.com/mkravec/product-catalog/internal/usecase/auth"
	"github.com/mkravec/product-catalog/internal/usecase/catalog"

	_ "github.com/mkravec/product-catalog/docs"
)

// @title Product Catalog API
// @version 1.0
// @description A product catalog with authentication and a Redis read-through cache.

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Auth
// @tag.description Registration and login

// @tag.name Products
// @tag.description Product catalog endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting Product Catalog API...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	productRepo := postgres.NewProductRepository(db)
	userRepo := postgres.NewUserRepository(db)
	productCache := cacheRepo.NewRedisProductCache(redisClient, cfg.Cache.ProductTTL)
	tokenManager := token.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	catalogService := catalog.NewService(productRepo, productCache, publisher, appLogger)
	authService := auth.NewService(userRepo, tokenManager, appLogger)

	productHandler := handler.NewProductHandler(catalogService, appLogger)
	authHandler := handler.NewAuthHandler(authService, appLogger)

	router := httpDelivery.NewRouter(productHandler, authHandler, tokenManager, cfg, appLogger)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
