package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"akra-backend/internal/auth"
	"akra-backend/internal/cache"
	"akra-backend/internal/config"
	"akra-backend/internal/database"
	"akra-backend/internal/db"
	"akra-backend/internal/events"
	"akra-backend/internal/handlers"
	"akra-backend/internal/health"
	h "akra-backend/internal/http"
	"akra-backend/internal/middleware"
	"akra-backend/internal/repositories"
	"akra-backend/internal/services"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Connect to PostgreSQL
	pool := db.Connect(cfg)
	defer pool.Close()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (entry lists will hit the database)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize health checker and JWT manager
	healthChecker := health.NewHealthChecker(pool)
	jwtManager := auth.NewJWTManager(cfg)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(pool)
	transactionRepo := repositories.NewTransactionRepository(pool)
	deductionRepo := repositories.NewDeductionRepository(pool)
	topUpRepo := repositories.NewTopUpRepository(pool)
	onlineTransactionRepo := repositories.NewOnlineTransactionRepository(pool)
	adminActionLogRepo := repositories.NewAdminActionLogRepository(pool)
	systemSettingRepo := repositories.NewSystemSettingRepository(pool)

	// Websocket change feed
	hub := events.NewHub()

	// Initialize services
	userService := services.NewUserService(userRepo, jwtManager)
	transactionService := services.NewTransactionService(pool, transactionRepo, userRepo, systemSettingRepo, adminActionLogRepo, hub)
	deductionService := services.NewDeductionService(transactionRepo, deductionRepo, adminActionLogRepo, hub)
	exportService := services.NewExportService()
	topUpService := services.NewTopUpService(pool, topUpRepo, onlineTransactionRepo, userRepo, adminActionLogRepo,
		cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.WebhookSecret)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	deductionHandler := handlers.NewDeductionHandler(deductionService)
	exportHandler := handlers.NewExportHandler(deductionService, exportService)
	topUpHandler := handlers.NewTopUpHandler(topUpService)
	adminActionLogHandler := handlers.NewAdminActionLogHandler(adminActionLogRepo)
	systemSettingHandler := handlers.NewSystemSettingHandler(systemSettingRepo)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	router := h.NewRouter(
		authHandler,
		userHandler,
		transactionHandler,
		deductionHandler,
		exportHandler,
		topUpHandler,
		adminActionLogHandler,
		systemSettingHandler,
		healthHandler,
		hub,
		authMiddleware,
	)

	// Wrap with panic recovery and metrics middleware
	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
