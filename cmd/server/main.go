package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/scanperks/backend/internal/database"
	"github.com/scanperks/backend/internal/handlers"
	mW "github.com/scanperks/backend/internal/middleware"
	"github.com/scanperks/backend/internal/services"
	"github.com/spf13/viper"
)

// @title ScanPerks Points Backend API
// @version 1.0
// @description Single-use code issuance, points ledger, and redemption workflow
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize stores
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	ledgerService := services.NewLedgerService(db)
	accountDirectory := services.NewPGAccountDirectory(db)
	catalogService := services.NewCatalogService(db)
	stockService := services.NewStockService(db)
	codeService := services.NewCodeService(db, redisClient, ledgerService, accountDirectory)
	redemptionService := services.NewRedemptionService(db, ledgerService, stockService, accountDirectory, catalogService)
	authService := services.NewAuthService(db)

	walletHandler := handlers.NewWalletHandler(codeService, ledgerService)
	codeHandler := handlers.NewCodeHandler(codeService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService)
	catalogHandler := handlers.NewCatalogHandler(catalogService, stockService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", authService.Login)
		r.Get("/catalog", catalogHandler.List)

		// User endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/wallet/scan", walletHandler.Scan)
			r.Get("/wallet/balance", walletHandler.Balance)
			r.Get("/wallet/history", walletHandler.History)

			r.Post("/redemptions", redemptionHandler.Create)
			r.Get("/redemptions", redemptionHandler.ListMine)
		})

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)
			r.Use(mW.RequireAdmin)

			r.Post("/codes/issue", codeHandler.Issue)
			r.Post("/codes/activate", codeHandler.Activate)
			r.Post("/codes/deactivate", codeHandler.Deactivate)
			r.Get("/codes/stats", codeHandler.Stats)
			r.Get("/codes/batches", codeHandler.Batches)
			r.Get("/codes/{serial}", codeHandler.Get)

			r.Post("/catalog", catalogHandler.Create)
			r.Patch("/catalog/{id}/status", catalogHandler.SetStatus)
			r.Put("/stock/{itemId}", catalogHandler.UpsertStock)
			r.Get("/stock", catalogHandler.ListStock)

			r.Get("/redemptions/all", redemptionHandler.ListAll)
			r.Post("/redemptions/{orderId}/transition", redemptionHandler.Transition)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
