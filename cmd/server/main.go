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
	"github.com/pocketfund/backend/docs"
	"github.com/pocketfund/backend/internal/config"
	"github.com/pocketfund/backend/internal/database"
	"github.com/pocketfund/backend/internal/handlers"
	mW "github.com/pocketfund/backend/internal/middleware"
	"github.com/pocketfund/backend/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title PocketFund Backend API
// @version 1.0
// @description API for the PocketFund personal finance app
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

	viper.BindEnv("identity.base_url", "IDENTITY_BASE_URL")
	viper.BindEnv("identity.api_key", "IDENTITY_API_KEY")
	viper.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET")
	viper.BindEnv("auth.token_ttl_minutes", "AUTH_TOKEN_TTL_MINUTES")

	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	docs.SwaggerInfo.Host = viper.GetString("server.host")
	if docs.SwaggerInfo.Host == "" {
		docs.SwaggerInfo.Host = "localhost:8080"
	}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	fundsConfig := config.LoadFundsConfig()

	identityClient := services.NewIdentityClient()
	callbackService := services.NewCallbackService(identityClient)
	callbackHandler := handlers.NewCallbackHandler(callbackService)
	authService := services.NewAuthService(redisClient)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	fundService := services.NewFundService(db, fundsConfig)
	fundHandler := handlers.NewFundHandler(fundService)
	transactionService := services.NewTransactionService(db, fundsConfig)
	preferenceService := services.NewPreferenceService(redisClient)
	passcodeService := services.NewPasscodeService(db)
	qrService := services.NewQRService(db, redisClient, fundsConfig)
	qrHandler := handlers.NewQRHandler(qrService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/callback", callbackHandler.HandleCallback)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/auth/signout", authService.SignOut)

			r.Post("/accounts", accountService.CreateAccount)
			r.Get("/accounts", accountService.ListAccounts)
			r.Get("/accounts/{accountId}/balance", accountService.AccountBalanceEnquiry)
			r.Delete("/accounts/{accountId}", accountService.DeleteAccount)

			r.Post("/categories", categoryService.CreateCategory)
			r.Get("/categories", categoryService.ListCategories)
			r.Put("/categories/{categoryId}", categoryService.UpdateCategory)
			r.Delete("/categories/{categoryId}", categoryService.DeleteCategory)

			// Category fund reservations
			r.Post("/funds", fundHandler.CreateFund)
			r.Post("/funds/{fundId}/adjust", fundHandler.AdjustFund)
			r.Patch("/funds/{fundId}", fundHandler.UpdateFundMeta)
			r.Delete("/funds/{fundId}", fundHandler.DeleteFund)
			r.Get("/accounts/{accountId}/funds", fundHandler.ListFunds)

			r.Post("/transactions", transactionService.RecordTransaction)
			r.Get("/transactions/recent", transactionService.GetRecentTransactions)
			r.Get("/accounts/{accountId}/transactions", transactionService.ListTransactions)
			r.Get("/accounts/{accountId}/summary", transactionService.MonthlySummary)

			r.Get("/preferences/last-account", preferenceService.GetLastAccount)
			r.Put("/preferences/last-account", preferenceService.SetLastAccount)

			r.Put("/passcode", passcodeService.SetPasscode)
			r.Post("/passcode/verify", passcodeService.VerifyPasscode)

			r.Post("/qr/generate", qrHandler.GenerateQR)
			r.Post("/qr/process", qrHandler.ProcessQR)
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
