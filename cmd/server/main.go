package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mealmax/internal/battle"
	"mealmax/internal/config"
	"mealmax/internal/database"
	"mealmax/internal/handlers"
	"mealmax/internal/middleware"
	"mealmax/internal/random"
	"mealmax/internal/repository"
	"mealmax/internal/service"
	"mealmax/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (silently ignore if missing)
	_ = godotenv.Load()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting mealmax api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
		"database", cfg.Database.Path,
	)

	// Open database and apply migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	mealRepo := repository.NewSQLiteMealRepository(db.SQL, log)

	// Initialize services and the battle engine
	catalogService := service.NewCatalogService(mealRepo)
	randomClient := random.NewClient(random.Config{
		BaseURL: cfg.Random.BaseURL,
		Timeout: time.Duration(cfg.Random.TimeoutSeconds) * time.Second,
	})
	battleModel := battle.NewModel(mealRepo, randomClient, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	mealHandler := handlers.NewMealHandler(catalogService, log)
	battleHandler := handlers.NewBattleHandler(battleModel, catalogService, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog reads
		r.Get("/meal/by-name/{name}", mealHandler.GetMealByName)
		r.Get("/meal/{mealId}", mealHandler.GetMealByID)
		r.Get("/leaderboard", mealHandler.Leaderboard)
		r.Get("/battle/combatants", battleHandler.GetCombatants)

		// Mutating endpoints require an API key
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth))

			r.Post("/meal", mealHandler.CreateMeal)
			r.Delete("/meal/{mealId}", mealHandler.DeleteMeal)
			r.Post("/battle/combatants", battleHandler.PrepCombatant)
			r.Delete("/battle/combatants", battleHandler.ClearCombatants)
			r.Post("/battle", battleHandler.Battle)
			r.Post("/db/reset", mealHandler.ResetCatalog)
		})
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
