// Package main is the entry point for the civic complaint backend server.
// It provides a REST API where citizens file complaints against municipal
// departments, the admin manages authority accounts and the complaint
// lifecycle, and a dashboard reads aggregate stats.
//
// Two identities exist side by side:
//   - Citizens arrive with a session minted by the external OAuth gateway;
//     their account row is provisioned on first authenticated request.
//   - The admin logs in with email/password and gets a signed, expiring
//     bearer credential, carried as an HTTP-only cookie.
//
// Every admin route except login passes through one authorization gate.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/civicdesk/complaint-server/internal/auth"
	"github.com/civicdesk/complaint-server/internal/config"
	"github.com/civicdesk/complaint-server/internal/database"
	"github.com/civicdesk/complaint-server/internal/handlers"
	"github.com/civicdesk/complaint-server/internal/middleware"
	"github.com/civicdesk/complaint-server/internal/services"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting complaint server",
		"port", cfg.Port,
		"env", cfg.Environment,
	)

	// Initialize database connection pool and bootstrap schema
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.ApplySchema(context.Background(), db); err != nil {
		sugar.Fatalf("Failed to apply schema: %v", err)
	}

	// Redis backs the stats cache; the server runs fine without it.
	var cache *redis.Client
	if opts, err := redis.ParseURL(cfg.RedisURL); err == nil {
		cache = redis.NewClient(opts)
	} else {
		sugar.Warnw("Invalid Redis URL, stats cache disabled", "error", err)
	}

	// Initialize services
	adminSvc := services.NewAdminService(db, sugar)
	userSvc := services.NewUserService(db, sugar)
	authoritySvc := services.NewAuthorityService(db, sugar)
	complaintSvc := services.NewComplaintService(db, cache, cfg.StatsCacheTTL, sugar)

	// Identity plumbing
	tokenSvc := auth.NewTokenService(cfg.AdminTokenSecret, adminSvc, cfg.Production())
	sessionVerifier := auth.NewSessionVerifier(cfg.SessionSecret)

	// Initialize handlers
	adminHandler := handlers.NewAdminHandler(adminSvc, tokenSvc, authoritySvc, sugar)
	complaintHandler := handlers.NewComplaintHandler(complaintSvc, sugar)
	healthHandler := handlers.NewHealthHandler(db, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// API Routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Admin surface: login is open, everything else sits behind the gate
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", adminHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(tokenSvc))

				r.Get("/verify", adminHandler.Verify)
				r.Get("/stats", complaintHandler.Stats)

				r.Get("/authorities", adminHandler.ListAuthorities)
				r.Post("/authorities", adminHandler.CreateAuthority)

				r.Get("/complaints", complaintHandler.AdminList)
				r.Patch("/complaints/{id}/status", complaintHandler.UpdateStatus)
				r.Patch("/complaints/{id}/assign", complaintHandler.Assign)
			})
		})

		// Citizen surface: identity comes from the external OAuth gateway
		r.Route("/user", func(r chi.Router) {
			r.Use(middleware.RequireSession(sessionVerifier, userSvc))

			r.Get("/complaints", complaintHandler.UserList)
			r.Post("/complaints", complaintHandler.UserCreate)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
