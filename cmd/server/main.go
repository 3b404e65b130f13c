package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/equipsight/api/internal/auth"
	"github.com/equipsight/api/internal/config"
	"github.com/equipsight/api/internal/db"
	"github.com/equipsight/api/internal/export"
	"github.com/equipsight/api/internal/ingestion"
	appmiddleware "github.com/equipsight/api/internal/middleware"
	"github.com/equipsight/api/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	if err := db.RunMigrations(cfg.Database); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	// Create repositories
	profileRepo := repository.NewProfileRepository(conn)
	uploadRepo := repository.NewUploadRepository(conn)

	// Create services and handlers
	ingestService := ingestion.NewService(uploadRepo, logger)
	ingestHandler := ingestion.NewHTTPHandler(ingestService, uploadRepo, logger)
	exportHandler := export.NewHTTPHandler(uploadRepo, logger)

	router := chi.NewRouter()
	router.Use(appmiddleware.Logging(logger))
	router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(profileRepo, logger))
		ingestHandler.RegisterRoutes(r)
		exportHandler.RegisterRoutes(r)
	})

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server", "addr", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
