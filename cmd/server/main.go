package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"linkdrop/internal/cache"
	"linkdrop/internal/config"
	"linkdrop/internal/generator"
	"linkdrop/internal/handler"
	"linkdrop/internal/logger"
	"linkdrop/internal/middleware"
	"linkdrop/internal/repository"
	"linkdrop/internal/service"
	"linkdrop/internal/storage"
)

func main() {
	// ============================================================
	// LOAD CONFIGURATION
	// ============================================================
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// ============================================================
	// INITIALIZE LOGGER
	// ============================================================
	log := logger.New(cfg.Log)

	log.Info("starting linkdrop",
		"environment", cfg.App.Environment,
		"database", cfg.Database.Driver,
		"base_url", cfg.App.BaseURL,
		"ttl", cfg.App.TTL.String())

	// ============================================================
	// INITIALIZE LAYERS
	// ============================================================
	repo, err := newRepository(&cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", "error", err.Error())
		os.Exit(1)
	}

	files, err := storage.NewFileStore(cfg.App.UploadDir)
	if err != nil {
		log.Error("Failed to initialize file store", "error", err.Error())
		os.Exit(1)
	}

	// ============================================================
	// INITIALIZE REDIS CACHE (OPTIONAL)
	// ============================================================
	var entryCache service.Cache
	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...", "addr", cfg.Redis.Addr)
		redisCache, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err.Error())
			os.Exit(1)
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Failed to close Redis client", "error", err.Error())
			}
		}()
		entryCache = redisCache
		log.Info("Redis connected successfully!")
	}

	gen := generator.New(cfg.App.CodeLength)
	svc := service.NewEntryService(repo, gen, entryCache, log, cfg.App.BaseURL, cfg.App.TTL)

	h := handler.NewEntryHandler(svc, files, log)
	router := h.SetupRoutes()

	// ============================================================
	// START EXPIRY REAPER
	// ============================================================
	reaper := service.NewReaper(repo, files, entryCache, log, cfg.App.TTL, cfg.App.SweepInterval)
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go reaper.Run(reaperCtx)

	// ============================================================
	// BUILD MIDDLEWARE CHAIN
	// ============================================================
	wrappedRouter := middleware.Chain(router,
		middleware.RequestID,
		middleware.RecoveryWithLogger(log),
		middleware.LoggingWithLogger(log),
	)

	// ============================================================
	// CREATE SERVER WITH CONFIG TIMEOUTS
	// ============================================================
	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      wrappedRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel to track server errors
	serverErr := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		if cfg.IsDevelopment() {
			fmt.Printf("Server starting on http://localhost%s\n", addr)
			fmt.Println("───────────────────────────────────────")
			fmt.Println("Endpoints:")
			fmt.Println("  GET  /                   - Upload form")
			fmt.Println("  POST /upload             - Create short link (url or file)")
			fmt.Println("  GET  /{code}             - Redirect or download")
			fmt.Println("  GET  /qr/{code}          - QR code PNG")
			fmt.Println("  GET  /api/metadata/{code}- Entry metadata")
			fmt.Println("  GET  /admin              - Entry table")
			fmt.Println("  GET  /health             - Health check")
			fmt.Println("───────────────────────────────────────")
			fmt.Println("Press Ctrl+C to shutdown gracefully")
		}
		log.Info("server starting", "addr", "http://localhost"+addr)
		serverErr <- server.ListenAndServe()
	}()

	// ============================================================
	// WAIT FOR SHUTDOWN OR ERROR
	// ============================================================
	select {
	case err := <-serverErr:
		log.Error("server error", "error", err.Error())
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())
		// Create context with timeout for shutdown
		ctx, cancel := context.WithTimeout(
			context.Background(),
			cfg.Server.ShutdownTimeout,
		)
		defer cancel()

		// Stop the reaper first; in-flight deletions are idempotent and
		// safe to repeat after restart.
		stopReaper()

		// Attempt graceful shutdown
		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err.Error())
			// force close if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Error("forced shutdown failed", "error", err.Error())
			}
		}

		// Close repository (database connection)
		if err := repo.Close(); err != nil {
			log.Error("failed to close database", "error", err.Error())
		}

		log.Info("server stopped")
	}
}

// newRepository picks the mapping-store backend from config.
func newRepository(cfg *config.DatabaseConfig) (repository.Repository, error) {
	switch cfg.Driver {
	case "postgres":
		return repository.NewPostgresRepository(cfg.DSN)
	default:
		return repository.NewSQLiteRepository(cfg.DSN)
	}
}
