// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shanmugapriyan-TJ/EventFlow/internal/audit"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/config"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/handler"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/repository"
	"github.com/Shanmugapriyan-TJ/EventFlow/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ── 1. Open the storage backend ──────────────────────────────────────
	store, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()
	log.Printf("✓ Storage ready (driver=%s)", cfg.Storage.Driver)

	// ── 2. Wire up layers ────────────────────────────────────────────────
	sched := service.NewScheduler(store)
	schedHandler := handler.NewSchedulerHandler(sched)

	auditor := audit.New(sched, cfg.AuditCron)
	if err := auditor.Start(); err != nil {
		log.Fatalf("audit sweep: %v", err)
	}
	defer auditor.Stop()

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // structured access log
	r.Use(handler.CORS)            // permissive CORS for demo

	// Health and observability
	r.Get("/health", handler.HealthCheck)
	r.Get("/stats", schedHandler.Stats)
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/events", func(r chi.Router) {
		r.Post("/", schedHandler.CreateEvent)
		r.Get("/", schedHandler.ListEvents)
		r.Get("/{id}", schedHandler.GetEvent)
		r.Put("/{id}", schedHandler.UpdateEvent)
		r.Delete("/{id}", schedHandler.DeleteEvent)
		r.Get("/{id}/allocations", schedHandler.ListEventAllocations)
	})
	r.Route("/resources", func(r chi.Router) {
		r.Post("/", schedHandler.CreateResource)
		r.Get("/", schedHandler.ListResources)
		r.Get("/{id}", schedHandler.GetResource)
		r.Put("/{id}", schedHandler.UpdateResource)
		r.Delete("/{id}", schedHandler.DeleteResource)
		r.Get("/{id}/allocations", schedHandler.ListResourceAllocations)
		r.Get("/{id}/utilization", schedHandler.ResourceUtilization)
	})
	r.Route("/allocations", func(r chi.Router) {
		r.Post("/", schedHandler.Allocate)
		r.Delete("/{id}", schedHandler.Deallocate)
	})
	r.Route("/conflicts", func(r chi.Router) {
		r.Get("/", schedHandler.ListConflicts)
		r.Get("/check", schedHandler.CheckConflict)
	})
	r.Get("/reports/utilization", schedHandler.UtilizationReport)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Printf("✓ Server listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}
