// @title                       Kanso Streak Engine API
// @version                     1.0
// @description                 Completion ledger, streaks and achievement statistics.
// @host                        localhost:8080
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/app"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Critical: %v", err)
	}
	log.Println("Server stopped gracefully.")
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	engine.StartWorkers(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      engine.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Kanso Streak Engine running on http://localhost:%s (timezone %s)", cfg.Port, cfg.Location)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Println("Stop signal received. Shutting down...")
	case err := <-serveErr:
		log.Printf("Server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return errors.Join(srv.Shutdown(shutdownCtx), engine.Close())
}
