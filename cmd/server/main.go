package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/exampress/internal/api"
	"github.com/dgallion1/exampress/internal/artifact"
	"github.com/dgallion1/exampress/internal/config"
	"github.com/dgallion1/exampress/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Artifact storage.
	var store artifact.Store
	var remote *artifact.RemoteStore
	if cfg.ArtifactStoreURL != "" {
		remote = artifact.NewRemoteStore(cfg.ArtifactStoreURL, cfg.ArtifactStoreAPIKey)
		store = remote
		log.Info("using remote artifact store", "url", cfg.ArtifactStoreURL)
	} else {
		store = artifact.NewMemoryStore(cfg.JobTTL)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, store, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if remote != nil {
			remote.Close()
		}
	}()

	log.Info("starting exampress",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"page_mm", []float64{cfg.Layout.PageWidth, cfg.Layout.PageHeight},
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
