package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"churnpipe/internal/artifact"
	"churnpipe/internal/config"
	"churnpipe/internal/logging"
	"churnpipe/internal/serve"
	"churnpipe/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "pipeline.yml", "pipeline config file")
	flag.Parse()

	logging.InitFromEnv()
	log := logging.With("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config load failed", "config", *configPath, "err", err)
		os.Exit(1)
	}

	srv, err := serve.NewServer(cfg, artifact.NewStore(cfg.ArtifactRoot))
	if err != nil {
		log.Error("server init failed", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	telemetry.Expose(cfg.Serve.MetricsAddr)

	server := &http.Server{Addr: cfg.Serve.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Serve.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", "err", err)
	}
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error("shutdown error", "err", err)
	}
	log.Info("server stopped")
}
