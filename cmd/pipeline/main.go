package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "churnpipe/loader/csvdir" // registers the csvdir loading strategy

	"churnpipe/internal/logging"
	"churnpipe/internal/pipeline"
	"churnpipe/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "pipeline.yml", "pipeline config file")
	flag.Parse()

	logging.InitFromEnv()
	log := logging.With("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := pipeline.Compile(*configPath)
	if err != nil {
		log.Error("compile failed", "config", *configPath, "err", err)
		os.Exit(1)
	}
	telemetry.Expose(runner.Config().Serve.MetricsAddr)

	_, err = runner.Run(ctx)
	if cerr := runner.Close(); cerr != nil {
		log.Warn("tracking close", "err", cerr)
	}
	if err != nil {
		log.Error("run failed", "err", err)
		os.Exit(1)
	}
}
