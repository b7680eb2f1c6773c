package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/openvenue/matchbook/params"
	"github.com/openvenue/matchbook/pkg/api"
	"github.com/openvenue/matchbook/pkg/app/venue"
	"github.com/openvenue/matchbook/pkg/infra/bus"
	"github.com/openvenue/matchbook/pkg/infra/cache"
	"github.com/openvenue/matchbook/pkg/infra/worker"
	"github.com/openvenue/matchbook/pkg/storage"
	"github.com/openvenue/matchbook/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	// Setup logging (write to both console and file)
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "data/venue.log"
	}

	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	// ---- Side-effect pipeline ----
	// Every sink is best effort. A missing or failing collaborator is
	// logged and skipped; the in-memory books stay authoritative.
	pool := worker.NewPool(cfg.Venue.SideEffectWorkers, cfg.Venue.TaskQueue, sugar)
	defer pool.Stop()

	hub := api.NewHub(sugar)

	opts := venue.Options{
		Broadcaster: hub,
		Workers:     pool,
	}

	if mirror, err := cache.NewMirror(cfg.Cache.RedisURL, sugar); err != nil {
		sugar.Warnw("cache_disabled", "url", cfg.Cache.RedisURL, "err", err)
	} else {
		defer mirror.Close()
		opts.Cache = mirror
	}

	if publisher, err := bus.NewPublisher(cfg.Bus.AMQPURL, sugar); err != nil {
		sugar.Warnw("bus_disabled", "url", cfg.Bus.AMQPURL, "err", err)
	} else {
		defer publisher.Close()
		opts.Events = publisher
	}

	if cfg.Journal.Path != "" {
		if journal, err := storage.OpenJournal(cfg.Journal.Path, sugar); err != nil {
			sugar.Warnw("journal_disabled", "path", cfg.Journal.Path, "err", err)
		} else {
			defer journal.Close()
			opts.Journal = journal
		}
	}

	// ---- Venue core ----
	app := venue.NewApp(sugar, opts)
	for _, symbol := range cfg.Venue.Markets {
		if err := app.RegisterMarket(symbol); err != nil {
			sugar.Fatalw("market_registration_failed", "symbol", symbol, "err", err)
		}
	}

	// ---- API ----
	server := api.NewServer(app, hub, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Start(cfg.HTTP.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")
}
