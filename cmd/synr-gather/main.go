package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"synr/internal/config"
	"synr/internal/gather"
	"synr/internal/store"
	"synr/internal/util"
)

func main() {
	godotenv.Load()

	once := flag.Bool("once", false, "gather a single pass and exit")
	flag.Parse()

	cfgPath := "config/synr.yaml"
	if p := os.Getenv("SYNR_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	g := gather.NewCandleGatherer(gather.Config{
		BaseURL:         cfg.Gather.ChartURL,
		Symbols:         cfg.Gather.Symbols,
		Interval:        cfg.Gather.Interval,
		LookbackHours:   cfg.Gather.LookbackHours,
		RateLimitPerMin: cfg.Gather.RateLimitPerMin,
		LoopSeconds:     cfg.Gather.LoopSeconds,
	}, pstore, nil, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		if err := g.GatherOnce(ctx); err != nil {
			log.Fatalf("gather pass failed: %v", err)
		}
		return
	}

	logger.Info("starting candle gatherer", "gatherer", g.Name())
	if err := g.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("gatherer stopped: %v", err)
	}
}
