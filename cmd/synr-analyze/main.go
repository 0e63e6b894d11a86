package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"synr/internal/config"
	"synr/internal/flow"
	"synr/internal/flow/gemini"
	"synr/internal/news"
	"synr/internal/store"
	"synr/internal/util"
)

// synr-analyze is a batch job: it pulls recent gold headlines, runs each
// through the news analysis flow, and persists the resulting insights.
func main() {
	godotenv.Load()

	query := flag.String("query", news.DefaultQuery, "news search query")
	hours := flag.Int("hours", 24, "lookback window in hours")
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
	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var flows flow.Service
	if flow.UseMock(cfg.Production, cfg.AI.APIKey) {
		logger.Info("AI flows using mock service (no API key outside production)")
		flows = flow.NewMockService()
	} else {
		client, err := gemini.NewClient(gemini.Config{
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			BaseURL:     cfg.AI.BaseURL,
			Temperature: cfg.AI.Temperature,
			Timeout:     time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			log.Fatalf("failed to create completion client: %v", err)
		}
		flows = flow.NewLiveService(client)
	}

	svc := news.NewService(flows, db, pstore, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	end := time.Now().UTC()
	start := end.Add(-time.Duration(*hours) * time.Hour)

	articles, err := news.FetchGoogleNews(*query, start, end)
	if err != nil {
		log.Fatalf("fetching news: %v", err)
	}
	logger.Info("fetched articles", "query", *query, "count", len(articles))

	var failed int
	for _, article := range articles {
		if ctx.Err() != nil {
			break
		}
		insight, err := svc.Analyze(ctx, article)
		if err != nil {
			logger.Error("analyzing article", "headline", article.Headline, "error", err)
			failed++
			continue
		}
		logger.Info("stored insight",
			"id", insight.ID,
			"sentiment", insight.Sentiment,
			"reaction", insight.ExpectedGoldReaction)
	}

	logger.Info("analysis pass complete", "total", len(articles), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
