package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"synr/internal/config"
	"synr/internal/flow"
	"synr/internal/flow/gemini"
	"synr/internal/httpapi"
	"synr/internal/live"
	"synr/internal/memory"
	"synr/internal/news"
	"synr/internal/store"
	"synr/internal/util"
)

func main() {
	// Local development keeps credentials in .env; absence is fine.
	godotenv.Load()

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

	// The live/mock decision is made exactly once, here, and holds for the
	// process lifetime.
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
		logger.Info("AI flows using live backend", "model", cfg.AI.Model)
		flows = flow.NewLiveService(client)
	}

	model := live.NewCandleModel(cfg.Feed.Window)
	newsSvc := news.NewService(flows, db, pstore, logger)
	memorySys := memory.NewSystem(flows, db, db, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Feed.StreamURL != "" {
		feed := live.NewFeed(cfg.Feed.StreamURL, model, pstore, logger)
		go func() {
			if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("candle feed stopped", "error", err)
			}
		}()
	}

	api := httpapi.NewDashboardServer(flows, model, pstore, newsSvc, memorySys, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: api.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("synr-server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
