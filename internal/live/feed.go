package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"synr/internal/domain"
	"synr/internal/store"
	"synr/internal/util"
)

// Feed consumes a realtime candle push stream over websocket and populates
// a local CandleModel, optionally persisting every candle it receives.
type Feed struct {
	url     string
	model   *CandleModel
	candles store.CandleStore // may be nil
	log     *slog.Logger
}

// NewFeed creates a feed reading from the given websocket URL. candles may
// be nil to skip persistence.
func NewFeed(url string, model *CandleModel, candles store.CandleStore, log *slog.Logger) *Feed {
	return &Feed{url: url, model: model, candles: candles, log: log}
}

// feedMessage is the upstream push format. Time is Unix ms.
type feedMessage struct {
	Symbol string  `json:"symbol"`
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Run connects to the stream and merges incoming candles into the model.
// It reconnects with backoff on any connection failure and blocks until ctx
// is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	for {
		err := f.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.log.Warn("candle stream disconnected, reconnecting", "url", f.url, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

// consume holds one websocket connection open and processes its messages.
func (f *Feed) consume(ctx context.Context) error {
	var conn *websocket.Conn
	err := util.Retry(ctx, 5, time.Second, func() error {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return fmt.Errorf("dialing %s: %w", f.url, err)
	}
	defer conn.Close()

	f.log.Info("connected to candle stream", "url", f.url)

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("reading message: %w", err)
		}

		var msg feedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			f.log.Warn("skipping malformed candle message", "error", err)
			continue
		}
		if msg.Symbol == "" || msg.Time == 0 {
			f.log.Warn("skipping candle without symbol or time")
			continue
		}

		candle := domain.Candle{
			Symbol: msg.Symbol,
			Time:   time.UnixMilli(msg.Time).UTC(),
			Open:   msg.Open,
			High:   msg.High,
			Low:    msg.Low,
			Close:  msg.Close,
			Volume: msg.Volume,
		}

		f.model.Upsert(candle)

		if f.candles != nil {
			if err := f.candles.WriteCandles(ctx, []domain.Candle{candle}); err != nil {
				f.log.Error("persisting candle", "symbol", candle.Symbol, "error", err)
			}
		}
	}
}
