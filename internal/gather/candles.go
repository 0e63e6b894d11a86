package gather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"synr/internal/domain"
	"synr/internal/live"
	"synr/internal/store"
	"synr/internal/util"
)

// DefaultSymbols are the instruments the dashboard tracks alongside gold:
// gold futures, the dollar index, crude oil, and the volatility index.
var DefaultSymbols = []string{"GC=F", "DX-Y.NYB", "CL=F", "^VIX"}

// CandleGatherer fetches hourly candles for a set of symbols from a
// Yahoo-style chart API and persists them. A live model can be attached so
// fresh candles also reach connected dashboards.
type CandleGatherer struct {
	baseURL  string
	symbols  []string
	interval string
	lookback time.Duration
	loop     time.Duration

	candles store.CandleStore
	model   *live.CandleModel // may be nil
	limiter *util.RateLimiter
	client  *http.Client
	log     *slog.Logger
}

// Compile-time interface check.
var _ Gatherer = (*CandleGatherer)(nil)

// Config holds CandleGatherer settings.
type Config struct {
	BaseURL         string
	Symbols         []string
	Interval        string
	LookbackHours   int
	RateLimitPerMin int
	LoopSeconds     int
}

// NewCandleGatherer creates a gatherer. model may be nil when running as a
// standalone backfill job.
func NewCandleGatherer(cfg Config, candles store.CandleStore, model *live.CandleModel, log *slog.Logger) *CandleGatherer {
	symbols := cfg.Symbols
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	interval := cfg.Interval
	if interval == "" {
		interval = "1h"
	}
	lookback := time.Duration(cfg.LookbackHours) * time.Hour
	if lookback == 0 {
		lookback = 72 * time.Hour
	}
	loop := time.Duration(cfg.LoopSeconds) * time.Second
	if loop == 0 {
		loop = 5 * time.Minute
	}
	perMin := cfg.RateLimitPerMin
	if perMin == 0 {
		perMin = 30
	}

	return &CandleGatherer{
		baseURL:  cfg.BaseURL,
		symbols:  symbols,
		interval: interval,
		lookback: lookback,
		loop:     loop,
		candles:  candles,
		model:    model,
		limiter:  util.NewRateLimiter(perMin),
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// Name returns the gatherer identifier.
func (g *CandleGatherer) Name() string { return "candles" }

// Run gathers once, then repeats on the loop interval until ctx is
// cancelled.
func (g *CandleGatherer) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.loop)
	defer ticker.Stop()

	for {
		if err := g.GatherOnce(ctx); err != nil {
			g.log.Error("gather pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GatherOnce fetches and persists the lookback window for every symbol.
func (g *CandleGatherer) GatherOnce(ctx context.Context) error {
	end := time.Now().UTC()
	start := end.Add(-g.lookback)

	var firstErr error
	for _, symbol := range g.symbols {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		candles, err := g.FetchSymbol(ctx, symbol, start, end)
		if err != nil {
			g.log.Error("fetching candles", "symbol", symbol, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if err := g.candles.WriteCandles(ctx, candles); err != nil {
			g.log.Error("persisting candles", "symbol", symbol, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if g.model != nil {
			g.model.UpsertBatch(candles)
		}
		g.log.Info("gathered candles", "symbol", symbol, "count", len(candles))
	}
	return firstErr
}

// chartResponse is the Yahoo v8 chart payload shape.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSymbol fetches candles for one symbol within [start, end]. Buckets
// with null prices (still forming or halted) are dropped. Transient fetch
// failures are retried with backoff.
func (g *CandleGatherer) FetchSymbol(ctx context.Context, symbol string, start, end time.Time) ([]domain.Candle, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&period1=%d&period2=%d",
		g.baseURL, url.PathEscape(symbol), g.interval, start.Unix(), end.Unix())

	var body []byte
	err := util.Retry(ctx, 3, time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("chart API status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}

	return parseChart(symbol, body)
}

// parseChart decodes one chart payload into candles, dropping incomplete
// buckets.
func parseChart(symbol string, body []byte) ([]domain.Candle, error) {
	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing chart for %s: %w", symbol, err)
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart payload for %s holds no series", symbol)
	}

	result := parsed.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var candles []domain.Candle
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		c := domain.Candle{
			Symbol: symbol,
			Time:   time.Unix(ts, 0).UTC(),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			c.Volume = *quote.Volume[i]
		}
		candles = append(candles, c)
	}
	return candles, nil
}
