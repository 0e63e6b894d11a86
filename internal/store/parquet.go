package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"synr/internal/domain"
)

// Compile-time interface check.
var _ CandleStore = (*ParquetStore)(nil)

// ParquetStore implements CandleStore using Parquet files on disk. It also
// archives analysed insights into daily Parquet files for offline analysis.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// CandleRecord is the Parquet schema for candle data.
type CandleRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// InsightRecord is the Parquet schema for archived news insights.
type InsightRecord struct {
	ID                   string  `parquet:"id"`
	Headline             string  `parquet:"headline"`
	AISummary            string  `parquet:"ai_summary"`
	Sentiment            string  `parquet:"sentiment"`
	ExpectedGoldReaction string  `parquet:"expected_gold_reaction"`
	Confidence           float64 `parquet:"confidence"`
	Source               string  `parquet:"source"`
	Timestamp            int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
}

// ---------------------------------------------------------------------------
// CandleStore implementation
// ---------------------------------------------------------------------------

// WriteCandles writes candle data to Parquet files organized by symbol and
// year. Each symbol+year combination produces a separate file at:
//
//	<DataDir>/candles/<SYMBOL>/<YYYY>.parquet
//
// Existing records are merged in; a new record for an already-stored
// (symbol, timestamp) replaces the old one.
func (s *ParquetStore) WriteCandles(_ context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]CandleRecord)
	for _, c := range candles {
		k := key{symbol: c.Symbol, year: c.Time.UTC().Year()}
		groups[k] = append(groups[k], CandleRecord{
			Symbol:    c.Symbol,
			Timestamp: c.Time.UnixMilli(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}

	for k, records := range groups {
		path := s.candlePath(k.symbol, k.year)

		existing, _ := readParquetFile[CandleRecord](path)
		merged := mergeCandleRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing candles for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadCandles reads candle data for the given symbol and time range.
func (s *ParquetStore) ReadCandles(_ context.Context, symbol string, start, end time.Time) ([]domain.Candle, error) {
	var candles []domain.Candle
	for year := start.UTC().Year(); year <= end.UTC().Year(); year++ {
		path := s.candlePath(symbol, year)

		records, err := readParquetFile[CandleRecord](path)
		if err != nil {
			// No file for this year.
			continue
		}

		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end)) {
				candles = append(candles, domain.Candle{
					Symbol: r.Symbol,
					Time:   ts,
					Open:   r.Open,
					High:   r.High,
					Low:    r.Low,
					Close:  r.Close,
					Volume: r.Volume,
				})
			}
		}
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}

// ListSymbols lists all symbols that have candle data.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "candles")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ---------------------------------------------------------------------------
// Insight archive
// ---------------------------------------------------------------------------

// ArchiveInsights appends analysed insights to the daily archive at:
//
//	<DataDir>/insights/<YYYY-MM-DD>.parquet
//
// Insights are deduplicated by ID, newest record winning.
func (s *ParquetStore) ArchiveInsights(_ context.Context, insights []domain.NewsInsight) error {
	if len(insights) == 0 {
		return nil
	}

	groups := make(map[string][]InsightRecord)
	for _, in := range insights {
		date := in.Timestamp.UTC().Format("2006-01-02")
		groups[date] = append(groups[date], InsightRecord{
			ID:                   in.ID,
			Headline:             in.Headline,
			AISummary:            in.AISummary,
			Sentiment:            string(in.Sentiment),
			ExpectedGoldReaction: string(in.ExpectedGoldReaction),
			Confidence:           in.Confidence,
			Source:               in.Source,
			Timestamp:            in.Timestamp.UnixMilli(),
		})
	}

	for date, records := range groups {
		path := filepath.Join(s.DataDir, "insights", date+".parquet")

		existing, _ := readParquetFile[InsightRecord](path)
		merged := mergeInsightRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("archiving insights for %s: %w", date, err)
		}
	}
	return nil
}

// ReadArchivedInsights reads the insight archive for one date.
func (s *ParquetStore) ReadArchivedInsights(_ context.Context, date string) ([]domain.NewsInsight, error) {
	path := filepath.Join(s.DataDir, "insights", date+".parquet")
	records, err := readParquetFile[InsightRecord](path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	insights := make([]domain.NewsInsight, 0, len(records))
	for _, r := range records {
		insights = append(insights, domain.NewsInsight{
			ID:                   r.ID,
			Headline:             r.Headline,
			AISummary:            r.AISummary,
			Sentiment:            domain.SentimentLabel(r.Sentiment),
			ExpectedGoldReaction: domain.Direction(r.ExpectedGoldReaction),
			Confidence:           r.Confidence,
			Source:               r.Source,
			Timestamp:            time.UnixMilli(r.Timestamp).UTC(),
		})
	}
	return insights, nil
}

// ---------------------------------------------------------------------------
// Path and file helpers
// ---------------------------------------------------------------------------

// candlePath returns the filesystem path for a candle Parquet file.
// Layout: <dataDir>/candles/<SYMBOL>/<YYYY>.parquet
func (s *ParquetStore) candlePath(symbol string, year int) string {
	return filepath.Join(s.DataDir, "candles", strings.ToUpper(symbol), fmt.Sprintf("%d.parquet", year))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeCandleRecords deduplicates candle records by (symbol, timestamp),
// preferring new records over existing ones. Results are sorted by timestamp.
func mergeCandleRecords(existing, incoming []CandleRecord) []CandleRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]CandleRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]CandleRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}

// mergeInsightRecords deduplicates insight records by ID, preferring new
// records over existing ones. Results are sorted by timestamp.
func mergeInsightRecords(existing, incoming []InsightRecord) []InsightRecord {
	seen := make(map[string]InsightRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.ID] = r
	}
	for _, r := range incoming {
		seen[r.ID] = r
	}

	merged := make([]InsightRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
