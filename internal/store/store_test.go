package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"synr/internal/domain"
)

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	got := ps.candlePath("xauusd", 2024)
	want := filepath.Join("/data", "candles", "XAUUSD", "2024.parquet")
	if got != want {
		t.Errorf("candlePath mismatch:\n  got  %s\n  want %s", got, want)
	}
}

func TestParquetStoreWriteReadCandles(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	candles := []domain.Candle{
		{
			Symbol: "XAUUSD",
			Time:   time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC),
			Open:   2040.0, High: 2046.5, Low: 2038.0, Close: 2045.5,
			Volume: 12000,
		},
		{
			Symbol: "XAUUSD",
			Time:   time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
			Open:   2045.5, High: 2050.0, Low: 2044.0, Close: 2048.0,
			Volume: 9800,
		},
	}

	if err := ps.WriteCandles(ctx, candles); err != nil {
		t.Fatalf("WriteCandles: %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := ps.ReadCandles(ctx, "XAUUSD", start, end)
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadCandles returned %d candles, want 2", len(got))
	}
	if got[0].Close != 2045.5 {
		t.Errorf("first candle Close = %v, want 2045.5", got[0].Close)
	}
	if got[1].Close != 2048.0 {
		t.Errorf("second candle Close = %v, want 2048.0", got[1].Close)
	}
}

func TestParquetStoreMergeReplacesSameBucket(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	first := []domain.Candle{
		{Symbol: "XAUUSD", Time: ts, Open: 2100, High: 2105, Low: 2099, Close: 2101, Volume: 100},
	}
	if err := ps.WriteCandles(ctx, first); err != nil {
		t.Fatalf("WriteCandles (first): %v", err)
	}

	// Same bucket arrives again with an updated close plus a new bucket.
	second := []domain.Candle{
		{Symbol: "XAUUSD", Time: ts, Open: 2100, High: 2108, Low: 2099, Close: 2107, Volume: 250},
		{Symbol: "XAUUSD", Time: ts.Add(time.Hour), Open: 2107, High: 2110, Low: 2106, Close: 2109, Volume: 120},
	}
	if err := ps.WriteCandles(ctx, second); err != nil {
		t.Fatalf("WriteCandles (second): %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := ps.ReadCandles(ctx, "XAUUSD", start, end)
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadCandles returned %d candles after merge, want 2", len(got))
	}
	if got[0].Close != 2107 {
		t.Errorf("merged candle Close = %v, want 2107 (new record wins)", got[0].Close)
	}
}

func TestParquetStoreListSymbols(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	candles := []domain.Candle{
		{Symbol: "XAUUSD", Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 2040, High: 2041, Low: 2039, Close: 2040.5, Volume: 1},
		{Symbol: "DXY", Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 102, High: 102.5, Low: 101.8, Close: 102.2, Volume: 1},
	}
	if err := ps.WriteCandles(ctx, candles); err != nil {
		t.Fatalf("WriteCandles: %v", err)
	}

	symbols, err := ps.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("ListSymbols returned %d symbols, want 2", len(symbols))
	}
	if symbols[0] != "DXY" || symbols[1] != "XAUUSD" {
		t.Errorf("ListSymbols = %v, want [DXY XAUUSD]", symbols)
	}
}

func TestParquetStoreArchiveInsights(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	ts := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	insights := []domain.NewsInsight{
		{ID: "n1", Headline: "Fed holds rates", AISummary: "Neutral hold.", Sentiment: domain.SentimentNeutral, ExpectedGoldReaction: domain.DirectionNeutral, Confidence: 0.6, Timestamp: ts},
	}
	if err := ps.ArchiveInsights(ctx, insights); err != nil {
		t.Fatalf("ArchiveInsights: %v", err)
	}

	// Re-archiving the same ID with updated fields must replace, not duplicate.
	insights[0].AISummary = "Dovish hold."
	if err := ps.ArchiveInsights(ctx, insights); err != nil {
		t.Fatalf("ArchiveInsights (again): %v", err)
	}

	got, err := ps.ReadArchivedInsights(ctx, "2024-05-10")
	if err != nil {
		t.Fatalf("ReadArchivedInsights: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("archive holds %d insights, want 1", len(got))
	}
	if got[0].AISummary != "Dovish hold." {
		t.Errorf("AISummary = %q, want updated value", got[0].AISummary)
	}
}

func TestSQLiteStoreInsights(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	in := &domain.NewsInsight{
		ID:                   "n1",
		Headline:             "CPI cools to 2.9%",
		AISummary:            "Soft inflation supports gold.",
		Sentiment:            domain.SentimentPositive,
		ExpectedGoldReaction: domain.DirectionUp,
		Confidence:           0.8,
		Source:               "Reuters",
		Timestamp:            time.Date(2024, 5, 10, 12, 30, 0, 0, time.UTC),
	}
	if err := s.SaveInsight(ctx, in); err != nil {
		t.Fatalf("SaveInsight: %v", err)
	}

	later := *in
	later.ID = "n2"
	later.Headline = "Dollar rallies"
	later.Timestamp = in.Timestamp.Add(time.Hour)
	if err := s.SaveInsight(ctx, &later); err != nil {
		t.Fatalf("SaveInsight (second): %v", err)
	}

	got, err := s.ListInsights(ctx, 10)
	if err != nil {
		t.Fatalf("ListInsights: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListInsights returned %d, want 2", len(got))
	}
	if got[0].ID != "n2" {
		t.Errorf("insights not newest-first: %v", got)
	}

	if err := s.FlagIrrelevant(ctx, "n1"); err != nil {
		t.Fatalf("FlagIrrelevant: %v", err)
	}
	got, err = s.ListInsights(ctx, 10)
	if err != nil {
		t.Fatalf("ListInsights: %v", err)
	}
	if !got[1].Irrelevant {
		t.Error("n1 not flagged irrelevant")
	}

	if err := s.FlagIrrelevant(ctx, "missing"); err == nil {
		t.Error("FlagIrrelevant accepted unknown ID")
	}
}

func TestSQLiteStoreReflections(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	r := &domain.TradeReflection{
		Asset:              "Gold",
		SignalType:         domain.SignalBuy,
		SignalPrice:        1950.5,
		PredictedDirection: domain.DirectionUp,
		Confidence:         0.85,
		ActualOutcome:      "Win - Hit Take Profit at 1975",
		ReflectionNote:     "Breakout thesis confirmed by CPI tailwind.",
	}
	if err := s.SaveReflection(ctx, r); err != nil {
		t.Fatalf("SaveReflection: %v", err)
	}
	if r.ID == 0 {
		t.Fatal("SaveReflection did not assign an ID")
	}

	got, err := s.ListReflections(ctx, 0)
	if err != nil {
		t.Fatalf("ListReflections: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListReflections returned %d, want 1", len(got))
	}
	if got[0].SignalType != domain.SignalBuy || got[0].Confidence != 0.85 {
		t.Errorf("reflection round trip mismatch: %+v", got[0])
	}
}

func TestSQLiteStoreSessionContexts(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	sc := &domain.SessionContext{
		SessionDate:     "2024-05-10",
		SessionType:     "US",
		MarketMood:      "cautious",
		VolatilityLevel: "high",
		KeyEvents:       []string{"CPI release", "Fed speakers"},
	}
	if err := s.SaveSessionContext(ctx, sc); err != nil {
		t.Fatalf("SaveSessionContext: %v", err)
	}

	// Saving the same session again updates in place.
	sc.MarketMood = "risk-on"
	if err := s.SaveSessionContext(ctx, sc); err != nil {
		t.Fatalf("SaveSessionContext (update): %v", err)
	}

	got, err := s.GetSessionContext(ctx, "2024-05-10", "US")
	if err != nil {
		t.Fatalf("GetSessionContext: %v", err)
	}
	if got == nil {
		t.Fatal("GetSessionContext returned nil")
	}
	if got.MarketMood != "risk-on" {
		t.Errorf("MarketMood = %q, want risk-on", got.MarketMood)
	}
	if len(got.KeyEvents) != 2 || got.KeyEvents[0] != "CPI release" {
		t.Errorf("KeyEvents = %v", got.KeyEvents)
	}

	missing, err := s.GetSessionContext(ctx, "2024-05-10", "Asia")
	if err != nil {
		t.Fatalf("GetSessionContext (missing): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unrecorded session, got %+v", missing)
	}

	all, err := s.ListSessionContexts(ctx, "2024-05-10")
	if err != nil {
		t.Fatalf("ListSessionContexts: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("ListSessionContexts returned %d, want 1", len(all))
	}
}
