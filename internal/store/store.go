// Package store defines storage interfaces for persisting and retrieving
// domain objects: candles, news insights, trade reflections, and session
// contexts.
package store

import (
	"context"
	"time"

	"synr/internal/domain"
)

// CandleStore persists and retrieves OHLC candle data.
type CandleStore interface {
	// WriteCandles persists a batch of candles, merging with any candles
	// already stored for the same (symbol, time).
	WriteCandles(ctx context.Context, candles []domain.Candle) error

	// ReadCandles returns candles for the given symbol within [start, end],
	// sorted by time ascending.
	ReadCandles(ctx context.Context, symbol string, start, end time.Time) ([]domain.Candle, error)

	// ListSymbols returns all distinct symbols with stored candles.
	ListSymbols(ctx context.Context) ([]string, error)
}

// InsightStore persists and retrieves analysed news insights.
type InsightStore interface {
	// SaveInsight inserts or replaces an insight by its ID.
	SaveInsight(ctx context.Context, insight *domain.NewsInsight) error

	// ListInsights returns the most recent insights, newest first, up to
	// limit. A non-positive limit returns all.
	ListInsights(ctx context.Context, limit int) ([]domain.NewsInsight, error)

	// FlagIrrelevant marks an insight as irrelevant to gold trading.
	FlagIrrelevant(ctx context.Context, id string) error
}

// ReflectionStore persists and retrieves post-outcome trade reflections.
type ReflectionStore interface {
	// SaveReflection inserts a reflection and assigns its ID.
	SaveReflection(ctx context.Context, r *domain.TradeReflection) error

	// ListReflections returns reflections, newest first, up to limit. A
	// non-positive limit returns all.
	ListReflections(ctx context.Context, limit int) ([]domain.TradeReflection, error)
}

// SessionStore persists and retrieves per-session market context records.
type SessionStore interface {
	// SaveSessionContext inserts or replaces the context for one
	// (sessionDate, sessionType) pair and assigns its ID.
	SaveSessionContext(ctx context.Context, sc *domain.SessionContext) error

	// GetSessionContext retrieves the context for one session, or nil when
	// none is recorded.
	GetSessionContext(ctx context.Context, sessionDate, sessionType string) (*domain.SessionContext, error)

	// ListSessionContexts returns all contexts recorded for a date.
	ListSessionContexts(ctx context.Context, sessionDate string) ([]domain.SessionContext, error)
}
