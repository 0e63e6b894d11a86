// Package httpapi provides the HTTP REST and websocket API backing the
// gold trading dashboard.
package httpapi

import (
	"synr/internal/domain"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CandlesResponse carries one symbol's candle series, oldest first.
type CandlesResponse struct {
	Symbol  string          `json:"symbol"`
	Candles []domain.Candle `json:"candles"`
}

// SymbolsResponse lists the symbols the server holds candles for.
type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// InsightsResponse carries the analysed news feed, newest first.
type InsightsResponse struct {
	Insights []domain.NewsInsight `json:"insights"`
}

// AnalyzeRequest submits one article for analysis into the insight feed.
type AnalyzeRequest struct {
	Headline string `json:"headline"`
	Content  string `json:"content,omitempty"`
	Source   string `json:"source,omitempty"`
}

// ReflectionsResponse carries recorded trade reflections, newest first.
type ReflectionsResponse struct {
	Reflections []domain.TradeReflection `json:"reflections"`
}

// SessionContextsResponse carries the session contexts recorded for a date.
type SessionContextsResponse struct {
	Date     string                  `json:"date"`
	Contexts []domain.SessionContext `json:"contexts"`
}

// StreamMessage is the envelope for every websocket push.
type StreamMessage struct {
	Type string `json:"type"` // "candle" or "insight"
	Data any    `json:"data"`
}
