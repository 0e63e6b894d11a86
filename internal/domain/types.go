// Package domain defines the core value types shared across the synr
// platform: market candles, news insights, trade signals, and the enums
// used by the AI flow layer.
package domain

import "time"

// Candle is one OHLC price record for a fixed time bucket of an instrument.
type Candle struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// SignalType classifies a trade signal.
type SignalType string

const (
	SignalBuy   SignalType = "BUY"
	SignalSell  SignalType = "SELL"
	SignalAvoid SignalType = "AVOID"
)

// Valid reports whether t is one of the recognised signal types.
func (t SignalType) Valid() bool {
	switch t {
	case SignalBuy, SignalSell, SignalAvoid:
		return true
	}
	return false
}

// Direction is an estimated direction of price impact.
type Direction string

const (
	DirectionUp        Direction = "up"
	DirectionDown      Direction = "down"
	DirectionNeutral   Direction = "neutral"
	DirectionUncertain Direction = "uncertain"
)

// Valid reports whether d is one of the recognised directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionUp, DirectionDown, DirectionNeutral, DirectionUncertain:
		return true
	}
	return false
}

// SentimentLabel is an overall sentiment classification.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Valid reports whether l is one of the recognised sentiment labels.
func (l SentimentLabel) Valid() bool {
	switch l {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Magnitude is an estimated size of price impact.
type Magnitude string

const (
	MagnitudeHigh      Magnitude = "high"
	MagnitudeMedium    Magnitude = "medium"
	MagnitudeLow       Magnitude = "low"
	MagnitudeUncertain Magnitude = "uncertain"
)

// Valid reports whether m is one of the recognised magnitudes.
func (m Magnitude) Valid() bool {
	switch m {
	case MagnitudeHigh, MagnitudeMedium, MagnitudeLow, MagnitudeUncertain:
		return true
	}
	return false
}

// NewsInsight is an AI-analysed news item delivered to the dashboard feed.
type NewsInsight struct {
	ID                   string         `json:"id"`
	Headline             string         `json:"headline"`
	AISummary            string         `json:"aiSummary"`
	Sentiment            SentimentLabel `json:"sentiment"`
	ExpectedGoldReaction Direction      `json:"expectedGoldReaction"`
	Confidence           float64        `json:"confidence,omitempty"`
	Source               string         `json:"source,omitempty"`
	Irrelevant           bool           `json:"irrelevant,omitempty"`
	Timestamp            time.Time      `json:"timestamp"`
}

// TradeSignal holds the parameters of an issued signal, as fed into the
// explanation and reflection flows.
type TradeSignal struct {
	Asset              string     `json:"asset"`
	Type               SignalType `json:"signalType"`
	Confidence         float64    `json:"confidence"`
	Price              float64    `json:"price,omitempty"`
	PredictedDirection Direction  `json:"predictedDirection,omitempty"`
	TechnicalContext   string     `json:"technicalContext,omitempty"`
	NewsContext        string     `json:"newsContext,omitempty"`
	SessionInfo        string     `json:"sessionInfo,omitempty"`
	IssuedAt           time.Time  `json:"issuedAt,omitempty"`
}

// TradeReflection is a persisted post-outcome reflection on a signal.
type TradeReflection struct {
	ID                 int64      `json:"id"`
	Asset              string     `json:"asset"`
	SignalType         SignalType `json:"signalType"`
	SignalPrice        float64    `json:"signalPrice,omitempty"`
	PredictedDirection Direction  `json:"predictedDirection"`
	Confidence         float64    `json:"confidence"`
	ActualOutcome      string     `json:"actualOutcome"`
	OutcomeReason      string     `json:"outcomeReason,omitempty"`
	ReflectionNote     string     `json:"reflectionNote"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// SessionContext records the mood of one trading session for the memory
// system.
type SessionContext struct {
	ID              int64     `json:"id"`
	SessionDate     string    `json:"sessionDate"` // YYYY-MM-DD
	SessionType     string    `json:"sessionType"` // Asia, Europe, US
	EmotionalState  string    `json:"emotionalState,omitempty"`
	MarketMood      string    `json:"marketMood,omitempty"`
	VolatilityLevel string    `json:"volatilityLevel,omitempty"`
	KeyEvents       []string  `json:"keyEvents,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
