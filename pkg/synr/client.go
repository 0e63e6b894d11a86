// Package synr provides a Go SDK for interacting with the synr-server API.
// It carries its own request/response types so importing modules never
// depend on server internals; the wire shapes match the server's JSON.
package synr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Wire types ---

// TrendsInput describes market conditions to summarize.
type TrendsInput struct {
	MarketData  string `json:"marketData"`
	TargetAsset string `json:"targetAsset,omitempty"`
}

// TrendsOutput is the reply of the market trend summary flow.
type TrendsOutput struct {
	TrendSummary    string  `json:"trendSummary"`
	SuggestedTrades string  `json:"suggestedTrades"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

// ChatTurn is one prior message of a conversation. Role is "user" or
// "model".
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatInput is one user message plus optional conversation context. History
// is caller-owned; the server never stores it.
type ChatInput struct {
	UserMessage          string     `json:"userMessage"`
	ChatHistory          []ChatTurn `json:"chatHistory,omitempty"`
	CurrentSignalContext string     `json:"currentSignalContext,omitempty"`
}

// ChatOutput is the assistant's reply.
type ChatOutput struct {
	AIResponse string `json:"aiResponse"`
}

// NewsInput is a news article to analyse.
type NewsInput struct {
	Headline string `json:"headline"`
	Content  string `json:"content,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Sentiment is the market-facing sentiment of an article. Score runs from
// -1 to 1; Label is "positive", "negative", or "neutral".
type Sentiment struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// ImpactEstimation is the estimated effect of an article on one asset.
// Direction is one of up/down/neutral/uncertain; Magnitude, when present,
// one of high/medium/low/uncertain.
type ImpactEstimation struct {
	TargetAsset string   `json:"targetAsset"`
	Direction   string   `json:"direction"`
	Magnitude   string   `json:"magnitude,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Reasoning   string   `json:"reasoning"`
}

// NewsOutput is the reply of the news analysis flow.
type NewsOutput struct {
	KeyEntities      []string         `json:"keyEntities"`
	Topics           []string         `json:"topics"`
	Sentiment        Sentiment        `json:"sentiment"`
	ImpactEstimation ImpactEstimation `json:"impactEstimation"`
	Summary          string           `json:"summary"`
}

// ExplainInput describes a trade signal to explain. SignalType is BUY,
// SELL, or AVOID.
type ExplainInput struct {
	Asset            string  `json:"asset"`
	SignalType       string  `json:"signalType"`
	Confidence       float64 `json:"confidence"`
	TechnicalContext string  `json:"technicalContext,omitempty"`
	NewsContext      string  `json:"newsContext,omitempty"`
	SessionInfo      string  `json:"sessionInfo,omitempty"`
}

// ExplainOutput is the reply of the signal explanation flow.
type ExplainOutput struct {
	Explanation string `json:"explanation"`
}

// ReflectionInput pairs an issued signal's parameters with its realized
// outcome.
type ReflectionInput struct {
	Asset                  string  `json:"asset"`
	SignalType             string  `json:"signalType"`
	SignalPrice            float64 `json:"signalPrice,omitempty"`
	PredictedDirection     string  `json:"predictedDirection"`
	Confidence             float64 `json:"confidence"`
	KeyTechnicalReasons    string  `json:"keyTechnicalReasons,omitempty"`
	KeyNewsEvents          string  `json:"keyNewsEvents,omitempty"`
	SessionInfo            string  `json:"sessionInfo,omitempty"`
	ActualOutcome          string  `json:"actualOutcome"`
	OutcomePriceRange      string  `json:"outcomePriceRange,omitempty"`
	ReasonForActualOutcome string  `json:"reasonForActualOutcome,omitempty"`
}

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

// NewsInsight is an AI-analysed news item from the dashboard feed.
type NewsInsight struct {
	ID                   string    `json:"id"`
	Headline             string    `json:"headline"`
	AISummary            string    `json:"aiSummary"`
	Sentiment            string    `json:"sentiment"`
	ExpectedGoldReaction string    `json:"expectedGoldReaction"`
	Confidence           float64   `json:"confidence,omitempty"`
	Source               string    `json:"source,omitempty"`
	Irrelevant           bool      `json:"irrelevant,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

// TradeReflection is a stored post-outcome reflection on a signal.
type TradeReflection struct {
	ID                 int64     `json:"id"`
	Asset              string    `json:"asset"`
	SignalType         string    `json:"signalType"`
	SignalPrice        float64   `json:"signalPrice,omitempty"`
	PredictedDirection string    `json:"predictedDirection"`
	Confidence         float64   `json:"confidence"`
	ActualOutcome      string    `json:"actualOutcome"`
	OutcomeReason      string    `json:"outcomeReason,omitempty"`
	ReflectionNote     string    `json:"reflectionNote"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Stats aggregates signal accuracy across recorded reflections.
type Stats struct {
	Total         int     `json:"total"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"winRate"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// --- Client ---

// Client provides a Go SDK for interacting with the synr-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new synr API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		msg := string(raw)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// --- AI flows ---

// SummarizeMarketTrends runs the market trend summary flow.
func (c *Client) SummarizeMarketTrends(ctx context.Context, in TrendsInput) (*TrendsOutput, error) {
	var out TrendsOutput
	if err := c.do(ctx, http.MethodPost, "/api/ai/trends", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends one chat message, replaying the supplied history.
func (c *Client) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	var out ChatOutput
	if err := c.do(ctx, http.MethodPost, "/api/ai/chat", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeNews runs the news analysis flow without touching the insight feed.
func (c *Client) AnalyzeNews(ctx context.Context, in NewsInput) (*NewsOutput, error) {
	var out NewsOutput
	if err := c.do(ctx, http.MethodPost, "/api/ai/news", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExplainTradeSignal runs the signal explanation flow.
func (c *Client) ExplainTradeSignal(ctx context.Context, in ExplainInput) (*ExplainOutput, error) {
	var out ExplainOutput
	if err := c.do(ctx, http.MethodPost, "/api/ai/explain", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Candles ---

// GetCandles retrieves the live candle window for a symbol.
func (c *Client) GetCandles(ctx context.Context, symbol string) ([]Candle, error) {
	var out struct {
		Candles []Candle `json:"candles"`
	}
	path := "/api/candles/" + url.PathEscape(symbol)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Candles, nil
}

// GetCandleHistory retrieves stored candles for a symbol within [start, end].
func (c *Client) GetCandleHistory(ctx context.Context, symbol string, start, end time.Time) ([]Candle, error) {
	var out struct {
		Candles []Candle `json:"candles"`
	}
	path := fmt.Sprintf("/api/candles/%s/history?start=%s&end=%s",
		url.PathEscape(symbol),
		url.QueryEscape(start.Format(time.RFC3339)),
		url.QueryEscape(end.Format(time.RFC3339)))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Candles, nil
}

// --- Insights ---

// GetInsights retrieves the analysed news feed, newest first.
func (c *Client) GetInsights(ctx context.Context, limit int) ([]NewsInsight, error) {
	var out struct {
		Insights []NewsInsight `json:"insights"`
	}
	path := "/api/insights"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Insights, nil
}

// SubmitArticle submits one article for analysis into the insight feed.
func (c *Client) SubmitArticle(ctx context.Context, headline, content, source string) (*NewsInsight, error) {
	in := map[string]string{"headline": headline, "content": content, "source": source}
	var out NewsInsight
	if err := c.do(ctx, http.MethodPost, "/api/insights", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FlagInsight marks an insight as irrelevant to gold trading.
func (c *Client) FlagInsight(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/insights/"+url.PathEscape(id)+"/flag", nil, nil)
}

// --- Reflections ---

// RecordReflection records a concluded signal's outcome and returns the
// stored reflection.
func (c *Client) RecordReflection(ctx context.Context, in ReflectionInput) (*TradeReflection, error) {
	var out TradeReflection
	if err := c.do(ctx, http.MethodPost, "/api/reflections", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReflections retrieves recorded reflections, newest first.
func (c *Client) GetReflections(ctx context.Context, limit int) ([]TradeReflection, error) {
	var out struct {
		Reflections []TradeReflection `json:"reflections"`
	}
	path := "/api/reflections"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Reflections, nil
}

// GetAccuracyStats retrieves aggregate signal accuracy.
func (c *Client) GetAccuracyStats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/api/reflections/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
