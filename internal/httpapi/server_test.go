package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"synr/internal/domain"
	"synr/internal/flow"
	"synr/internal/live"
	"synr/internal/memory"
	"synr/internal/news"
	"synr/internal/store"
	"synr/internal/util"
)

// stubFlows lets each test pin the flow layer's behavior.
type stubFlows struct {
	trendsOut  *flow.TrendsOutput
	trendsErr  error
	newsOut    *flow.NewsOutput
	newsErr    error
	reflectOut *flow.ReflectionOutput
	reflectErr error
}

func (s *stubFlows) SummarizeMarketTrends(_ context.Context, in flow.TrendsInput) (*flow.TrendsOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.trendsOut, s.trendsErr
}

func (s *stubFlows) Chat(_ context.Context, in flow.ChatInput) (*flow.ChatOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &flow.ChatOutput{AIResponse: "ok"}, nil
}

func (s *stubFlows) AnalyzeNews(_ context.Context, in flow.NewsInput) (*flow.NewsOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.newsOut, s.newsErr
}

func (s *stubFlows) ExplainTradeSignal(_ context.Context, in flow.ExplainInput) (*flow.ExplainOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &flow.ExplainOutput{Explanation: "Momentum supports the signal."}, nil
}

func (s *stubFlows) ReflectOnTrade(_ context.Context, in flow.ReflectionInput) (*flow.ReflectionOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.reflectOut, s.reflectErr
}

func defaultStub() *stubFlows {
	conf := 0.7
	return &stubFlows{
		trendsOut: &flow.TrendsOutput{
			TrendSummary:    "Bullish",
			SuggestedTrades: "BUY above 2355",
			Confidence:      0.8,
			Reasoning:       "Momentum",
		},
		newsOut: &flow.NewsOutput{
			KeyEntities: []string{"FED"},
			Topics:      []string{"monetary policy"},
			Sentiment:   flow.Sentiment{Score: 0.4, Label: domain.SentimentPositive},
			ImpactEstimation: flow.ImpactEstimation{
				TargetAsset: "Gold",
				Direction:   domain.DirectionUp,
				Confidence:  &conf,
				Reasoning:   "Dovish tilt.",
			},
			Summary: "Cuts ahead.",
		},
		reflectOut: &flow.ReflectionOutput{ReflectionNote: "Thesis held."},
	}
}

func newTestServer(t *testing.T, flows flow.Service) (*httptest.Server, *live.CandleModel) {
	t.Helper()
	log := util.NewLogger("error", "text")

	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	model := live.NewCandleModel(50)
	parquet := store.NewParquetStore(t.TempDir())
	newsSvc := news.NewService(flows, db, nil, log)
	memorySys := memory.NewSystem(flows, db, db, log)

	srv := NewDashboardServer(flows, model, parquet, newsSvc, memorySys, log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, model
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestTrendsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, defaultStub())

	resp := postJSON(t, ts.URL+"/api/ai/trends", `{"marketData": "Gold rallying on weak USD."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decodeBody[flow.TrendsOutput](t, resp)
	if out.TrendSummary != "Bullish" || out.Confidence != 0.8 {
		t.Fatalf("body = %+v", out)
	}
}

func TestTrendsEndpointInvalidInput(t *testing.T) {
	ts, _ := newTestServer(t, defaultStub())

	resp := postJSON(t, ts.URL+"/api/ai/trends", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeBody[ErrorResponse](t, resp)
	if !strings.Contains(body.Error, "marketData") {
		t.Fatalf("error does not name the field: %q", body.Error)
	}
}

func TestRefusalMapsTo451(t *testing.T) {
	stub := defaultStub()
	stub.newsErr = &flow.RefusalError{Reason: "SAFETY"}
	ts, _ := newTestServer(t, stub)

	resp := postJSON(t, ts.URL+"/api/ai/news", `{"headline": "Conflict escalates"}`)
	if resp.StatusCode != http.StatusUnavailableForLegalReasons {
		t.Fatalf("status = %d, want 451", resp.StatusCode)
	}
}

func TestBackendFailureMapsTo502(t *testing.T) {
	stub := defaultStub()
	stub.trendsErr = &flow.NoOutputError{Flow: "summarizeMarketTrends"}
	ts, _ := newTestServer(t, stub)

	resp := postJSON(t, ts.URL+"/api/ai/trends", `{"marketData": "data"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestMalformedReplyMapsTo502(t *testing.T) {
	stub := defaultStub()
	stub.trendsErr = &flow.ValidationError{Field: "reasoning", Constraint: "is required", Output: true}
	ts, _ := newTestServer(t, stub)

	resp := postJSON(t, ts.URL+"/api/ai/trends", `{"marketData": "data"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 for reply-side validation", resp.StatusCode)
	}
}

// cannedCompleter returns a fixed reply for every completion call.
type cannedCompleter struct{ reply string }

func (c *cannedCompleter) Complete(context.Context, flow.CompletionRequest) (string, error) {
	return c.reply, nil
}

// "confidence" exists on both sides of the trends schema; the status must
// follow where the bad value came from, not the field name.
func TestReplyConfidenceOutOfRangeMapsTo502(t *testing.T) {
	flows := flow.NewLiveService(&cannedCompleter{
		reply: `{"trendSummary": "x", "suggestedTrades": "y", "confidence": 1.4, "reasoning": "z"}`,
	})
	ts, _ := newTestServer(t, flows)

	resp := postJSON(t, ts.URL+"/api/ai/trends", `{"marketData": "data"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 for reply-side confidence", resp.StatusCode)
	}
}

func TestInputConfidenceOutOfRangeMapsTo400(t *testing.T) {
	flows := flow.NewLiveService(&cannedCompleter{reply: `{"explanation": "ok"}`})
	ts, _ := newTestServer(t, flows)

	resp := postJSON(t, ts.URL+"/api/ai/explain", `{"asset": "Gold", "signalType": "BUY", "confidence": 1.4}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for caller-side confidence", resp.StatusCode)
	}
}

func TestCandlesEndpoint(t *testing.T) {
	ts, model := newTestServer(t, defaultStub())

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	model.Upsert(domain.Candle{Symbol: "XAUUSD", Time: now, Open: 2350, High: 2352, Low: 2349, Close: 2351, Volume: 10})

	resp, err := http.Get(ts.URL + "/api/candles/xauusd")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[CandlesResponse](t, resp)
	if body.Symbol != "XAUUSD" || len(body.Candles) != 1 {
		t.Fatalf("body = %+v", body)
	}

	resp, err = http.Get(ts.URL + "/api/candles")
	if err != nil {
		t.Fatalf("GET symbols: %v", err)
	}
	symbols := decodeBody[SymbolsResponse](t, resp)
	if len(symbols.Symbols) != 1 || symbols.Symbols[0] != "XAUUSD" {
		t.Fatalf("symbols = %+v", symbols)
	}
}

func TestCandleHistoryBadRange(t *testing.T) {
	ts, _ := newTestServer(t, defaultStub())

	resp, err := http.Get(ts.URL + "/api/candles/XAUUSD/history?start=yesterday")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInsightLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, defaultStub())

	resp := postJSON(t, ts.URL+"/api/insights", `{"headline": "Fed signals cuts", "source": "Reuters"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analyze status = %d", resp.StatusCode)
	}
	insight := decodeBody[domain.NewsInsight](t, resp)
	if insight.ID == "" || insight.ExpectedGoldReaction != domain.DirectionUp {
		t.Fatalf("insight = %+v", insight)
	}

	resp, err := http.Get(ts.URL + "/api/insights")
	if err != nil {
		t.Fatalf("GET insights: %v", err)
	}
	feed := decodeBody[InsightsResponse](t, resp)
	if len(feed.Insights) != 1 {
		t.Fatalf("feed = %+v", feed)
	}

	resp = postJSON(t, ts.URL+"/api/insights/"+insight.ID+"/flag", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("flag status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/insights/nope/flag", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("flag unknown status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReflectionLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, defaultStub())

	body := `{
		"asset": "Gold", "signalType": "BUY", "signalPrice": 1950,
		"predictedDirection": "up", "confidence": 0.85,
		"actualOutcome": "Win - Hit Take Profit at 1975"
	}`
	resp := postJSON(t, ts.URL+"/api/reflections", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record status = %d", resp.StatusCode)
	}
	reflection := decodeBody[domain.TradeReflection](t, resp)
	if reflection.ID == 0 || reflection.ReflectionNote != "Thesis held." {
		t.Fatalf("reflection = %+v", reflection)
	}

	resp, err := http.Get(ts.URL + "/api/reflections")
	if err != nil {
		t.Fatalf("GET reflections: %v", err)
	}
	list := decodeBody[ReflectionsResponse](t, resp)
	if len(list.Reflections) != 1 {
		t.Fatalf("list = %+v", list)
	}

	resp, err = http.Get(ts.URL + "/api/reflections/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	stats := decodeBody[memory.Stats](t, resp)
	if stats.Total != 1 || stats.Wins != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestSessionEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, defaultStub())

	resp := postJSON(t, ts.URL+"/api/sessions", `{"sessionDate": "2024-05-10", "sessionType": "US", "marketMood": "cautious"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/sessions/2024-05-10")
	if err != nil {
		t.Fatalf("GET sessions: %v", err)
	}
	body := decodeBody[SessionContextsResponse](t, resp)
	if len(body.Contexts) != 1 || body.Contexts[0].MarketMood != "cautious" {
		t.Fatalf("body = %+v", body)
	}
}
