package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"synr/internal/domain"
	"synr/internal/flow"
	"synr/internal/live"
	"synr/internal/memory"
	"synr/internal/news"
	"synr/internal/store"
)

// DashboardServer serves the dashboard HTTP API.
type DashboardServer struct {
	flows   flow.Service
	model   *live.CandleModel
	candles store.CandleStore
	news    *news.Service
	memory  *memory.System
	hub     *Hub
	log     *slog.Logger
}

// NewDashboardServer creates a new dashboard HTTP server. It wires the live
// candle model and the news service into the websocket hub so every merge
// and every new insight is pushed to connected clients.
func NewDashboardServer(
	flows flow.Service,
	model *live.CandleModel,
	candles store.CandleStore,
	newsSvc *news.Service,
	memorySys *memory.System,
	log *slog.Logger,
) *DashboardServer {
	s := &DashboardServer{
		flows:   flows,
		model:   model,
		candles: candles,
		news:    newsSvc,
		memory:  memorySys,
		hub:     NewHub(log),
		log:     log,
	}

	go s.hub.Run()
	go s.pumpCandles()
	newsSvc.OnInsight(func(in domain.NewsInsight) {
		s.hub.Broadcast("insight", in)
	})

	return s
}

// pumpCandles forwards candle model events to the websocket hub.
func (s *DashboardServer) pumpCandles() {
	_, ch := s.model.Subscribe(modelBufSize)
	for evt := range ch {
		s.hub.Broadcast("candle", evt.Candle)
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ai/trends", s.handleTrends)
	mux.HandleFunc("POST /api/ai/chat", s.handleChat)
	mux.HandleFunc("POST /api/ai/news", s.handleNewsFlow)
	mux.HandleFunc("POST /api/ai/explain", s.handleExplain)
	mux.HandleFunc("POST /api/ai/reflect", s.handleReflectFlow)

	mux.HandleFunc("GET /api/candles", s.handleSymbols)
	mux.HandleFunc("GET /api/candles/{symbol}", s.handleCandles)
	mux.HandleFunc("GET /api/candles/{symbol}/history", s.handleCandleHistory)

	mux.HandleFunc("GET /api/insights", s.handleInsights)
	mux.HandleFunc("POST /api/insights", s.handleAnalyze)
	mux.HandleFunc("POST /api/insights/{id}/flag", s.handleFlagInsight)

	mux.HandleFunc("GET /api/reflections", s.handleReflections)
	mux.HandleFunc("POST /api/reflections", s.handleRecordReflection)
	mux.HandleFunc("GET /api/reflections/stats", s.handleReflectionStats)

	mux.HandleFunc("POST /api/sessions", s.handleRecordSession)
	mux.HandleFunc("GET /api/sessions/{date}", s.handleSessions)

	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)
}

// Handler returns an http.Handler with CORS middleware.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// writeFlowError maps the flow error taxonomy onto HTTP statuses: invalid
// requests are the caller's fault, refusals carry the legal-block status,
// and everything else is a bad gateway.
func writeFlowError(w http.ResponseWriter, err error) {
	var verr *flow.ValidationError
	var rerr *flow.RefusalError

	switch {
	case errors.As(err, &rerr):
		writeError(w, http.StatusUnavailableForLegalReasons, err.Error())
	case errors.As(err, &verr):
		if verr.Output {
			// The request was fine; the backend's reply failed its schema.
			writeError(w, http.StatusBadGateway, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// parseLimit extracts a positive "limit" query param, defaulting to def.
func parseLimit(r *http.Request, def int) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// --- AI flow endpoints ---

func (s *DashboardServer) handleTrends(w http.ResponseWriter, r *http.Request) {
	var in flow.TrendsInput
	if !decodeJSON(w, r, &in) {
		return
	}
	out, err := s.flows.SummarizeMarketTrends(r.Context(), in)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *DashboardServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var in flow.ChatInput
	if !decodeJSON(w, r, &in) {
		return
	}
	out, err := s.flows.Chat(r.Context(), in)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *DashboardServer) handleNewsFlow(w http.ResponseWriter, r *http.Request) {
	var in flow.NewsInput
	if !decodeJSON(w, r, &in) {
		return
	}
	out, err := s.flows.AnalyzeNews(r.Context(), in)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *DashboardServer) handleExplain(w http.ResponseWriter, r *http.Request) {
	var in flow.ExplainInput
	if !decodeJSON(w, r, &in) {
		return
	}
	out, err := s.flows.ExplainTradeSignal(r.Context(), in)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *DashboardServer) handleReflectFlow(w http.ResponseWriter, r *http.Request) {
	var in flow.ReflectionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	out, err := s.flows.ReflectOnTrade(r.Context(), in)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, out)
}

// --- Candle endpoints ---

func (s *DashboardServer) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols := s.model.Symbols()
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, SymbolsResponse{Symbols: symbols})
}

func (s *DashboardServer) handleCandles(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	candles := s.model.Snapshot(symbol)
	if candles == nil {
		candles = []domain.Candle{}
	}
	writeJSON(w, CandlesResponse{Symbol: symbol, Candles: candles})
}

func (s *DashboardServer) handleCandleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7)
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be RFC3339")
			return
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be RFC3339")
			return
		}
		end = t
	}

	candles, err := s.candles.ReadCandles(r.Context(), symbol, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading candles: "+err.Error())
		return
	}
	if candles == nil {
		candles = []domain.Candle{}
	}
	writeJSON(w, CandlesResponse{Symbol: symbol, Candles: candles})
}

// --- Insight endpoints ---

func (s *DashboardServer) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.news.Recent(r.Context(), parseLimit(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing insights: "+err.Error())
		return
	}
	if insights == nil {
		insights = []domain.NewsInsight{}
	}
	writeJSON(w, InsightsResponse{Insights: insights})
}

func (s *DashboardServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	insight, err := s.news.Analyze(r.Context(), news.Article{
		Time:     time.Now().UTC(),
		Source:   req.Source,
		Headline: req.Headline,
		Content:  req.Content,
	})
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, insight)
}

func (s *DashboardServer) handleFlagInsight(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.news.FlagIrrelevant(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Reflection endpoints ---

func (s *DashboardServer) handleReflections(w http.ResponseWriter, r *http.Request) {
	reflections, err := s.memory.History(r.Context(), parseLimit(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing reflections: "+err.Error())
		return
	}
	if reflections == nil {
		reflections = []domain.TradeReflection{}
	}
	writeJSON(w, ReflectionsResponse{Reflections: reflections})
}

func (s *DashboardServer) handleRecordReflection(w http.ResponseWriter, r *http.Request) {
	var in flow.ReflectionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	reflection, err := s.memory.RecordReflection(r.Context(), in)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, reflection)
}

func (s *DashboardServer) handleReflectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.memory.AccuracyStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "computing stats: "+err.Error())
		return
	}
	writeJSON(w, stats)
}

// --- Session endpoints ---

func (s *DashboardServer) handleRecordSession(w http.ResponseWriter, r *http.Request) {
	var sc domain.SessionContext
	if !decodeJSON(w, r, &sc) {
		return
	}
	if err := s.memory.RecordSessionContext(r.Context(), &sc); err != nil {
		writeError(w, http.StatusInternalServerError, "saving session context: "+err.Error())
		return
	}
	writeJSON(w, sc)
}

func (s *DashboardServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	contexts, err := s.memory.SessionContexts(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing session contexts: "+err.Error())
		return
	}
	if contexts == nil {
		contexts = []domain.SessionContext{}
	}
	writeJSON(w, SessionContextsResponse{Date: date, Contexts: contexts})
}
