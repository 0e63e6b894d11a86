package flow

import "context"

// Service is the dashboard-facing AI flow surface. The live and mock
// implementations honor the same schemas, so callers are agnostic to which
// one is active.
type Service interface {
	SummarizeMarketTrends(ctx context.Context, in TrendsInput) (*TrendsOutput, error)
	Chat(ctx context.Context, in ChatInput) (*ChatOutput, error)
	AnalyzeNews(ctx context.Context, in NewsInput) (*NewsOutput, error)
	ExplainTradeSignal(ctx context.Context, in ExplainInput) (*ExplainOutput, error)
	ReflectOnTrade(ctx context.Context, in ReflectionInput) (*ReflectionOutput, error)
}

// UseMock reports whether the mock service should back the flows: outside
// production with no backend credential configured. The choice is made once
// at process start and held for the process lifetime; it is never
// re-evaluated per call.
func UseMock(production bool, apiKey string) bool {
	return !production && apiKey == ""
}
