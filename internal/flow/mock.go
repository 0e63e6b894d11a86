package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"synr/internal/domain"
)

// Compile-time interface check.
var _ Service = (*MockService)(nil)

// MockService returns locally fabricated replies after an artificial delay,
// preserving realistic loading-state behavior during development. It applies
// the same input validation and output schemas as the live service.
type MockService struct {
	// unit scales every simulated delay; production value is
	// time.Millisecond, tests shrink it.
	unit time.Duration
}

// NewMockService creates a MockService with realistic delays.
func NewMockService() *MockService {
	return &MockService{unit: time.Millisecond}
}

// MaxDelay is the longest simulated latency of any mock flow.
func (s *MockService) MaxDelay() time.Duration {
	return 1200 * s.unit
}

// sleep waits for the flow's simulated latency, honoring cancellation.
func (s *MockService) sleep(ctx context.Context, ms int) error {
	select {
	case <-ctx.Done():
		return &InvocationError{Cause: ctx.Err(), Timeout: true}
	case <-time.After(time.Duration(ms) * s.unit):
		return nil
	}
}

// SummarizeMarketTrends returns a canned bullish Gold analysis.
func (s *MockService) SummarizeMarketTrends(ctx context.Context, in TrendsInput) (*TrendsOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("summarize market trends: %w", err)
	}
	if err := s.sleep(ctx, 1000); err != nil {
		return nil, err
	}
	return &TrendsOutput{
		TrendSummary:    fmt.Sprintf("Based on the provided market data, %s is showing bullish momentum with strong support at key levels. Current price action suggests continued upward pressure.", in.TargetAsset),
		SuggestedTrades: fmt.Sprintf("Consider BUY on %s if price breaks above 1955 resistance, with SL at 1948 and target at 1975.", in.TargetAsset),
		Confidence:      0.85,
		Reasoning:       "Analysis based on technical indicators showing oversold conditions and positive market sentiment from recent economic data.",
	}, nil
}

// Chat returns a canned assistant reply echoing the user's message.
func (s *MockService) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	if err := s.sleep(ctx, 800); err != nil {
		return nil, err
	}
	return &ChatOutput{
		AIResponse: fmt.Sprintf("I understand you're asking about %q. Based on current market conditions, I'd recommend staying cautious and watching key support/resistance levels. Would you like me to explain any specific technical patterns?", in.UserMessage),
	}, nil
}

// AnalyzeNews returns a canned gold-positive analysis.
func (s *MockService) AnalyzeNews(ctx context.Context, in NewsInput) (*NewsOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("analyze news: %w", err)
	}
	if err := s.sleep(ctx, 1200); err != nil {
		return nil, err
	}
	confidence := 0.75
	return &NewsOutput{
		KeyEntities: []string{"Federal Reserve", "USD", "Gold", "Inflation"},
		Topics:      []string{"Monetary Policy", "Economic Data", "Market Sentiment"},
		Sentiment: Sentiment{
			Score: 0.3,
			Label: domain.SentimentPositive,
		},
		ImpactEstimation: ImpactEstimation{
			TargetAsset: DefaultAsset,
			Direction:   domain.DirectionUp,
			Magnitude:   domain.MagnitudeMedium,
			Confidence:  &confidence,
			Reasoning:   "Positive sentiment towards gold as a hedge against potential monetary policy changes.",
		},
		Summary: "The news indicates potential positive impact on gold prices due to monetary policy uncertainty and inflation concerns.",
	}, nil
}

// ExplainTradeSignal assembles an explanation from the input fields.
func (s *MockService) ExplainTradeSignal(ctx context.Context, in ExplainInput) (*ExplainOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("explain trade signal: %w", err)
	}
	if err := s.sleep(ctx, 500); err != nil {
		return nil, err
	}
	technical := in.TechnicalContext
	if technical == "" {
		technical = "strong technical setup"
	}
	news := in.NewsContext
	if news == "" {
		news = "favorable market conditions"
	}
	explanation := fmt.Sprintf("Suggesting %s for %s due to %s and %s.", in.SignalType, in.Asset, technical, news)
	if len(explanation) > ExplanationMaxChars {
		explanation = explanation[:ExplanationMaxChars]
	}
	return &ExplainOutput{Explanation: explanation}, nil
}

// ReflectOnTrade assembles a reflection note from the outcome fields.
func (s *MockService) ReflectOnTrade(ctx context.Context, in ReflectionInput) (*ReflectionOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("trade reflection: %w", err)
	}
	if err := s.sleep(ctx, 600); err != nil {
		return nil, err
	}
	verdict := "failed"
	if strings.Contains(in.ActualOutcome, "Win") {
		verdict = "succeeded"
	}
	reason := in.ReasonForActualOutcome
	if reason == "" {
		reason = "market conditions"
	}
	assessment := "Confidence level was appropriate."
	if in.Confidence > 0.8 {
		assessment = "High confidence was justified."
	}
	note := fmt.Sprintf("%s signal for %s %s due to %s. %s", in.SignalType, in.Asset, verdict, reason, assessment)
	if len(note) > ReflectionMaxChars {
		note = note[:ReflectionMaxChars]
	}
	return &ReflectionOutput{ReflectionNote: note}, nil
}
