package flow

import (
	"context"
	"errors"
	"fmt"
)

// Compile-time interface check.
var _ Service = (*LiveService)(nil)

// LiveService runs every flow against a real completion backend. Each call
// validates the input, renders the prompt, makes a single backend attempt,
// and validates the reply; the first error encountered aborts the flow.
type LiveService struct {
	completer Completer
}

// NewLiveService creates a LiveService backed by the given Completer.
func NewLiveService(c Completer) *LiveService {
	return &LiveService{completer: c}
}

// markOutput tags a validation failure as raised against the backend reply.
// Input validation runs before the backend call, so only errors from the
// parse stage pass through here.
func markOutput(err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		verr.Output = true
	}
	return err
}

// SummarizeMarketTrends analyses a market description and suggests trades.
func (s *LiveService) SummarizeMarketTrends(ctx context.Context, in TrendsInput) (*TrendsOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("summarize market trends: %w", err)
	}
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		Flow:       "summarizeMarketTrends",
		Prompt:     renderTrendsPrompt(in),
		JSONOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("summarize market trends: %w", err)
	}
	out, err := parseTrendsOutput(raw)
	if err != nil {
		return nil, fmt.Errorf("summarize market trends: %w", markOutput(err))
	}
	return out, nil
}

// Chat answers one user message, replaying any caller-supplied history.
func (s *LiveService) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		Flow:       "dashboardChat",
		Prompt:     renderChatPrompt(in),
		JSONOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	out, err := parseChatOutput(raw)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", markOutput(err))
	}
	return out, nil
}

// AnalyzeNews extracts entities, topics, sentiment, and impact from an
// article.
func (s *LiveService) AnalyzeNews(ctx context.Context, in NewsInput) (*NewsOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("analyze news: %w", err)
	}
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		Flow:           "analyzeNews",
		Prompt:         renderNewsPrompt(in),
		JSONOutput:     true,
		SafetySettings: newsSafetySettings,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze news: %w", err)
	}
	out, err := parseNewsOutput(raw)
	if err != nil {
		return nil, fmt.Errorf("analyze news: %w", markOutput(err))
	}
	return out, nil
}

// ExplainTradeSignal produces a short human-readable signal explanation.
func (s *LiveService) ExplainTradeSignal(ctx context.Context, in ExplainInput) (*ExplainOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("explain trade signal: %w", err)
	}
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		Flow:       "explainTradeSignal",
		Prompt:     renderExplainPrompt(in),
		JSONOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("explain trade signal: %w", err)
	}
	out, err := parseExplainOutput(raw)
	if err != nil {
		return nil, fmt.Errorf("explain trade signal: %w", markOutput(err))
	}
	return out, nil
}

// ReflectOnTrade produces a post-outcome reflection note for a signal.
func (s *LiveService) ReflectOnTrade(ctx context.Context, in ReflectionInput) (*ReflectionOutput, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("trade reflection: %w", err)
	}
	raw, err := s.completer.Complete(ctx, CompletionRequest{
		Flow:       "tradeReflection",
		Prompt:     renderReflectionPrompt(in),
		JSONOutput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("trade reflection: %w", err)
	}
	out, err := parseReflectionOutput(raw)
	if err != nil {
		return nil, fmt.Errorf("trade reflection: %w", markOutput(err))
	}
	return out, nil
}
