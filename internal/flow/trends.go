package flow

import (
	"encoding/json"
	"strings"
)

// DefaultAsset is the instrument every flow focuses on unless the input or
// the analysed news strongly implies another one.
const DefaultAsset = "Gold"

// NoTradeSetup is the fixed suggestedTrades value the model is instructed to
// return when no clear setup exists.
const NoTradeSetup = "No clear trade setup identified."

// TrendsInput describes market conditions to summarize.
type TrendsInput struct {
	// MarketData is a text block describing the latest market conditions:
	// price action, headlines, sentiment, technical observations.
	MarketData string `json:"marketData"`
	// TargetAsset focuses the summary; defaults to Gold.
	TargetAsset string `json:"targetAsset,omitempty"`
}

// TrendsOutput is the validated reply of the trend summary flow.
type TrendsOutput struct {
	TrendSummary    string  `json:"trendSummary"`
	SuggestedTrades string  `json:"suggestedTrades"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

// Validate checks required fields and applies input defaults in place.
func (in *TrendsInput) Validate() error {
	if err := requireText("marketData", in.MarketData); err != nil {
		return err
	}
	if strings.TrimSpace(in.TargetAsset) == "" {
		in.TargetAsset = DefaultAsset
	}
	return nil
}

func renderTrendsPrompt(in TrendsInput) string {
	var b strings.Builder
	b.WriteString("You are an AI Market Analyst. Your task is to analyze the provided market data, summarize the current trends for ")
	b.WriteString(in.TargetAsset)
	b.WriteString(", suggest potential trade ideas for ")
	b.WriteString(in.TargetAsset)
	b.WriteString(", provide a confidence score for your analysis, and briefly state your reasoning.\n\n")
	b.WriteString("Provided Market Data:\n")
	b.WriteString(in.MarketData)
	b.WriteString("\n\nBased on this data:\n")
	b.WriteString("1. Trend Summary: What are the key current trends for " + in.TargetAsset + "? (e.g., bullish, bearish, consolidating, volatile).\n")
	b.WriteString("2. Suggested Trades: Are there any potential trade setups for " + in.TargetAsset + " (BUY, SELL, or AVOID)? If so, briefly describe (e.g., \"Consider BUY if X happens\"). If not, state \"" + NoTradeSetup + "\"\n")
	b.WriteString("3. Confidence: How confident are you in this analysis and suggestions (0.0 to 1.0)?\n")
	b.WriteString("4. Reasoning: Briefly explain the basis for your summary and suggestions.\n\n")
	b.WriteString("Respond with a single JSON object only, with exactly these keys:\n")
	b.WriteString(`{"trendSummary": string, "suggestedTrades": string, "confidence": number 0-1, "reasoning": string}` + "\n")
	b.WriteString("Focus on " + in.TargetAsset + ".")
	return b.String()
}

// parseTrendsOutput validates the backend's raw reply against the output
// schema. Missing required fields are hard failures.
func parseTrendsOutput(raw string) (*TrendsOutput, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, &ValidationError{Field: "output", Constraint: "contains no JSON object"}
	}

	var decoded struct {
		TrendSummary    *string  `json:"trendSummary"`
		SuggestedTrades *string  `json:"suggestedTrades"`
		Confidence      *float64 `json:"confidence"`
		Reasoning       *string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, &ValidationError{Field: "output", Constraint: "is not valid JSON: " + err.Error()}
	}

	if decoded.TrendSummary == nil {
		return nil, &ValidationError{Field: "trendSummary", Constraint: "is required"}
	}
	if decoded.SuggestedTrades == nil {
		return nil, &ValidationError{Field: "suggestedTrades", Constraint: "is required"}
	}
	if decoded.Confidence == nil {
		return nil, &ValidationError{Field: "confidence", Constraint: "is required"}
	}
	if err := checkUnit("confidence", *decoded.Confidence); err != nil {
		return nil, err
	}
	if decoded.Reasoning == nil {
		return nil, &ValidationError{Field: "reasoning", Constraint: "is required"}
	}

	return &TrendsOutput{
		TrendSummary:    *decoded.TrendSummary,
		SuggestedTrades: *decoded.SuggestedTrades,
		Confidence:      *decoded.Confidence,
		Reasoning:       *decoded.Reasoning,
	}, nil
}
