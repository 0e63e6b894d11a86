package flow

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTrendsInputDefaultsTargetAsset(t *testing.T) {
	in := TrendsInput{MarketData: "Gold rallied overnight on weak USD."}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if in.TargetAsset != "Gold" {
		t.Fatalf("TargetAsset = %q, want Gold", in.TargetAsset)
	}
}

func TestTrendsInputRequiresMarketData(t *testing.T) {
	in := TrendsInput{MarketData: "   "}
	err := in.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate = %v, want ValidationError", err)
	}
	if verr.Field != "marketData" {
		t.Fatalf("Field = %q, want marketData", verr.Field)
	}
}

func TestRenderTrendsPromptDeterministic(t *testing.T) {
	in := TrendsInput{MarketData: "Price at 1950, CPI tomorrow.", TargetAsset: "Gold"}
	a := renderTrendsPrompt(in)
	b := renderTrendsPrompt(in)
	if a != b {
		t.Fatal("two renders of the same input differ")
	}
	if a == "" {
		t.Fatal("rendered prompt is empty")
	}
}

func TestRenderTrendsPromptUsesDefaultedAsset(t *testing.T) {
	in := TrendsInput{MarketData: "Choppy session."}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	withDefault := renderTrendsPrompt(in)
	in.TargetAsset = "Gold"
	explicit := renderTrendsPrompt(in)
	if withDefault != explicit {
		t.Fatal("defaulted input renders differently from explicit Gold")
	}
}

func TestParseTrendsOutput(t *testing.T) {
	raw := `Here is my analysis:
{"trendSummary": "Bullish", "suggestedTrades": "BUY above 1955", "confidence": 0.85, "reasoning": "Momentum"}
`
	out, err := parseTrendsOutput(raw)
	if err != nil {
		t.Fatalf("parseTrendsOutput: %v", err)
	}
	if out.TrendSummary != "Bullish" || out.Confidence != 0.85 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestParseTrendsOutputMissingFieldNamesIt(t *testing.T) {
	raw := `{"trendSummary": "Bullish", "suggestedTrades": "BUY", "reasoning": "Momentum"}`
	_, err := parseTrendsOutput(raw)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "confidence" {
		t.Fatalf("Field = %q, want confidence", verr.Field)
	}
}

func TestParseTrendsOutputConfidenceRange(t *testing.T) {
	raw := `{"trendSummary": "Bullish", "suggestedTrades": "BUY", "confidence": 1.4, "reasoning": "Momentum"}`
	_, err := parseTrendsOutput(raw)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "confidence" {
		t.Fatalf("Field = %q, want confidence", verr.Field)
	}
}

func TestParseTrendsOutputNoJSON(t *testing.T) {
	_, err := parseTrendsOutput("sorry, I cannot help with that")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

// A valid output re-encoded and parsed again must come back unchanged.
func TestParseTrendsOutputRoundTrip(t *testing.T) {
	out := &TrendsOutput{
		TrendSummary:    "Consolidating below resistance",
		SuggestedTrades: NoTradeSetup,
		Confidence:      0.6,
		Reasoning:       "Mixed signals across sessions.",
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := parseTrendsOutput(string(encoded))
	if err != nil {
		t.Fatalf("parseTrendsOutput: %v", err)
	}
	if *again != *out {
		t.Fatalf("round trip changed output: %+v != %+v", again, out)
	}
}
