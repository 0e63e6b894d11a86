package flow

import (
	"errors"
	"strings"
	"testing"

	"synr/internal/domain"
)

func TestExplainInputValidate(t *testing.T) {
	in := ExplainInput{Asset: "Gold", SignalType: domain.SignalBuy, Confidence: 0.8}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	in.SignalType = "HOLD"
	var verr *ValidationError
	if !errors.As(in.Validate(), &verr) || verr.Field != "signalType" {
		t.Fatalf("Validate did not flag signalType: %v", in.Validate())
	}

	in.SignalType = domain.SignalBuy
	in.Confidence = 1.2
	if !errors.As(in.Validate(), &verr) || verr.Field != "confidence" {
		t.Fatalf("Validate did not flag confidence: %v", in.Validate())
	}
}

func TestRenderExplainPromptConfidenceAsPercent(t *testing.T) {
	prompt := renderExplainPrompt(ExplainInput{
		Asset:      "Gold",
		SignalType: domain.SignalBuy,
		Confidence: 0.85,
	})
	if !strings.Contains(prompt, "Confidence: 85%") {
		t.Fatalf("confidence not rendered as percentage:\n%s", prompt)
	}
}

func TestRenderExplainPromptOptionalContext(t *testing.T) {
	full := renderExplainPrompt(ExplainInput{
		Asset:            "Gold",
		SignalType:       domain.SignalSell,
		Confidence:       0.6,
		TechnicalContext: "EMA cross down",
		NewsContext:      "Hot CPI print",
		SessionInfo:      "US session",
	})
	for _, want := range []string{"Technical Context: EMA cross down", "News Context: Hot CPI print", "Market Session: US session"} {
		if !strings.Contains(full, want) {
			t.Fatalf("missing %q in prompt", want)
		}
	}
	bare := renderExplainPrompt(ExplainInput{Asset: "Gold", SignalType: domain.SignalSell, Confidence: 0.6})
	if strings.Contains(bare, "Technical Context:") || strings.Contains(bare, "News Context:") {
		t.Fatal("optional context rendered for empty fields")
	}
}

func TestParseExplainOutputEnforcesCap(t *testing.T) {
	long := strings.Repeat("x", ExplanationMaxChars+1)
	_, err := parseExplainOutput(`{"explanation": "` + long + `"}`)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "explanation" {
		t.Fatalf("err = %v, want ValidationError on explanation", err)
	}

	out, err := parseExplainOutput(`{"explanation": "Recommending BUY for Gold due to bullish EMA crossover."}`)
	if err != nil {
		t.Fatalf("parseExplainOutput: %v", err)
	}
	if len(out.Explanation) > ExplanationMaxChars {
		t.Fatalf("explanation length %d exceeds cap", len(out.Explanation))
	}
}
