package flow

import (
	"encoding/json"
	"strings"

	"synr/internal/domain"
)

// ExplanationMaxChars caps the signal explanation. The prompt asks for at
// most 30 words; the cap is the enforced proxy for that limit.
const ExplanationMaxChars = 200

// ExplainInput describes a trade signal to explain.
type ExplainInput struct {
	Asset            string            `json:"asset"`
	SignalType       domain.SignalType `json:"signalType"`
	Confidence       float64           `json:"confidence"`
	TechnicalContext string            `json:"technicalContext,omitempty"`
	NewsContext      string            `json:"newsContext,omitempty"`
	SessionInfo      string            `json:"sessionInfo,omitempty"`
}

// ExplainOutput is the validated reply of the signal explanation flow.
type ExplainOutput struct {
	Explanation string `json:"explanation"`
}

// Validate checks the required fields and their constraints.
func (in *ExplainInput) Validate() error {
	if err := requireText("asset", in.Asset); err != nil {
		return err
	}
	if !in.SignalType.Valid() {
		return &ValidationError{Field: "signalType", Constraint: "must be BUY, SELL, or AVOID"}
	}
	return checkUnit("confidence", in.Confidence)
}

func renderExplainPrompt(in ExplainInput) string {
	var b strings.Builder
	b.WriteString("You are an AI Trade Analyst. Your task is to generate a concise, human-readable explanation for a given trade signal.\n")
	b.WriteString("The explanation must be maximum 30 words.\n\n")
	b.WriteString("Trade Signal Details:\n")
	b.WriteString("Asset: " + in.Asset + "\n")
	b.WriteString("Signal Type: " + string(in.SignalType) + "\n")
	b.WriteString("Confidence: " + percent(in.Confidence) + "\n")
	if in.TechnicalContext != "" {
		b.WriteString("Technical Context: " + in.TechnicalContext + "\n")
	}
	if in.NewsContext != "" {
		b.WriteString("News Context: " + in.NewsContext + "\n")
	}
	if in.SessionInfo != "" {
		b.WriteString("Market Session: " + in.SessionInfo + "\n")
	}
	b.WriteString("\nBased on these details, provide a clear and brief explanation.\n")
	b.WriteString("Focus on the most critical factors.\n")
	b.WriteString("Example: \"Recommending BUY for Gold due to bullish EMA crossover and positive CPI news in the US session.\"\n")
	b.WriteString("Another example: \"AVOID trade on EURUSD due to conflicting technical signals and upcoming high-impact news.\"\n\n")
	b.WriteString("Respond with a single JSON object only: {\"explanation\": string, max 30 words}")
	return b.String()
}

func parseExplainOutput(raw string) (*ExplainOutput, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return nil, &ValidationError{Field: "output", Constraint: "contains no JSON object"}
	}

	var decoded struct {
		Explanation *string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, &ValidationError{Field: "output", Constraint: "is not valid JSON: " + err.Error()}
	}
	if decoded.Explanation == nil || strings.TrimSpace(*decoded.Explanation) == "" {
		return nil, &ValidationError{Field: "explanation", Constraint: "is required"}
	}
	if err := checkMaxLen("explanation", *decoded.Explanation, ExplanationMaxChars); err != nil {
		return nil, err
	}

	return &ExplainOutput{Explanation: *decoded.Explanation}, nil
}
